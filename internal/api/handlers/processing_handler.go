package handlers

import (
	"Receiptify-Backend/domain"
	"Receiptify-Backend/internal/api/presenters"
	"Receiptify-Backend/pkg/processing"
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const (
	// Per-item budget for bulk processing plus a fixed buffer, used to bound
	// the whole batch with one context deadline.
	bulkItemBudget = 90 * time.Second
	bulkBuffer     = 30 * time.Second
)

type (
	ProcessingHandler interface {
		ProcessReceipt(c *fiber.Ctx) error
		RetryReceipt(c *fiber.Ctx) error
		ResetReceipt(c *fiber.Ctx) error
		BulkProcess(c *fiber.Ctx) error
	}

	processingHandler struct {
		processingService processing.ProcessingService
		validator         *validator.Validate
	}
)

func NewProcessingHandler(processingService processing.ProcessingService, validator *validator.Validate) ProcessingHandler {
	return &processingHandler{
		processingService: processingService,
		validator:         validator,
	}
}

func (h *processingHandler) ProcessReceipt(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	receiptID := c.Params("id")

	res, err := h.processingService.ProcessReceipt(c.Context(), receiptID, userID)
	if err != nil {
		return presenters.ErrorResponse(c, processingStatusCode(err), domain.MessageFailedProcessReceipt, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessProcessReceipt)
}

func (h *processingHandler) RetryReceipt(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	receiptID := c.Params("id")

	res, err := h.processingService.RetryReceipt(c.Context(), receiptID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrExtractionFailed) {
			// Retry is free, so the client may try again without purchasing.
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success":   false,
				"message":   domain.MessageFailedRetryReceipt,
				"error":     err.Error(),
				"retryable": true,
			})
		}
		return presenters.ErrorResponse(c, processingStatusCode(err), domain.MessageFailedRetryReceipt, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessRetryReceipt)
}

func (h *processingHandler) ResetReceipt(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	receiptID := c.Params("id")

	if err := h.processingService.ResetReceipt(c.Context(), receiptID, userID); err != nil {
		return presenters.ErrorResponse(c, processingStatusCode(err), domain.MessageFailedResetReceipt, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessResetReceipt)
}

func (h *processingHandler) BulkProcess(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	req := new(domain.BulkProcessRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBulkProcess, err)
	}

	timeout := time.Duration(len(req.ReceiptIDs))*bulkItemBudget + bulkBuffer
	ctx, cancel := context.WithTimeout(c.Context(), timeout)
	defer cancel()

	// Per-item failures are embedded in the summary; the batch itself only
	// fails on malformed requests or a broken balance read.
	res, err := h.processingService.ProcessBulk(ctx, *req, userID)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedBulkProcess, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessBulkProcess)
}

func processingStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrReceiptNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrNotReceiptOwner):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrAlreadyProcessed),
		errors.Is(err, domain.ErrProcessingInProgress),
		errors.Is(err, domain.ErrRetryNotEligible),
		errors.Is(err, domain.ErrReceiptNotProcessing):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrInsufficientCredits):
		return fiber.StatusPaymentRequired
	default:
		return fiber.StatusInternalServerError
	}
}
