package handlers

import (
	"Receiptify-Backend/domain"
	"Receiptify-Backend/internal/api/presenters"
	"Receiptify-Backend/pkg/midtrans"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	MidtransHandler interface {
		BuyCredits(c *fiber.Ctx) error
		MidtransWebhookHandler(c *fiber.Ctx) error
	}

	midtransHandler struct {
		midtransService midtrans.MidtransService
		validator       *validator.Validate
	}
)

func NewMidtransHandler(midtransService midtrans.MidtransService, validator *validator.Validate) MidtransHandler {
	return &midtransHandler{
		midtransService: midtransService,
		validator:       validator,
	}
}

func (h *midtransHandler) BuyCredits(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	req := new(domain.BuyCreditsRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBuyCredits, err)
	}

	res, err := h.midtransService.BuyCredits(c.Context(), *req, userID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCreditPackage) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedBuyCredits, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBuyCredits, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessBuyCredits)
}

func (h *midtransHandler) MidtransWebhookHandler(c *fiber.Ctx) error {
	var notification struct {
		OrderID string `json:"order_id"`
	}
	if err := c.BodyParser(&notification); err != nil || notification.OrderID == "" {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.midtransService.HandleNotification(c.Context(), notification.OrderID); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedProcessRequest, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, "notification processed")
}
