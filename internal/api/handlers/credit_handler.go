package handlers

import (
	"Receiptify-Backend/domain"
	"Receiptify-Backend/internal/api/presenters"
	"Receiptify-Backend/pkg/credit"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	CreditHandler interface {
		GetUserCredits(c *fiber.Ctx) error
		GetCreditPackages(c *fiber.Ctx) error
		GetCreditTransactionHistory(c *fiber.Ctx) error
	}

	creditHandler struct {
		creditService credit.CreditService
		validator     *validator.Validate
	}
)

func NewCreditHandler(creditService credit.CreditService, validator *validator.Validate) CreditHandler {
	return &creditHandler{
		creditService: creditService,
		validator:     validator,
	}
}

func (h *creditHandler) GetUserCredits(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	credits, err := h.creditService.GetUserCredits(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetUserCredits, err)
	}

	return presenters.SuccessResponse(c, credits, fiber.StatusOK, domain.MessageSuccessGetUserCredits)
}

func (h *creditHandler) GetCreditPackages(c *fiber.Ctx) error {
	packages, err := h.creditService.GetCreditPackages(c.Context())
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetCreditPackages, err)
	}

	return presenters.SuccessResponse(c, packages, fiber.StatusOK, domain.MessageSuccessGetCreditPackages)
}

func (h *creditHandler) GetCreditTransactionHistory(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}

	transactions, count, err := h.creditService.GetCreditTransactionHistory(c.Context(), userID, page, limit)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetCreditHistory, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"transactions": transactions,
		"pagination": fiber.Map{
			"page":        page,
			"limit":       limit,
			"total":       count,
			"total_pages": (count + int64(limit) - 1) / int64(limit),
		},
	}, fiber.StatusOK, domain.MessageSuccessGetCreditHistory)
}
