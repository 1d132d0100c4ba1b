package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessGetUserCredits    = "user credits retrieved successfully"
	MessageSuccessBuyCredits        = "credit purchase created successfully"
	MessageSuccessGetCreditPackages = "credit packages retrieved successfully"
	MessageSuccessGetCreditHistory  = "credit transaction history retrieved successfully"

	MessageFailedGetUserCredits    = "failed to retrieve user credits"
	MessageFailedBuyCredits        = "failed to purchase credits"
	MessageFailedGetCreditPackages = "failed to retrieve credit packages"
	MessageFailedGetCreditHistory  = "failed to retrieve credit transaction history"

	ErrInsufficientCredits  = errors.New("insufficient credits")
	ErrInvalidCreditPackage = errors.New("invalid credit package")
	ErrPaymentFailed        = errors.New("payment processing failed")
	ErrInvalidCreditAmount  = errors.New("credit amount must be positive")
)

type (
	CreditPackage struct {
		ID          string  `json:"id"`
		Name        string  `json:"name"`
		Credits     int     `json:"credits"`
		Price       float64 `json:"price"`
		Currency    string  `json:"currency"`
		Description string  `json:"description,omitempty"`
		IsPopular   bool    `json:"is_popular"`
	}

	BuyCreditsRequest struct {
		PackageID string `json:"package_id" validate:"required,uuid"`
		Email     string `json:"email" validate:"required,email"`
	}

	BuyCreditsResponse struct {
		OrderID    string `json:"order_id"`
		InvoiceURL string `json:"invoice_url"`
	}

	UserCredits struct {
		Balance        int `json:"balance"`
		TotalPurchased int `json:"total_purchased"`
		TotalUsed      int `json:"total_used"`
	}

	CreditTransaction struct {
		ID          string    `json:"id"`
		UserID      string    `json:"user_id"`
		Amount      int       `json:"amount"`
		Type        string    `json:"type"`
		Description string    `json:"description"`
		ReceiptID   *string   `json:"receipt_id,omitempty"`
		CreatedAt   time.Time `json:"created_at"`
	}
)
