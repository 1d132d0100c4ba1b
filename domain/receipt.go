package domain

import (
	"errors"
	"mime/multipart"
	"time"
)

var (
	MessageSuccessUploadReceipt = "receipt uploaded successfully"
	MessageSuccessGetReceipt    = "receipt retrieved successfully"
	MessageSuccessGetReceipts   = "receipts retrieved successfully"

	MessageFailedUploadReceipt = "failed to upload receipt"
	MessageFailedGetReceipt    = "failed to retrieve receipt"
	MessageFailedGetReceipts   = "failed to retrieve receipts"

	ErrReceiptNotFound    = errors.New("receipt not found")
	ErrNotReceiptOwner    = errors.New("receipt does not belong to user")
	ErrInvalidFileFormat  = errors.New("invalid receipt file format")
	ErrInvalidDocumentType = errors.New("invalid document type")
)

type (
	UploadReceiptRequest struct {
		ReceiptFile  *multipart.FileHeader `json:"receipt_file" form:"receipt_file" validate:"required"`
		DocumentType string                `json:"document_type" form:"document_type" validate:"omitempty,oneof=generic invoice medical"`
	}

	UploadReceiptResponse struct {
		ID               string `json:"id"`
		FileName         string `json:"file_name"`
		DocumentType     string `json:"document_type"`
		ProcessingStatus string `json:"processing_status"`
	}

	ReceiptResponse struct {
		ID               string         `json:"id"`
		FileName         string         `json:"file_name"`
		DocumentType     string         `json:"document_type"`
		ProcessingStatus string         `json:"processing_status"`
		ProcessingError  *string        `json:"processing_error,omitempty"`
		MerchantName     string         `json:"merchant_name,omitempty"`
		Total            float64        `json:"total"`
		CurrencyCode     string         `json:"currency_code,omitempty"`
		TxDate           *string        `json:"tx_date,omitempty"`
		Category         string         `json:"category,omitempty"`
		Tax              *float64       `json:"tax,omitempty"`
		PaymentMethod    string         `json:"payment_method,omitempty"`
		ConfidenceScore  float64        `json:"confidence_score"`
		Attributes       map[string]any `json:"attributes,omitempty"`
		CreatedAt        time.Time      `json:"created_at"`
	}
)
