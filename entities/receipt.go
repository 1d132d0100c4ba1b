package entities

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReceiptStatusPending    = "pending"
	ReceiptStatusProcessing = "processing"
	ReceiptStatusCompleted  = "completed"
	ReceiptStatusFailed     = "failed"
)

const (
	DocumentTypeGeneric = "generic"
	DocumentTypeInvoice = "invoice"
	DocumentTypeMedical = "medical"
)

type Receipt struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID       uuid.UUID `gorm:"index" json:"user_id"`
	StoragePath  string    `json:"storage_path"`
	FileName     string    `json:"file_name"`
	MimeType     string    `json:"mime_type"`
	FileSize     int64     `json:"file_size"`
	DocumentType string    `gorm:"default:generic" json:"document_type"` // "generic", "invoice", "medical"

	ProcessingStatus string  `gorm:"index;default:pending" json:"processing_status"` // "pending", "processing", "completed", "failed"
	ProcessingError  *string `gorm:"type:text" json:"processing_error,omitempty"`

	MerchantName    string     `json:"merchant_name,omitempty"`
	Total           float64    `json:"total"`
	CurrencyCode    string     `json:"currency_code,omitempty"`
	TxDate          *time.Time `json:"tx_date,omitempty"`
	Category        string     `json:"category,omitempty"`
	Tax             *float64   `json:"tax,omitempty"`
	PaymentMethod   string     `json:"payment_method,omitempty"`
	ConfidenceScore float64    `json:"confidence_score"`
	RawText         string     `gorm:"type:text" json:"raw_text,omitempty"`
	// Attributes holds the document-type specific fields as opaque JSON.
	// The processing pipeline persists it but never interprets it.
	Attributes string `gorm:"type:text" json:"attributes,omitempty"`

	User *User `gorm:"foreignKey:UserID"`
	Timestamp
}
