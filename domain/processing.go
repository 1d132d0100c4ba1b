package domain

import (
	"errors"
)

const (
	// CostReceiptProcessing is the number of credits one successful
	// extraction consumes.
	CostReceiptProcessing = 1

	// MaxConfidenceWithWarnings caps the extractor's reported confidence
	// when validation warnings are present.
	MaxConfidenceWithWarnings = 0.6

	// RetryConfidenceThreshold marks a completed receipt as eligible for
	// low-confidence re-extraction.
	RetryConfidenceThreshold = 0.7
)

var (
	MessageSuccessProcessReceipt = "receipt processed successfully"
	MessageSuccessRetryReceipt   = "receipt reprocessed successfully"
	MessageSuccessResetReceipt   = "receipt processing state reset"
	MessageSuccessBulkProcess    = "bulk processing finished"

	MessageFailedProcessReceipt = "failed to process receipt"
	MessageFailedRetryReceipt   = "failed to reprocess receipt"
	MessageFailedResetReceipt   = "failed to reset receipt processing state"
	MessageFailedBulkProcess    = "failed to run bulk processing"

	ErrAlreadyProcessed     = errors.New("receipt already processed")
	ErrProcessingInProgress = errors.New("receipt is currently being processed")
	ErrExtractionFailed     = errors.New("receipt extraction failed")
	ErrRetryNotEligible     = errors.New("receipt is not eligible for retry")
	ErrReceiptNotProcessing = errors.New("receipt is not in processing state")

	BulkReasonInsufficientCredits = "insufficient credits"
)

type (
	ProcessReceiptResponse struct {
		Receipt            ReceiptResponse `json:"receipt"`
		ValidationWarnings []string        `json:"validation_warnings,omitempty"`
		CreditsRemaining   int             `json:"credits_remaining"`
		ProcessingTimeMs   int64           `json:"processing_time_ms"`
	}

	RetryReceiptResponse struct {
		Receipt            ReceiptResponse `json:"receipt"`
		ValidationWarnings []string        `json:"validation_warnings,omitempty"`
		ProcessingTimeMs   int64           `json:"processing_time_ms"`
	}

	BulkProcessRequest struct {
		ReceiptIDs []string `json:"receipt_ids" validate:"required,min=1,dive,uuid"`
	}

	BulkItemResult struct {
		ReceiptID string `json:"receipt_id"`
		Success   bool   `json:"success"`
		Error     string `json:"error,omitempty"`
	}

	BulkProcessResponse struct {
		Total            int              `json:"total"`
		Successful       int              `json:"successful"`
		Failed           int              `json:"failed"`
		CreditsUsed      int              `json:"credits_used"`
		CreditsRemaining int              `json:"credits_remaining"`
		Results          []BulkItemResult `json:"results"`
	}
)
