package processing

import (
	"Receiptify-Backend/domain"
	"Receiptify-Backend/entities"
	"Receiptify-Backend/internal/utils/storage"
	"Receiptify-Backend/pkg/credit"
	"Receiptify-Backend/pkg/receipt"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const presignTTL = 15 * time.Minute

type (
	ProcessingService interface {
		// ProcessReceipt drives one receipt through extraction, validation
		// and billing. Exactly one deduction is recorded per receipt that
		// completes through this path.
		ProcessReceipt(ctx context.Context, receiptID string, userID string) (*domain.ProcessReceiptResponse, error)

		// RetryReceipt re-runs extraction for a stuck, failed, or
		// low-confidence receipt. It never touches the credit ledger.
		RetryReceipt(ctx context.Context, receiptID string, userID string) (*domain.RetryReceiptResponse, error)

		// ResetReceipt moves a receipt stuck in the processing state back to
		// failed so it becomes retry-eligible again.
		ResetReceipt(ctx context.Context, receiptID string, userID string) error

		ProcessBulk(ctx context.Context, req domain.BulkProcessRequest, userID string) (*domain.BulkProcessResponse, error)
	}

	processingService struct {
		receiptRepository receipt.ReceiptRepository
		creditService     credit.CreditService
		s3                storage.AwsS3
		extractor         Extractor
		limiter           *rate.Limiter
	}

	extractionOutcome struct {
		fields     *ExtractedFields
		warnings   []string
		confidence float64
	}
)

func NewProcessingService(
	receiptRepository receipt.ReceiptRepository,
	creditService credit.CreditService,
	s3 storage.AwsS3,
	extractor Extractor,
	limiter *rate.Limiter,
) ProcessingService {
	return &processingService{
		receiptRepository: receiptRepository,
		creditService:     creditService,
		s3:                s3,
		extractor:         extractor,
		limiter:           limiter,
	}
}

func (s *processingService) ProcessReceipt(ctx context.Context, receiptID string, userID string) (*domain.ProcessReceiptResponse, error) {
	start := time.Now()

	rec, err := s.loadOwnedReceipt(ctx, receiptID, userID)
	if err != nil {
		return nil, err
	}

	switch rec.ProcessingStatus {
	case entities.ReceiptStatusCompleted:
		return nil, domain.ErrAlreadyProcessed
	case entities.ReceiptStatusProcessing:
		return nil, domain.ErrProcessingInProgress
	}

	balance, err := s.creditService.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance < domain.CostReceiptProcessing {
		return nil, domain.ErrInsufficientCredits
	}

	// Claim the receipt before calling out so a crash mid-extraction leaves
	// a visibly stuck record instead of a silent pending one. Losing the
	// claim race means another request is already on it.
	claimed, err := s.receiptRepository.ClaimProcessing(ctx, receiptID, entities.ReceiptStatusPending, entities.ReceiptStatusFailed)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, domain.ErrProcessingInProgress
	}

	outcome, err := s.runExtraction(ctx, rec)
	if err != nil {
		return nil, err
	}

	debited, err := s.creditService.TryDebit(ctx, userID, domain.CostReceiptProcessing, "receipt processing", &rec.ID)
	if err != nil || !debited {
		// The document was in fact processed; a failed debit here is a
		// billing anomaly to reconcile out-of-band, not a reason to revert.
		log.Printf("ledger anomaly: debit failed after processing receipt %s for user %s (debited=%v, err=%v)", receiptID, userID, debited, err)
	}

	remaining, err := s.creditService.GetBalance(ctx, userID)
	if err != nil {
		remaining = balance - domain.CostReceiptProcessing
	}

	updated, err := s.receiptRepository.GetReceiptByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}

	return &domain.ProcessReceiptResponse{
		Receipt:            receipt.ToReceiptResponse(updated),
		ValidationWarnings: outcome.warnings,
		CreditsRemaining:   remaining,
		ProcessingTimeMs:   time.Since(start).Milliseconds(),
	}, nil
}

func (s *processingService) RetryReceipt(ctx context.Context, receiptID string, userID string) (*domain.RetryReceiptResponse, error) {
	start := time.Now()

	rec, err := s.loadOwnedReceipt(ctx, receiptID, userID)
	if err != nil {
		return nil, err
	}

	eligible := rec.ProcessingStatus == entities.ReceiptStatusPending ||
		rec.ProcessingStatus == entities.ReceiptStatusFailed ||
		(rec.ProcessingStatus == entities.ReceiptStatusCompleted && rec.ConfidenceScore < domain.RetryConfidenceThreshold)
	if !eligible {
		return nil, domain.ErrRetryNotEligible
	}

	// Claim only from the status we just observed so a concurrent process
	// or retry on the same receipt cannot double-claim it.
	claimed, err := s.receiptRepository.ClaimProcessing(ctx, receiptID, rec.ProcessingStatus)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, domain.ErrProcessingInProgress
	}

	outcome, err := s.runExtraction(ctx, rec)
	if err != nil {
		return nil, err
	}

	updated, err := s.receiptRepository.GetReceiptByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}

	return &domain.RetryReceiptResponse{
		Receipt:            receipt.ToReceiptResponse(updated),
		ValidationWarnings: outcome.warnings,
		ProcessingTimeMs:   time.Since(start).Milliseconds(),
	}, nil
}

func (s *processingService) ResetReceipt(ctx context.Context, receiptID string, userID string) error {
	rec, err := s.loadOwnedReceipt(ctx, receiptID, userID)
	if err != nil {
		return err
	}

	if rec.ProcessingStatus != entities.ReceiptStatusProcessing {
		return domain.ErrReceiptNotProcessing
	}

	reset, err := s.receiptRepository.ResetProcessing(ctx, receiptID)
	if err != nil {
		return err
	}
	if !reset {
		return domain.ErrReceiptNotProcessing
	}
	return nil
}

func (s *processingService) loadOwnedReceipt(ctx context.Context, receiptID string, userID string) (*entities.Receipt, error) {
	rec, err := s.receiptRepository.GetReceiptByID(ctx, receiptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReceiptNotFound
		}
		return nil, err
	}

	if rec.UserID.String() != userID {
		return nil, domain.ErrNotReceiptOwner
	}
	return rec, nil
}

// runExtraction performs the extract-validate-persist sequence shared by
// process, retry and bulk. The receipt must already be claimed as
// processing. Any extraction error marks the receipt failed; validation
// warnings cap the confidence score but still complete the receipt.
func (s *processingService) runExtraction(ctx context.Context, rec *entities.Receipt) (*extractionOutcome, error) {
	documentURL, err := s.s3.GetPresignedURL(rec.StoragePath, presignTTL)
	if err != nil {
		s.markFailed(ctx, rec.ID.String(), fmt.Sprintf("failed to generate document URL: %s", err.Error()))
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		s.markFailed(ctx, rec.ID.String(), fmt.Sprintf("processing cancelled: %s", err.Error()))
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}

	fields, err := s.extractor.ExtractFields(ctx, documentURL, rec.DocumentType)
	if err != nil {
		s.markFailed(ctx, rec.ID.String(), err.Error())
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}

	warnings := ValidateFields(fields, time.Now())
	confidence := fields.ConfidenceScore

	updates := map[string]interface{}{
		"merchant_name":    fields.MerchantName,
		"total":            fields.Total,
		"currency_code":    fields.CurrencyCode,
		"category":         fields.Category,
		"tax":              fields.Tax,
		"payment_method":   fields.PaymentMethod,
		"raw_text":         fields.RawText,
		"processing_error": nil,
	}

	if len(warnings) > 0 {
		if confidence > domain.MaxConfidenceWithWarnings {
			confidence = domain.MaxConfidenceWithWarnings
		}
		updates["processing_error"] = strings.Join(warnings, "; ")
	}
	updates["confidence_score"] = confidence

	if fields.TxDate != "" {
		if txDate, parseErr := time.Parse("2006-01-02", fields.TxDate); parseErr == nil {
			updates["tx_date"] = txDate
		}
	}

	if len(fields.Attributes) > 0 {
		if encoded, marshalErr := json.Marshal(fields.Attributes); marshalErr == nil {
			updates["attributes"] = string(encoded)
		}
	}

	if err := s.receiptRepository.MarkCompleted(ctx, rec.ID.String(), updates); err != nil {
		return nil, err
	}

	return &extractionOutcome{
		fields:     fields,
		warnings:   warnings,
		confidence: confidence,
	}, nil
}

func (s *processingService) markFailed(ctx context.Context, receiptID string, message string) {
	if err := s.receiptRepository.MarkFailed(ctx, receiptID, message); err != nil {
		log.Printf("failed to mark receipt %s as failed: %v", receiptID, err)
	}
}
