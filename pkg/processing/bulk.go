package processing

import (
	"Receiptify-Backend/domain"
	"Receiptify-Backend/entities"
	"context"
	"log"
)

// ProcessBulk drives many receipts through the state machine strictly in
// input order. The credit balance is snapshotted once at batch start and a
// local counter bounds the work, so items past the point funds run out are
// rejected without ever reaching the extractor. One item's failure never
// aborts the batch.
func (s *processingService) ProcessBulk(ctx context.Context, req domain.BulkProcessRequest, userID string) (*domain.BulkProcessResponse, error) {
	initialCredits, err := s.creditService.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &domain.BulkProcessResponse{
		Total:   len(req.ReceiptIDs),
		Results: make([]domain.BulkItemResult, 0, len(req.ReceiptIDs)),
	}

	for _, receiptID := range req.ReceiptIDs {
		result := domain.BulkItemResult{ReceiptID: receiptID}

		if initialCredits-summary.CreditsUsed < domain.CostReceiptProcessing {
			result.Error = domain.BulkReasonInsufficientCredits
			summary.Failed++
			summary.Results = append(summary.Results, result)
			continue
		}

		if err := s.processBulkItem(ctx, receiptID, userID); err != nil {
			result.Error = err.Error()
			summary.Failed++
		} else {
			result.Success = true
			summary.Successful++
			summary.CreditsUsed += domain.CostReceiptProcessing
		}
		summary.Results = append(summary.Results, result)
	}

	remaining, err := s.creditService.GetBalance(ctx, userID)
	if err != nil {
		remaining = initialCredits - summary.CreditsUsed
	}
	summary.CreditsRemaining = remaining

	return summary, nil
}

func (s *processingService) processBulkItem(ctx context.Context, receiptID string, userID string) error {
	rec, err := s.loadOwnedReceipt(ctx, receiptID, userID)
	if err != nil {
		return err
	}

	switch rec.ProcessingStatus {
	case entities.ReceiptStatusCompleted:
		return domain.ErrAlreadyProcessed
	case entities.ReceiptStatusProcessing:
		return domain.ErrProcessingInProgress
	}

	claimed, err := s.receiptRepository.ClaimProcessing(ctx, receiptID, entities.ReceiptStatusPending, entities.ReceiptStatusFailed)
	if err != nil {
		return err
	}
	if !claimed {
		return domain.ErrProcessingInProgress
	}

	if _, err := s.runExtraction(ctx, rec); err != nil {
		return err
	}

	debited, err := s.creditService.TryDebit(ctx, userID, domain.CostReceiptProcessing, "receipt processing", &rec.ID)
	if err != nil || !debited {
		log.Printf("ledger anomaly: debit failed after bulk-processing receipt %s for user %s (debited=%v, err=%v)", receiptID, userID, debited, err)
	}

	return nil
}
