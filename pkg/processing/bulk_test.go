package processing

import (
	"Receiptify-Backend/domain"
	"Receiptify-Backend/entities"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func bulkReceipts(n int) []*entities.Receipt {
	receipts := make([]*entities.Receipt, 0, n)
	for i := 0; i < n; i++ {
		receipts = append(receipts, &entities.Receipt{
			ID:               uuid.New(),
			UserID:           testUserID,
			StoragePath:      fmt.Sprintf("receipts/bulk-%d.jpg", i),
			FileName:         fmt.Sprintf("bulk-%d.jpg", i),
			MimeType:         "image/jpeg",
			DocumentType:     entities.DocumentTypeGeneric,
			ProcessingStatus: entities.ReceiptStatusPending,
		})
	}
	return receipts
}

func bulkRequest(receipts []*entities.Receipt) domain.BulkProcessRequest {
	req := domain.BulkProcessRequest{}
	for _, rec := range receipts {
		req.ReceiptIDs = append(req.ReceiptIDs, rec.ID.String())
	}
	return req
}

func TestProcessBulk_OneFailureDoesNotAbortBatch(t *testing.T) {
	env := newTestEnv()
	receipts := bulkReceipts(5)
	user := testUserID.String()

	env.creditService.On("GetBalance", mock.Anything, user).Return(10, nil).Once()

	for i, rec := range receipts {
		id := rec.ID.String()
		env.receiptRepo.On("GetReceiptByID", mock.Anything, id).Return(rec, nil).Once()
		env.receiptRepo.On("ClaimProcessing", mock.Anything, id, mock.Anything).Return(true, nil).Once()
		env.storage.On("GetPresignedURL", rec.StoragePath, presignTTL).Return("https://signed.example/"+rec.FileName, nil).Once()

		if i == 2 {
			env.extractor.On("ExtractFields", mock.Anything, "https://signed.example/"+rec.FileName, mock.Anything).Return(nil, errors.New("unreadable image")).Once()
			env.receiptRepo.On("MarkFailed", mock.Anything, id, "unreadable image").Return(nil).Once()
		} else {
			env.extractor.On("ExtractFields", mock.Anything, "https://signed.example/"+rec.FileName, mock.Anything).Return(goodExtraction(), nil).Once()
			env.receiptRepo.On("MarkCompleted", mock.Anything, id, mock.Anything).Return(nil).Once()
			env.creditService.On("TryDebit", mock.Anything, user, 1, "receipt processing", mock.Anything).Return(true, nil).Once()
		}
	}

	env.creditService.On("GetBalance", mock.Anything, user).Return(6, nil).Once()

	res, err := env.service.ProcessBulk(context.Background(), bulkRequest(receipts), user)

	assert.NoError(t, err)
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 4, res.Successful)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 4, res.CreditsUsed)
	assert.Equal(t, 6, res.CreditsRemaining)
	assert.Len(t, res.Results, 5)
	assert.False(t, res.Results[2].Success)
	assert.Contains(t, res.Results[2].Error, "unreadable image")
	assert.True(t, res.Results[4].Success)
	env.extractor.AssertNumberOfCalls(t, "ExtractFields", 5)
}

func TestProcessBulk_StopsDebitingWhenSnapshotExhausted(t *testing.T) {
	env := newTestEnv()
	receipts := bulkReceipts(3)
	user := testUserID.String()

	env.creditService.On("GetBalance", mock.Anything, user).Return(1, nil).Once()

	first := receipts[0]
	env.receiptRepo.On("GetReceiptByID", mock.Anything, first.ID.String()).Return(first, nil).Once()
	env.receiptRepo.On("ClaimProcessing", mock.Anything, first.ID.String(), mock.Anything).Return(true, nil).Once()
	env.storage.On("GetPresignedURL", first.StoragePath, presignTTL).Return("https://signed.example/doc", nil).Once()
	env.extractor.On("ExtractFields", mock.Anything, mock.Anything, mock.Anything).Return(goodExtraction(), nil).Once()
	env.receiptRepo.On("MarkCompleted", mock.Anything, first.ID.String(), mock.Anything).Return(nil).Once()
	env.creditService.On("TryDebit", mock.Anything, user, 1, "receipt processing", mock.Anything).Return(true, nil).Once()

	env.creditService.On("GetBalance", mock.Anything, user).Return(0, nil).Once()

	res, err := env.service.ProcessBulk(context.Background(), bulkRequest(receipts), user)

	assert.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 1, res.Successful)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 1, res.CreditsUsed)
	assert.Equal(t, 0, res.CreditsRemaining)
	assert.Equal(t, domain.BulkReasonInsufficientCredits, res.Results[1].Error)
	assert.Equal(t, domain.BulkReasonInsufficientCredits, res.Results[2].Error)
	// Items past the point funds ran out never reach the pipeline at all.
	env.extractor.AssertNumberOfCalls(t, "ExtractFields", 1)
	env.receiptRepo.AssertNumberOfCalls(t, "GetReceiptByID", 1)
}

func TestProcessBulk_AlreadyCompletedItemFailsWithoutBilling(t *testing.T) {
	env := newTestEnv()
	receipts := bulkReceipts(2)
	receipts[0].ProcessingStatus = entities.ReceiptStatusCompleted
	user := testUserID.String()

	env.creditService.On("GetBalance", mock.Anything, user).Return(5, nil).Once()

	env.receiptRepo.On("GetReceiptByID", mock.Anything, receipts[0].ID.String()).Return(receipts[0], nil).Once()

	second := receipts[1]
	env.receiptRepo.On("GetReceiptByID", mock.Anything, second.ID.String()).Return(second, nil).Once()
	env.receiptRepo.On("ClaimProcessing", mock.Anything, second.ID.String(), mock.Anything).Return(true, nil).Once()
	env.storage.On("GetPresignedURL", second.StoragePath, presignTTL).Return("https://signed.example/doc", nil).Once()
	env.extractor.On("ExtractFields", mock.Anything, mock.Anything, mock.Anything).Return(goodExtraction(), nil).Once()
	env.receiptRepo.On("MarkCompleted", mock.Anything, second.ID.String(), mock.Anything).Return(nil).Once()
	env.creditService.On("TryDebit", mock.Anything, user, 1, "receipt processing", mock.Anything).Return(true, nil).Once()

	env.creditService.On("GetBalance", mock.Anything, user).Return(4, nil).Once()

	res, err := env.service.ProcessBulk(context.Background(), bulkRequest(receipts), user)

	assert.NoError(t, err)
	assert.Equal(t, 1, res.Successful)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.CreditsUsed)
	assert.Equal(t, domain.ErrAlreadyProcessed.Error(), res.Results[0].Error)
	env.creditService.AssertNumberOfCalls(t, "TryDebit", 1)
}
