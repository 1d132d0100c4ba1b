package receipt

import (
	"Receiptify-Backend/entities"
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const receiptSchema = `
CREATE TABLE receipts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	storage_path TEXT,
	file_name TEXT,
	mime_type TEXT,
	file_size INTEGER,
	document_type TEXT DEFAULT 'generic',
	processing_status TEXT DEFAULT 'pending',
	processing_error TEXT,
	merchant_name TEXT,
	total REAL DEFAULT 0,
	currency_code TEXT,
	tx_date DATETIME,
	category TEXT,
	tax REAL,
	payment_method TEXT,
	confidence_score REAL DEFAULT 0,
	raw_text TEXT,
	attributes TEXT,
	created_at DATETIME,
	updated_at DATETIME
);
`

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "receipt_test.db") + "?_pragma=busy_timeout(10000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.Exec(receiptSchema).Error)
	return db
}

func seedReceipt(t *testing.T, db *gorm.DB, status string) *entities.Receipt {
	t.Helper()

	rec := &entities.Receipt{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		StoragePath:      "receipts/seed.jpg",
		FileName:         "seed.jpg",
		MimeType:         "image/jpeg",
		DocumentType:     entities.DocumentTypeGeneric,
		ProcessingStatus: status,
	}
	require.NoError(t, db.Create(rec).Error)
	return rec
}

func TestClaimProcessing_PendingToProcessing(t *testing.T) {
	db := newTestDB(t)
	repo := NewReceiptRepository(db)
	ctx := context.Background()
	rec := seedReceipt(t, db, entities.ReceiptStatusPending)

	claimed, err := repo.ClaimProcessing(ctx, rec.ID.String(), entities.ReceiptStatusPending, entities.ReceiptStatusFailed)
	require.NoError(t, err)
	assert.True(t, claimed)

	stored, err := repo.GetReceiptByID(ctx, rec.ID.String())
	require.NoError(t, err)
	assert.Equal(t, entities.ReceiptStatusProcessing, stored.ProcessingStatus)
	assert.Nil(t, stored.ProcessingError)
}

func TestClaimProcessing_ClearsPriorError(t *testing.T) {
	db := newTestDB(t)
	repo := NewReceiptRepository(db)
	ctx := context.Background()
	rec := seedReceipt(t, db, entities.ReceiptStatusPending)

	require.NoError(t, repo.MarkFailed(ctx, rec.ID.String(), "model timeout"))

	claimed, err := repo.ClaimProcessing(ctx, rec.ID.String(), entities.ReceiptStatusFailed)
	require.NoError(t, err)
	assert.True(t, claimed)

	stored, err := repo.GetReceiptByID(ctx, rec.ID.String())
	require.NoError(t, err)
	assert.Nil(t, stored.ProcessingError)
}

func TestClaimProcessing_RejectsWrongState(t *testing.T) {
	db := newTestDB(t)
	repo := NewReceiptRepository(db)
	ctx := context.Background()
	rec := seedReceipt(t, db, entities.ReceiptStatusCompleted)

	claimed, err := repo.ClaimProcessing(ctx, rec.ID.String(), entities.ReceiptStatusPending, entities.ReceiptStatusFailed)
	require.NoError(t, err)
	assert.False(t, claimed)

	stored, err := repo.GetReceiptByID(ctx, rec.ID.String())
	require.NoError(t, err)
	assert.Equal(t, entities.ReceiptStatusCompleted, stored.ProcessingStatus)
}

func TestClaimProcessing_OnlyOneConcurrentClaimWins(t *testing.T) {
	db := newTestDB(t)
	repo := NewReceiptRepository(db)
	ctx := context.Background()
	rec := seedReceipt(t, db, entities.ReceiptStatusPending)

	const attempts = 10
	var wg sync.WaitGroup
	results := make(chan bool, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := repo.ClaimProcessing(ctx, rec.ID.String(), entities.ReceiptStatusPending, entities.ReceiptStatusFailed)
			if err != nil {
				results <- false
				return
			}
			results <- claimed
		}()
	}
	wg.Wait()
	close(results)

	won := 0
	for claimed := range results {
		if claimed {
			won++
		}
	}
	assert.Equal(t, 1, won)
}

func TestResetProcessing_OnlyFromProcessing(t *testing.T) {
	db := newTestDB(t)
	repo := NewReceiptRepository(db)
	ctx := context.Background()

	stuck := seedReceipt(t, db, entities.ReceiptStatusProcessing)
	reset, err := repo.ResetProcessing(ctx, stuck.ID.String())
	require.NoError(t, err)
	assert.True(t, reset)

	stored, err := repo.GetReceiptByID(ctx, stuck.ID.String())
	require.NoError(t, err)
	assert.Equal(t, entities.ReceiptStatusFailed, stored.ProcessingStatus)
	require.NotNil(t, stored.ProcessingError)

	done := seedReceipt(t, db, entities.ReceiptStatusCompleted)
	reset, err = repo.ResetProcessing(ctx, done.ID.String())
	require.NoError(t, err)
	assert.False(t, reset)
}

func TestMarkCompleted_PersistsExtractedFields(t *testing.T) {
	db := newTestDB(t)
	repo := NewReceiptRepository(db)
	ctx := context.Background()
	rec := seedReceipt(t, db, entities.ReceiptStatusProcessing)

	err := repo.MarkCompleted(ctx, rec.ID.String(), map[string]interface{}{
		"merchant_name":    "Coffee Corner",
		"total":            12.50,
		"currency_code":    "USD",
		"confidence_score": 0.95,
		"processing_error": nil,
	})
	require.NoError(t, err)

	stored, err := repo.GetReceiptByID(ctx, rec.ID.String())
	require.NoError(t, err)
	assert.Equal(t, entities.ReceiptStatusCompleted, stored.ProcessingStatus)
	assert.Equal(t, "Coffee Corner", stored.MerchantName)
	assert.Equal(t, 12.50, stored.Total)
	assert.Equal(t, 0.95, stored.ConfidenceScore)
	assert.Nil(t, stored.ProcessingError)
}

func TestGetReceipts_FiltersByStatus(t *testing.T) {
	db := newTestDB(t)
	repo := NewReceiptRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	for _, status := range []string{
		entities.ReceiptStatusPending,
		entities.ReceiptStatusCompleted,
		entities.ReceiptStatusCompleted,
	} {
		rec := &entities.Receipt{
			ID:               uuid.New(),
			UserID:           userID,
			FileName:         "r.jpg",
			ProcessingStatus: status,
		}
		require.NoError(t, db.Create(rec).Error)
	}

	completed, count, err := repo.GetReceipts(ctx, userID.String(), entities.ReceiptStatusCompleted, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Len(t, completed, 2)

	all, count, err := repo.GetReceipts(ctx, userID.String(), "all", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.Len(t, all, 3)
}
