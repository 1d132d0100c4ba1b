package receipt

import (
	"Receiptify-Backend/entities"
	"context"

	"gorm.io/gorm"
)

type (
	ReceiptRepository interface {
		CreateReceipt(ctx context.Context, receipt *entities.Receipt) error
		GetReceiptByID(ctx context.Context, id string) (*entities.Receipt, error)
		GetReceipts(ctx context.Context, userID string, status string, page, limit int) ([]*entities.Receipt, int64, error)

		// ClaimProcessing moves a receipt into the processing state with a
		// single conditional update. It reports false when the receipt was
		// not in any of the given states, so two concurrent claims on the
		// same receipt cannot both succeed.
		ClaimProcessing(ctx context.Context, id string, fromStatuses ...string) (bool, error)
		MarkFailed(ctx context.Context, id string, processingError string) error
		MarkCompleted(ctx context.Context, id string, fields map[string]interface{}) error
		ResetProcessing(ctx context.Context, id string) (bool, error)
	}

	receiptRepository struct {
		db *gorm.DB
	}
)

func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) CreateReceipt(ctx context.Context, receipt *entities.Receipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

func (r *receiptRepository) GetReceiptByID(ctx context.Context, id string) (*entities.Receipt, error) {
	var receipt entities.Receipt
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&receipt).Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepository) GetReceipts(ctx context.Context, userID string, status string, page, limit int) ([]*entities.Receipt, int64, error) {
	var receipts []*entities.Receipt
	var count int64

	offset := (page - 1) * limit

	query := r.db.WithContext(ctx).Where("user_id = ?", userID)

	if status != "all" && status != "" {
		query = query.Where("processing_status = ?", status)
	}

	if err := query.Model(&entities.Receipt{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Offset(offset).Limit(limit).Order("created_at desc").Find(&receipts).Error; err != nil {
		return nil, 0, err
	}

	return receipts, count, nil
}

func (r *receiptRepository) ClaimProcessing(ctx context.Context, id string, fromStatuses ...string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entities.Receipt{}).
		Where("id = ? AND processing_status IN ?", id, fromStatuses).
		Updates(map[string]interface{}{
			"processing_status": entities.ReceiptStatusProcessing,
			"processing_error":  nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *receiptRepository) MarkFailed(ctx context.Context, id string, processingError string) error {
	return r.db.WithContext(ctx).Model(&entities.Receipt{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"processing_status": entities.ReceiptStatusFailed,
			"processing_error":  processingError,
		}).Error
}

func (r *receiptRepository) MarkCompleted(ctx context.Context, id string, fields map[string]interface{}) error {
	updates := map[string]interface{}{
		"processing_status": entities.ReceiptStatusCompleted,
	}
	for k, v := range fields {
		updates[k] = v
	}
	return r.db.WithContext(ctx).Model(&entities.Receipt{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *receiptRepository) ResetProcessing(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entities.Receipt{}).
		Where("id = ? AND processing_status = ?", id, entities.ReceiptStatusProcessing).
		Updates(map[string]interface{}{
			"processing_status": entities.ReceiptStatusFailed,
			"processing_error":  "processing was reset manually",
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
