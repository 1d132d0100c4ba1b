package credit

import (
	"Receiptify-Backend/entities"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	CreditRepository interface {
		GetBalance(ctx context.Context, userID string) (int, error)

		// DebitCredits decrements the balance and appends the matching
		// deduction row in one transaction. The decrement is a single
		// conditional update guarded by `credits >= amount`, so concurrent
		// debits can never drive the balance negative. It reports false
		// without mutating anything when the balance is insufficient.
		DebitCredits(ctx context.Context, userID uuid.UUID, amount int, description string, receiptID *uuid.UUID) (bool, error)
		AddCredits(ctx context.Context, userID uuid.UUID, amount int, txType string, description string) error

		GetCreditTransactions(ctx context.Context, userID string, page, limit int) ([]*entities.CreditTransaction, int64, error)
		GetCreditStats(ctx context.Context, userID string) (map[string]int, error)
		GetTransactionsByReceiptID(ctx context.Context, receiptID string) ([]*entities.CreditTransaction, error)

		// Credit packages and payment records
		GetCreditPackages(ctx context.Context) ([]*entities.CreditPackage, error)
		GetCreditPackageByID(ctx context.Context, id string) (*entities.CreditPackage, error)
		CreatePaymentRecord(ctx context.Context, record *entities.PaymentRecord) error
		GetPaymentByOrderID(ctx context.Context, orderID string) (*entities.PaymentRecord, error)
		MarkPaymentSettled(ctx context.Context, orderID string) (bool, error)
		MarkPaymentFailed(ctx context.Context, orderID string) error
	}

	creditRepository struct {
		db *gorm.DB
	}
)

func NewCreditRepository(db *gorm.DB) CreditRepository {
	return &creditRepository{db: db}
}

func (r *creditRepository) GetBalance(ctx context.Context, userID string) (int, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Select("credits").Where("id = ?", userID).First(&user).Error; err != nil {
		return 0, err
	}
	return user.Credits, nil
}

func (r *creditRepository) DebitCredits(ctx context.Context, userID uuid.UUID, amount int, description string, receiptID *uuid.UUID) (bool, error) {
	debited := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entities.User{}).
			Where("id = ? AND credits >= ?", userID, amount).
			Update("credits", gorm.Expr("credits - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		debited = true
		return tx.Create(&entities.CreditTransaction{
			ID:          uuid.New(),
			UserID:      userID,
			Amount:      -amount,
			Type:        entities.CreditTxDeduction,
			Description: description,
			ReceiptID:   receiptID,
		}).Error
	})
	if err != nil {
		return false, err
	}
	return debited, nil
}

func (r *creditRepository) AddCredits(ctx context.Context, userID uuid.UUID, amount int, txType string, description string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entities.User{}).
			Where("id = ?", userID).
			Update("credits", gorm.Expr("credits + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Create(&entities.CreditTransaction{
			ID:          uuid.New(),
			UserID:      userID,
			Amount:      amount,
			Type:        txType,
			Description: description,
		}).Error
	})
}

func (r *creditRepository) GetCreditTransactions(ctx context.Context, userID string, page, limit int) ([]*entities.CreditTransaction, int64, error) {
	var transactions []*entities.CreditTransaction
	var count int64
	offset := (page - 1) * limit

	if err := r.db.WithContext(ctx).
		Model(&entities.CreditTransaction{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&transactions).Error; err != nil {
		return nil, 0, err
	}

	return transactions, count, nil
}

func (r *creditRepository) GetCreditStats(ctx context.Context, userID string) (map[string]int, error) {
	var totalPurchased int
	purchaseQuery := r.db.WithContext(ctx).
		Model(&entities.CreditTransaction{}).
		Where("user_id = ? AND amount > 0", userID).
		Select("COALESCE(SUM(amount), 0) as total")
	if err := purchaseQuery.Row().Scan(&totalPurchased); err != nil {
		return nil, err
	}

	var totalUsed int
	useQuery := r.db.WithContext(ctx).
		Model(&entities.CreditTransaction{}).
		Where("user_id = ? AND amount < 0", userID).
		Select("COALESCE(SUM(amount), 0) as total")
	if err := useQuery.Row().Scan(&totalUsed); err != nil {
		return nil, err
	}
	totalUsed = -totalUsed

	balance, err := r.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	return map[string]int{
		"balance":         balance,
		"total_purchased": totalPurchased,
		"total_used":      totalUsed,
	}, nil
}

func (r *creditRepository) GetTransactionsByReceiptID(ctx context.Context, receiptID string) ([]*entities.CreditTransaction, error) {
	var transactions []*entities.CreditTransaction
	if err := r.db.WithContext(ctx).
		Where("receipt_id = ?", receiptID).
		Order("created_at ASC").
		Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}

func (r *creditRepository) GetCreditPackages(ctx context.Context) ([]*entities.CreditPackage, error) {
	var packages []*entities.CreditPackage
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("credits ASC").
		Find(&packages).Error; err != nil {
		return nil, err
	}
	return packages, nil
}

func (r *creditRepository) GetCreditPackageByID(ctx context.Context, id string) (*entities.CreditPackage, error) {
	var pkg entities.CreditPackage
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&pkg).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (r *creditRepository) CreatePaymentRecord(ctx context.Context, record *entities.PaymentRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *creditRepository) GetPaymentByOrderID(ctx context.Context, orderID string) (*entities.PaymentRecord, error) {
	var record entities.PaymentRecord
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// MarkPaymentSettled flips a pending record to settled. The conditional
// update makes webhook retries credit the user at most once.
func (r *creditRepository) MarkPaymentSettled(ctx context.Context, orderID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entities.PaymentRecord{}).
		Where("order_id = ? AND status = ?", orderID, entities.PaymentStatusPending).
		Update("status", entities.PaymentStatusSettled)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *creditRepository) MarkPaymentFailed(ctx context.Context, orderID string) error {
	return r.db.WithContext(ctx).Model(&entities.PaymentRecord{}).
		Where("order_id = ? AND status = ?", orderID, entities.PaymentStatusPending).
		Update("status", entities.PaymentStatusFailed).Error
}
