package credit

import (
	"Receiptify-Backend/domain"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	CreditService interface {
		GetBalance(ctx context.Context, userID string) (int, error)

		// TryDebit attempts to take amount credits from the user. It returns
		// false when the balance is insufficient, which is an expected
		// outcome rather than an error.
		TryDebit(ctx context.Context, userID string, amount int, reason string, receiptID *uuid.UUID) (bool, error)
		Credit(ctx context.Context, userID string, amount int, txType string, reason string) error

		GetUserCredits(ctx context.Context, userID string) (*domain.UserCredits, error)
		GetCreditTransactionHistory(ctx context.Context, userID string, page, limit int) ([]*domain.CreditTransaction, int64, error)
		GetCreditPackages(ctx context.Context) ([]*domain.CreditPackage, error)
	}

	creditService struct {
		creditRepository CreditRepository
	}
)

func NewCreditService(creditRepository CreditRepository) CreditService {
	return &creditService{
		creditRepository: creditRepository,
	}
}

func (s *creditService) GetBalance(ctx context.Context, userID string) (int, error) {
	return s.creditRepository.GetBalance(ctx, userID)
}

func (s *creditService) TryDebit(ctx context.Context, userID string, amount int, reason string, receiptID *uuid.UUID) (bool, error) {
	if amount <= 0 {
		return false, domain.ErrInvalidCreditAmount
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return false, domain.ErrParseUUID
	}

	description := fmt.Sprintf("Used %d credits for %s", amount, reason)
	return s.creditRepository.DebitCredits(ctx, userUUID, amount, description, receiptID)
}

func (s *creditService) Credit(ctx context.Context, userID string, amount int, txType string, reason string) error {
	if amount <= 0 {
		return domain.ErrInvalidCreditAmount
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ErrParseUUID
	}

	return s.creditRepository.AddCredits(ctx, userUUID, amount, txType, reason)
}

func (s *creditService) GetUserCredits(ctx context.Context, userID string) (*domain.UserCredits, error) {
	stats, err := s.creditRepository.GetCreditStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &domain.UserCredits{
		Balance:        stats["balance"],
		TotalPurchased: stats["total_purchased"],
		TotalUsed:      stats["total_used"],
	}, nil
}

func (s *creditService) GetCreditTransactionHistory(ctx context.Context, userID string, page, limit int) ([]*domain.CreditTransaction, int64, error) {
	transactions, count, err := s.creditRepository.GetCreditTransactions(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*domain.CreditTransaction, 0, len(transactions))
	for _, tx := range transactions {
		entry := &domain.CreditTransaction{
			ID:          tx.ID.String(),
			UserID:      tx.UserID.String(),
			Amount:      tx.Amount,
			Type:        tx.Type,
			Description: tx.Description,
			CreatedAt:   tx.CreatedAt,
		}
		if tx.ReceiptID != nil {
			receiptID := tx.ReceiptID.String()
			entry.ReceiptID = &receiptID
		}
		result = append(result, entry)
	}

	return result, count, nil
}

func (s *creditService) GetCreditPackages(ctx context.Context) ([]*domain.CreditPackage, error) {
	packages, err := s.creditRepository.GetCreditPackages(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []*domain.CreditPackage{}, nil
		}
		return nil, err
	}

	result := make([]*domain.CreditPackage, 0, len(packages))
	for _, pkg := range packages {
		result = append(result, &domain.CreditPackage{
			ID:          pkg.ID.String(),
			Name:        pkg.Name,
			Credits:     pkg.Credits,
			Price:       pkg.Price,
			Currency:    pkg.Currency,
			Description: pkg.Description,
			IsPopular:   pkg.IsPopular,
		})
	}

	return result, nil
}
