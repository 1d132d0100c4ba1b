package midtrans

import (
	"Receiptify-Backend/entities"
	"context"

	"gorm.io/gorm"
)

type (
	MidtransRepository interface {
		GetUserByID(ctx context.Context, id string) (*entities.User, error)
	}

	midtransRepository struct {
		db *gorm.DB
	}
)

func NewMidtransRepository(db *gorm.DB) MidtransRepository {
	return &midtransRepository{db: db}
}

func (r *midtransRepository) GetUserByID(ctx context.Context, id string) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
