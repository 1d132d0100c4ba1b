package entities

import (
	"github.com/google/uuid"
)

const (
	PaymentStatusPending = "Pending"
	PaymentStatusSettled = "Settled"
	PaymentStatusFailed  = "Failed"
)

// PaymentRecord tracks one midtrans order so a settlement webhook credits
// the user at most once.
type PaymentRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	OrderID   string    `gorm:"uniqueIndex" json:"order_id"`
	UserID    uuid.UUID `gorm:"index" json:"user_id"`
	PackageID uuid.UUID `gorm:"type:uuid" json:"package_id"`
	Credits   int       `json:"credits"`
	Amount    int64     `json:"amount"`
	Status    string    `gorm:"default:Pending" json:"status"` // "Pending", "Settled", "Failed"

	User *User `gorm:"foreignKey:UserID"`
	Timestamp
}
