package entities

import (
	"github.com/google/uuid"
)

const (
	CreditTxPurchase  = "purchase"
	CreditTxDeduction = "deduction"
	CreditTxRefund    = "refund"
	CreditTxBonus     = "bonus"
)

type CreditPackage struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Name        string    `json:"name"`
	Credits     int       `json:"credits"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
	Description string    `json:"description,omitempty"`
	IsPopular   bool      `json:"is_popular"`
	IsActive    bool      `json:"is_active"`

	Timestamp
}

// CreditTransaction is an append-only ledger entry. A positive amount is a
// credit, a negative amount is a debit. Rows are never updated or deleted.
type CreditTransaction struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID      uuid.UUID  `gorm:"index" json:"user_id"`
	Amount      int        `json:"amount"`
	Type        string     `json:"type"` // "purchase", "deduction", "refund", "bonus"
	Description string     `json:"description"`
	ReceiptID   *uuid.UUID `gorm:"type:uuid;index" json:"receipt_id,omitempty"`

	User *User `gorm:"foreignKey:UserID"`
	Timestamp
}
