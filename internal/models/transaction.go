package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDebit  TransactionType = "debit"
	TransactionTypeCredit TransactionType = "credit"
)

type TransactionStatus string

const (
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusFailed  TransactionStatus = "failed"
)

// Transaction is one append-only ledger entry against a user's balance
type Transaction struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string            `gorm:"size:100;not null;index" json:"userId"` // username
	QuestID     *uuid.UUID        `gorm:"type:uuid;index" json:"questId,omitempty"`
	Type        TransactionType   `gorm:"size:10;not null;index" json:"type"`
	Description string            `gorm:"type:text" json:"description"`
	Amount      decimal.Decimal   `gorm:"type:decimal(15,2);not null" json:"amount"`
	Status      TransactionStatus `gorm:"size:10;not null;default:success" json:"status"`
	CreatedAt   time.Time         `gorm:"index" json:"createdAt"`
}

// TableName specifies the table name for Transaction model
func (Transaction) TableName() string {
	return "transactions"
}

// SignedAmount returns the amount with the sign it applies to the balance
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}
