package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionEntry is an immutable ledger line. Amount is always the
// magnitude; the sign comes from Type. Mistakes are undone with a reversing
// entry (ReversalOf), never by editing.
type TransactionEntry struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerID     uuid.UUID        `gorm:"type:uuid;not null;index:idx_tx_owner_date"`
	Type        TransactionType  `gorm:"type:varchar(10);not null"`
	Category    Category         `gorm:"type:varchar(30);not null;index"`
	Amount      decimal.Decimal  `gorm:"type:decimal(14,2);not null"`
	Date        time.Time        `gorm:"type:date;not null;index:idx_tx_owner_date"`
	Description string           `gorm:"not null;default:''"`
	AnimalID    *uuid.UUID       `gorm:"type:uuid;index"`
	FeedID      *uuid.UUID       `gorm:"type:uuid;index"`
	Quantity    *decimal.Decimal `gorm:"type:decimal(14,3)"`
	UnitPrice   *decimal.Decimal `gorm:"type:decimal(12,2)"`
	IsAutomatic bool             `gorm:"not null;default:false"`
	ReversalOf  *uuid.UUID       `gorm:"type:uuid;uniqueIndex"`
	CreatedAt   time.Time
}

// TableName keeps the table name aligned with the domain term.
func (TransactionEntry) TableName() string { return "transactions" }

// Signed returns the amount with income positive and expense negative.
func (e *TransactionEntry) Signed() decimal.Decimal {
	if e.Type == TxExpense {
		return e.Amount.Neg()
	}
	return e.Amount
}
