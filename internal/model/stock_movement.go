package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementKind classifies a change to a feed lot's quantity.
type MovementKind string

const (
	MovePurchase          MovementKind = "purchase"
	MoveRestock           MovementKind = "restock"
	MoveManualAdjust      MovementKind = "manual_adjust"
	MoveAutoConsumption   MovementKind = "auto_consumption"
	MoveManualConsumption MovementKind = "manual_consumption"
	MoveReversal          MovementKind = "consumption_reversal"
)

// StockMovement records every change to a feed lot's quantity.
// Created together with the quantity update, inside the same transaction.
type StockMovement struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	FeedLotID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Kind           MovementKind    `gorm:"type:varchar(30);not null"`
	Delta          decimal.Decimal `gorm:"type:decimal(14,3);not null"` // positive = in, negative = out
	QuantityBefore decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	QuantityAfter  decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	Reason         string
	ReferenceID    *uuid.UUID `gorm:"type:uuid;index"` // consumption record or ledger entry
	CreatedAt      time.Time

	FeedLot *FeedLot `gorm:"foreignKey:FeedLotID"`
}

// TableName overrides GORM's default pluralization.
func (StockMovement) TableName() string { return "stock_movements" }
