package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeedLot is one purchased batch of feed. Quantity is mutated only through
// stock movements (purchase, restock, adjustments, consumption).
type FeedLot struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_feed_lots_owner_type"`
	FeedName      string          `gorm:"not null"`
	FeedType      FeedType        `gorm:"type:varchar(20);not null;index:idx_feed_lots_owner_type"`
	Unit          Unit            `gorm:"type:varchar(10);not null"`
	Quantity      decimal.Decimal `gorm:"type:decimal(14,3);not null;default:0"`
	PricePerUnit  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	MinStockLevel decimal.Decimal `gorm:"type:decimal(14,3);not null;default:0"`
	PurchaseDate  time.Time       `gorm:"type:date;not null"`
	ExpiryDate    *time.Time      `gorm:"type:date"`
	Notes         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Value is the cost basis of what is left in the lot.
func (l *FeedLot) Value() decimal.Decimal { return l.Quantity.Mul(l.PricePerUnit) }
