package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConsumptionSetting is the per-species daily ration for one feed type.
type ConsumptionSetting struct {
	ID                        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerID                   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_consumption_settings_key"`
	Species                   Species         `gorm:"type:varchar(20);not null;uniqueIndex:idx_consumption_settings_key"`
	FeedType                  FeedType        `gorm:"type:varchar(20);not null;uniqueIndex:idx_consumption_settings_key"`
	DailyConsumptionPerAnimal decimal.Decimal `gorm:"type:decimal(10,3);not null;default:0"`
	AutoDeductEnabled         bool            `gorm:"not null;default:false"`
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// ConsumptionRecord is immutable once written. Corrections are new records
// carrying ReversalOf.
//
// Automatic records are unique on (owner, date, species, feed_type); the
// partial index uniq_consumption_auto is created by infra.NewDatabase.
type ConsumptionRecord struct {
	ID                     uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerID                uuid.UUID       `gorm:"type:uuid;not null;index"`
	ConsumptionDate        time.Time       `gorm:"type:date;not null;index"`
	Species                Species         `gorm:"type:varchar(20);not null"`
	FeedType               FeedType        `gorm:"type:varchar(20);not null"`
	FeedLotID              *uuid.UUID      `gorm:"type:uuid;index"`
	TotalConsumption       decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	RequiredConsumption    decimal.Decimal `gorm:"type:decimal(14,3);not null;default:0"`
	Shortfall              decimal.Decimal `gorm:"type:decimal(14,3);not null;default:0"`
	TotalAnimalsCount      int             `gorm:"not null;default:0"`
	RemainingStockSnapshot decimal.Decimal `gorm:"type:decimal(14,3);not null;default:0"`
	IsManual               bool            `gorm:"not null;default:false"`
	Notes                  *string
	ReversalOf             *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	CreatedAt              time.Time
}
