package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Animal is a livestock record. Once Status reaches sold or deceased the row
// is frozen for every engine except the sale posting itself.
type Animal struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerID       uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_animals_owner_tag;index:idx_animals_owner_status"`
	TagNumber     string           `gorm:"not null;uniqueIndex:idx_animals_owner_tag"`
	Species       Species          `gorm:"type:varchar(20);not null"`
	Gender        Gender           `gorm:"type:varchar(10);not null"`
	Status        AnimalStatus     `gorm:"type:varchar(20);not null;default:'active';index:idx_animals_owner_status"`
	BirthDate     *time.Time       `gorm:"type:date"`
	PurchasePrice decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	PurchaseDate  *time.Time       `gorm:"type:date"`
	Weight        *decimal.Decimal `gorm:"type:decimal(8,2)"`
	Notes         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
