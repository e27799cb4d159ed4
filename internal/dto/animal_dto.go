package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateAnimalRequest struct {
	TagNumber     string           `json:"tag_number"     validate:"required,min=1,max=50"`
	Species       string           `json:"species"        validate:"required,oneof=cattle sheep goat poultry"`
	Gender        string           `json:"gender"         validate:"required,oneof=male female"`
	Status        string           `json:"status"         validate:"omitempty,oneof=active sick"`
	BirthDate     *string          `json:"birth_date"     validate:"omitempty,datetime=2006-01-02"`
	PurchasePrice decimal.Decimal  `json:"purchase_price" validate:"min=0"`
	PurchaseDate  *string          `json:"purchase_date"  validate:"omitempty,datetime=2006-01-02"`
	Weight        *decimal.Decimal `json:"weight"`
	Notes         *string          `json:"notes"          validate:"omitempty,max=500"`
}

type UpdateAnimalRequest struct {
	TagNumber *string          `json:"tag_number" validate:"omitempty,min=1,max=50"`
	Gender    *string          `json:"gender"     validate:"omitempty,oneof=male female"`
	BirthDate *string          `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Weight    *decimal.Decimal `json:"weight"`
	Notes     *string          `json:"notes"      validate:"omitempty,max=500"`
}

type SetAnimalStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active sick sold deceased"`
}

type AnimalSaleRequest struct {
	Amount      decimal.Decimal `json:"amount"      validate:"required,gt=0"`
	Date        string          `json:"date"        validate:"required,datetime=2006-01-02"`
	Description string          `json:"description" validate:"omitempty,max=200"`
}

type AnimalDeathRequest struct {
	Date  string  `json:"date"  validate:"required,datetime=2006-01-02"`
	Notes *string `json:"notes" validate:"omitempty,max=500"`
}

type AnimalFilter struct {
	Status  string `form:"status"  validate:"omitempty,oneof=active sick sold deceased"`
	Species string `form:"species" validate:"omitempty,oneof=cattle sheep goat poultry"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type AnimalResponse struct {
	ID            string           `json:"id"`
	TagNumber     string           `json:"tag_number"`
	Species       string           `json:"species"`
	Gender        string           `json:"gender"`
	Status        string           `json:"status"`
	BirthDate     *string          `json:"birth_date"`
	PurchasePrice decimal.Decimal  `json:"purchase_price"`
	PurchaseDate  *string          `json:"purchase_date"`
	Weight        *decimal.Decimal `json:"weight"`
	Notes         *string          `json:"notes"`
	Locked        bool             `json:"locked"`
	CreatedAt     string           `json:"created_at"`
}

// AnimalLedgerResponse is returned by operations that post to the ledger
// together with the animal change (purchase, sale).
type AnimalLedgerResponse struct {
	Animal      AnimalResponse       `json:"animal"`
	Transaction *TransactionResponse `json:"transaction"`
}
