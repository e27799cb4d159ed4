package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CreateTransactionRequest is a manual ledger entry. For feed_purchase the
// amount is derived from quantity and unit_price and may be omitted.
type CreateTransactionRequest struct {
	Type        string           `json:"type"        validate:"required,oneof=income expense"`
	Category    string           `json:"category"    validate:"required"`
	Amount      *decimal.Decimal `json:"amount"`
	Date        string           `json:"date"        validate:"required,datetime=2006-01-02"`
	Description string           `json:"description" validate:"omitempty,max=500"`
	AnimalID    *string          `json:"animal_id"   validate:"omitempty,uuid"`
	FeedID      *string          `json:"feed_id"     validate:"omitempty,uuid"`
	Quantity    *decimal.Decimal `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
}

type TransactionFilter struct {
	Type      string `form:"type"      validate:"omitempty,oneof=income expense"`
	Category  string `form:"category"`
	From      string `form:"from"      validate:"omitempty,datetime=2006-01-02"`
	To        string `form:"to"        validate:"omitempty,datetime=2006-01-02"`
	AnimalID  string `form:"animal_id" validate:"omitempty,uuid"`
	FeedID    string `form:"feed_id"   validate:"omitempty,uuid"`
	Automatic string `form:"automatic" validate:"omitempty,oneof=true false"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TransactionResponse struct {
	ID          string           `json:"id"`
	Type        string           `json:"type"`
	Category    string           `json:"category"`
	Amount      decimal.Decimal  `json:"amount"`
	Date        string           `json:"date"`
	Description string           `json:"description"`
	AnimalID    *string          `json:"animal_id"`
	FeedID      *string          `json:"feed_id"`
	Quantity    *decimal.Decimal `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	IsAutomatic bool             `json:"is_automatic"`
	ReversalOf  *string          `json:"reversal_of"`
	CreatedAt   string           `json:"created_at"`
}

type TransactionListResponse struct {
	Data  []TransactionResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
