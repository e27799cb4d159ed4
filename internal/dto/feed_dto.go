package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// UpsertFeedLotRequest creates a lot when ID is empty and replaces the
// editable fields of an existing lot otherwise.
type UpsertFeedLotRequest struct {
	ID            string          `json:"id"              validate:"omitempty,uuid"`
	FeedName      string          `json:"feed_name"       validate:"required,min=2,max=120"`
	FeedType      string          `json:"feed_type"       validate:"required,oneof=concentrate roughage supplement other"`
	Unit          string          `json:"unit"            validate:"required,oneof=kg ton bag liter"`
	Quantity      decimal.Decimal `json:"quantity"        validate:"min=0"`
	PricePerUnit  decimal.Decimal `json:"price_per_unit"  validate:"min=0"`
	MinStockLevel decimal.Decimal `json:"min_stock_level" validate:"min=0"`
	PurchaseDate  string          `json:"purchase_date"   validate:"required,datetime=2006-01-02"`
	ExpiryDate    *string         `json:"expiry_date"     validate:"omitempty,datetime=2006-01-02"`
	Notes         *string         `json:"notes"           validate:"omitempty,max=500"`
}

type AdjustQuantityRequest struct {
	Delta  decimal.Decimal `json:"delta"  validate:"required"`
	Clamp  bool            `json:"clamp"`
	Reason string          `json:"reason" validate:"omitempty,max=200"`
}

type RestockRequest struct {
	Quantity  decimal.Decimal `json:"quantity"   validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"min=0"`
	Date      string          `json:"date"       validate:"required,datetime=2006-01-02"`
	Notes     string          `json:"notes"      validate:"omitempty,max=200"`
}

type MovementFilter struct {
	Page  int `form:"page,default=1"    validate:"min=1"`
	Limit int `form:"limit,default=100" validate:"min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type FeedLotResponse struct {
	ID            string          `json:"id"`
	FeedName      string          `json:"feed_name"`
	FeedType      string          `json:"feed_type"`
	Unit          string          `json:"unit"`
	Quantity      decimal.Decimal `json:"quantity"`
	PricePerUnit  decimal.Decimal `json:"price_per_unit"`
	MinStockLevel decimal.Decimal `json:"min_stock_level"`
	StockValue    decimal.Decimal `json:"stock_value"`
	PurchaseDate  string          `json:"purchase_date"`
	ExpiryDate    *string         `json:"expiry_date"`
	Notes         *string         `json:"notes"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
}

// FeedLotMutationResponse carries the stock alerts raised by the write.
type FeedLotMutationResponse struct {
	Lot         FeedLotResponse      `json:"lot"`
	Transaction *TransactionResponse `json:"transaction,omitempty"`
	Alerts      []StockAlert         `json:"alerts"`
}

type AdjustQuantityResponse struct {
	Lot            FeedLotResponse `json:"lot"`
	RequestedDelta decimal.Decimal `json:"requested_delta"`
	ActualDelta    decimal.Decimal `json:"actual_delta"`
	Clamped        bool            `json:"clamped"`
	Alerts         []StockAlert    `json:"alerts"`
}

type StockMovementResponse struct {
	ID             string          `json:"id"`
	FeedLotID      string          `json:"feed_lot_id"`
	Kind           string          `json:"kind"`
	Delta          decimal.Decimal `json:"delta"`
	QuantityBefore decimal.Decimal `json:"quantity_before"`
	QuantityAfter  decimal.Decimal `json:"quantity_after"`
	Reason         string          `json:"reason"`
	ReferenceID    *string         `json:"reference_id"`
	CreatedAt      string          `json:"created_at"`
}

type StockMovementListResponse struct {
	Data  []StockMovementResponse `json:"data"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}
