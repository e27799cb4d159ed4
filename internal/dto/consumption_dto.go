package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type UpsertSettingRequest struct {
	Species                   string          `json:"species"                      validate:"required,oneof=cattle sheep goat poultry"`
	FeedType                  string          `json:"feed_type"                    validate:"required,oneof=concentrate roughage supplement other"`
	DailyConsumptionPerAnimal decimal.Decimal `json:"daily_consumption_per_animal" validate:"min=0"`
	AutoDeductEnabled         bool            `json:"auto_deduct_enabled"`
}

type RunDeductionRequest struct {
	// Date defaults to today in the farm timezone.
	Date *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type ManualConsumptionRequest struct {
	FeedLotID   string          `json:"feed_lot_id"  validate:"required,uuid"`
	Amount      decimal.Decimal `json:"amount"       validate:"required,gt=0"`
	AnimalCount *int            `json:"animal_count" validate:"omitempty,min=0"`
	Date        *string         `json:"date"         validate:"omitempty,datetime=2006-01-02"`
	Notes       *string         `json:"notes"        validate:"omitempty,max=500"`
}

type ReverseRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=200"`
}

type ConsumptionFilter struct {
	From      string `form:"from"        validate:"omitempty,datetime=2006-01-02"`
	To        string `form:"to"          validate:"omitempty,datetime=2006-01-02"`
	FeedLotID string `form:"feed_lot_id" validate:"omitempty,uuid"`
	Manual    string `form:"manual"      validate:"omitempty,oneof=true false"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SettingResponse struct {
	Species                   string          `json:"species"`
	FeedType                  string          `json:"feed_type"`
	DailyConsumptionPerAnimal decimal.Decimal `json:"daily_consumption_per_animal"`
	AutoDeductEnabled         bool            `json:"auto_deduct_enabled"`
	UpdatedAt                 string          `json:"updated_at"`
}

type ConsumptionRecordResponse struct {
	ID                     string          `json:"id"`
	ConsumptionDate        string          `json:"consumption_date"`
	Species                string          `json:"species"`
	FeedType               string          `json:"feed_type"`
	FeedLotID              *string         `json:"feed_lot_id"`
	TotalConsumption       decimal.Decimal `json:"total_consumption"`
	RequiredConsumption    decimal.Decimal `json:"required_consumption"`
	Shortfall              decimal.Decimal `json:"shortfall"`
	TotalAnimalsCount      int             `json:"total_animals_count"`
	RemainingStockSnapshot decimal.Decimal `json:"remaining_stock_snapshot"`
	IsManual               bool            `json:"is_manual"`
	Notes                  *string         `json:"notes"`
	ReversalOf             *string         `json:"reversal_of"`
	CreatedAt              string          `json:"created_at"`
}

// PartialFulfillmentWarning is a soft condition: the record was written but
// less feed was available than the policy required.
type PartialFulfillmentWarning struct {
	Species   string          `json:"species"`
	FeedType  string          `json:"feed_type"`
	Required  decimal.Decimal `json:"required"`
	Deducted  decimal.Decimal `json:"deducted"`
	Shortfall decimal.Decimal `json:"shortfall"`
}

// SkippedUnit is a (species, feed_type) pair the engine did not process.
type SkippedUnit struct {
	Species  string `json:"species"`
	FeedType string `json:"feed_type"`
	Reason   string `json:"reason"` // already_processed | no_active_animals | zero_rate
}

type DeductionResult struct {
	OwnerID  string                      `json:"owner_id"`
	Date     string                      `json:"date"`
	Records  []ConsumptionRecordResponse `json:"records"`
	Skipped  []SkippedUnit               `json:"skipped"`
	Warnings []PartialFulfillmentWarning `json:"warnings"`
	Alerts   []StockAlert                `json:"alerts"`
}

type ManualConsumptionResponse struct {
	Record ConsumptionRecordResponse `json:"record"`
	Lot    FeedLotResponse           `json:"lot"`
	Alerts []StockAlert              `json:"alerts"`
}

type ConsumptionListResponse struct {
	Data  []ConsumptionRecordResponse `json:"data"`
	Total int64                       `json:"total"`
	Page  int                         `json:"page"`
	Limit int                         `json:"limit"`
}
