package dto

import "github.com/shopspring/decimal"

const (
	SeverityLowStock   = "LOW_STOCK"
	SeverityOutOfStock = "OUT_OF_STOCK"
)

type StockAlert struct {
	FeedLotID     string          `json:"feed_lot_id"`
	FeedName      string          `json:"feed_name"`
	FeedType      string          `json:"feed_type"`
	Unit          string          `json:"unit"`
	Quantity      decimal.Decimal `json:"quantity"`
	MinStockLevel decimal.Decimal `json:"min_stock_level"`
	Severity      string          `json:"severity"`
}
