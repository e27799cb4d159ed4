package dto

import "github.com/shopspring/decimal"

type ReportRangeRequest struct {
	From string `form:"from" validate:"required,datetime=2006-01-02"`
	To   string `form:"to"   validate:"required,datetime=2006-01-02"`
}

type CategoryTotals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Count   int             `json:"count"`
}

type FinancialReport struct {
	StartDate    string                    `json:"start_date"`
	EndDate      string                    `json:"end_date"`
	TotalIncome  decimal.Decimal           `json:"total_income"`
	TotalExpense decimal.Decimal           `json:"total_expense"`
	TotalProfit  decimal.Decimal           `json:"total_profit"`
	Categories   map[string]CategoryTotals `json:"categories"`
}

type AnimalProfitLine struct {
	Animal        AnimalResponse  `json:"animal"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	ProfitLoss    decimal.Decimal `json:"profit_loss"`
	SaleDate      string          `json:"sale_date"`
}

type AnimalProfitReport struct {
	Items           []AnimalProfitLine `json:"items"`
	TotalProfitLoss decimal.Decimal    `json:"total_profit_loss"`
	// Excluded counts sold animals with no matching sale entry.
	Excluded int `json:"excluded"`
}
