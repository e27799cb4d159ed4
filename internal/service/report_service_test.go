package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/dto"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/model"
)

func TestSummarize_EveryCategoryPresent(t *testing.T) {
	entries := []model.TransactionEntry{
		{Type: model.TxIncome, Category: model.CatMilkSale, Amount: d("1200")},
		{Type: model.TxExpense, Category: model.CatFeedPurchase, Amount: d("450.50")},
		{Type: model.TxExpense, Category: model.CatFeedPurchase, Amount: d("49.50")},
		// reversal of a veterinary expense books income under the same category
		{Type: model.TxExpense, Category: model.CatVeterinary, Amount: d("80")},
		{Type: model.TxIncome, Category: model.CatVeterinary, Amount: d("80")},
	}
	r := summarize(entries, day("2025-03-01"), day("2025-03-31"))

	assert.Equal(t, "2025-03-01", r.StartDate)
	assert.Equal(t, "2025-03-31", r.EndDate)
	assert.Len(t, r.Categories, len(model.AllCategories))
	assertDec(t, "1280", r.TotalIncome)
	assertDec(t, "580", r.TotalExpense)
	assertDec(t, "700", r.TotalProfit)

	feed := r.Categories["feed_purchase"]
	assertDec(t, "500", feed.Expense)
	assert.Equal(t, 2, feed.Count)
	vet := r.Categories["veterinary"]
	assertDec(t, "0", vet.Income.Sub(vet.Expense))
	assert.Zero(t, r.Categories["tax"].Count)
	assertDec(t, "0", r.Categories["tax"].Income)
}

func TestGetFinancialReport_RangeValidation(t *testing.T) {
	f := newFixture(t)
	for _, req := range []dto.ReportRangeRequest{
		{From: "2025-03-10", To: "2025-03-01"},
		{From: "march", To: "2025-03-01"},
		{From: "2025-03-01"},
	} {
		_, err := f.reports.GetFinancialReport(context.Background(), f.owner, req)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, "%+v", req)
	}
}

func TestGetFinancialReport_InclusiveRangeAndCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, e := range []dto.CreateTransactionRequest{
		expense(model.CatFuel, "100", "2025-02-28"),
		expense(model.CatFuel, "40", "2025-03-01"),
		expense(model.CatLabor, "60", "2025-03-31"),
		expense(model.CatLabor, "999", "2025-04-01"),
	} {
		_, err := f.ledger.Record(ctx, f.owner, e)
		require.NoError(t, err)
	}
	req := dto.ReportRangeRequest{From: "2025-03-01", To: "2025-03-31"}

	first, err := f.reports.GetFinancialReport(ctx, f.owner, req)
	require.NoError(t, err)
	assertDec(t, "100", first.TotalExpense)
	assertDec(t, "-100", first.TotalProfit)
	assert.Equal(t, 1, f.store.rangeCalls)

	_, err = f.reports.GetFinancialReport(ctx, f.owner, req)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.rangeCalls, "second read is served from cache")

	_, err = f.ledger.Record(ctx, f.owner, expense(model.CatLabor, "5", "2025-03-15"))
	require.NoError(t, err)
	third, err := f.reports.GetFinancialReport(ctx, f.owner, req)
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.rangeCalls)
	assertDec(t, "105", third.TotalExpense)
}

func TestGetAnimalProfitReport_ExcludesSoldWithoutSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cow := f.seedAnimal("C-1", model.SpeciesCattle, model.AnimalActive, "1500")
	lamb := f.seedAnimal("S-1", model.SpeciesSheep, model.AnimalActive, "300")
	f.seedAnimal("G-1", model.SpeciesGoat, model.AnimalSold, "250")
	f.seedAnimal("C-2", model.SpeciesCattle, model.AnimalActive, "1000")

	_, err := f.ledger.RecordAnimalSale(ctx, f.owner, cow, dto.AnimalSaleRequest{Amount: d("2000"), Date: "2025-03-01"})
	require.NoError(t, err)
	_, err = f.ledger.RecordAnimalSale(ctx, f.owner, lamb, dto.AnimalSaleRequest{Amount: d("220"), Date: "2025-03-02"})
	require.NoError(t, err)

	report, err := f.reports.GetAnimalProfitReport(ctx, f.owner)
	require.NoError(t, err)
	require.Len(t, report.Items, 2)
	assert.Equal(t, 1, report.Excluded)
	assert.Equal(t, "C-1", report.Items[0].Animal.TagNumber)
	assertDec(t, "500", report.Items[0].ProfitLoss)
	assert.Equal(t, "2025-03-01", report.Items[0].SaleDate)
	assertDec(t, "-80", report.Items[1].ProfitLoss)
	assertDec(t, "420", report.TotalProfitLoss)
}

func TestGetAnimalProfitReport_IgnoresReversedSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.seedAnimal("C-1", model.SpeciesCattle, model.AnimalSold, "1500")
	sale := &model.TransactionEntry{
		OwnerID: f.owner, Type: model.TxIncome, Category: model.CatAnimalSale,
		Amount: d("2000"), Date: day("2025-03-01"), AnimalID: &id, IsAutomatic: true,
	}
	require.NoError(t, f.ledgerR.CreateTx(nil, sale))
	saleID := sale.ID
	require.NoError(t, f.ledgerR.CreateTx(nil, &model.TransactionEntry{
		OwnerID: f.owner, Type: model.TxExpense, Category: model.CatAnimalSale,
		Amount: d("2000"), Date: day("2025-03-02"), AnimalID: &id, ReversalOf: &saleID,
	}))

	report, err := f.reports.GetAnimalProfitReport(ctx, f.owner)
	require.NoError(t, err)
	assert.Empty(t, report.Items)
	assert.Equal(t, 1, report.Excluded)
}

func TestRenderFinancialReportPDF(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ledger.Record(ctx, f.owner, expense(model.CatInsurance, "75", "2025-03-03"))
	require.NoError(t, err)

	pdf, err := f.reports.RenderFinancialReportPDF(ctx, f.owner, dto.ReportRangeRequest{From: "2025-03-01", To: "2025-03-31"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))

	_, err = f.reports.RenderFinancialReportPDF(ctx, uuid.New(), dto.ReportRangeRequest{From: "x", To: "y"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
