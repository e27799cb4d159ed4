package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/dto"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/model"
)

func TestUpsertSetting_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := dto.UpsertSettingRequest{Species: "cattle", FeedType: "roughage", DailyConsumptionPerAnimal: d("8.5"), AutoDeductEnabled: true}

	_, err := f.policy.UpsertSetting(ctx, f.owner, req)
	require.NoError(t, err)
	_, err = f.policy.UpsertSetting(ctx, f.owner, req)
	require.NoError(t, err)

	req.DailyConsumptionPerAnimal = d("9")
	_, err = f.policy.UpsertSetting(ctx, f.owner, req)
	require.NoError(t, err)

	all, err := f.policy.GetSettings(ctx, f.owner)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assertDec(t, "9", all[0].DailyConsumptionPerAnimal)
	assert.True(t, all[0].AutoDeductEnabled)
}

func TestUpsertSetting_Validation(t *testing.T) {
	f := newFixture(t)
	cases := []dto.UpsertSettingRequest{
		{Species: "horse", FeedType: "roughage"},
		{Species: string(model.SpeciesManual), FeedType: "roughage"},
		{Species: "cattle", FeedType: "silage"},
		{Species: "cattle", FeedType: "roughage", DailyConsumptionPerAnimal: d("-1")},
		{Species: "cattle", FeedType: "roughage", DailyConsumptionPerAnimal: d("0.0005")},
	}
	for _, req := range cases {
		_, err := f.policy.UpsertSetting(context.Background(), f.owner, req)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, "%+v", req)
	}
	assert.Empty(t, f.store.settings)
}

func TestDeleteSetting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setRate(model.SpeciesGoat, model.FeedSupplement, "0.1", false)

	require.NoError(t, f.policy.DeleteSetting(ctx, f.owner, "goat", "supplement"))

	err := f.policy.DeleteSetting(ctx, f.owner, "goat", "supplement")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)

	err = f.policy.DeleteSetting(ctx, f.owner, "goat", "pellets")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestScanLowStock_Severity(t *testing.T) {
	f := newFixture(t)
	f.seedLot("Plenty", model.FeedRoughage, "50", "10", "2025-01-01", nil)
	low := f.seedLot("Low", model.FeedRoughage, "10", "10", "2025-01-01", nil)
	empty := f.seedLot("Empty", model.FeedSupplement, "0", "0", "2025-01-01", nil)

	alerts, err := f.alerts.ScanLowStock(context.Background(), f.owner)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, empty.String(), alerts[0].FeedLotID)
	assert.Equal(t, dto.SeverityOutOfStock, alerts[0].Severity)
	assert.Equal(t, low.String(), alerts[1].FeedLotID)
	assert.Equal(t, dto.SeverityLowStock, alerts[1].Severity)
	assert.Empty(t, f.notifier.calls, "scanning never notifies")
}

func TestNotify_NilNotifierIsNoOp(t *testing.T) {
	svc := NewAlertService(&stubLotRepo{s: newMemStore()}, nil)
	err := svc.Notify(context.Background(), uuid.New(), []dto.StockAlert{{Severity: dto.SeverityLowStock}})
	assert.NoError(t, err)
}
