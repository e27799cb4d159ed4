package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/cache"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/dto"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/model"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/repository"
)

const dateLayout = "2006-01-02"

// runTx executes fn inside a transaction when a runner is available,
// or calls fn(nil) directly when it is nil (unit test mode).
func runTx(ctx context.Context, runner repository.TxRunner, fn func(tx *gorm.DB) error) error {
	if runner == nil {
		return fn(nil)
	}
	return runner.RunInTx(ctx, fn)
}

// parseDate reads a calendar date. Dates are stored at UTC midnight.
func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, invalid(field, "must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

func parseOptionalDate(field string, s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := parseDate(field, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseOptionalUUID(field string, s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, invalid(field, "must be a uuid")
	}
	return &id, nil
}

func parseOptionalBool(field, s string) (*bool, error) {
	switch s {
	case "":
		return nil, nil
	case "true":
		v := true
		return &v, nil
	case "false":
		v := false
		return &v, nil
	}
	return nil, invalid(field, "must be true or false")
}

// dateOf truncates t to its calendar day in loc, returned at UTC midnight.
func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fmtDate(t time.Time) string { return t.Format(dateLayout) }

func fmtOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := fmtDate(*t)
	return &s
}

func fmtTimestamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func optionalID(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// money rounds a derived amount to the ledger's two decimals.
func money(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// invalidateReports drops cached reports after a committed ledger write.
// A failure only means a stale report until the TTL expires.
func invalidateReports(ctx context.Context, c cache.ReportCache, ownerID uuid.UUID) {
	if c == nil {
		return
	}
	if err := c.InvalidateOwner(ctx, ownerID); err != nil {
		log.Warn().Err(err).Str("owner_id", ownerID.String()).Msg("report cache invalidation failed")
	}
}

// scanAfterWrite runs the low-stock scan once a stock mutation committed and
// hands the result to the notifier. Errors are logged; the write stands.
func scanAfterWrite(ctx context.Context, alerts AlertService, ownerID uuid.UUID) []dto.StockAlert {
	if alerts == nil {
		return []dto.StockAlert{}
	}
	found, err := alerts.ScanLowStock(ctx, ownerID)
	if err != nil {
		log.Warn().Err(err).Str("owner_id", ownerID.String()).Msg("low stock scan failed")
		return []dto.StockAlert{}
	}
	if err := alerts.Notify(ctx, ownerID, found); err != nil {
		log.Warn().Err(err).Str("owner_id", ownerID.String()).Msg("stock alert notification failed")
	}
	return found
}

// ── mappers ──────────────────────────────────────────────────────────────────

func lotToResponse(l *model.FeedLot) dto.FeedLotResponse {
	return dto.FeedLotResponse{
		ID:            l.ID.String(),
		FeedName:      l.FeedName,
		FeedType:      string(l.FeedType),
		Unit:          string(l.Unit),
		Quantity:      l.Quantity,
		PricePerUnit:  l.PricePerUnit,
		MinStockLevel: l.MinStockLevel,
		StockValue:    money(l.Value()),
		PurchaseDate:  fmtDate(l.PurchaseDate),
		ExpiryDate:    fmtOptionalDate(l.ExpiryDate),
		Notes:         l.Notes,
		CreatedAt:     fmtTimestamp(l.CreatedAt),
		UpdatedAt:     fmtTimestamp(l.UpdatedAt),
	}
}

func movementToResponse(m *model.StockMovement) dto.StockMovementResponse {
	return dto.StockMovementResponse{
		ID:             m.ID.String(),
		FeedLotID:      m.FeedLotID.String(),
		Kind:           string(m.Kind),
		Delta:          m.Delta,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		Reason:         m.Reason,
		ReferenceID:    optionalID(m.ReferenceID),
		CreatedAt:      fmtTimestamp(m.CreatedAt),
	}
}

func animalToResponse(a *model.Animal) dto.AnimalResponse {
	return dto.AnimalResponse{
		ID:            a.ID.String(),
		TagNumber:     a.TagNumber,
		Species:       string(a.Species),
		Gender:        string(a.Gender),
		Status:        string(a.Status),
		BirthDate:     fmtOptionalDate(a.BirthDate),
		PurchasePrice: a.PurchasePrice,
		PurchaseDate:  fmtOptionalDate(a.PurchaseDate),
		Weight:        a.Weight,
		Notes:         a.Notes,
		Locked:        a.Status.Terminal(),
		CreatedAt:     fmtTimestamp(a.CreatedAt),
	}
}

func entryToResponse(e *model.TransactionEntry) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:          e.ID.String(),
		Type:        string(e.Type),
		Category:    string(e.Category),
		Amount:      e.Amount,
		Date:        fmtDate(e.Date),
		Description: e.Description,
		AnimalID:    optionalID(e.AnimalID),
		FeedID:      optionalID(e.FeedID),
		Quantity:    e.Quantity,
		UnitPrice:   e.UnitPrice,
		IsAutomatic: e.IsAutomatic,
		ReversalOf:  optionalID(e.ReversalOf),
		CreatedAt:   fmtTimestamp(e.CreatedAt),
	}
}

func settingToResponse(s *model.ConsumptionSetting) dto.SettingResponse {
	return dto.SettingResponse{
		Species:                   string(s.Species),
		FeedType:                  string(s.FeedType),
		DailyConsumptionPerAnimal: s.DailyConsumptionPerAnimal,
		AutoDeductEnabled:         s.AutoDeductEnabled,
		UpdatedAt:                 fmtTimestamp(s.UpdatedAt),
	}
}

func recordToResponse(r *model.ConsumptionRecord) dto.ConsumptionRecordResponse {
	return dto.ConsumptionRecordResponse{
		ID:                     r.ID.String(),
		ConsumptionDate:        fmtDate(r.ConsumptionDate),
		Species:                string(r.Species),
		FeedType:               string(r.FeedType),
		FeedLotID:              optionalID(r.FeedLotID),
		TotalConsumption:       r.TotalConsumption,
		RequiredConsumption:    r.RequiredConsumption,
		Shortfall:              r.Shortfall,
		TotalAnimalsCount:      r.TotalAnimalsCount,
		RemainingStockSnapshot: r.RemainingStockSnapshot,
		IsManual:               r.IsManual,
		Notes:                  r.Notes,
		ReversalOf:             optionalID(r.ReversalOf),
		CreatedAt:              fmtTimestamp(r.CreatedAt),
	}
}
