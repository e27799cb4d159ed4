package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/dto"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/model"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/repository"
)

const (
	SkipAlreadyProcessed = "already_processed"
	SkipNoActiveAnimals  = "no_active_animals"
	SkipZeroRate         = "zero_rate"
)

// errAlreadyProcessed aborts a unit whose automatic record already exists.
var errAlreadyProcessed = errors.New("consumption already recorded for this day")

// DeductionService turns the consumption policy into stock decrements.
type DeductionService interface {
	// RunDaily processes every enabled (species, feed_type) setting for one
	// day. day == nil means today in the farm timezone. Re-running a day is a
	// no-op for units already recorded.
	RunDaily(ctx context.Context, ownerID uuid.UUID, day *time.Time) (*dto.DeductionResult, error)
	// RunForAllOwners runs RunDaily for every owner with an enabled setting.
	// One owner failing does not stop the others.
	RunForAllOwners(ctx context.Context, day *time.Time) ([]dto.DeductionResult, error)
	AddManualConsumption(ctx context.Context, ownerID uuid.UUID, req dto.ManualConsumptionRequest) (*dto.ManualConsumptionResponse, error)
	ReverseConsumption(ctx context.Context, ownerID, recordID uuid.UUID, reason string) (*dto.ConsumptionRecordResponse, error)
	ListRecords(ctx context.Context, ownerID uuid.UUID, filter dto.ConsumptionFilter) (*dto.ConsumptionListResponse, error)
}

type deductionService struct {
	tx       repository.TxRunner
	settings repository.ConsumptionSettingRepository
	records  repository.ConsumptionRecordRepository
	lots     repository.FeedLotRepository
	animals  repository.AnimalRepository
	alerts   AlertService
	stock    stockWriter
	loc      *time.Location
	now      func() time.Time
}

func NewDeductionService(
	tx repository.TxRunner,
	settings repository.ConsumptionSettingRepository,
	records repository.ConsumptionRecordRepository,
	lots repository.FeedLotRepository,
	moves repository.StockMovementRepository,
	animals repository.AnimalRepository,
	alerts AlertService,
	loc *time.Location,
) DeductionService {
	if loc == nil {
		loc = time.UTC
	}
	return &deductionService{
		tx:       tx,
		settings: settings,
		records:  records,
		lots:     lots,
		animals:  animals,
		alerts:   alerts,
		stock:    stockWriter{lots: lots, moves: moves},
		loc:      loc,
		now:      time.Now,
	}
}

func (s *deductionService) today() time.Time { return dateOf(s.now(), s.loc) }

// normalizeDay keeps the calendar date of t, whatever its zone.
func normalizeDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *deductionService) RunDaily(ctx context.Context, ownerID uuid.UUID, day *time.Time) (*dto.DeductionResult, error) {
	date := s.today()
	if day != nil {
		date = normalizeDay(*day)
	}

	settings, err := s.settings.ListEnabled(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list enabled settings: %w", err)
	}
	counts, err := s.animals.CountActiveBySpecies(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("count active animals: %w", err)
	}

	result := &dto.DeductionResult{
		OwnerID:  ownerID.String(),
		Date:     fmtDate(date),
		Records:  []dto.ConsumptionRecordResponse{},
		Skipped:  []dto.SkippedUnit{},
		Warnings: []dto.PartialFulfillmentWarning{},
		Alerts:   []dto.StockAlert{},
	}
	skip := func(st *model.ConsumptionSetting, reason string) {
		result.Skipped = append(result.Skipped, dto.SkippedUnit{
			Species: string(st.Species), FeedType: string(st.FeedType), Reason: reason,
		})
	}

	for i := range settings {
		st := &settings[i]
		count := counts[st.Species]
		if count == 0 {
			skip(st, SkipNoActiveAnimals)
			continue
		}
		if !st.DailyConsumptionPerAnimal.IsPositive() {
			skip(st, SkipZeroRate)
			continue
		}
		required := st.DailyConsumptionPerAnimal.Mul(decimal.NewFromInt(int64(count)))

		rec, err := s.deductUnit(ctx, ownerID, date, st, count, required)
		if errors.Is(err, errAlreadyProcessed) {
			log.Debug().Str("owner_id", ownerID.String()).Str("species", string(st.Species)).
				Str("feed_type", string(st.FeedType)).Str("date", fmtDate(date)).
				Msg("deduction unit already processed, skipping")
			skip(st, SkipAlreadyProcessed)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("deduct %s/%s: %w", st.Species, st.FeedType, err)
		}

		result.Records = append(result.Records, recordToResponse(rec))
		if rec.Shortfall.IsPositive() {
			log.Warn().Str("owner_id", ownerID.String()).Str("species", string(st.Species)).
				Str("feed_type", string(st.FeedType)).Str("required", required.String()).
				Str("shortfall", rec.Shortfall.String()).Msg("partial fulfillment")
			result.Warnings = append(result.Warnings, dto.PartialFulfillmentWarning{
				Species:   string(st.Species),
				FeedType:  string(st.FeedType),
				Required:  required,
				Deducted:  rec.TotalConsumption,
				Shortfall: rec.Shortfall,
			})
		}
	}

	if len(result.Records) > 0 {
		result.Alerts = scanAfterWrite(ctx, s.alerts, ownerID)
	}
	log.Info().Str("owner_id", ownerID.String()).Str("date", result.Date).
		Int("records", len(result.Records)).Int("skipped", len(result.Skipped)).
		Int("warnings", len(result.Warnings)).Msg("daily deduction finished")
	return result, nil
}

// deductUnit draws required from the feed type's lots in FEFO order inside a
// single transaction. The partial unique index on automatic records makes a
// concurrent duplicate fail on insert, which rolls the whole unit back.
func (s *deductionService) deductUnit(ctx context.Context, ownerID uuid.UUID, date time.Time, st *model.ConsumptionSetting, count int, required decimal.Decimal) (*model.ConsumptionRecord, error) {
	var rec *model.ConsumptionRecord
	err := runTx(ctx, s.tx, func(tx *gorm.DB) error {
		exists, err := s.records.ExistsAutomaticTx(tx, ownerID, date, st.Species, st.FeedType)
		if err != nil {
			return err
		}
		if exists {
			return errAlreadyProcessed
		}

		lots, err := s.lots.ListForDeductionTx(tx, ownerID, st.FeedType)
		if err != nil {
			return err
		}

		recID := uuid.New()
		remaining := required
		var firstLot *uuid.UUID
		reason := fmt.Sprintf("daily consumption %s %s", st.Species, fmtDate(date))
		for i := range lots {
			if !remaining.IsPositive() {
				break
			}
			lot := &lots[i]
			take := decimal.Min(lot.Quantity, remaining)
			if !take.IsPositive() {
				continue
			}
			if _, err := s.stock.moveTx(tx, lot, take.Neg(), model.MoveAutoConsumption, reason, &recID); err != nil {
				return err
			}
			if firstLot == nil {
				id := lot.ID
				firstLot = &id
			}
			remaining = remaining.Sub(take)
		}

		snapshot, err := s.lots.SumQuantityTx(tx, ownerID, st.FeedType)
		if err != nil {
			return err
		}
		rec = &model.ConsumptionRecord{
			ID:                     recID,
			OwnerID:                ownerID,
			ConsumptionDate:        date,
			Species:                st.Species,
			FeedType:               st.FeedType,
			FeedLotID:              firstLot,
			TotalConsumption:       required.Sub(remaining),
			RequiredConsumption:    required,
			Shortfall:              remaining,
			TotalAnimalsCount:      count,
			RemainingStockSnapshot: snapshot,
		}
		if err := s.records.CreateTx(tx, rec); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errAlreadyProcessed
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *deductionService) RunForAllOwners(ctx context.Context, day *time.Time) ([]dto.DeductionResult, error) {
	owners, err := s.settings.OwnersWithAutoDeduct(ctx)
	if err != nil {
		return nil, fmt.Errorf("list owners with auto deduct: %w", err)
	}
	results := make([]dto.DeductionResult, 0, len(owners))
	var errs []error
	for _, ownerID := range owners {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := s.RunDaily(ctx, ownerID, day)
		if err != nil {
			log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("daily deduction failed")
			errs = append(errs, fmt.Errorf("owner %s: %w", ownerID, err))
			continue
		}
		results = append(results, *res)
	}
	return results, errors.Join(errs...)
}

// AddManualConsumption takes feed out of one lot. It never clamps: asking for
// more than the lot holds is an InsufficientStockError.
func (s *deductionService) AddManualConsumption(ctx context.Context, ownerID uuid.UUID, req dto.ManualConsumptionRequest) (*dto.ManualConsumptionResponse, error) {
	errs := fieldErrors{}
	lotID, err := uuid.Parse(req.FeedLotID)
	if err != nil {
		errs.add("feed_lot_id", "must be a uuid")
	}
	if !req.Amount.IsPositive() {
		errs.add("amount", "must be > 0")
	}
	errs.scale("amount", req.Amount, quantityScale)
	count := 0
	if req.AnimalCount != nil {
		if *req.AnimalCount < 0 {
			errs.add("animal_count", "must be >= 0")
		}
		count = *req.AnimalCount
	}
	date := s.today()
	if req.Date != nil && *req.Date != "" {
		d, err := parseDate("date", *req.Date)
		if err != nil {
			errs.add("date", "must be a date in YYYY-MM-DD format")
		}
		date = d
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	var (
		lot *model.FeedLot
		rec *model.ConsumptionRecord
	)
	err = runTx(ctx, s.tx, func(tx *gorm.DB) error {
		var err error
		lot, err = s.lots.FindByIDForUpdateTx(tx, ownerID, lotID)
		if err != nil {
			return notFoundOr(err, "feed lot", lotID)
		}
		recID := uuid.New()
		reason := "manual consumption"
		if req.Notes != nil && strings.TrimSpace(*req.Notes) != "" {
			reason = strings.TrimSpace(*req.Notes)
		}
		if _, err := s.stock.moveTx(tx, lot, req.Amount.Neg(), model.MoveManualConsumption, reason, &recID); err != nil {
			return err
		}
		snapshot, err := s.lots.SumQuantityTx(tx, ownerID, lot.FeedType)
		if err != nil {
			return err
		}
		lotRef := lot.ID
		rec = &model.ConsumptionRecord{
			ID:                     recID,
			OwnerID:                ownerID,
			ConsumptionDate:        date,
			Species:                model.SpeciesManual,
			FeedType:               lot.FeedType,
			FeedLotID:              &lotRef,
			TotalConsumption:       req.Amount,
			RequiredConsumption:    req.Amount,
			Shortfall:              decimal.Zero,
			TotalAnimalsCount:      count,
			RemainingStockSnapshot: snapshot,
			IsManual:               true,
			Notes:                  req.Notes,
		}
		return s.records.CreateTx(tx, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("manual consumption: %w", err)
	}

	return &dto.ManualConsumptionResponse{
		Record: recordToResponse(rec),
		Lot:    lotToResponse(lot),
		Alerts: scanAfterWrite(ctx, s.alerts, ownerID),
	}, nil
}

// ReverseConsumption puts back every quantity the record took, lot by lot,
// and writes an offsetting manual record pointing at the original.
func (s *deductionService) ReverseConsumption(ctx context.Context, ownerID, recordID uuid.UUID, reason string) (*dto.ConsumptionRecordResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("reason", "required")
	}
	orig, err := s.records.FindByID(ctx, ownerID, recordID)
	if err != nil {
		return nil, notFoundOr(err, "consumption record", recordID)
	}
	if orig.ReversalOf != nil {
		return nil, &ConflictError{Resource: "consumption record", ID: recordID, Reason: "a reversal cannot be reversed"}
	}
	alreadyReversed := &ConflictError{Resource: "consumption record", ID: recordID, Reason: "already reversed"}

	var rev *model.ConsumptionRecord
	err = runTx(ctx, s.tx, func(tx *gorm.DB) error {
		done, err := s.records.HasReversalTx(tx, recordID)
		if err != nil {
			return err
		}
		if done {
			return alreadyReversed
		}
		moves, err := s.stock.moves.ListByReferenceTx(tx, ownerID, recordID)
		if err != nil {
			return err
		}

		revID := uuid.New()
		restored := decimal.Zero
		for i := range moves {
			m := &moves[i]
			if !m.Delta.IsNegative() {
				continue
			}
			lot, err := s.lots.FindByIDForUpdateTx(tx, ownerID, m.FeedLotID)
			if err != nil {
				return notFoundOr(err, "feed lot", m.FeedLotID)
			}
			if _, err := s.stock.moveTx(tx, lot, m.Delta.Neg(), model.MoveReversal, reason, &revID); err != nil {
				return err
			}
			restored = restored.Add(m.Delta.Neg())
		}

		snapshot, err := s.lots.SumQuantityTx(tx, ownerID, orig.FeedType)
		if err != nil {
			return err
		}
		origID := orig.ID
		rev = &model.ConsumptionRecord{
			ID:                     revID,
			OwnerID:                ownerID,
			ConsumptionDate:        s.today(),
			Species:                orig.Species,
			FeedType:               orig.FeedType,
			FeedLotID:              orig.FeedLotID,
			TotalConsumption:       restored.Neg(),
			RequiredConsumption:    decimal.Zero,
			Shortfall:              decimal.Zero,
			TotalAnimalsCount:      0,
			RemainingStockSnapshot: snapshot,
			IsManual:               true,
			Notes:                  &reason,
			ReversalOf:             &origID,
		}
		if err := s.records.CreateTx(tx, rev); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return alreadyReversed
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reverse consumption: %w", err)
	}

	log.Info().Str("owner_id", ownerID.String()).Str("record_id", recordID.String()).
		Str("restored", rev.TotalConsumption.Neg().String()).Msg("consumption record reversed")
	scanAfterWrite(ctx, s.alerts, ownerID)
	resp := recordToResponse(rev)
	return &resp, nil
}

func (s *deductionService) ListRecords(ctx context.Context, ownerID uuid.UUID, filter dto.ConsumptionFilter) (*dto.ConsumptionListResponse, error) {
	errs := fieldErrors{}
	f := repository.ConsumptionRecordFilter{}
	f.Page, f.Limit = repository.RecordPageSize.Normalize(filter.Page, filter.Limit)
	if from, err := parseOptionalDate("from", &filter.From); err != nil {
		errs.add("from", "must be a date in YYYY-MM-DD format")
	} else {
		f.From = from
	}
	if to, err := parseOptionalDate("to", &filter.To); err != nil {
		errs.add("to", "must be a date in YYYY-MM-DD format")
	} else {
		f.To = to
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		errs.add("to", "must not be before from")
	}
	if id, err := parseOptionalUUID("feed_lot_id", &filter.FeedLotID); err != nil {
		errs.add("feed_lot_id", "must be a uuid")
	} else {
		f.FeedLotID = id
	}
	if manual, err := parseOptionalBool("manual", filter.Manual); err != nil {
		errs.add("manual", "must be true or false")
	} else {
		f.Manual = manual
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	records, total, err := s.records.List(ctx, ownerID, f)
	if err != nil {
		return nil, fmt.Errorf("list consumption records: %w", err)
	}
	out := make([]dto.ConsumptionRecordResponse, 0, len(records))
	for i := range records {
		out = append(out, recordToResponse(&records[i]))
	}
	return &dto.ConsumptionListResponse{Data: out, Total: total, Page: f.Page, Limit: f.Limit}, nil
}
