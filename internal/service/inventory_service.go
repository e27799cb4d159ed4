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

	"github.com/YLCALP/ciftlik360-master-sub000/internal/cache"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/dto"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/model"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/repository"
)

// InventoryService owns feed lots and animal records. Stock mutations return
// the low-stock alerts raised by the write.
type InventoryService interface {
	GetFeedLots(ctx context.Context, ownerID uuid.UUID) ([]dto.FeedLotResponse, error)
	GetFeedLot(ctx context.Context, ownerID, id uuid.UUID) (*dto.FeedLotResponse, error)
	UpsertFeedLot(ctx context.Context, ownerID uuid.UUID, req dto.UpsertFeedLotRequest) (*dto.FeedLotMutationResponse, error)
	AdjustQuantity(ctx context.Context, ownerID, id uuid.UUID, req dto.AdjustQuantityRequest) (*dto.AdjustQuantityResponse, error)
	RestockFeedLot(ctx context.Context, ownerID, id uuid.UUID, req dto.RestockRequest) (*dto.FeedLotMutationResponse, error)
	DeleteFeedLot(ctx context.Context, ownerID, id uuid.UUID) error
	ListMovements(ctx context.Context, ownerID, id uuid.UUID, page, limit int) (*dto.StockMovementListResponse, error)

	GetAnimals(ctx context.Context, ownerID uuid.UUID, filter dto.AnimalFilter) ([]dto.AnimalResponse, error)
	GetAnimal(ctx context.Context, ownerID, id uuid.UUID) (*dto.AnimalResponse, error)
	UpdateAnimal(ctx context.Context, ownerID, id uuid.UUID, req dto.UpdateAnimalRequest) (*dto.AnimalResponse, error)
	SetAnimalStatus(ctx context.Context, ownerID, id uuid.UUID, status string) (*dto.AnimalResponse, error)
	DeleteAnimal(ctx context.Context, ownerID, id uuid.UUID) error
}

type inventoryService struct {
	tx      repository.TxRunner
	lots    repository.FeedLotRepository
	moves   repository.StockMovementRepository
	animals repository.AnimalRepository
	ledger  repository.TransactionRepository
	alerts  AlertService
	reports cache.ReportCache
	stock   stockWriter
}

func NewInventoryService(
	tx repository.TxRunner,
	lots repository.FeedLotRepository,
	moves repository.StockMovementRepository,
	animals repository.AnimalRepository,
	ledger repository.TransactionRepository,
	alerts AlertService,
	reports cache.ReportCache,
) InventoryService {
	return &inventoryService{
		tx:      tx,
		lots:    lots,
		moves:   moves,
		animals: animals,
		ledger:  ledger,
		alerts:  alerts,
		reports: reports,
		stock:   stockWriter{lots: lots, moves: moves},
	}
}

// ── Feed lots ────────────────────────────────────────────────────────────────

func (s *inventoryService) GetFeedLots(ctx context.Context, ownerID uuid.UUID) ([]dto.FeedLotResponse, error) {
	lots, err := s.lots.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list feed lots: %w", err)
	}
	out := make([]dto.FeedLotResponse, 0, len(lots))
	for i := range lots {
		out = append(out, lotToResponse(&lots[i]))
	}
	return out, nil
}

func (s *inventoryService) GetFeedLot(ctx context.Context, ownerID, id uuid.UUID) (*dto.FeedLotResponse, error) {
	lot, err := s.lots.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, notFoundOr(err, "feed lot", id)
	}
	resp := lotToResponse(lot)
	return &resp, nil
}

type lotInput struct {
	name     string
	feedType model.FeedType
	unit     model.Unit
	quantity decimal.Decimal
	price    decimal.Decimal
	minLevel decimal.Decimal
	purchase time.Time
	expiry   *time.Time
	notes    *string
}

func validateLot(req dto.UpsertFeedLotRequest) (*lotInput, error) {
	errs := fieldErrors{}
	in := &lotInput{
		name:     strings.TrimSpace(req.FeedName),
		feedType: model.FeedType(req.FeedType),
		unit:     model.Unit(req.Unit),
		quantity: req.Quantity,
		price:    req.PricePerUnit,
		minLevel: req.MinStockLevel,
		notes:    req.Notes,
	}
	if in.name == "" {
		errs.add("feed_name", "required")
	}
	if !in.feedType.Valid() {
		errs.add("feed_type", "must be one of concentrate, roughage, supplement, other")
	}
	if !in.unit.Valid() {
		errs.add("unit", "must be one of kg, ton, bag, liter")
	}
	if in.quantity.IsNegative() {
		errs.add("quantity", "must be >= 0")
	}
	if in.price.IsNegative() {
		errs.add("price_per_unit", "must be >= 0")
	}
	if in.minLevel.IsNegative() {
		errs.add("min_stock_level", "must be >= 0")
	}
	errs.scale("quantity", in.quantity, quantityScale)
	errs.scale("price_per_unit", in.price, moneyScale)
	errs.scale("min_stock_level", in.minLevel, quantityScale)
	purchase, err := parseDate("purchase_date", req.PurchaseDate)
	if err != nil {
		errs.add("purchase_date", "must be a date in YYYY-MM-DD format")
	}
	in.purchase = purchase
	expiry, err := parseOptionalDate("expiry_date", req.ExpiryDate)
	if err != nil {
		errs.add("expiry_date", "must be a date in YYYY-MM-DD format")
	} else if expiry != nil && !purchase.IsZero() && expiry.Before(purchase) {
		errs.add("expiry_date", "must not be before purchase_date")
	}
	in.expiry = expiry
	if err := errs.err(); err != nil {
		return nil, err
	}
	return in, nil
}

// UpsertFeedLot creates a lot when req.ID is empty. A new lot with stock and
// a price books its feed_purchase expense in the same transaction. Updates
// that change quantity are recorded as a manual adjustment.
func (s *inventoryService) UpsertFeedLot(ctx context.Context, ownerID uuid.UUID, req dto.UpsertFeedLotRequest) (*dto.FeedLotMutationResponse, error) {
	in, err := validateLot(req)
	if err != nil {
		return nil, err
	}
	if req.ID == "" {
		return s.createLot(ctx, ownerID, in)
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, invalid("id", "must be a uuid")
	}
	return s.updateLot(ctx, ownerID, id, in)
}

func (s *inventoryService) createLot(ctx context.Context, ownerID uuid.UUID, in *lotInput) (*dto.FeedLotMutationResponse, error) {
	lot := &model.FeedLot{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		FeedName:      in.name,
		FeedType:      in.feedType,
		Unit:          in.unit,
		Quantity:      decimal.Zero,
		PricePerUnit:  in.price,
		MinStockLevel: in.minLevel,
		PurchaseDate:  in.purchase,
		ExpiryDate:    in.expiry,
		Notes:         in.notes,
	}

	var entry *model.TransactionEntry
	err := runTx(ctx, s.tx, func(tx *gorm.DB) error {
		if err := s.lots.CreateTx(tx, lot); err != nil {
			return err
		}
		if !in.quantity.IsPositive() {
			return nil
		}
		var ref *uuid.UUID
		if in.price.IsPositive() {
			entry = newFeedPurchaseEntry(lot, in.quantity, in.price, in.purchase,
				fmt.Sprintf("Feed purchase: %s", lot.FeedName), true)
			if err := s.ledger.CreateTx(tx, entry); err != nil {
				return err
			}
			ref = &entry.ID
		}
		_, err := s.stock.moveTx(tx, lot, in.quantity, model.MovePurchase, "initial stock", ref)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create feed lot: %w", err)
	}

	log.Info().Str("owner_id", ownerID.String()).Str("feed_lot_id", lot.ID.String()).
		Str("quantity", lot.Quantity.String()).Msg("feed lot created")

	resp := &dto.FeedLotMutationResponse{Lot: lotToResponse(lot)}
	if entry != nil {
		invalidateReports(ctx, s.reports, ownerID)
		tr := entryToResponse(entry)
		resp.Transaction = &tr
	}
	resp.Alerts = scanAfterWrite(ctx, s.alerts, ownerID)
	return resp, nil
}

func (s *inventoryService) updateLot(ctx context.Context, ownerID, id uuid.UUID, in *lotInput) (*dto.FeedLotMutationResponse, error) {
	var lot *model.FeedLot
	err := runTx(ctx, s.tx, func(tx *gorm.DB) error {
		var err error
		lot, err = s.lots.FindByIDForUpdateTx(tx, ownerID, id)
		if err != nil {
			return notFoundOr(err, "feed lot", id)
		}
		lot.FeedName = in.name
		lot.FeedType = in.feedType
		lot.Unit = in.unit
		lot.PricePerUnit = in.price
		lot.MinStockLevel = in.minLevel
		lot.PurchaseDate = in.purchase
		lot.ExpiryDate = in.expiry
		lot.Notes = in.notes

		delta := in.quantity.Sub(lot.Quantity)
		if delta.IsZero() {
			return s.lots.UpdateTx(tx, lot)
		}
		_, err = s.stock.moveTx(tx, lot, delta, model.MoveManualAdjust, "quantity edited", nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update feed lot: %w", err)
	}
	return &dto.FeedLotMutationResponse{
		Lot:    lotToResponse(lot),
		Alerts: scanAfterWrite(ctx, s.alerts, ownerID),
	}, nil
}

// AdjustQuantity applies a signed delta. Taking more than the lot holds is an
// InsufficientStockError unless req.Clamp is set, in which case the lot goes
// to zero and the response reports the smaller actual delta.
func (s *inventoryService) AdjustQuantity(ctx context.Context, ownerID, id uuid.UUID, req dto.AdjustQuantityRequest) (*dto.AdjustQuantityResponse, error) {
	errs := fieldErrors{}
	if req.Delta.IsZero() {
		errs.add("delta", "must not be zero")
	}
	errs.scale("delta", req.Delta, quantityScale)
	if err := errs.err(); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "manual adjustment"
	}

	var (
		lot     *model.FeedLot
		actual  = req.Delta
		clamped bool
	)
	err := runTx(ctx, s.tx, func(tx *gorm.DB) error {
		var err error
		lot, err = s.lots.FindByIDForUpdateTx(tx, ownerID, id)
		if err != nil {
			return notFoundOr(err, "feed lot", id)
		}
		if req.Delta.IsNegative() && req.Delta.Abs().GreaterThan(lot.Quantity) {
			if !req.Clamp {
				return &InsufficientStockError{FeedLotID: lot.ID, Available: lot.Quantity, Requested: req.Delta.Abs()}
			}
			actual = lot.Quantity.Neg()
			clamped = true
		}
		if actual.IsZero() {
			return nil
		}
		_, err = s.stock.moveTx(tx, lot, actual, model.MoveManualAdjust, reason, nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("adjust feed lot: %w", err)
	}
	if clamped {
		log.Warn().Str("feed_lot_id", id.String()).Str("requested", req.Delta.String()).
			Str("actual", actual.String()).Msg("adjustment clamped at zero")
	}
	return &dto.AdjustQuantityResponse{
		Lot:            lotToResponse(lot),
		RequestedDelta: req.Delta,
		ActualDelta:    actual,
		Clamped:        clamped,
		Alerts:         scanAfterWrite(ctx, s.alerts, ownerID),
	}, nil
}

// RestockFeedLot adds purchased stock to an existing lot and books the
// expense. The lot price becomes the weighted average of old and new stock.
func (s *inventoryService) RestockFeedLot(ctx context.Context, ownerID, id uuid.UUID, req dto.RestockRequest) (*dto.FeedLotMutationResponse, error) {
	errs := fieldErrors{}
	if !req.Quantity.IsPositive() {
		errs.add("quantity", "must be > 0")
	}
	if req.UnitPrice.IsNegative() {
		errs.add("unit_price", "must be >= 0")
	}
	errs.scale("quantity", req.Quantity, quantityScale)
	errs.scale("unit_price", req.UnitPrice, moneyScale)
	date, dateErr := parseDate("date", req.Date)
	if dateErr != nil {
		errs.add("date", "must be a date in YYYY-MM-DD format")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	var (
		lot   *model.FeedLot
		entry *model.TransactionEntry
	)
	err := runTx(ctx, s.tx, func(tx *gorm.DB) error {
		var err error
		lot, err = s.lots.FindByIDForUpdateTx(tx, ownerID, id)
		if err != nil {
			return notFoundOr(err, "feed lot", id)
		}
		if req.UnitPrice.IsPositive() {
			total := lot.Quantity.Add(req.Quantity)
			lot.PricePerUnit = lot.Quantity.Mul(lot.PricePerUnit).
				Add(req.Quantity.Mul(req.UnitPrice)).
				Div(total).Round(2)
		}
		var ref *uuid.UUID
		if amount := money(req.Quantity.Mul(req.UnitPrice)); amount.IsPositive() {
			desc := req.Notes
			if desc == "" {
				desc = fmt.Sprintf("Feed restock: %s", lot.FeedName)
			}
			entry = newFeedPurchaseEntry(lot, req.Quantity, req.UnitPrice, date, desc, true)
			if err := s.ledger.CreateTx(tx, entry); err != nil {
				return err
			}
			ref = &entry.ID
		}
		_, err = s.stock.moveTx(tx, lot, req.Quantity, model.MoveRestock, "restock", ref)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("restock feed lot: %w", err)
	}

	resp := &dto.FeedLotMutationResponse{Lot: lotToResponse(lot)}
	if entry != nil {
		invalidateReports(ctx, s.reports, ownerID)
		tr := entryToResponse(entry)
		resp.Transaction = &tr
	}
	resp.Alerts = scanAfterWrite(ctx, s.alerts, ownerID)
	return resp, nil
}

// DeleteFeedLot refuses while any ledger entry or consumption record points at
// the lot. Its stock movements go with it. The lot row is locked before the
// references are counted, so a consumption cannot commit in between.
func (s *inventoryService) DeleteFeedLot(ctx context.Context, ownerID, id uuid.UUID) error {
	err := runTx(ctx, s.tx, func(tx *gorm.DB) error {
		if _, err := s.lots.FindByIDForUpdateTx(tx, ownerID, id); err != nil {
			return notFoundOr(err, "feed lot", id)
		}
		refs, err := s.lots.CountReferencesTx(tx, ownerID, id)
		if err != nil {
			return fmt.Errorf("count feed lot references: %w", err)
		}
		if refs > 0 {
			return &ConflictError{Resource: "feed lot", ID: id,
				Reason: fmt.Sprintf("referenced by %d ledger entries or consumption records", refs)}
		}
		if err := s.moves.DeleteByLotTx(tx, ownerID, id); err != nil {
			return err
		}
		if err := s.lots.DeleteTx(tx, ownerID, id); err != nil {
			return notFoundOr(err, "feed lot", id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete feed lot: %w", err)
	}
	return nil
}

func (s *inventoryService) ListMovements(ctx context.Context, ownerID, id uuid.UUID, page, limit int) (*dto.StockMovementListResponse, error) {
	if _, err := s.lots.FindByID(ctx, ownerID, id); err != nil {
		return nil, notFoundOr(err, "feed lot", id)
	}
	page, limit = repository.MovementPageSize.Normalize(page, limit)
	moves, total, err := s.moves.List(ctx, ownerID, repository.StockMovementFilter{FeedLotID: &id, Page: page, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	out := make([]dto.StockMovementResponse, 0, len(moves))
	for i := range moves {
		out = append(out, movementToResponse(&moves[i]))
	}
	return &dto.StockMovementListResponse{Data: out, Total: total, Page: page, Limit: limit}, nil
}

// ── Animals ──────────────────────────────────────────────────────────────────

func (s *inventoryService) GetAnimals(ctx context.Context, ownerID uuid.UUID, filter dto.AnimalFilter) ([]dto.AnimalResponse, error) {
	f := repository.AnimalFilter{Status: model.AnimalStatus(filter.Status), Species: model.Species(filter.Species)}
	if f.Status != "" && !f.Status.Valid() {
		return nil, invalid("status", "unknown status")
	}
	if f.Species != "" && !f.Species.Valid() {
		return nil, invalid("species", "unknown species")
	}
	animals, err := s.animals.List(ctx, ownerID, f)
	if err != nil {
		return nil, fmt.Errorf("list animals: %w", err)
	}
	out := make([]dto.AnimalResponse, 0, len(animals))
	for i := range animals {
		out = append(out, animalToResponse(&animals[i]))
	}
	return out, nil
}

func (s *inventoryService) GetAnimal(ctx context.Context, ownerID, id uuid.UUID) (*dto.AnimalResponse, error) {
	a, err := s.animals.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, notFoundOr(err, "animal", id)
	}
	resp := animalToResponse(a)
	return &resp, nil
}

// UpdateAnimal edits descriptive fields only. Sold and deceased animals are
// read-only.
func (s *inventoryService) UpdateAnimal(ctx context.Context, ownerID, id uuid.UUID, req dto.UpdateAnimalRequest) (*dto.AnimalResponse, error) {
	a, err := s.animals.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, notFoundOr(err, "animal", id)
	}
	if a.Status.Terminal() {
		return nil, &ConflictError{Resource: "animal", ID: id, Reason: fmt.Sprintf("animal is %s and can no longer be edited", a.Status)}
	}

	errs := fieldErrors{}
	if req.TagNumber != nil {
		tag := strings.TrimSpace(*req.TagNumber)
		if tag == "" {
			errs.add("tag_number", "required")
		} else if tag != a.TagNumber {
			other, err := s.animals.FindByTag(ctx, ownerID, tag)
			switch {
			case err == nil && other.ID != a.ID:
				errs.add("tag_number", "already in use")
			case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
				return nil, fmt.Errorf("check tag number: %w", err)
			}
			a.TagNumber = tag
		}
	}
	if req.Gender != nil {
		g := model.Gender(*req.Gender)
		if !g.Valid() {
			errs.add("gender", "must be male or female")
		}
		a.Gender = g
	}
	if req.BirthDate != nil {
		bd, err := parseOptionalDate("birth_date", req.BirthDate)
		if err != nil {
			errs.add("birth_date", "must be a date in YYYY-MM-DD format")
		}
		a.BirthDate = bd
	}
	if req.Weight != nil {
		if req.Weight.IsNegative() {
			errs.add("weight", "must be >= 0")
		}
		errs.scale("weight", *req.Weight, moneyScale)
		a.Weight = req.Weight
	}
	if req.Notes != nil {
		a.Notes = req.Notes
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	if err := runTx(ctx, s.tx, func(tx *gorm.DB) error { return s.animals.UpdateTx(tx, a) }); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, invalid("tag_number", "already in use")
		}
		return nil, fmt.Errorf("update animal: %w", err)
	}
	resp := animalToResponse(a)
	return &resp, nil
}

// SetAnimalStatus moves an animal between active, sick and deceased. Sold is
// only reachable through the sale posting so every sold animal has its
// income entry.
func (s *inventoryService) SetAnimalStatus(ctx context.Context, ownerID, id uuid.UUID, status string) (*dto.AnimalResponse, error) {
	next := model.AnimalStatus(status)
	if !next.Valid() {
		return nil, invalid("status", "must be one of active, sick, sold, deceased")
	}
	if next == model.AnimalSold {
		return nil, invalid("status", "use the animal sale endpoint to mark an animal as sold")
	}

	var a *model.Animal
	err := runTx(ctx, s.tx, func(tx *gorm.DB) error {
		var err error
		a, err = s.animals.FindByIDForUpdateTx(tx, ownerID, id)
		if err != nil {
			return notFoundOr(err, "animal", id)
		}
		if a.Status == next {
			return nil
		}
		if a.Status.Terminal() {
			return &InvalidTransitionError{AnimalID: id, From: a.Status, To: next}
		}
		if err := s.animals.UpdateStatusTx(tx, id, next); err != nil {
			return err
		}
		a.Status = next
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("set animal status: %w", err)
	}
	resp := animalToResponse(a)
	return &resp, nil
}

// DeleteAnimal removes the animal and every ledger entry linked to it.
func (s *inventoryService) DeleteAnimal(ctx context.Context, ownerID, id uuid.UUID) error {
	err := runTx(ctx, s.tx, func(tx *gorm.DB) error {
		if _, err := s.animals.FindByIDForUpdateTx(tx, ownerID, id); err != nil {
			return notFoundOr(err, "animal", id)
		}
		if err := s.ledger.DeleteByAnimalTx(tx, ownerID, id); err != nil {
			return err
		}
		return s.animals.DeleteTx(tx, ownerID, id)
	})
	if err != nil {
		return fmt.Errorf("delete animal: %w", err)
	}
	invalidateReports(ctx, s.reports, ownerID)
	log.Info().Str("owner_id", ownerID.String()).Str("animal_id", id.String()).Msg("animal deleted with its ledger entries")
	return nil
}
