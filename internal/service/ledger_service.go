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

// LedgerService is the only writer of manual ledger entries and of the
// postings tied to animal purchases and sales. Entries are never edited;
// mistakes are undone with Reverse.
type LedgerService interface {
	Record(ctx context.Context, ownerID uuid.UUID, req dto.CreateTransactionRequest) (*dto.TransactionResponse, error)
	RecordAnimalPurchase(ctx context.Context, ownerID uuid.UUID, req dto.CreateAnimalRequest) (*dto.AnimalLedgerResponse, error)
	RecordAnimalSale(ctx context.Context, ownerID, animalID uuid.UUID, req dto.AnimalSaleRequest) (*dto.AnimalLedgerResponse, error)
	RecordAnimalDeath(ctx context.Context, ownerID, animalID uuid.UUID, req dto.AnimalDeathRequest) (*dto.AnimalResponse, error)
	Query(ctx context.Context, ownerID uuid.UUID, filter dto.TransactionFilter) (*dto.TransactionListResponse, error)
	Reverse(ctx context.Context, ownerID, entryID uuid.UUID, reason string) (*dto.TransactionResponse, error)
	ExportXLSX(ctx context.Context, ownerID uuid.UUID, filter dto.TransactionFilter) ([]byte, error)
}

type ledgerService struct {
	tx      repository.TxRunner
	repo    repository.TransactionRepository
	animals repository.AnimalRepository
	lots    repository.FeedLotRepository
	reports cache.ReportCache
	loc     *time.Location
	now     func() time.Time
}

// NewLedgerService dates postings without an explicit date in loc, the farm
// timezone the deduction engine uses.
func NewLedgerService(
	tx repository.TxRunner,
	repo repository.TransactionRepository,
	animals repository.AnimalRepository,
	lots repository.FeedLotRepository,
	reports cache.ReportCache,
	loc *time.Location,
) LedgerService {
	if loc == nil {
		loc = time.UTC
	}
	return &ledgerService{tx: tx, repo: repo, animals: animals, lots: lots, reports: reports, loc: loc, now: time.Now}
}

func (s *ledgerService) today() time.Time { return dateOf(s.now(), s.loc) }

// Record validates and appends one manual entry.
//   - category must be booked under its natural type
//   - animal_sale is refused; it goes through RecordAnimalSale
//   - linked animal / feed lot must belong to the owner
//   - feed_purchase amount is quantity × unit_price; a disagreeing amount is refused
func (s *ledgerService) Record(ctx context.Context, ownerID uuid.UUID, req dto.CreateTransactionRequest) (*dto.TransactionResponse, error) {
	errs := fieldErrors{}
	typ := model.TransactionType(req.Type)
	cat := model.Category(req.Category)
	if !typ.Valid() {
		errs.add("type", "must be income or expense")
	}
	switch {
	case !cat.Valid():
		errs.add("category", "unknown category")
	case cat == model.CatAnimalSale:
		errs.add("category", "animal sales are recorded through the animal sale endpoint")
	case typ.Valid() && cat.NaturalType() != typ:
		errs.add("category", fmt.Sprintf("%s entries must be of type %s", cat, cat.NaturalType()))
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		errs.add("date", "must be a date in YYYY-MM-DD format")
	}
	animalID, err := parseOptionalUUID("animal_id", req.AnimalID)
	if err != nil {
		errs.add("animal_id", "must be a uuid")
	}
	feedID, err := parseOptionalUUID("feed_id", req.FeedID)
	if err != nil {
		errs.add("feed_id", "must be a uuid")
	}
	if cat.RequiresAnimal() && animalID == nil {
		errs.add("animal_id", "required for "+string(cat))
	}

	var amount decimal.Decimal
	if cat.RequiresFeed() {
		if feedID == nil {
			errs.add("feed_id", "required for feed_purchase")
		}
		switch {
		case req.Quantity == nil:
			errs.add("quantity", "required for feed_purchase")
		case !req.Quantity.IsPositive():
			errs.add("quantity", "must be > 0")
		}
		switch {
		case req.UnitPrice == nil:
			errs.add("unit_price", "required for feed_purchase")
		case req.UnitPrice.IsNegative():
			errs.add("unit_price", "must be >= 0")
		}
		if req.Quantity != nil {
			errs.scale("quantity", *req.Quantity, quantityScale)
		}
		if req.UnitPrice != nil {
			errs.scale("unit_price", *req.UnitPrice, moneyScale)
		}
		if req.Amount != nil {
			errs.scale("amount", *req.Amount, moneyScale)
		}
		if req.Quantity != nil && req.UnitPrice != nil {
			amount = money(req.Quantity.Mul(*req.UnitPrice))
			switch {
			case req.Amount != nil && !req.Amount.Equal(amount):
				errs.add("amount", fmt.Sprintf("must equal quantity × unit_price (%s)", amount.StringFixed(2)))
			case !amount.IsPositive():
				errs.add("amount", "quantity × unit_price must be > 0")
			}
		}
	} else {
		if req.Quantity != nil || req.UnitPrice != nil {
			errs.add("quantity", "quantity and unit_price are only allowed on feed_purchase")
		}
		switch {
		case req.Amount == nil:
			errs.add("amount", "required")
		case !req.Amount.IsPositive():
			errs.add("amount", "must be > 0")
		default:
			errs.scale("amount", *req.Amount, moneyScale)
			amount = *req.Amount
		}
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	if animalID != nil {
		if _, err := s.animals.FindByID(ctx, ownerID, *animalID); err != nil {
			return nil, linkError(err, "animal_id", "animal")
		}
	}
	if feedID != nil {
		if _, err := s.lots.FindByID(ctx, ownerID, *feedID); err != nil {
			return nil, linkError(err, "feed_id", "feed lot")
		}
	}

	entry := &model.TransactionEntry{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Type:        typ,
		Category:    cat,
		Amount:      amount,
		Date:        date,
		Description: strings.TrimSpace(req.Description),
		AnimalID:    animalID,
		FeedID:      feedID,
	}
	if cat.RequiresFeed() {
		entry.Quantity = req.Quantity
		entry.UnitPrice = req.UnitPrice
	}
	if err := runTx(ctx, s.tx, func(tx *gorm.DB) error { return s.repo.CreateTx(tx, entry) }); err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}
	invalidateReports(ctx, s.reports, ownerID)
	resp := entryToResponse(entry)
	return &resp, nil
}

// linkError reports a missing linked row as a field validation failure.
func linkError(err error, field, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invalid(field, resource+" not found")
	}
	return fmt.Errorf("load linked %s: %w", resource, err)
}

// RecordAnimalPurchase registers an animal and, when it cost something, the
// matching automatic animal_purchase expense, atomically.
func (s *ledgerService) RecordAnimalPurchase(ctx context.Context, ownerID uuid.UUID, req dto.CreateAnimalRequest) (*dto.AnimalLedgerResponse, error) {
	errs := fieldErrors{}
	tag := strings.TrimSpace(req.TagNumber)
	if tag == "" {
		errs.add("tag_number", "required")
	}
	species := model.Species(req.Species)
	if !species.Valid() {
		errs.add("species", "must be one of cattle, sheep, goat, poultry")
	}
	gender := model.Gender(req.Gender)
	if !gender.Valid() {
		errs.add("gender", "must be male or female")
	}
	status := model.AnimalActive
	switch model.AnimalStatus(req.Status) {
	case "", model.AnimalActive:
	case model.AnimalSick:
		status = model.AnimalSick
	default:
		errs.add("status", "new animals are active or sick")
	}
	if req.PurchasePrice.IsNegative() {
		errs.add("purchase_price", "must be >= 0")
	}
	errs.scale("purchase_price", req.PurchasePrice, moneyScale)
	if req.Weight != nil {
		if req.Weight.IsNegative() {
			errs.add("weight", "must be >= 0")
		}
		errs.scale("weight", *req.Weight, moneyScale)
	}
	birth, err := parseOptionalDate("birth_date", req.BirthDate)
	if err != nil {
		errs.add("birth_date", "must be a date in YYYY-MM-DD format")
	}
	purchased, err := parseOptionalDate("purchase_date", req.PurchaseDate)
	if err != nil {
		errs.add("purchase_date", "must be a date in YYYY-MM-DD format")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	if _, err := s.animals.FindByTag(ctx, ownerID, tag); err == nil {
		return nil, invalid("tag_number", "already in use")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check tag number: %w", err)
	}

	animal := &model.Animal{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		TagNumber:     tag,
		Species:       species,
		Gender:        gender,
		Status:        status,
		BirthDate:     birth,
		PurchasePrice: req.PurchasePrice,
		PurchaseDate:  purchased,
		Weight:        req.Weight,
		Notes:         req.Notes,
	}

	var entry *model.TransactionEntry
	err = runTx(ctx, s.tx, func(tx *gorm.DB) error {
		if err := s.animals.CreateTx(tx, animal); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return invalid("tag_number", "already in use")
			}
			return err
		}
		if !animal.PurchasePrice.IsPositive() {
			return nil
		}
		date := s.today()
		if purchased != nil {
			date = *purchased
		}
		animalRef := animal.ID
		entry = &model.TransactionEntry{
			ID:          uuid.New(),
			OwnerID:     ownerID,
			Type:        model.TxExpense,
			Category:    model.CatAnimalPurchase,
			Amount:      money(animal.PurchasePrice),
			Date:        normalizeDay(date),
			Description: fmt.Sprintf("Animal purchase: %s", tag),
			AnimalID:    &animalRef,
			IsAutomatic: true,
		}
		return s.repo.CreateTx(tx, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("record animal purchase: %w", err)
	}

	resp := &dto.AnimalLedgerResponse{Animal: animalToResponse(animal)}
	if entry != nil {
		invalidateReports(ctx, s.reports, ownerID)
		tr := entryToResponse(entry)
		resp.Transaction = &tr
	}
	return resp, nil
}

// RecordAnimalSale books the sale income and marks the animal sold in one
// transaction, with the animal row locked so two sales cannot both pass the
// status check.
func (s *ledgerService) RecordAnimalSale(ctx context.Context, ownerID, animalID uuid.UUID, req dto.AnimalSaleRequest) (*dto.AnimalLedgerResponse, error) {
	errs := fieldErrors{}
	if !req.Amount.IsPositive() {
		errs.add("amount", "must be > 0")
	}
	errs.scale("amount", req.Amount, moneyScale)
	date, err := parseDate("date", req.Date)
	if err != nil {
		errs.add("date", "must be a date in YYYY-MM-DD format")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	var (
		animal *model.Animal
		entry  *model.TransactionEntry
	)
	err = runTx(ctx, s.tx, func(tx *gorm.DB) error {
		var err error
		animal, err = s.animals.FindByIDForUpdateTx(tx, ownerID, animalID)
		if err != nil {
			return notFoundOr(err, "animal", animalID)
		}
		if animal.Status.Terminal() {
			return &InvalidTransitionError{AnimalID: animalID, From: animal.Status, To: model.AnimalSold}
		}
		desc := strings.TrimSpace(req.Description)
		if desc == "" {
			desc = fmt.Sprintf("Animal sale: %s", animal.TagNumber)
		}
		animalRef := animal.ID
		entry = &model.TransactionEntry{
			ID:          uuid.New(),
			OwnerID:     ownerID,
			Type:        model.TxIncome,
			Category:    model.CatAnimalSale,
			Amount:      money(req.Amount),
			Date:        date,
			Description: desc,
			AnimalID:    &animalRef,
			IsAutomatic: true,
		}
		if err := s.repo.CreateTx(tx, entry); err != nil {
			return err
		}
		if err := s.animals.UpdateStatusTx(tx, animal.ID, model.AnimalSold); err != nil {
			return err
		}
		animal.Status = model.AnimalSold
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record animal sale: %w", err)
	}

	invalidateReports(ctx, s.reports, ownerID)
	log.Info().Str("owner_id", ownerID.String()).Str("animal_id", animalID.String()).
		Str("amount", entry.Amount.String()).Msg("animal sold")
	tr := entryToResponse(entry)
	return &dto.AnimalLedgerResponse{Animal: animalToResponse(animal), Transaction: &tr}, nil
}

// RecordAnimalDeath is the terminal deceased transition. No ledger entry is
// written; the date goes into the animal's notes.
func (s *ledgerService) RecordAnimalDeath(ctx context.Context, ownerID, animalID uuid.UUID, req dto.AnimalDeathRequest) (*dto.AnimalResponse, error) {
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}

	var animal *model.Animal
	err = runTx(ctx, s.tx, func(tx *gorm.DB) error {
		var err error
		animal, err = s.animals.FindByIDForUpdateTx(tx, ownerID, animalID)
		if err != nil {
			return notFoundOr(err, "animal", animalID)
		}
		if animal.Status.Terminal() {
			return &InvalidTransitionError{AnimalID: animalID, From: animal.Status, To: model.AnimalDeceased}
		}
		note := "deceased " + fmtDate(date)
		if req.Notes != nil && strings.TrimSpace(*req.Notes) != "" {
			note += ": " + strings.TrimSpace(*req.Notes)
		}
		if animal.Notes != nil && *animal.Notes != "" {
			note = *animal.Notes + "\n" + note
		}
		animal.Notes = &note
		animal.Status = model.AnimalDeceased
		return s.animals.UpdateTx(tx, animal)
	})
	if err != nil {
		return nil, fmt.Errorf("record animal death: %w", err)
	}
	resp := animalToResponse(animal)
	return &resp, nil
}

func buildTxFilter(filter dto.TransactionFilter) (repository.TransactionFilter, error) {
	errs := fieldErrors{}
	f := repository.TransactionFilter{
		Type:     model.TransactionType(filter.Type),
		Category: model.Category(filter.Category),
	}
	f.Page, f.Limit = repository.LedgerPageSize.Normalize(filter.Page, filter.Limit)
	if f.Type != "" && !f.Type.Valid() {
		errs.add("type", "must be income or expense")
	}
	if f.Category != "" && !f.Category.Valid() {
		errs.add("category", "unknown category")
	}
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
	if id, err := parseOptionalUUID("animal_id", &filter.AnimalID); err != nil {
		errs.add("animal_id", "must be a uuid")
	} else {
		f.AnimalID = id
	}
	if id, err := parseOptionalUUID("feed_id", &filter.FeedID); err != nil {
		errs.add("feed_id", "must be a uuid")
	} else {
		f.FeedID = id
	}
	if auto, err := parseOptionalBool("automatic", filter.Automatic); err != nil {
		errs.add("automatic", "must be true or false")
	} else {
		f.Automatic = auto
	}
	return f, errs.err()
}

// Query pages through the ledger newest first. Ties on date are broken by
// created_at then id, so pages are stable.
func (s *ledgerService) Query(ctx context.Context, ownerID uuid.UUID, filter dto.TransactionFilter) (*dto.TransactionListResponse, error) {
	f, err := buildTxFilter(filter)
	if err != nil {
		return nil, err
	}
	entries, total, err := s.repo.List(ctx, ownerID, f)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	out := make([]dto.TransactionResponse, 0, len(entries))
	for i := range entries {
		out = append(out, entryToResponse(&entries[i]))
	}
	return &dto.TransactionListResponse{Data: out, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// Reverse writes the offsetting entry for a manual entry: opposite type,
// same category, amount and links. Automatic postings are corrected through
// the operation that created them.
func (s *ledgerService) Reverse(ctx context.Context, ownerID, entryID uuid.UUID, reason string) (*dto.TransactionResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("reason", "required")
	}

	var rev *model.TransactionEntry
	err := runTx(ctx, s.tx, func(tx *gorm.DB) error {
		orig, err := s.repo.FindByIDTx(tx, ownerID, entryID)
		if err != nil {
			return notFoundOr(err, "transaction", entryID)
		}
		switch {
		case orig.IsAutomatic:
			return &ConflictError{Resource: "transaction", ID: entryID, Reason: "automatic entries cannot be reversed"}
		case orig.ReversalOf != nil:
			return &ConflictError{Resource: "transaction", ID: entryID, Reason: "a reversal cannot be reversed"}
		}
		done, err := s.repo.HasReversalTx(tx, entryID)
		if err != nil {
			return err
		}
		if done {
			return &ConflictError{Resource: "transaction", ID: entryID, Reason: "already reversed"}
		}
		origID := orig.ID
		rev = &model.TransactionEntry{
			ID:          uuid.New(),
			OwnerID:     ownerID,
			Type:        orig.Type.Opposite(),
			Category:    orig.Category,
			Amount:      orig.Amount,
			Date:        s.today(),
			Description: fmt.Sprintf("Reversal: %s", reason),
			AnimalID:    orig.AnimalID,
			FeedID:      orig.FeedID,
			Quantity:    orig.Quantity,
			UnitPrice:   orig.UnitPrice,
			ReversalOf:  &origID,
		}
		if err := s.repo.CreateTx(tx, rev); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &ConflictError{Resource: "transaction", ID: entryID, Reason: "already reversed"}
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reverse transaction: %w", err)
	}
	invalidateReports(ctx, s.reports, ownerID)
	resp := entryToResponse(rev)
	return &resp, nil
}
