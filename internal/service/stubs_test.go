package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/dto"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/model"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/repository"
)

// ── In-memory store shared by every repository stub ─────────────────────────

type settingKey struct {
	owner    uuid.UUID
	species  model.Species
	feedType model.FeedType
}

type memState struct {
	lots     map[uuid.UUID]model.FeedLot
	animals  map[uuid.UUID]model.Animal
	settings map[settingKey]model.ConsumptionSetting
	records  map[uuid.UUID]model.ConsumptionRecord
	entries  map[uuid.UUID]model.TransactionEntry
	moves    []model.StockMovement
}

func (s memState) clone() memState {
	c := memState{
		lots:     make(map[uuid.UUID]model.FeedLot, len(s.lots)),
		animals:  make(map[uuid.UUID]model.Animal, len(s.animals)),
		settings: make(map[settingKey]model.ConsumptionSetting, len(s.settings)),
		records:  make(map[uuid.UUID]model.ConsumptionRecord, len(s.records)),
		entries:  make(map[uuid.UUID]model.TransactionEntry, len(s.entries)),
		moves:    append([]model.StockMovement(nil), s.moves...),
	}
	for k, v := range s.lots {
		c.lots[k] = v
	}
	for k, v := range s.animals {
		c.animals[k] = v
	}
	for k, v := range s.settings {
		c.settings[k] = v
	}
	for k, v := range s.records {
		c.records[k] = v
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	return c
}

// memStore behaves like the Postgres schema for what the services rely on:
// owner scoping, unique keys surfacing as gorm.ErrDuplicatedKey and
// created_at ordering.
type memStore struct {
	mu sync.Mutex
	memState

	clock time.Time
	// fail makes the named repository call return the error, e.g.
	// "animals.UpdateStatusTx".
	fail       map[string]error
	rangeCalls int
}

func newMemStore() *memStore {
	return &memStore{
		memState: memState{
			lots:     map[uuid.UUID]model.FeedLot{},
			animals:  map[uuid.UUID]model.Animal{},
			settings: map[settingKey]model.ConsumptionSetting{},
			records:  map[uuid.UUID]model.ConsumptionRecord{},
			entries:  map[uuid.UUID]model.TransactionEntry{},
		},
		clock: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
		fail:  map[string]error{},
	}
}

// stamp hands out strictly increasing timestamps, like autoCreateTime would
// for sequential inserts.
func (s *memStore) stamp() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

func (s *memStore) injected(op string) error { return s.fail[op] }

// memTx rolls the store back when fn fails, the way a database transaction
// would.
type memTx struct{ store *memStore }

func (r *memTx) RunInTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	r.store.mu.Lock()
	snap := r.store.memState.clone()
	r.store.mu.Unlock()
	if err := fn(nil); err != nil {
		r.store.mu.Lock()
		r.store.memState = snap
		r.store.mu.Unlock()
		return err
	}
	return nil
}

func offsetLimit(page, limit, def int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = def
	}
	return (page - 1) * limit, limit
}

func window[T any](items []T, page, limit, def int) []T {
	off, size := offsetLimit(page, limit, def)
	if off >= len(items) {
		return []T{}
	}
	end := off + size
	if end > len(items) {
		end = len(items)
	}
	return items[off:end]
}

// ── FeedLotRepository ────────────────────────────────────────────────────────

type stubLotRepo struct{ s *memStore }

func (r *stubLotRepo) CreateTx(_ *gorm.DB, l *model.FeedLot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = r.s.stamp()
	}
	l.UpdatedAt = l.CreatedAt
	r.s.lots[l.ID] = *l
	return nil
}

func (r *stubLotRepo) find(ownerID, id uuid.UUID) (*model.FeedLot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lots[id]
	if !ok || l.OwnerID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	return &l, nil
}

func (r *stubLotRepo) FindByID(_ context.Context, ownerID, id uuid.UUID) (*model.FeedLot, error) {
	return r.find(ownerID, id)
}

func (r *stubLotRepo) FindByIDForUpdateTx(_ *gorm.DB, ownerID, id uuid.UUID) (*model.FeedLot, error) {
	return r.find(ownerID, id)
}

func (r *stubLotRepo) owned(ownerID uuid.UUID, keep func(*model.FeedLot) bool) []model.FeedLot {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.FeedLot{}
	for _, l := range r.s.lots {
		if l.OwnerID == ownerID && keep(&l) {
			out = append(out, l)
		}
	}
	return out
}

func (r *stubLotRepo) List(_ context.Context, ownerID uuid.UUID) ([]model.FeedLot, error) {
	lots := r.owned(ownerID, func(*model.FeedLot) bool { return true })
	sort.Slice(lots, func(i, j int) bool {
		if lots[i].FeedType != lots[j].FeedType {
			return lots[i].FeedType < lots[j].FeedType
		}
		if !lots[i].PurchaseDate.Equal(lots[j].PurchaseDate) {
			return lots[i].PurchaseDate.Before(lots[j].PurchaseDate)
		}
		return lots[i].CreatedAt.Before(lots[j].CreatedAt)
	})
	return lots, nil
}

func (r *stubLotRepo) ListLowStock(_ context.Context, ownerID uuid.UUID) ([]model.FeedLot, error) {
	lots := r.owned(ownerID, func(l *model.FeedLot) bool { return l.Quantity.LessThanOrEqual(l.MinStockLevel) })
	sort.Slice(lots, func(i, j int) bool {
		if !lots[i].Quantity.Equal(lots[j].Quantity) {
			return lots[i].Quantity.LessThan(lots[j].Quantity)
		}
		return lots[i].FeedName < lots[j].FeedName
	})
	return lots, nil
}

func (r *stubLotRepo) CountReferencesTx(_ *gorm.DB, ownerID, id uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, e := range r.s.entries {
		if e.OwnerID == ownerID && e.FeedID != nil && *e.FeedID == id {
			n++
		}
	}
	for _, rec := range r.s.records {
		if rec.OwnerID == ownerID && rec.FeedLotID != nil && *rec.FeedLotID == id {
			n++
		}
	}
	for _, m := range r.s.moves {
		if m.OwnerID == ownerID && m.FeedLotID == id &&
			(m.Kind == model.MoveAutoConsumption || m.Kind == model.MoveManualConsumption) {
			n++
		}
	}
	return n, nil
}

func fefoLess(a, b *model.FeedLot) bool {
	switch {
	case a.ExpiryDate != nil && b.ExpiryDate == nil:
		return true
	case a.ExpiryDate == nil && b.ExpiryDate != nil:
		return false
	case a.ExpiryDate != nil && !a.ExpiryDate.Equal(*b.ExpiryDate):
		return a.ExpiryDate.Before(*b.ExpiryDate)
	}
	if !a.PurchaseDate.Equal(b.PurchaseDate) {
		return a.PurchaseDate.Before(b.PurchaseDate)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

func (r *stubLotRepo) ListForDeductionTx(_ *gorm.DB, ownerID uuid.UUID, feedType model.FeedType) ([]model.FeedLot, error) {
	lots := r.owned(ownerID, func(l *model.FeedLot) bool {
		return l.FeedType == feedType && l.Quantity.IsPositive()
	})
	sort.Slice(lots, func(i, j int) bool { return fefoLess(&lots[i], &lots[j]) })
	return lots, nil
}

func (r *stubLotRepo) SumQuantityTx(_ *gorm.DB, ownerID uuid.UUID, feedType model.FeedType) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, l := range r.owned(ownerID, func(l *model.FeedLot) bool { return l.FeedType == feedType }) {
		sum = sum.Add(l.Quantity)
	}
	return sum, nil
}

func (r *stubLotRepo) UpdateTx(_ *gorm.DB, l *model.FeedLot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("lots.UpdateTx"); err != nil {
		return err
	}
	if _, ok := r.s.lots[l.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	l.UpdatedAt = r.s.stamp()
	r.s.lots[l.ID] = *l
	return nil
}

func (r *stubLotRepo) DeleteTx(_ *gorm.DB, ownerID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lots[id]
	if !ok || l.OwnerID != ownerID {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.lots, id)
	return nil
}

// ── AnimalRepository ─────────────────────────────────────────────────────────

type stubAnimalRepo struct{ s *memStore }

func (r *stubAnimalRepo) FindByID(_ context.Context, ownerID, id uuid.UUID) (*model.Animal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.animals[id]
	if !ok || a.OwnerID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (r *stubAnimalRepo) FindByIDForUpdateTx(_ *gorm.DB, ownerID, id uuid.UUID) (*model.Animal, error) {
	return r.FindByID(context.Background(), ownerID, id)
}

func (r *stubAnimalRepo) FindByTag(_ context.Context, ownerID uuid.UUID, tag string) (*model.Animal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.animals {
		if a.OwnerID == ownerID && a.TagNumber == tag {
			return &a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubAnimalRepo) List(_ context.Context, ownerID uuid.UUID, filter repository.AnimalFilter) ([]model.Animal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Animal{}
	for _, a := range r.s.animals {
		if a.OwnerID != ownerID ||
			(filter.Status != "" && a.Status != filter.Status) ||
			(filter.Species != "" && a.Species != filter.Species) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TagNumber < out[j].TagNumber })
	return out, nil
}

func (r *stubAnimalRepo) CountActiveBySpecies(_ context.Context, ownerID uuid.UUID) (map[model.Species]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := map[model.Species]int{}
	for _, a := range r.s.animals {
		if a.OwnerID == ownerID && a.Status == model.AnimalActive {
			counts[a.Species]++
		}
	}
	return counts, nil
}

func (r *stubAnimalRepo) CreateTx(_ *gorm.DB, a *model.Animal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.animals {
		if other.OwnerID == a.OwnerID && other.TagNumber == a.TagNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = r.s.stamp()
	a.UpdatedAt = a.CreatedAt
	r.s.animals[a.ID] = *a
	return nil
}

func (r *stubAnimalRepo) UpdateTx(_ *gorm.DB, a *model.Animal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.animals[a.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	a.UpdatedAt = r.s.stamp()
	r.s.animals[a.ID] = *a
	return nil
}

func (r *stubAnimalRepo) UpdateStatusTx(_ *gorm.DB, id uuid.UUID, status model.AnimalStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("animals.UpdateStatusTx"); err != nil {
		return err
	}
	a, ok := r.s.animals[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.Status = status
	a.UpdatedAt = r.s.stamp()
	r.s.animals[id] = a
	return nil
}

func (r *stubAnimalRepo) DeleteTx(_ *gorm.DB, ownerID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.animals[id]
	if !ok || a.OwnerID != ownerID {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.animals, id)
	return nil
}

// ── ConsumptionSettingRepository ─────────────────────────────────────────────

type stubSettingRepo struct{ s *memStore }

func (r *stubSettingRepo) list(ownerID uuid.UUID, enabledOnly bool) []model.ConsumptionSetting {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.ConsumptionSetting{}
	for k, v := range r.s.settings {
		if k.owner == ownerID && (!enabledOnly || v.AutoDeductEnabled) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Species != out[j].Species {
			return out[i].Species < out[j].Species
		}
		return out[i].FeedType < out[j].FeedType
	})
	return out
}

func (r *stubSettingRepo) List(_ context.Context, ownerID uuid.UUID) ([]model.ConsumptionSetting, error) {
	return r.list(ownerID, false), nil
}

func (r *stubSettingRepo) ListEnabled(_ context.Context, ownerID uuid.UUID) ([]model.ConsumptionSetting, error) {
	return r.list(ownerID, true), nil
}

func (r *stubSettingRepo) Upsert(_ context.Context, st *model.ConsumptionSetting) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := settingKey{st.OwnerID, st.Species, st.FeedType}
	now := r.s.stamp()
	if prev, ok := r.s.settings[key]; ok {
		st.ID = prev.ID
		st.CreatedAt = prev.CreatedAt
	} else {
		st.CreatedAt = now
	}
	st.UpdatedAt = now
	r.s.settings[key] = *st
	return nil
}

func (r *stubSettingRepo) Delete(_ context.Context, ownerID uuid.UUID, species model.Species, feedType model.FeedType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := settingKey{ownerID, species, feedType}
	if _, ok := r.s.settings[key]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.settings, key)
	return nil
}

func (r *stubSettingRepo) OwnersWithAutoDeduct(_ context.Context) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := map[uuid.UUID]bool{}
	owners := []uuid.UUID{}
	for k, v := range r.s.settings {
		if v.AutoDeductEnabled && !seen[k.owner] {
			seen[k.owner] = true
			owners = append(owners, k.owner)
		}
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i].String() < owners[j].String() })
	return owners, nil
}

// ── ConsumptionRecordRepository ──────────────────────────────────────────────

type stubRecordRepo struct{ s *memStore }

func (r *stubRecordRepo) CreateTx(_ *gorm.DB, rec *model.ConsumptionRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("records.CreateTx"); err != nil {
		return err
	}
	for _, other := range r.s.records {
		if !rec.IsManual && !other.IsManual && other.OwnerID == rec.OwnerID &&
			other.ConsumptionDate.Equal(rec.ConsumptionDate) &&
			other.Species == rec.Species && other.FeedType == rec.FeedType {
			return gorm.ErrDuplicatedKey
		}
		if rec.ReversalOf != nil && other.ReversalOf != nil && *rec.ReversalOf == *other.ReversalOf {
			return gorm.ErrDuplicatedKey
		}
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = r.s.stamp()
	r.s.records[rec.ID] = *rec
	return nil
}

func (r *stubRecordRepo) ExistsAutomaticTx(_ *gorm.DB, ownerID uuid.UUID, date time.Time, species model.Species, feedType model.FeedType) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.records {
		if !rec.IsManual && rec.OwnerID == ownerID && rec.ConsumptionDate.Equal(date) &&
			rec.Species == species && rec.FeedType == feedType {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubRecordRepo) FindByID(_ context.Context, ownerID, id uuid.UUID) (*model.ConsumptionRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.records[id]
	if !ok || rec.OwnerID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	return &rec, nil
}

func (r *stubRecordRepo) HasReversalTx(_ *gorm.DB, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.records {
		if rec.ReversalOf != nil && *rec.ReversalOf == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubRecordRepo) List(_ context.Context, ownerID uuid.UUID, f repository.ConsumptionRecordFilter) ([]model.ConsumptionRecord, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.ConsumptionRecord{}
	for _, rec := range r.s.records {
		switch {
		case rec.OwnerID != ownerID,
			f.From != nil && rec.ConsumptionDate.Before(*f.From),
			f.To != nil && rec.ConsumptionDate.After(*f.To),
			f.FeedLotID != nil && (rec.FeedLotID == nil || *rec.FeedLotID != *f.FeedLotID),
			f.Manual != nil && rec.IsManual != *f.Manual:
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ConsumptionDate.Equal(out[j].ConsumptionDate) {
			return out[i].ConsumptionDate.After(out[j].ConsumptionDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return window(out, f.Page, f.Limit, 50), int64(len(out)), nil
}

// ── StockMovementRepository ──────────────────────────────────────────────────

type stubMoveRepo struct{ s *memStore }

func (r *stubMoveRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = r.s.stamp()
	r.s.moves = append(r.s.moves, *m)
	return nil
}

func (r *stubMoveRepo) ListByReferenceTx(_ *gorm.DB, ownerID, referenceID uuid.UUID) ([]model.StockMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.StockMovement{}
	for _, m := range r.s.moves {
		if m.OwnerID == ownerID && m.ReferenceID != nil && *m.ReferenceID == referenceID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubMoveRepo) List(_ context.Context, ownerID uuid.UUID, f repository.StockMovementFilter) ([]model.StockMovement, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.StockMovement{}
	for _, m := range r.s.moves {
		if m.OwnerID != ownerID ||
			(f.FeedLotID != nil && m.FeedLotID != *f.FeedLotID) ||
			(f.Kind != "" && m.Kind != f.Kind) {
			continue
		}
		out = append(out, m)
	}
	return window(out, f.Page, f.Limit, 100), int64(len(out)), nil
}

func (r *stubMoveRepo) DeleteByLotTx(_ *gorm.DB, ownerID, lotID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.moves[:0]
	for _, m := range r.s.moves {
		if m.OwnerID == ownerID && m.FeedLotID == lotID {
			continue
		}
		kept = append(kept, m)
	}
	r.s.moves = kept
	return nil
}

// ── TransactionRepository ────────────────────────────────────────────────────

type stubLedgerRepo struct{ s *memStore }

func (r *stubLedgerRepo) CreateTx(_ *gorm.DB, e *model.TransactionEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e.ReversalOf != nil {
		for _, other := range r.s.entries {
			if other.ReversalOf != nil && *other.ReversalOf == *e.ReversalOf {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = r.s.stamp()
	r.s.entries[e.ID] = *e
	return nil
}

func (r *stubLedgerRepo) FindByID(_ context.Context, ownerID, id uuid.UUID) (*model.TransactionEntry, error) {
	return r.FindByIDTx(nil, ownerID, id)
}

func (r *stubLedgerRepo) FindByIDTx(_ *gorm.DB, ownerID, id uuid.UUID) (*model.TransactionEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.entries[id]
	if !ok || e.OwnerID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	return &e, nil
}

func (r *stubLedgerRepo) HasReversalTx(_ *gorm.DB, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.entries {
		if e.ReversalOf != nil && *e.ReversalOf == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubLedgerRepo) selectEntries(keep func(*model.TransactionEntry) bool, newestFirst bool) []model.TransactionEntry {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.TransactionEntry{}
	for _, e := range r.s.entries {
		if keep(&e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		var less bool
		switch {
		case !a.Date.Equal(b.Date):
			less = a.Date.Before(b.Date)
		case !a.CreatedAt.Equal(b.CreatedAt):
			less = a.CreatedAt.Before(b.CreatedAt)
		default:
			less = a.ID.String() < b.ID.String()
		}
		if newestFirst {
			return !less
		}
		return less
	})
	return out
}

func (r *stubLedgerRepo) List(_ context.Context, ownerID uuid.UUID, f repository.TransactionFilter) ([]model.TransactionEntry, int64, error) {
	out := r.selectEntries(func(e *model.TransactionEntry) bool {
		switch {
		case e.OwnerID != ownerID,
			f.Type != "" && e.Type != f.Type,
			f.Category != "" && e.Category != f.Category,
			f.From != nil && e.Date.Before(*f.From),
			f.To != nil && e.Date.After(*f.To),
			f.AnimalID != nil && (e.AnimalID == nil || *e.AnimalID != *f.AnimalID),
			f.FeedID != nil && (e.FeedID == nil || *e.FeedID != *f.FeedID),
			f.Automatic != nil && e.IsAutomatic != *f.Automatic:
			return false
		}
		return true
	}, true)
	return window(out, f.Page, f.Limit, 50), int64(len(out)), nil
}

func (r *stubLedgerRepo) ListRange(_ context.Context, ownerID uuid.UUID, start, end time.Time) ([]model.TransactionEntry, error) {
	r.s.mu.Lock()
	r.s.rangeCalls++
	r.s.mu.Unlock()
	return r.selectEntries(func(e *model.TransactionEntry) bool {
		return e.OwnerID == ownerID && !e.Date.Before(start) && !e.Date.After(end)
	}, false), nil
}

func (r *stubLedgerRepo) ListAnimalSales(_ context.Context, ownerID uuid.UUID) ([]model.TransactionEntry, error) {
	return r.selectEntries(func(e *model.TransactionEntry) bool {
		return e.OwnerID == ownerID && e.Category == model.CatAnimalSale && e.AnimalID != nil
	}, false), nil
}

func (r *stubLedgerRepo) DeleteByAnimalTx(_ *gorm.DB, ownerID, animalID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, e := range r.s.entries {
		if e.OwnerID == ownerID && e.AnimalID != nil && *e.AnimalID == animalID {
			delete(r.s.entries, id)
		}
	}
	return nil
}

// ── Collaborator spies ───────────────────────────────────────────────────────

type spyNotifier struct {
	mu    sync.Mutex
	calls [][]dto.StockAlert
}

func (n *spyNotifier) NotifyStockAlerts(_ context.Context, _ uuid.UUID, alerts []dto.StockAlert) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, alerts)
	return len(alerts), nil
}

type spyCache struct {
	mu          sync.Mutex
	stored      map[string]*dto.FinancialReport
	invalidated int
}

func newSpyCache() *spyCache { return &spyCache{stored: map[string]*dto.FinancialReport{}} }

func cacheKey(ownerID uuid.UUID, start, end time.Time) string {
	return ownerID.String() + ":" + fmtDate(start) + ":" + fmtDate(end)
}

func (c *spyCache) GetFinancial(_ context.Context, ownerID uuid.UUID, start, end time.Time) (*dto.FinancialReport, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.stored[cacheKey(ownerID, start, end)]
	return r, ok, nil
}

func (c *spyCache) SetFinancial(_ context.Context, ownerID uuid.UUID, start, end time.Time, report *dto.FinancialReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stored[cacheKey(ownerID, start, end)] = report
	return nil
}

func (c *spyCache) InvalidateOwner(_ context.Context, _ uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	c.stored = map[string]*dto.FinancialReport{}
	return nil
}

// ── Fixture ──────────────────────────────────────────────────────────────────

var testNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

type fixture struct {
	owner    uuid.UUID
	store    *memStore
	notifier *spyNotifier
	cache    *spyCache

	lots    *stubLotRepo
	animals *stubAnimalRepo
	ledgerR *stubLedgerRepo

	inventory InventoryService
	deduction *deductionService
	ledger    LedgerService
	policy    PolicyService
	alerts    AlertService
	reports   *reportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	tx := &memTx{store: store}
	lots := &stubLotRepo{s: store}
	animals := &stubAnimalRepo{s: store}
	settings := &stubSettingRepo{s: store}
	records := &stubRecordRepo{s: store}
	moves := &stubMoveRepo{s: store}
	ledgerRepo := &stubLedgerRepo{s: store}
	notifier := &spyNotifier{}
	reportCache := newSpyCache()

	alerts := NewAlertService(lots, notifier)
	deduction := NewDeductionService(tx, settings, records, lots, moves, animals, alerts, time.UTC).(*deductionService)
	deduction.now = func() time.Time { return testNow }
	ledger := NewLedgerService(tx, ledgerRepo, animals, lots, reportCache, time.UTC).(*ledgerService)
	ledger.now = func() time.Time { return testNow }
	reports := NewReportService(ledgerRepo, animals, reportCache).(*reportService)
	reports.now = func() time.Time { return testNow }

	return &fixture{
		owner:     uuid.New(),
		store:     store,
		notifier:  notifier,
		cache:     reportCache,
		lots:      lots,
		animals:   animals,
		ledgerR:   ledgerRepo,
		inventory: NewInventoryService(tx, lots, moves, animals, ledgerRepo, alerts, reportCache),
		deduction: deduction,
		ledger:    ledger,
		policy:    NewPolicyService(settings),
		alerts:    alerts,
		reports:   reports,
	}
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }

// seedLot inserts a lot straight into the store, bypassing the purchase
// posting.
func (f *fixture) seedLot(name string, ft model.FeedType, qty, minLevel string, purchase string, expiry *string) uuid.UUID {
	l := &model.FeedLot{
		ID:            uuid.New(),
		OwnerID:       f.owner,
		FeedName:      name,
		FeedType:      ft,
		Unit:          model.UnitKg,
		Quantity:      d(qty),
		PricePerUnit:  d("2"),
		MinStockLevel: d(minLevel),
		PurchaseDate:  day(purchase),
	}
	if expiry != nil {
		e := day(*expiry)
		l.ExpiryDate = &e
	}
	_ = f.lots.CreateTx(nil, l)
	return l.ID
}

func (f *fixture) seedAnimal(tag string, sp model.Species, status model.AnimalStatus, price string) uuid.UUID {
	a := &model.Animal{
		ID:            uuid.New(),
		OwnerID:       f.owner,
		TagNumber:     tag,
		Species:       sp,
		Gender:        model.GenderFemale,
		Status:        status,
		PurchasePrice: d(price),
	}
	_ = f.animals.CreateTx(nil, a)
	return a.ID
}

func (f *fixture) setRate(sp model.Species, ft model.FeedType, rate string, enabled bool) {
	_, err := f.policy.UpsertSetting(context.Background(), f.owner, dto.UpsertSettingRequest{
		Species:                   string(sp),
		FeedType:                  string(ft),
		DailyConsumptionPerAnimal: d(rate),
		AutoDeductEnabled:         enabled,
	})
	if err != nil {
		panic(err)
	}
}

func (f *fixture) lotQty(id uuid.UUID) decimal.Decimal {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.lots[id].Quantity
}

func (f *fixture) movesFor(lotID uuid.UUID) []model.StockMovement {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	out := []model.StockMovement{}
	for _, m := range f.store.moves {
		if m.FeedLotID == lotID {
			out = append(out, m)
		}
	}
	return out
}
