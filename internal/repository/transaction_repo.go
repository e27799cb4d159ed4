package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/model"
)

// TransactionFilter defines filters for ledger queries. Nil / empty means
// no restriction.
type TransactionFilter struct {
	Type      model.TransactionType
	Category  model.Category
	From      *time.Time
	To        *time.Time
	AnimalID  *uuid.UUID
	FeedID    *uuid.UUID
	Automatic *bool
	Page      int
	Limit     int
}

type TransactionRepository interface {
	CreateTx(tx *gorm.DB, e *model.TransactionEntry) error
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*model.TransactionEntry, error)
	FindByIDTx(tx *gorm.DB, ownerID, id uuid.UUID) (*model.TransactionEntry, error)
	HasReversalTx(tx *gorm.DB, id uuid.UUID) (bool, error)
	// List is ordered date DESC, created_at DESC, id DESC so pages never
	// overlap.
	List(ctx context.Context, ownerID uuid.UUID, filter TransactionFilter) ([]model.TransactionEntry, int64, error)
	// ListRange returns every entry with start <= date <= end, unpaginated.
	ListRange(ctx context.Context, ownerID uuid.UUID, start, end time.Time) ([]model.TransactionEntry, error)
	// ListAnimalSales returns animal_sale entries together with their
	// reversals so callers can net them out.
	ListAnimalSales(ctx context.Context, ownerID uuid.UUID) ([]model.TransactionEntry, error)
	DeleteByAnimalTx(tx *gorm.DB, ownerID, animalID uuid.UUID) error
}

type transactionRepo struct{ db *gorm.DB }

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) CreateTx(tx *gorm.DB, e *model.TransactionEntry) error {
	return tx.Create(e).Error
}

func (r *transactionRepo) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*model.TransactionEntry, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), ownerID, id)
}

func (r *transactionRepo) FindByIDTx(tx *gorm.DB, ownerID, id uuid.UUID) (*model.TransactionEntry, error) {
	var e model.TransactionEntry
	if err := tx.Where("id = ? AND owner_id = ?", id, ownerID).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *transactionRepo) HasReversalTx(tx *gorm.DB, id uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&model.TransactionEntry{}).Where("reversal_of = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *transactionRepo) List(ctx context.Context, ownerID uuid.UUID, filter TransactionFilter) ([]model.TransactionEntry, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.TransactionEntry{}).Where("owner_id = ?", ownerID)
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.From != nil {
		q = q.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("date <= ?", *filter.To)
	}
	if filter.AnimalID != nil {
		q = q.Where("animal_id = ?", *filter.AnimalID)
	}
	if filter.FeedID != nil {
		q = q.Where("feed_id = ?", *filter.FeedID)
	}
	if filter.Automatic != nil {
		q = q.Where("is_automatic = ?", *filter.Automatic)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := paginate(filter.Page, filter.Limit, LedgerPageSize)
	var entries []model.TransactionEntry
	err := q.Order("date DESC, created_at DESC, id DESC").
		Offset(offset).Limit(limit).Find(&entries).Error
	return entries, total, err
}

func (r *transactionRepo) ListRange(ctx context.Context, ownerID uuid.UUID, start, end time.Time) ([]model.TransactionEntry, error) {
	var entries []model.TransactionEntry
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND date >= ? AND date <= ?", ownerID, start, end).
		Order("date ASC, created_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *transactionRepo) ListAnimalSales(ctx context.Context, ownerID uuid.UUID) ([]model.TransactionEntry, error) {
	var entries []model.TransactionEntry
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND category = ? AND animal_id IS NOT NULL", ownerID, model.CatAnimalSale).
		Order("date ASC, created_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *transactionRepo) DeleteByAnimalTx(tx *gorm.DB, ownerID, animalID uuid.UUID) error {
	return tx.Where("owner_id = ? AND animal_id = ?", ownerID, animalID).
		Delete(&model.TransactionEntry{}).Error
}
