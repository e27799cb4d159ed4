package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/model"
)

// ConsumptionRecordFilter defines filters for listing consumption history.
type ConsumptionRecordFilter struct {
	From      *time.Time
	To        *time.Time
	FeedLotID *uuid.UUID
	Manual    *bool
	Page      int
	Limit     int
}

type ConsumptionRecordRepository interface {
	// CreateTx returns gorm.ErrDuplicatedKey when an automatic record for the
	// same (owner, date, species, feed_type) already exists.
	CreateTx(tx *gorm.DB, r *model.ConsumptionRecord) error
	ExistsAutomaticTx(tx *gorm.DB, ownerID uuid.UUID, date time.Time, species model.Species, feedType model.FeedType) (bool, error)
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*model.ConsumptionRecord, error)
	// HasReversalTx reports whether an offsetting record already points at id.
	HasReversalTx(tx *gorm.DB, id uuid.UUID) (bool, error)
	List(ctx context.Context, ownerID uuid.UUID, filter ConsumptionRecordFilter) ([]model.ConsumptionRecord, int64, error)
}

type consumptionRecordRepo struct{ db *gorm.DB }

func NewConsumptionRecordRepository(db *gorm.DB) ConsumptionRecordRepository {
	return &consumptionRecordRepo{db: db}
}

func (r *consumptionRecordRepo) CreateTx(tx *gorm.DB, rec *model.ConsumptionRecord) error {
	return tx.Create(rec).Error
}

func (r *consumptionRecordRepo) ExistsAutomaticTx(tx *gorm.DB, ownerID uuid.UUID, date time.Time, species model.Species, feedType model.FeedType) (bool, error) {
	var count int64
	err := tx.Model(&model.ConsumptionRecord{}).
		Where("owner_id = ? AND consumption_date = ? AND species = ? AND feed_type = ? AND is_manual = false",
			ownerID, date, species, feedType).
		Count(&count).Error
	return count > 0, err
}

func (r *consumptionRecordRepo) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*model.ConsumptionRecord, error) {
	var rec model.ConsumptionRecord
	err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *consumptionRecordRepo) HasReversalTx(tx *gorm.DB, id uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&model.ConsumptionRecord{}).Where("reversal_of = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *consumptionRecordRepo) List(ctx context.Context, ownerID uuid.UUID, filter ConsumptionRecordFilter) ([]model.ConsumptionRecord, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ConsumptionRecord{}).Where("owner_id = ?", ownerID)
	if filter.From != nil {
		q = q.Where("consumption_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("consumption_date <= ?", *filter.To)
	}
	if filter.FeedLotID != nil {
		q = q.Where("feed_lot_id = ?", *filter.FeedLotID)
	}
	if filter.Manual != nil {
		q = q.Where("is_manual = ?", *filter.Manual)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := paginate(filter.Page, filter.Limit, RecordPageSize)
	var records []model.ConsumptionRecord
	err := q.Order("consumption_date DESC, created_at DESC, id DESC").
		Offset(offset).Limit(limit).Find(&records).Error
	return records, total, err
}
