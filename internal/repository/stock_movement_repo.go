package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/model"
)

// StockMovementFilter defines filters for listing stock movements.
type StockMovementFilter struct {
	FeedLotID *uuid.UUID
	Kind      model.MovementKind
	Page      int
	Limit     int
}

type StockMovementRepository interface {
	CreateTx(tx *gorm.DB, m *model.StockMovement) error
	// ListByReferenceTx returns the movements written for one consumption
	// record or ledger entry, oldest first.
	ListByReferenceTx(tx *gorm.DB, ownerID, referenceID uuid.UUID) ([]model.StockMovement, error)
	List(ctx context.Context, ownerID uuid.UUID, filter StockMovementFilter) ([]model.StockMovement, int64, error)
	DeleteByLotTx(tx *gorm.DB, ownerID, lotID uuid.UUID) error
}

type stockMovementRepo struct{ db *gorm.DB }

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db: db}
}

func (r *stockMovementRepo) CreateTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Create(m).Error
}

func (r *stockMovementRepo) ListByReferenceTx(tx *gorm.DB, ownerID, referenceID uuid.UUID) ([]model.StockMovement, error) {
	var moves []model.StockMovement
	err := tx.Where("owner_id = ? AND reference_id = ?", ownerID, referenceID).
		Order("created_at ASC, id ASC").Find(&moves).Error
	return moves, err
}

func (r *stockMovementRepo) List(ctx context.Context, ownerID uuid.UUID, filter StockMovementFilter) ([]model.StockMovement, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockMovement{}).Where("owner_id = ?", ownerID)
	if filter.FeedLotID != nil {
		q = q.Where("feed_lot_id = ?", *filter.FeedLotID)
	}
	if filter.Kind != "" {
		q = q.Where("kind = ?", filter.Kind)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := paginate(filter.Page, filter.Limit, MovementPageSize)
	var moves []model.StockMovement
	err := q.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&moves).Error
	return moves, total, err
}

func (r *stockMovementRepo) DeleteByLotTx(tx *gorm.DB, ownerID, lotID uuid.UUID) error {
	return tx.Where("owner_id = ? AND feed_lot_id = ?", ownerID, lotID).
		Delete(&model.StockMovement{}).Error
}
