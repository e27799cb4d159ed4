package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/model"
)

// FeedLotRepository defines the data access contract for feed lots.
// Every lookup is scoped by owner; a lot belonging to another owner is
// reported as gorm.ErrRecordNotFound.
type FeedLotRepository interface {
	CreateTx(tx *gorm.DB, l *model.FeedLot) error
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*model.FeedLot, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]model.FeedLot, error)
	ListLowStock(ctx context.Context, ownerID uuid.UUID) ([]model.FeedLot, error)
	// Used inside transactions; rows are locked FOR UPDATE.
	FindByIDForUpdateTx(tx *gorm.DB, ownerID, id uuid.UUID) (*model.FeedLot, error)
	// ListForDeductionTx returns lots of the feed type that still hold stock,
	// in consumption order: earliest expiry first (no expiry last), then
	// oldest purchase, then creation order.
	ListForDeductionTx(tx *gorm.DB, ownerID uuid.UUID, feedType model.FeedType) ([]model.FeedLot, error)
	SumQuantityTx(tx *gorm.DB, ownerID uuid.UUID, feedType model.FeedType) (decimal.Decimal, error)
	// CountReferencesTx counts ledger entries, consumption records and
	// consumption movements that point at the lot.
	CountReferencesTx(tx *gorm.DB, ownerID, id uuid.UUID) (int64, error)
	UpdateTx(tx *gorm.DB, l *model.FeedLot) error
	DeleteTx(tx *gorm.DB, ownerID, id uuid.UUID) error
}

type feedLotRepo struct{ db *gorm.DB }

func NewFeedLotRepository(db *gorm.DB) FeedLotRepository { return &feedLotRepo{db: db} }

func (r *feedLotRepo) CreateTx(tx *gorm.DB, l *model.FeedLot) error {
	return tx.Create(l).Error
}

func (r *feedLotRepo) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*model.FeedLot, error) {
	var l model.FeedLot
	err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *feedLotRepo) List(ctx context.Context, ownerID uuid.UUID) ([]model.FeedLot, error) {
	var lots []model.FeedLot
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).
		Order("feed_type ASC, purchase_date ASC, created_at ASC").
		Find(&lots).Error
	return lots, err
}

func (r *feedLotRepo) ListLowStock(ctx context.Context, ownerID uuid.UUID) ([]model.FeedLot, error) {
	var lots []model.FeedLot
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND quantity <= min_stock_level", ownerID).
		Order("quantity ASC, feed_name ASC").
		Find(&lots).Error
	return lots, err
}

func (r *feedLotRepo) DeleteTx(tx *gorm.DB, ownerID, id uuid.UUID) error {
	res := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&model.FeedLot{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *feedLotRepo) CountReferencesTx(db *gorm.DB, ownerID, id uuid.UUID) (int64, error) {
	var entries, records, consumed int64
	if err := db.Model(&model.TransactionEntry{}).
		Where("owner_id = ? AND feed_id = ?", ownerID, id).Count(&entries).Error; err != nil {
		return 0, err
	}
	if err := db.Model(&model.ConsumptionRecord{}).
		Where("owner_id = ? AND feed_lot_id = ?", ownerID, id).Count(&records).Error; err != nil {
		return 0, err
	}
	// Multi-lot deductions only name their first lot; the others are linked
	// through their consumption movements.
	if err := db.Model(&model.StockMovement{}).
		Where("owner_id = ? AND feed_lot_id = ? AND kind IN ?", ownerID, id,
			[]model.MovementKind{model.MoveAutoConsumption, model.MoveManualConsumption}).
		Count(&consumed).Error; err != nil {
		return 0, err
	}
	return entries + records + consumed, nil
}

func (r *feedLotRepo) FindByIDForUpdateTx(tx *gorm.DB, ownerID, id uuid.UUID) (*model.FeedLot, error) {
	var l model.FeedLot
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND owner_id = ?", id, ownerID).First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *feedLotRepo) ListForDeductionTx(tx *gorm.DB, ownerID uuid.UUID, feedType model.FeedType) ([]model.FeedLot, error) {
	var lots []model.FeedLot
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("owner_id = ? AND feed_type = ? AND quantity > 0", ownerID, feedType).
		Order("expiry_date ASC NULLS LAST, purchase_date ASC, created_at ASC, id ASC").
		Find(&lots).Error
	return lots, err
}

func (r *feedLotRepo) SumQuantityTx(tx *gorm.DB, ownerID uuid.UUID, feedType model.FeedType) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := tx.Model(&model.FeedLot{}).
		Select("SUM(quantity)").
		Where("owner_id = ? AND feed_type = ?", ownerID, feedType).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (r *feedLotRepo) UpdateTx(tx *gorm.DB, l *model.FeedLot) error {
	return tx.Save(l).Error
}
