package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/model"
)

type ConsumptionSettingRepository interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]model.ConsumptionSetting, error)
	ListEnabled(ctx context.Context, ownerID uuid.UUID) ([]model.ConsumptionSetting, error)
	// Upsert inserts or replaces the setting for (owner, species, feed_type).
	Upsert(ctx context.Context, s *model.ConsumptionSetting) error
	Delete(ctx context.Context, ownerID uuid.UUID, species model.Species, feedType model.FeedType) error
	// OwnersWithAutoDeduct lists owners having at least one enabled setting.
	OwnersWithAutoDeduct(ctx context.Context) ([]uuid.UUID, error)
}

type consumptionSettingRepo struct{ db *gorm.DB }

func NewConsumptionSettingRepository(db *gorm.DB) ConsumptionSettingRepository {
	return &consumptionSettingRepo{db: db}
}

func (r *consumptionSettingRepo) List(ctx context.Context, ownerID uuid.UUID) ([]model.ConsumptionSetting, error) {
	var settings []model.ConsumptionSetting
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).
		Order("species ASC, feed_type ASC").Find(&settings).Error
	return settings, err
}

func (r *consumptionSettingRepo) ListEnabled(ctx context.Context, ownerID uuid.UUID) ([]model.ConsumptionSetting, error) {
	var settings []model.ConsumptionSetting
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND auto_deduct_enabled = true", ownerID).
		Order("species ASC, feed_type ASC").Find(&settings).Error
	return settings, err
}

func (r *consumptionSettingRepo) Upsert(ctx context.Context, s *model.ConsumptionSetting) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_id"}, {Name: "species"}, {Name: "feed_type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"daily_consumption_per_animal", "auto_deduct_enabled", "updated_at",
		}),
	}).Create(s).Error
}

func (r *consumptionSettingRepo) Delete(ctx context.Context, ownerID uuid.UUID, species model.Species, feedType model.FeedType) error {
	res := r.db.WithContext(ctx).
		Where("owner_id = ? AND species = ? AND feed_type = ?", ownerID, species, feedType).
		Delete(&model.ConsumptionSetting{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *consumptionSettingRepo) OwnersWithAutoDeduct(ctx context.Context) ([]uuid.UUID, error) {
	var owners []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.ConsumptionSetting{}).
		Where("auto_deduct_enabled = true").
		Distinct().Pluck("owner_id", &owners).Error
	return owners, err
}
