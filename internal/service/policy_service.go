package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/dto"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/model"
	"github.com/YLCALP/ciftlik360-master-sub000/internal/repository"
)

// PolicyService manages the (species, feed_type) → daily ration table.
type PolicyService interface {
	GetSettings(ctx context.Context, ownerID uuid.UUID) ([]dto.SettingResponse, error)
	UpsertSetting(ctx context.Context, ownerID uuid.UUID, req dto.UpsertSettingRequest) (*dto.SettingResponse, error)
	DeleteSetting(ctx context.Context, ownerID uuid.UUID, species, feedType string) error
}

type policyService struct {
	repo repository.ConsumptionSettingRepository
}

func NewPolicyService(repo repository.ConsumptionSettingRepository) PolicyService {
	return &policyService{repo: repo}
}

func (s *policyService) GetSettings(ctx context.Context, ownerID uuid.UUID) ([]dto.SettingResponse, error) {
	settings, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list consumption settings: %w", err)
	}
	out := make([]dto.SettingResponse, 0, len(settings))
	for i := range settings {
		out = append(out, settingToResponse(&settings[i]))
	}
	return out, nil
}

func validateKey(species, feedType string) (model.Species, model.FeedType, error) {
	errs := fieldErrors{}
	sp := model.Species(species)
	ft := model.FeedType(feedType)
	if !sp.Valid() {
		errs.add("species", "must be one of cattle, sheep, goat, poultry")
	}
	if !ft.Valid() {
		errs.add("feed_type", "must be one of concentrate, roughage, supplement, other")
	}
	return sp, ft, errs.err()
}

// UpsertSetting is idempotent: repeating the same request leaves one row with
// the same values.
func (s *policyService) UpsertSetting(ctx context.Context, ownerID uuid.UUID, req dto.UpsertSettingRequest) (*dto.SettingResponse, error) {
	sp, ft, err := validateKey(req.Species, req.FeedType)
	if err != nil {
		return nil, err
	}
	errs := fieldErrors{}
	if req.DailyConsumptionPerAnimal.IsNegative() {
		errs.add("daily_consumption_per_animal", "must be >= 0")
	}
	errs.scale("daily_consumption_per_animal", req.DailyConsumptionPerAnimal, quantityScale)
	if err := errs.err(); err != nil {
		return nil, err
	}
	setting := &model.ConsumptionSetting{
		ID:                        uuid.New(),
		OwnerID:                   ownerID,
		Species:                   sp,
		FeedType:                  ft,
		DailyConsumptionPerAnimal: req.DailyConsumptionPerAnimal,
		AutoDeductEnabled:         req.AutoDeductEnabled,
	}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return nil, fmt.Errorf("upsert consumption setting: %w", err)
	}
	resp := settingToResponse(setting)
	return &resp, nil
}

func (s *policyService) DeleteSetting(ctx context.Context, ownerID uuid.UUID, species, feedType string) error {
	sp, ft, err := validateKey(species, feedType)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, ownerID, sp, ft); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Resource: fmt.Sprintf("consumption setting %s/%s", sp, ft)}
		}
		return fmt.Errorf("delete consumption setting: %w", err)
	}
	return nil
}
