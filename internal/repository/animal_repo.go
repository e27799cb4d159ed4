package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/model"
)

// AnimalFilter narrows animal listings. Zero values mean "any".
type AnimalFilter struct {
	Status  model.AnimalStatus
	Species model.Species
}

type AnimalRepository interface {
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Animal, error)
	FindByTag(ctx context.Context, ownerID uuid.UUID, tag string) (*model.Animal, error)
	List(ctx context.Context, ownerID uuid.UUID, filter AnimalFilter) ([]model.Animal, error)
	// CountActiveBySpecies counts animals with status active only.
	CountActiveBySpecies(ctx context.Context, ownerID uuid.UUID) (map[model.Species]int, error)

	CreateTx(tx *gorm.DB, a *model.Animal) error
	FindByIDForUpdateTx(tx *gorm.DB, ownerID, id uuid.UUID) (*model.Animal, error)
	UpdateTx(tx *gorm.DB, a *model.Animal) error
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status model.AnimalStatus) error
	DeleteTx(tx *gorm.DB, ownerID, id uuid.UUID) error
}

type animalRepo struct{ db *gorm.DB }

func NewAnimalRepository(db *gorm.DB) AnimalRepository { return &animalRepo{db: db} }

func (r *animalRepo) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Animal, error) {
	var a model.Animal
	err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *animalRepo) FindByTag(ctx context.Context, ownerID uuid.UUID, tag string) (*model.Animal, error) {
	var a model.Animal
	err := r.db.WithContext(ctx).Where("owner_id = ? AND tag_number = ?", ownerID, tag).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *animalRepo) List(ctx context.Context, ownerID uuid.UUID, filter AnimalFilter) ([]model.Animal, error) {
	q := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Species != "" {
		q = q.Where("species = ?", filter.Species)
	}
	var animals []model.Animal
	err := q.Order("tag_number ASC").Find(&animals).Error
	return animals, err
}

func (r *animalRepo) CountActiveBySpecies(ctx context.Context, ownerID uuid.UUID) (map[model.Species]int, error) {
	var rows []struct {
		Species model.Species
		Count   int
	}
	err := r.db.WithContext(ctx).Model(&model.Animal{}).
		Select("species, COUNT(*) AS count").
		Where("owner_id = ? AND status = ?", ownerID, model.AnimalActive).
		Group("species").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[model.Species]int, len(rows))
	for _, row := range rows {
		counts[row.Species] = row.Count
	}
	return counts, nil
}

func (r *animalRepo) UpdateTx(tx *gorm.DB, a *model.Animal) error {
	return tx.Save(a).Error
}

func (r *animalRepo) CreateTx(tx *gorm.DB, a *model.Animal) error {
	return tx.Create(a).Error
}

func (r *animalRepo) FindByIDForUpdateTx(tx *gorm.DB, ownerID, id uuid.UUID) (*model.Animal, error) {
	var a model.Animal
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND owner_id = ?", id, ownerID).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *animalRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status model.AnimalStatus) error {
	return tx.Model(&model.Animal{}).Where("id = ?", id).Update("status", status).Error
}

func (r *animalRepo) DeleteTx(tx *gorm.DB, ownerID, id uuid.UUID) error {
	res := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&model.Animal{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
