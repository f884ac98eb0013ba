package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kursadbilgin/alert-dispatch/internal/domain"
	"gorm.io/gorm"
)

// DirectoryRepository is the read side of the recipient directory plus the
// reliability counters on its contact points.
type DirectoryRepository interface {
	ListUnits(ctx context.Context) ([]domain.Unit, error)
	GetContactPoint(ctx context.Context, id string) (*domain.ContactPoint, error)
	IncrementFailures(ctx context.Context, contactPointID string, failedAt time.Time) error
	ResetFailures(ctx context.Context, contactPointID string) error
}

type GormDirectoryRepo struct {
	db *gorm.DB
}

func NewGormDirectoryRepo(db *gorm.DB) *GormDirectoryRepo {
	return &GormDirectoryRepo{db: db}
}

// ListUnits returns every unit ordered by name, each with its contact points in
// stored order.
func (r *GormDirectoryRepo) ListUnits(ctx context.Context) ([]domain.Unit, error) {
	var models []MarketModel
	err := r.db.WithContext(ctx).
		Preload("Phones", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC").Order("created_at ASC").Order("id ASC")
		}).
		Order("name ASC").
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	units := make([]domain.Unit, 0, len(models))
	for i := range models {
		units = append(units, marketModelToDomain(&models[i]))
	}
	return units, nil
}

func (r *GormDirectoryRepo) GetContactPoint(ctx context.Context, id string) (*domain.ContactPoint, error) {
	var model PhoneNumberModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	cp := phoneModelToDomain(&model)
	return &cp, nil
}

// IncrementFailures bumps the counter in a single statement so concurrent
// failures on the same contact point are never lost.
func (r *GormDirectoryRepo) IncrementFailures(ctx context.Context, contactPointID string, failedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&PhoneNumberModel{}).
		Where("id = ?", contactPointID).
		Updates(map[string]any{
			"failure_count":  gorm.Expr("failure_count + 1"),
			"last_failed_at": failedAt,
			"updated_at":     failedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormDirectoryRepo) ResetFailures(ctx context.Context, contactPointID string) error {
	result := r.db.WithContext(ctx).
		Model(&PhoneNumberModel{}).
		Where("id = ?", contactPointID).
		Update("failure_count", 0)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
