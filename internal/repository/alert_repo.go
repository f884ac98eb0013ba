package repository

import (
	"context"
	"errors"

	"github.com/kursadbilgin/alert-dispatch/internal/domain"
	"gorm.io/gorm"
)

type AlertRepository interface {
	Create(ctx context.Context, a *domain.AlertRecord) error
	GetByID(ctx context.Context, id string) (*domain.AlertRecord, error)
	List(ctx context.Context, limit int) ([]domain.AlertRecord, error)
}

type GormAlertRepo struct {
	db *gorm.DB
}

func NewGormAlertRepo(db *gorm.DB) *GormAlertRepo {
	return &GormAlertRepo{db: db}
}

func (r *GormAlertRepo) Create(ctx context.Context, a *domain.AlertRecord) error {
	model := alertModelFromDomain(a)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if a != nil {
		*a = *alertModelToDomain(model)
	}
	return nil
}

func (r *GormAlertRepo) GetByID(ctx context.Context, id string) (*domain.AlertRecord, error) {
	var model AlertModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return alertModelToDomain(&model), nil
}

// List returns the newest alerts first. A non-positive limit returns every alert.
func (r *GormAlertRepo) List(ctx context.Context, limit int) ([]domain.AlertRecord, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC").Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []AlertModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	alerts := make([]domain.AlertRecord, 0, len(models))
	for i := range models {
		alerts = append(alerts, *alertModelToDomain(&models[i]))
	}
	return alerts, nil
}
