package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/kursadbilgin/alert-dispatch/internal/domain"
	"gorm.io/gorm"
)

type DeliveryRepository interface {
	Create(ctx context.Context, d *domain.DeliveryRecord) error
	GetByID(ctx context.Context, id string) (*domain.DeliveryRecord, error)
	ListByAlertID(ctx context.Context, alertID string) ([]domain.DeliveryRecord, error)
	FindByProviderRef(ctx context.Context, providerRef string) (*domain.DeliveryRecord, error)
	FindLatestSentByAddress(ctx context.Context, address string, providerRef string) (*domain.DeliveryRecord, error)
	TransitionFromSent(ctx context.Context, id string, t domain.DeliveryTransition) (bool, error)
}

type GormDeliveryRepo struct {
	db *gorm.DB
}

func NewGormDeliveryRepo(db *gorm.DB) *GormDeliveryRepo {
	return &GormDeliveryRepo{db: db}
}

func (r *GormDeliveryRepo) Create(ctx context.Context, d *domain.DeliveryRecord) error {
	model := deliveryModelFromDomain(d)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if d != nil {
		*d = *deliveryModelToDomain(model)
	}
	return nil
}

func (r *GormDeliveryRepo) GetByID(ctx context.Context, id string) (*domain.DeliveryRecord, error) {
	var model DeliveryModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return deliveryModelToDomain(&model), nil
}

// ListByAlertID returns the alert's deliveries ordered by unit name.
func (r *GormDeliveryRepo) ListByAlertID(ctx context.Context, alertID string) ([]domain.DeliveryRecord, error) {
	var models []DeliveryModel
	err := r.db.WithContext(ctx).
		Where("alert_id = ?", alertID).
		Order("unit_name ASC").
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	deliveries := make([]domain.DeliveryRecord, 0, len(models))
	for i := range models {
		deliveries = append(deliveries, *deliveryModelToDomain(&models[i]))
	}
	return deliveries, nil
}

func (r *GormDeliveryRepo) FindByProviderRef(ctx context.Context, providerRef string) (*domain.DeliveryRecord, error) {
	var model DeliveryModel
	err := r.db.WithContext(ctx).
		Where("provider_ref = ?", providerRef).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return deliveryModelToDomain(&model), nil
}

// FindLatestSentByAddress returns the most recently sent delivery to address that
// is still in the sent state. A non-empty providerRef skips deliveries that
// carry a different reference.
func (r *GormDeliveryRepo) FindLatestSentByAddress(ctx context.Context, address string, providerRef string) (*domain.DeliveryRecord, error) {
	var model DeliveryModel
	q := r.db.WithContext(ctx).
		Where("contact_address = ? AND status = ?", address, domain.DeliveryStatusSent)
	if providerRef != "" {
		q = q.Where("provider_ref IS NULL OR provider_ref = ?", providerRef)
	}
	err := q.
		Order("sent_at DESC").
		Order("created_at DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return deliveryModelToDomain(&model), nil
}

// TransitionFromSent moves a sent delivery to a terminal status. It reports false
// when the delivery was no longer sent, which makes replayed callbacks a no-op.
func (r *GormDeliveryRepo) TransitionFromSent(ctx context.Context, id string, t domain.DeliveryTransition) (bool, error) {
	if !domain.CanTransition(domain.DeliveryStatusSent, t.Status) {
		return false, fmt.Errorf("%w: cannot transition delivery to %q", domain.ErrValidation, t.Status)
	}

	updates := map[string]any{"status": t.Status}
	if t.ErrorReason != nil {
		updates["error_reason"] = *t.ErrorReason
	}
	if t.DeliveredAt != nil {
		updates["delivered_at"] = *t.DeliveredAt
	}

	result := r.db.WithContext(ctx).
		Model(&DeliveryModel{}).
		Where("id = ? AND status = ?", id, domain.DeliveryStatusSent).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
