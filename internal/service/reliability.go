package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kursadbilgin/alert-dispatch/internal/domain"
	"github.com/kursadbilgin/alert-dispatch/internal/observability"
	"go.uber.org/zap"
)

// ReliabilityStore holds the per contact point failure counters.
type ReliabilityStore interface {
	GetContactPoint(ctx context.Context, id string) (*domain.ContactPoint, error)
	IncrementFailures(ctx context.Context, contactPointID string, failedAt time.Time) error
	ResetFailures(ctx context.Context, contactPointID string) error
}

// FailureRecorder is notified whenever a delivery to a contact point fails.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, contactPointID string) error
}

// ContactReliability is the reliability view of one contact point.
type ContactReliability struct {
	ContactPointID      string
	ConsecutiveFailures int
	LastFailedAt        *time.Time
	Flagged             bool
	Status              domain.ReliabilityStatus
}

type ReliabilityTracker struct {
	store   ReliabilityStore
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

func NewReliabilityTracker(store ReliabilityStore, logger *zap.Logger) (*ReliabilityTracker, error) {
	if store == nil {
		return nil, fmt.Errorf("reliability store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ReliabilityTracker{
		store:  store,
		logger: logger,
		now:    time.Now,
	}, nil
}

func (t *ReliabilityTracker) SetMetrics(metrics *observability.Metrics) {
	if t == nil {
		return
	}
	t.metrics = metrics
}

// RecordFailure increments the contact point's consecutive failure counter.
// The increment is a single store operation, so concurrent failures are not lost.
func (t *ReliabilityTracker) RecordFailure(ctx context.Context, contactPointID string) error {
	contactPointID = strings.TrimSpace(contactPointID)
	if contactPointID == "" {
		return fmt.Errorf("%w: contact point id is required", domain.ErrValidation)
	}

	if err := t.store.IncrementFailures(ctx, contactPointID, t.now().UTC()); err != nil {
		t.metrics.IncContactFailureUpdateError()
		return fmt.Errorf("failed to record contact point failure: %w", err)
	}
	t.metrics.IncContactFailure()
	return nil
}

// RecordSuccess clears the counter after a successful contact outside of alerts.
func (t *ReliabilityTracker) RecordSuccess(ctx context.Context, contactPointID string) error {
	contactPointID = strings.TrimSpace(contactPointID)
	if contactPointID == "" {
		return fmt.Errorf("%w: contact point id is required", domain.ErrValidation)
	}

	if err := t.store.ResetFailures(ctx, contactPointID); err != nil {
		return fmt.Errorf("failed to reset contact point failures: %w", err)
	}
	t.logger.Info("contact point failures reset", zap.String("contactPointId", contactPointID))
	return nil
}

func (t *ReliabilityTracker) Reliability(ctx context.Context, contactPointID string) (*ContactReliability, error) {
	cp, err := t.store.GetContactPoint(ctx, strings.TrimSpace(contactPointID))
	if err != nil {
		return nil, err
	}

	return &ContactReliability{
		ContactPointID:      cp.ID,
		ConsecutiveFailures: cp.ConsecutiveFailures,
		LastFailedAt:        cp.LastFailedAt,
		Flagged:             domain.ShouldFlag(cp.ConsecutiveFailures),
		Status:              domain.ReliabilityStatusFor(cp.ConsecutiveFailures),
	}, nil
}

// recordFailureBestEffort notifies recorder and only logs its error. The
// delivery status change it follows is already committed.
func recordFailureBestEffort(ctx context.Context, recorder FailureRecorder, logger *zap.Logger, contactPointID string, fields ...zap.Field) {
	if recorder == nil || strings.TrimSpace(contactPointID) == "" {
		return
	}
	if err := recorder.RecordFailure(ctx, contactPointID); err != nil {
		logger.Warn("failed to record contact point failure",
			append(fields, zap.String("contactPointId", contactPointID), zap.Error(err))...,
		)
	}
}
