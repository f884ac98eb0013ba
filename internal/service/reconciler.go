package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kursadbilgin/alert-dispatch/internal/domain"
	"github.com/kursadbilgin/alert-dispatch/internal/observability"
	"github.com/kursadbilgin/alert-dispatch/internal/repository"
	"go.uber.org/zap"
)

// ReconcileOutcome reports what a status callback did. It is informational;
// reconciliation never fails from the caller's point of view.
type ReconcileOutcome string

const (
	ReconcileApplied   ReconcileOutcome = "applied"
	ReconcileIgnored   ReconcileOutcome = "ignored"
	ReconcileUnmatched ReconcileOutcome = "unmatched"
	ReconcileDuplicate ReconcileOutcome = "duplicate"
	ReconcileInvalid   ReconcileOutcome = "invalid"
	ReconcileError     ReconcileOutcome = "error"
)

func (o ReconcileOutcome) String() string { return string(o) }

// StatusReconciler applies provider status callbacks to delivery records.
type StatusReconciler struct {
	deliveries  repository.DeliveryRepository
	reliability FailureRecorder
	logger      *zap.Logger
	metrics     *observability.Metrics
	region      string
	now         func() time.Time
}

func NewStatusReconciler(
	deliveries repository.DeliveryRepository,
	reliability FailureRecorder,
	phoneRegion string,
	logger *zap.Logger,
) (*StatusReconciler, error) {
	if deliveries == nil {
		return nil, fmt.Errorf("delivery repository is required")
	}
	if strings.TrimSpace(phoneRegion) == "" {
		phoneRegion = domain.DefaultPhoneRegion
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &StatusReconciler{
		deliveries:  deliveries,
		reliability: reliability,
		logger:      logger,
		region:      phoneRegion,
		now:         time.Now,
	}, nil
}

func (r *StatusReconciler) SetMetrics(metrics *observability.Metrics) {
	if r == nil {
		return
	}
	r.metrics = metrics
}

// Reconcile matches cb to a delivery still in sent and moves it to the reported
// terminal status. Unmatched, malformed and duplicate callbacks are logged and
// dropped. A transition into bounced or failed notifies the reliability tracker
// exactly once.
func (r *StatusReconciler) Reconcile(ctx context.Context, cb domain.StatusCallback) ReconcileOutcome {
	if ctx == nil {
		ctx = context.Background()
	}

	outcome := r.reconcile(ctx, cb)
	r.metrics.IncCallback(outcome.String())
	return outcome
}

func (r *StatusReconciler) reconcile(ctx context.Context, cb domain.StatusCallback) ReconcileOutcome {
	log := observability.WithContextLogger(r.logger, ctx).With(
		zap.String("providerRef", cb.ProviderRef),
		zap.String("destination", cb.DestinationAddress),
		zap.String("providerStatus", cb.ProviderStatus),
	)

	if strings.TrimSpace(cb.ProviderStatus) == "" ||
		(strings.TrimSpace(cb.ProviderRef) == "" && strings.TrimSpace(cb.DestinationAddress) == "") {
		log.Warn("dropping malformed status callback")
		return ReconcileInvalid
	}

	target, known := domain.MapProviderStatus(cb.ProviderStatus)
	if !known {
		log.Info("ignoring unknown provider status")
		return ReconcileIgnored
	}
	if !target.IsTerminal() {
		return ReconcileIgnored
	}

	record, err := r.match(ctx, cb)
	if errors.Is(err, domain.ErrNotFound) {
		log.Info("no sent delivery matches status callback")
		return ReconcileUnmatched
	}
	if errors.Is(err, domain.ErrValidation) {
		log.Warn("dropping status callback with unusable destination", zap.Error(err))
		return ReconcileInvalid
	}
	if err != nil {
		log.Error("failed to match status callback", zap.Error(err))
		return ReconcileError
	}

	log = log.With(
		zap.String("deliveryId", record.ID),
		zap.String("alertId", record.AlertID),
	)

	if record.Status != domain.DeliveryStatusSent {
		log.Info("delivery already terminal, ignoring callback",
			zap.String("status", record.Status.String()),
		)
		return ReconcileDuplicate
	}

	transition := domain.DeliveryTransition{Status: target}
	if target == domain.DeliveryStatusDelivered {
		at := r.now().UTC()
		transition.DeliveredAt = &at
	} else {
		reason := cb.FailureReason()
		transition.ErrorReason = &reason
	}

	applied, err := r.deliveries.TransitionFromSent(ctx, record.ID, transition)
	if err != nil {
		log.Error("failed to apply delivery transition", zap.Error(err))
		return ReconcileError
	}
	if !applied {
		log.Info("delivery left sent concurrently, ignoring callback")
		return ReconcileDuplicate
	}

	log.Info("delivery status updated", zap.String("status", target.String()))

	if target.IsFailure() && record.ContactPointID != nil {
		recordFailureBestEffort(ctx, r.reliability, log, *record.ContactPointID)
	}
	return ReconcileApplied
}

// match joins on the provider reference when one is stored, then falls back to
// the newest sent delivery for the destination address that has no other
// reference of its own.
func (r *StatusReconciler) match(ctx context.Context, cb domain.StatusCallback) (*domain.DeliveryRecord, error) {
	ref := strings.TrimSpace(cb.ProviderRef)
	if ref != "" {
		record, err := r.deliveries.FindByProviderRef(ctx, ref)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	if strings.TrimSpace(cb.DestinationAddress) == "" {
		return nil, domain.ErrNotFound
	}
	address, err := domain.NormalizePhone(cb.DestinationAddress, r.region)
	if err != nil {
		return nil, err
	}
	return r.deliveries.FindLatestSentByAddress(ctx, address, ref)
}
