package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kursadbilgin/alert-dispatch/internal/domain"
	"github.com/kursadbilgin/alert-dispatch/internal/observability"
	"github.com/kursadbilgin/alert-dispatch/internal/queue"
	"go.uber.org/zap"
)

const (
	relayPathQueued = "queued"
	relayPathInline = "inline"
)

// CallbackReconciler applies one provider status callback.
type CallbackReconciler interface {
	Reconcile(ctx context.Context, cb domain.StatusCallback) ReconcileOutcome
}

// CallbackRelay hands provider callbacks to the reconcile workers through the
// broker, or reconciles them inline when no broker is available.
type CallbackRelay struct {
	publisher  queue.Publisher
	reconciler CallbackReconciler
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// NewCallbackRelay builds a relay. A nil publisher reconciles every callback inline.
func NewCallbackRelay(publisher queue.Publisher, reconciler CallbackReconciler, logger *zap.Logger) (*CallbackRelay, error) {
	if reconciler == nil {
		return nil, fmt.Errorf("reconciler is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CallbackRelay{
		publisher:  publisher,
		reconciler: reconciler,
		logger:     logger,
		now:        time.Now,
	}, nil
}

func (r *CallbackRelay) SetMetrics(metrics *observability.Metrics) {
	if r == nil {
		return
	}
	r.metrics = metrics
}

// Relay never fails: a callback that cannot be queued is reconciled inline.
func (r *CallbackRelay) Relay(ctx context.Context, cb domain.StatusCallback) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cb.ReceivedAt.IsZero() {
		cb.ReceivedAt = r.now().UTC()
	}

	if r.publisher != nil {
		correlationID, _ := observability.CorrelationIDFromContext(ctx)
		msg := queue.NewStatusCallbackMessage(cb, correlationID)
		err := r.publisher.Publish(ctx, queue.StatusCallbackQueue, msg)
		if err == nil {
			r.metrics.IncCallbackRelay(relayPathQueued)
			return
		}
		observability.WithContextLogger(r.logger, ctx).Warn("failed to queue status callback, reconciling inline",
			zap.String("providerRef", cb.ProviderRef),
			zap.String("destination", cb.DestinationAddress),
			zap.Error(err),
		)
	}

	r.metrics.IncCallbackRelay(relayPathInline)
	r.reconciler.Reconcile(ctx, cb)
}
