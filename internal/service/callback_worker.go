package service

import (
	"context"
	"fmt"

	"github.com/kursadbilgin/alert-dispatch/internal/observability"
	"github.com/kursadbilgin/alert-dispatch/internal/queue"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const minWorkerConcurrency = 1

// CallbackWorker consumes queued provider callbacks and reconciles them.
type CallbackWorker struct {
	consumer    queue.Consumer
	reconciler  CallbackReconciler
	logger      *zap.Logger
	concurrency int
}

func NewCallbackWorker(
	consumer queue.Consumer,
	reconciler CallbackReconciler,
	concurrency int,
	logger *zap.Logger,
) (*CallbackWorker, error) {
	if consumer == nil {
		return nil, fmt.Errorf("consumer is required")
	}
	if reconciler == nil {
		return nil, fmt.Errorf("reconciler is required")
	}
	if concurrency < minWorkerConcurrency {
		concurrency = minWorkerConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CallbackWorker{
		consumer:    consumer,
		reconciler:  reconciler,
		logger:      logger,
		concurrency: concurrency,
	}, nil
}

// Start consumes the work queues until context cancellation.
func (w *CallbackWorker) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	queueNames := queue.WorkQueueNames()
	if len(queueNames) == 0 {
		return fmt.Errorf("no work queues configured")
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		queueName := queueNames[i%len(queueNames)]
		workerID := i + 1

		g.Go(func() error {
			w.logger.Info("callback worker started",
				zap.Int("workerId", workerID),
				zap.String("queue", queueName),
			)

			if err := w.consumer.Consume(groupCtx, queueName, w.processMessage); err != nil {
				w.logger.Error("callback worker stopped with error",
					zap.Int("workerId", workerID),
					zap.String("queue", queueName),
					zap.Error(err),
				)
				return err
			}

			w.logger.Info("callback worker stopped",
				zap.Int("workerId", workerID),
				zap.String("queue", queueName),
			)
			return nil
		})
	}

	return g.Wait()
}

// processMessage asks for a redelivery only when the store failed; every
// other outcome is final.
func (w *CallbackWorker) processMessage(ctx context.Context, msg queue.StatusCallbackMessage) error {
	if msg.CorrelationID != "" {
		ctx = observability.WithCorrelationID(ctx, msg.CorrelationID)
	}

	if outcome := w.reconciler.Reconcile(ctx, msg.Callback()); outcome == ReconcileError {
		return fmt.Errorf("status callback for %q not reconciled", msg.To)
	}
	return nil
}
