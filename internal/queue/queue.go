package queue

import (
	"context"
	"fmt"
)

const (
	// StatusCallbackQueue carries provider status callbacks to the reconcile workers.
	StatusCallbackQueue = "provider.status"
)

// Publisher publishes status callback messages to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg StatusCallbackMessage) error
	Close() error
}

// MessageHandler handles a consumed queue message.
type MessageHandler func(ctx context.Context, msg StatusCallbackMessage) error

// Consumer consumes status callback messages from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}

// DLQName returns the dead-letter queue name for a work queue, e.g. dlq.provider.status.
func DLQName(queue string) string {
	return fmt.Sprintf("dlq.%s", queue)
}

// WorkQueueNames returns every work queue declared on connect.
func WorkQueueNames() []string {
	return []string{StatusCallbackQueue}
}
