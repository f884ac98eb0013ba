package queue

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	dlxExchangeName  = "alert-dispatch.dlx"
	reconnectBackoff = time.Second
	maxBackoff       = 30 * time.Second
	dialTimeout      = 15 * time.Second
)

// RabbitMQ owns one connection shared by the callback publisher and consumers.
// Channels are opened per operation and the topology is declared on each.
type RabbitMQ struct {
	url string

	mu     sync.RWMutex
	dialMu sync.Mutex
	conn   *amqp.Connection
}

func NewRabbitMQ(url string) (*RabbitMQ, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("rabbitmq url is required")
	}

	r := &RabbitMQ{url: url}

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if _, err := r.connection(ctx); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	conn := r.conn
	r.conn = nil
	r.mu.Unlock()

	if conn == nil || conn.IsClosed() {
		return nil
	}

	return conn.Close()
}

// channel opens a channel with the topology declared. A dead connection is
// redialed once before giving up.
func (r *RabbitMQ) channel(ctx context.Context) (*amqp.Channel, error) {
	conn, err := r.connection(ctx)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		r.forget(conn)
		if conn, err = r.connection(ctx); err != nil {
			return nil, err
		}
		if ch, err = conn.Channel(); err != nil {
			return nil, fmt.Errorf("failed to create rabbitmq channel after reconnect: %w", err)
		}
	}

	if err := declareTopology(ch); err != nil {
		_ = ch.Close()
		return nil, err
	}

	return ch, nil
}

func (r *RabbitMQ) current() *amqp.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.conn == nil || r.conn.IsClosed() {
		return nil
	}
	return r.conn
}

func (r *RabbitMQ) forget(conn *amqp.Connection) {
	r.mu.Lock()
	if r.conn == conn {
		r.conn = nil
	}
	r.mu.Unlock()
	_ = conn.Close()
}

// connection returns the open connection, dialing with exponential backoff
// until ctx is done. Only one goroutine dials at a time.
func (r *RabbitMQ) connection(ctx context.Context) (*amqp.Connection, error) {
	if conn := r.current(); conn != nil {
		return conn, nil
	}

	r.dialMu.Lock()
	defer r.dialMu.Unlock()

	if conn := r.current(); conn != nil {
		return conn, nil
	}

	wait := reconnectBackoff
	for {
		conn, err := amqp.Dial(r.url)
		if err == nil {
			r.mu.Lock()
			r.conn = conn
			r.mu.Unlock()
			return conn, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("rabbitmq connect canceled: %w (last error: %v)", ctx.Err(), err)
		case <-time.After(wait):
		}

		wait = min(wait*2, maxBackoff)
	}
}

// Healthy reports whether the connection is currently open.
func (r *RabbitMQ) Healthy() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conn != nil && !r.conn.IsClosed()
}

// declareTopology declares each work queue with a dead-letter queue behind it.
// Callbacks that keep failing end up in the DLQ for inspection.
func declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dlx exchange: %w", err)
	}

	for _, queueName := range WorkQueueNames() {
		dlqName := DLQName(queueName)

		if _, err := ch.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare dlq %q: %w", dlqName, err)
		}
		if err := ch.QueueBind(dlqName, queueName, dlxExchangeName, false, nil); err != nil {
			return fmt.Errorf("failed to bind dlq %q: %w", dlqName, err)
		}

		args := amqp.Table{
			"x-dead-letter-exchange":    dlxExchangeName,
			"x-dead-letter-routing-key": queueName,
		}
		if _, err := ch.QueueDeclare(queueName, true, false, false, false, args); err != nil {
			return fmt.Errorf("failed to declare queue %q: %w", queueName, err)
		}
	}

	return nil
}
