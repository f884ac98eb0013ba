package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kursadbilgin/alert-dispatch/internal/domain"
	"github.com/kursadbilgin/alert-dispatch/internal/observability"
	"github.com/kursadbilgin/alert-dispatch/internal/provider"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAlertDispatcherLogsCarryCorrelationID(t *testing.T) {
	t.Parallel()

	units := []domain.Unit{testUnit("u1", "Albany", domain.FeedList3PM, "+12015550101")}
	gateway := &fakeGateway{sendFn: func(ctx context.Context, msg provider.Message) (*provider.SendResult, error) {
		return nil, errors.New("connection reset")
	}}
	f := newDispatcherFixture(t, units, Gateways{domain.AlertKindText: gateway}, 0)
	core, logs := observer.New(zapcore.InfoLevel)
	f.dispatcher.logger = zap.New(core)

	ctx := observability.WithCorrelationID(context.Background(), "req-dispatch")
	if _, err := f.dispatcher.Dispatch(ctx, textRequest("all", "Storm warning")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	failed := logs.FilterMessage("delivery failed").All()
	if len(failed) != 1 {
		t.Fatalf("delivery failed entries = %d, want 1", len(failed))
	}
	fields := failed[0].ContextMap()
	if fields["correlationId"] != "req-dispatch" {
		t.Fatalf("correlationId = %v, want req-dispatch", fields["correlationId"])
	}
	if fields["alertId"] == nil || fields["deliveryId"] == nil {
		t.Fatalf("fields = %v, want alertId and deliveryId", fields)
	}
	for _, e := range logs.All() {
		if e.ContextMap()["correlationId"] != "req-dispatch" {
			t.Fatalf("entry %q missing correlationId", e.Message)
		}
	}
}

func TestStatusReconcilerLogsCarryCorrelationID(t *testing.T) {
	t.Parallel()

	repo := newMemDeliveryRepo()
	seedSent(t, repo, "d1", "+12015550101", "SM1", reconcileNow.Add(-time.Minute))
	core, logs := observer.New(zapcore.InfoLevel)
	r := newTestReconciler(t, repo, &fakeFailureRecorder{}, zap.New(core))

	ctx := observability.WithCorrelationID(context.Background(), "req-callback")
	r.Reconcile(ctx, domain.StatusCallback{ProviderRef: "SM1", DestinationAddress: "+12015550101", ProviderStatus: "delivered"})
	r.Reconcile(ctx, domain.StatusCallback{DestinationAddress: "+12015550199", ProviderStatus: "delivered"})

	tests := []struct {
		message string
		wantRef string
	}{
		{message: "delivery status updated", wantRef: "SM1"},
		{message: "no sent delivery matches status callback"},
	}
	for _, tt := range tests {
		entries := logs.FilterMessage(tt.message).All()
		if len(entries) != 1 {
			t.Fatalf("%q entries = %d, want 1", tt.message, len(entries))
		}
		fields := entries[0].ContextMap()
		if fields["correlationId"] != "req-callback" {
			t.Fatalf("%q correlationId = %v, want req-callback", tt.message, fields["correlationId"])
		}
		if fields["providerRef"] != tt.wantRef {
			t.Fatalf("%q providerRef = %v, want %q", tt.message, fields["providerRef"], tt.wantRef)
		}
	}
}
