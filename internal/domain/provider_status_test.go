package domain

import "testing"

func TestMapProviderStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw    string
		want   DeliveryStatus
		wantOK bool
	}{
		{raw: "queued", want: DeliveryStatusSent, wantOK: true},
		{raw: "sending", want: DeliveryStatusSent, wantOK: true},
		{raw: "sent", want: DeliveryStatusSent, wantOK: true},
		{raw: "Delivered", want: DeliveryStatusDelivered, wantOK: true},
		{raw: "read", want: DeliveryStatusDelivered, wantOK: true},
		{raw: "undelivered", want: DeliveryStatusBounced, wantOK: true},
		{raw: "failed", want: DeliveryStatusFailed, wantOK: true},
		{raw: "canceled", want: DeliveryStatusFailed, wantOK: true},
		{raw: "receiving", wantOK: false},
		{raw: "", wantOK: false},
	}

	for _, tt := range tests {
		got, ok := MapProviderStatus(tt.raw)
		if ok != tt.wantOK || got != tt.want {
			t.Fatalf("MapProviderStatus(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestStatusCallbackFailureReason(t *testing.T) {
	t.Parallel()

	if got := (StatusCallback{ErrorMessage: "Unknown destination", ErrorCode: "30005"}).FailureReason(); got != "Unknown destination" {
		t.Fatalf("FailureReason() = %q, want message", got)
	}
	if got := (StatusCallback{ErrorCode: "30003"}).FailureReason(); got != "Provider error: 30003" {
		t.Fatalf("FailureReason() = %q, want code fallback", got)
	}
	if got := (StatusCallback{}).FailureReason(); got != "Provider error: Unknown" {
		t.Fatalf("FailureReason() = %q, want unknown fallback", got)
	}
}
