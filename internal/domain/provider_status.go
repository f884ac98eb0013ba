package domain

import (
	"strings"
	"time"
)

// MapProviderStatus maps a raw provider message status onto the delivery state
// machine. ok is false for statuses the state machine does not know.
func MapProviderStatus(raw string) (status DeliveryStatus, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "queued", "accepted", "scheduled", "sending", "sent":
		return DeliveryStatusSent, true
	case "delivered", "read":
		return DeliveryStatusDelivered, true
	case "undelivered":
		return DeliveryStatusBounced, true
	case "failed", "canceled":
		return DeliveryStatusFailed, true
	}
	return "", false
}

// StatusCallback is an asynchronous status report from the provider. It is keyed
// by destination address and the provider's own reference, never by delivery id.
type StatusCallback struct {
	DestinationAddress string
	ProviderRef        string
	ProviderStatus     string
	ErrorCode          string
	ErrorMessage       string
	ReceivedAt         time.Time
}

// FailureReason renders the error reason recorded for a failed callback.
func (c StatusCallback) FailureReason() string {
	if msg := strings.TrimSpace(c.ErrorMessage); msg != "" {
		return msg
	}
	code := strings.TrimSpace(c.ErrorCode)
	if code == "" {
		code = "Unknown"
	}
	return "Provider error: " + code
}
