package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ProviderError describes a failed send. Code is the provider's own error code.
type ProviderError struct {
	StatusCode int
	Code       string
	Message    string
	Transient  bool
	// AddressRejected is set when the provider refused the destination itself.
	AddressRejected bool
	Cause           error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 5)
	parts = append(parts, "provider error")

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if code := strings.TrimSpace(e.Code); code != "" {
		parts = append(parts, "code="+code)
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsTransient reports whether the failure was temporary on the provider side.
// Sends are not retried; this only feeds logs and metrics.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

// IsAddressRejected reports whether the provider refused the destination address.
func IsAddressRejected(err error) bool {
	var providerErr *ProviderError
	return errors.As(err, &providerErr) && providerErr.AddressRejected
}

// Reason renders err as the error reason stored on a delivery.
func Reason(err error) string {
	if err == nil {
		return ""
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		if msg := strings.TrimSpace(providerErr.Message); msg != "" {
			return msg
		}
		if code := strings.TrimSpace(providerErr.Code); code != "" {
			return "Provider error: " + code
		}
	}
	return err.Error()
}
