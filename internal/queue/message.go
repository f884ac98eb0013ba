package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/kursadbilgin/alert-dispatch/internal/domain"
)

// StatusCallbackMessage is the broker payload for one provider status callback.
type StatusCallbackMessage struct {
	ProviderRef   string    `json:"providerRef,omitempty"`
	To            string    `json:"to"`
	Status        string    `json:"status"`
	ErrorCode     string    `json:"errorCode,omitempty"`
	ErrorMessage  string    `json:"errorMessage,omitempty"`
	CorrelationID string    `json:"correlationId,omitempty"`
	ReceivedAt    time.Time `json:"receivedAt"`
}

func (m StatusCallbackMessage) Validate() error {
	if strings.TrimSpace(m.To) == "" && strings.TrimSpace(m.ProviderRef) == "" {
		return fmt.Errorf("to or providerRef is required")
	}
	if strings.TrimSpace(m.Status) == "" {
		return fmt.Errorf("status is required")
	}
	return nil
}

func NewStatusCallbackMessage(cb domain.StatusCallback, correlationID string) StatusCallbackMessage {
	return StatusCallbackMessage{
		ProviderRef:   cb.ProviderRef,
		To:            cb.DestinationAddress,
		Status:        cb.ProviderStatus,
		ErrorCode:     cb.ErrorCode,
		ErrorMessage:  cb.ErrorMessage,
		CorrelationID: correlationID,
		ReceivedAt:    cb.ReceivedAt,
	}
}

func (m StatusCallbackMessage) Callback() domain.StatusCallback {
	return domain.StatusCallback{
		DestinationAddress: m.To,
		ProviderRef:        m.ProviderRef,
		ProviderStatus:     m.Status,
		ErrorCode:          m.ErrorCode,
		ErrorMessage:       m.ErrorMessage,
		ReceivedAt:         m.ReceivedAt,
	}
}
