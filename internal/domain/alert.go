package domain

import (
	"fmt"
	"strings"
	"time"
)

// AlertKind is the broadcast medium of an alert.
type AlertKind string

const (
	AlertKindText  AlertKind = "text"
	AlertKindVoice AlertKind = "voice"
)

func (k AlertKind) String() string { return string(k) }

func (k AlertKind) IsValid() bool {
	switch k {
	case AlertKindText, AlertKindVoice:
		return true
	}
	return false
}

func ParseAlertKindFromString(s string) (AlertKind, error) {
	k := AlertKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: invalid alert kind %q", ErrInvalidAlertContent, s)
	}
	return k, nil
}

// SMS sizing.
const (
	SMSSegmentSize   = 160
	MaxMessageLength = 2 * SMSSegmentSize
)

// AlertContent is the payload of an alert: a message body for text alerts,
// an audio reference for voice alerts.
type AlertContent struct {
	Message         string
	AudioURL        string
	AudioDurationMs *int
}

// AlertRecord is one broadcast request. It is immutable once created.
type AlertRecord struct {
	ID              string
	Kind            AlertKind
	Message         *string
	AudioURL        *string
	AudioDurationMs *int
	RecipientGroup  RecipientGroup
	RecipientCount  int
	SentBy          *string
	CreatedAt       time.Time
}

// Body returns what is handed to the provider for each recipient.
func (a *AlertRecord) Body() string {
	if a == nil {
		return ""
	}
	switch a.Kind {
	case AlertKindText:
		if a.Message != nil {
			return *a.Message
		}
	case AlertKindVoice:
		if a.AudioURL != nil {
			return *a.AudioURL
		}
	}
	return ""
}

// ValidateAlertContent checks the content against the rules of its kind.
func ValidateAlertContent(kind AlertKind, content AlertContent) error {
	switch kind {
	case AlertKindText:
		length := len([]rune(content.Message))
		if length == 0 {
			return fmt.Errorf("%w: message is required", ErrInvalidAlertContent)
		}
		if length > MaxMessageLength {
			return fmt.Errorf("%w: message must be between 1 and %d characters (got %d)",
				ErrInvalidAlertContent, MaxMessageLength, length)
		}
	case AlertKindVoice:
		if strings.TrimSpace(content.AudioURL) == "" {
			return fmt.Errorf("%w: audio reference is required", ErrInvalidAlertContent)
		}
		if content.AudioDurationMs != nil && *content.AudioDurationMs < 0 {
			return fmt.Errorf("%w: audio duration must not be negative", ErrInvalidAlertContent)
		}
	default:
		return fmt.Errorf("%w: invalid alert kind %q", ErrInvalidAlertContent, kind)
	}
	return nil
}

// SMSSegments estimates how many provider segments a message occupies.
// Informational only.
func SMSSegments(message string) int {
	length := len([]rune(message))
	if length == 0 {
		return 0
	}
	return (length + SMSSegmentSize - 1) / SMSSegmentSize
}
