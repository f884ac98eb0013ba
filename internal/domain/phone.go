package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const DefaultPhoneRegion = "US"

var (
	extensionSuffix = regexp.MustCompile(`(?i)\s*(x|ext\.?)\s*\d+$`)
	unblockNote     = regexp.MustCompile(`(?i)\(to unblock.*?\)`)
)

// CleanPhoneInput strips extensions and free-text notes that directory imports
// leave on numbers.
func CleanPhoneInput(raw string) string {
	cleaned := extensionSuffix.ReplaceAllString(raw, "")
	cleaned = unblockNote.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// NormalizePhone parses raw in the context of region and returns its E.164 form.
func NormalizePhone(raw string, region string) (string, error) {
	cleaned := CleanPhoneInput(raw)
	if cleaned == "" {
		return "", fmt.Errorf("%w: phone number is empty", ErrValidation)
	}
	if region == "" {
		region = DefaultPhoneRegion
	}

	parsed, err := phonenumbers.Parse(cleaned, strings.ToUpper(region))
	if err != nil {
		return "", fmt.Errorf("%w: invalid phone number: %v", ErrValidation, err)
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", fmt.Errorf("%w: invalid phone number format", ErrValidation)
	}

	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}
