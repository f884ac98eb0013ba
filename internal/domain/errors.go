package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")

	// ErrInvalidRecipientGroup and ErrInvalidAlertContent are caller input errors;
	// both also match ErrValidation.
	ErrInvalidRecipientGroup = fmt.Errorf("%w: invalid recipient group", ErrValidation)
	ErrInvalidAlertContent   = fmt.Errorf("%w: invalid alert content", ErrValidation)
)
