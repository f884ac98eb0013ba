package domain

import (
	"fmt"
	"strings"
	"time"
)

// DeliveryStatus is the state of one delivery attempt.
//
//	sent -> delivered | bounced | failed
//
// The three targets are terminal.
type DeliveryStatus string

const (
	DeliveryStatusSent      DeliveryStatus = "sent"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusBounced   DeliveryStatus = "bounced"
	DeliveryStatusFailed    DeliveryStatus = "failed"
)

func (s DeliveryStatus) String() string { return string(s) }

func (s DeliveryStatus) IsValid() bool {
	switch s {
	case DeliveryStatusSent, DeliveryStatusDelivered, DeliveryStatusBounced, DeliveryStatusFailed:
		return true
	}
	return false
}

func (s DeliveryStatus) IsTerminal() bool {
	switch s {
	case DeliveryStatusDelivered, DeliveryStatusBounced, DeliveryStatusFailed:
		return true
	}
	return false
}

// IsFailure reports whether the status counts against a contact point's reliability.
func (s DeliveryStatus) IsFailure() bool {
	return s == DeliveryStatusBounced || s == DeliveryStatusFailed
}

// CanTransition reports whether from -> to is a forward move of the state machine.
func CanTransition(from, to DeliveryStatus) bool {
	return from == DeliveryStatusSent && to.IsTerminal()
}

func ParseDeliveryStatusFromString(s string) (DeliveryStatus, error) {
	st := DeliveryStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid delivery status %q", ErrValidation, s)
	}
	return st, nil
}

// DeliveryRecord is the durable record of one attempt to reach one contact point
// for one alert. Unit name and contact address/label are copied at dispatch time.
type DeliveryRecord struct {
	ID             string
	AlertID        string
	UnitID         string
	UnitName       string
	ContactPointID *string
	ContactAddress string
	ContactLabel   string
	ProviderRef    *string
	Status         DeliveryStatus
	ErrorReason    *string
	SentAt         time.Time
	DeliveredAt    *time.Time
	ReadAt         *time.Time
	CreatedAt      time.Time
}

// DeliveryTransition is the set of fields written when a sent record reaches a terminal status.
type DeliveryTransition struct {
	Status      DeliveryStatus
	ErrorReason *string
	DeliveredAt *time.Time
}

// DeliveryStats counts deliveries per status.
type DeliveryStats struct {
	Sent      int
	Delivered int
	Failed    int
	Bounced   int
}

func (s *DeliveryStats) Add(status DeliveryStatus) {
	switch status {
	case DeliveryStatusSent:
		s.Sent++
	case DeliveryStatusDelivered:
		s.Delivered++
	case DeliveryStatusFailed:
		s.Failed++
	case DeliveryStatusBounced:
		s.Bounced++
	}
}

func StatsFor(deliveries []DeliveryRecord) DeliveryStats {
	var stats DeliveryStats
	for i := range deliveries {
		stats.Add(deliveries[i].Status)
	}
	return stats
}
