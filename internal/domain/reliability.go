package domain

import "fmt"

// FailureThreshold is the number of consecutive failures after which a contact
// point is flagged. Flagging is advisory; flagged contact points are still dispatched to.
const FailureThreshold = 3

func ShouldFlag(consecutiveFailures int) bool {
	return consecutiveFailures >= FailureThreshold
}

// ReliabilityBand is the display band of a contact point.
type ReliabilityBand string

const (
	ReliabilityReliable ReliabilityBand = "reliable"
	ReliabilityWarning  ReliabilityBand = "warning"
	ReliabilityBad      ReliabilityBand = "bad"
)

type ReliabilityStatus struct {
	Band    ReliabilityBand
	Message string
}

func ReliabilityStatusFor(consecutiveFailures int) ReliabilityStatus {
	switch {
	case consecutiveFailures <= 0:
		return ReliabilityStatus{Band: ReliabilityReliable, Message: "Reliable"}
	case consecutiveFailures < FailureThreshold:
		suffix := ""
		if consecutiveFailures > 1 {
			suffix = "s"
		}
		return ReliabilityStatus{
			Band:    ReliabilityWarning,
			Message: fmt.Sprintf("%d recent failure%s", consecutiveFailures, suffix),
		}
	default:
		return ReliabilityStatus{
			Band:    ReliabilityBad,
			Message: fmt.Sprintf("%d consecutive failures", consecutiveFailures),
		}
	}
}
