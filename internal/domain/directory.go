package domain

import "time"

// FeedList is the broadcast list tag of a unit. Empty means unscheduled.
type FeedList string

const (
	FeedListUnscheduled FeedList = ""
	FeedList3PM         FeedList = "3pm"
	FeedList5PM         FeedList = "5pm"
	FeedList6PM         FeedList = "6pm"
)

func (l FeedList) String() string { return string(l) }

// ContactPoint is an addressable phone number owned by a unit. Position is the
// stored order inside the unit.
type ContactPoint struct {
	ID                  string
	UnitID              string
	Label               string
	Address             string
	IsPrimary           bool
	Position            int
	ConsecutiveFailures int
	LastFailedAt        *time.Time
}

// Unit is an organizational unit (a broadcast market). Owned by the directory,
// read-only here.
type Unit struct {
	ID            string
	Name          string
	MarketNumber  int
	List          FeedList
	ContactPoints []ContactPoint
}

// PrimaryContact picks the contact point a unit is reached on: the first one
// flagged primary, else the first in stored order.
func PrimaryContact(points []ContactPoint) (ContactPoint, bool) {
	if len(points) == 0 {
		return ContactPoint{}, false
	}
	for _, p := range points {
		if p.IsPrimary {
			return p, true
		}
	}
	return points[0], true
}

// Recipient is one resolved dispatch target.
type Recipient struct {
	UnitID         string
	UnitName       string
	ContactPointID string
	ContactAddress string
	ContactLabel   string
}
