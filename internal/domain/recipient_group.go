package domain

import "fmt"

// RecipientGroup selects which units receive an alert: "all" or one feed list tag.
type RecipientGroup string

const RecipientGroupAll RecipientGroup = "all"

var feedGroups = []FeedList{FeedList3PM, FeedList5PM, FeedList6PM}

func (g RecipientGroup) String() string { return string(g) }

func (g RecipientGroup) IsValid() bool {
	if g == RecipientGroupAll {
		return true
	}
	for _, l := range feedGroups {
		if string(g) == string(l) {
			return true
		}
	}
	return false
}

// Matches reports whether a unit tagged with list belongs to the group.
// Unscheduled units only match "all".
func (g RecipientGroup) Matches(list FeedList) bool {
	if g == RecipientGroupAll {
		return true
	}
	return list != FeedListUnscheduled && string(g) == string(list)
}

// ParseRecipientGroupFromString accepts only an exact group id; case and
// surrounding whitespace are not normalized.
func ParseRecipientGroupFromString(s string) (RecipientGroup, error) {
	g := RecipientGroup(s)
	if !g.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRecipientGroup, s)
	}
	return g, nil
}

// RecipientGroups lists every valid group, "all" first.
func RecipientGroups() []RecipientGroup {
	groups := make([]RecipientGroup, 0, len(feedGroups)+1)
	groups = append(groups, RecipientGroupAll)
	for _, l := range feedGroups {
		groups = append(groups, RecipientGroup(l))
	}
	return groups
}

// RecipientGroupMeta is display information for a group.
type RecipientGroupMeta struct {
	Name        string
	Description string
}

func (g RecipientGroup) Meta() RecipientGroupMeta {
	switch g {
	case RecipientGroupAll:
		return RecipientGroupMeta{Name: "All Stations", Description: "Send to all stations"}
	case RecipientGroup(FeedList3PM):
		return RecipientGroupMeta{Name: "3PM Feed", Description: "3pm broadcast list"}
	case RecipientGroup(FeedList5PM):
		return RecipientGroupMeta{Name: "5PM Feed", Description: "5pm broadcast list"}
	case RecipientGroup(FeedList6PM):
		return RecipientGroupMeta{Name: "6PM Feed", Description: "6pm broadcast list"}
	}
	return RecipientGroupMeta{Name: string(g)}
}
