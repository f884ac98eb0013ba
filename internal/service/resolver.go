package service

import (
	"context"
	"fmt"

	"github.com/kursadbilgin/alert-dispatch/internal/domain"
)

// UnitLister is the read side of the recipient directory.
type UnitLister interface {
	ListUnits(ctx context.Context) ([]domain.Unit, error)
}

// RecipientResolver turns a recipient group into the contact point each
// matching unit is reached on.
type RecipientResolver struct {
	directory UnitLister
}

func NewRecipientResolver(directory UnitLister) (*RecipientResolver, error) {
	if directory == nil {
		return nil, fmt.Errorf("directory is required")
	}
	return &RecipientResolver{directory: directory}, nil
}

// Resolve returns one recipient per matching unit that has a contact point, in
// directory order. Units without contact points are skipped.
func (r *RecipientResolver) Resolve(ctx context.Context, group domain.RecipientGroup) ([]domain.Recipient, error) {
	if !group.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRecipientGroup, group)
	}

	units, err := r.directory.ListUnits(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}

	recipients := make([]domain.Recipient, 0, len(units))
	for _, unit := range units {
		if recipient, ok := recipientFor(group, unit); ok {
			recipients = append(recipients, recipient)
		}
	}
	return recipients, nil
}

// CountByGroup returns the recipient count of every group from one directory read.
func (r *RecipientResolver) CountByGroup(ctx context.Context) (map[domain.RecipientGroup]int, error) {
	units, err := r.directory.ListUnits(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}

	groups := domain.RecipientGroups()
	counts := make(map[domain.RecipientGroup]int, len(groups))
	for _, group := range groups {
		counts[group] = 0
		for _, unit := range units {
			if _, ok := recipientFor(group, unit); ok {
				counts[group]++
			}
		}
	}
	return counts, nil
}

func recipientFor(group domain.RecipientGroup, unit domain.Unit) (domain.Recipient, bool) {
	if !group.Matches(unit.List) {
		return domain.Recipient{}, false
	}
	contact, ok := domain.PrimaryContact(unit.ContactPoints)
	if !ok {
		return domain.Recipient{}, false
	}
	return domain.Recipient{
		UnitID:         unit.ID,
		UnitName:       unit.Name,
		ContactPointID: contact.ID,
		ContactAddress: contact.Address,
		ContactLabel:   contact.Label,
	}, true
}
