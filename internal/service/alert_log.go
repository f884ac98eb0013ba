package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kursadbilgin/alert-dispatch/internal/domain"
	"github.com/kursadbilgin/alert-dispatch/internal/repository"
)

const (
	dayLabelToday     = "Today"
	dayLabelYesterday = "Yesterday"
	dayLabelLayout    = "Monday, January 2, 2006"
	dayKeyLayout      = "2006-01-02"
)

// GroupCounter reports live recipient counts per group.
type GroupCounter interface {
	CountByGroup(ctx context.Context) (map[domain.RecipientGroup]int, error)
}

// AlertLogDetail is one alert with its deliveries and per-status counts.
type AlertLogDetail struct {
	Alert      *domain.AlertRecord
	Deliveries []domain.DeliveryRecord
	Stats      domain.DeliveryStats
}

// AlertLogDay is the alerts created on one calendar day, newest first.
type AlertLogDay struct {
	Label  string
	Date   string
	Alerts []domain.AlertRecord
}

type AlertLogList struct {
	Alerts []domain.AlertRecord
	Days   []AlertLogDay
}

// RecipientGroupSummary is one entry of the recipient group catalogue.
type RecipientGroupSummary struct {
	ID             domain.RecipientGroup
	Name           string
	Description    string
	RecipientCount int
}

// AlertLogService is the read side of alert history.
type AlertLogService struct {
	alerts     repository.AlertRepository
	deliveries repository.DeliveryRepository
	groups     GroupCounter
	location   *time.Location
	now        func() time.Time
}

func NewAlertLogService(
	alerts repository.AlertRepository,
	deliveries repository.DeliveryRepository,
	groups GroupCounter,
	location *time.Location,
) (*AlertLogService, error) {
	if alerts == nil || deliveries == nil {
		return nil, fmt.Errorf("alert and delivery repositories are required")
	}
	if groups == nil {
		return nil, fmt.Errorf("group counter is required")
	}
	if location == nil {
		location = time.UTC
	}
	return &AlertLogService{
		alerts:     alerts,
		deliveries: deliveries,
		groups:     groups,
		location:   location,
		now:        time.Now,
	}, nil
}

func (s *AlertLogService) GetAlertLog(ctx context.Context, alertID string) (*AlertLogDetail, error) {
	alertID = strings.TrimSpace(alertID)
	if alertID == "" {
		return nil, fmt.Errorf("%w: alert id is required", domain.ErrValidation)
	}

	alert, err := s.alerts.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}

	deliveries, err := s.deliveries.ListByAlertID(ctx, alertID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}

	return &AlertLogDetail{
		Alert:      alert,
		Deliveries: deliveries,
		Stats:      domain.StatsFor(deliveries),
	}, nil
}

// ListAlertLogs returns every alert newest first, grouped by calendar day in
// loc. A nil loc uses the service's display location.
func (s *AlertLogService) ListAlertLogs(ctx context.Context, loc *time.Location) (*AlertLogList, error) {
	if loc == nil {
		loc = s.location
	}

	alerts, err := s.alerts.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	return &AlertLogList{
		Alerts: alerts,
		Days:   groupByDay(alerts, s.now().In(loc), loc),
	}, nil
}

// groupByDay keeps input order inside each day and orders days by first appearance.
func groupByDay(alerts []domain.AlertRecord, now time.Time, loc *time.Location) []AlertLogDay {
	today := now.Format(dayKeyLayout)
	yesterday := now.AddDate(0, 0, -1).Format(dayKeyLayout)

	days := make([]AlertLogDay, 0)
	index := make(map[string]int)
	for _, alert := range alerts {
		local := alert.CreatedAt.In(loc)
		key := local.Format(dayKeyLayout)

		i, ok := index[key]
		if !ok {
			label := local.Format(dayLabelLayout)
			switch key {
			case today:
				label = dayLabelToday
			case yesterday:
				label = dayLabelYesterday
			}
			days = append(days, AlertLogDay{Label: label, Date: key})
			i = len(days) - 1
			index[key] = i
		}
		days[i].Alerts = append(days[i].Alerts, alert)
	}
	return days
}

// ListRecipientGroups returns the group catalogue with live recipient counts.
func (s *AlertLogService) ListRecipientGroups(ctx context.Context) ([]RecipientGroupSummary, error) {
	counts, err := s.groups.CountByGroup(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count recipients: %w", err)
	}

	groups := domain.RecipientGroups()
	summaries := make([]RecipientGroupSummary, 0, len(groups))
	for _, group := range groups {
		meta := group.Meta()
		summaries = append(summaries, RecipientGroupSummary{
			ID:             group,
			Name:           meta.Name,
			Description:    meta.Description,
			RecipientCount: counts[group],
		})
	}
	return summaries, nil
}
