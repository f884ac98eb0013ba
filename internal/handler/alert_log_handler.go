package handler

import (
	"context"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // zone names must resolve in minimal containers

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/alert-dispatch/internal/domain"
	"github.com/kursadbilgin/alert-dispatch/internal/service"
)

type AlertLogReader interface {
	GetAlertLog(ctx context.Context, alertID string) (*service.AlertLogDetail, error)
	ListAlertLogs(ctx context.Context, loc *time.Location) (*service.AlertLogList, error)
	ListRecipientGroups(ctx context.Context) ([]service.RecipientGroupSummary, error)
}

type AlertLogHandler struct {
	logs AlertLogReader
}

func NewAlertLogHandler(logs AlertLogReader) (*AlertLogHandler, error) {
	if logs == nil {
		return nil, fmt.Errorf("alert log reader is required")
	}
	return &AlertLogHandler{logs: logs}, nil
}

func RegisterAlertLogRoutes(router fiber.Router, logs AlertLogReader) error {
	h, err := NewAlertLogHandler(logs)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/alert-groups", h.ListRecipientGroups)
	v1.Get("/alert-logs", h.ListAlertLogs)
	v1.Get("/alert-logs/:id", h.GetAlertLog)

	return nil
}

type alertLogModel struct {
	ID              string    `json:"id"`
	AlertType       string    `json:"alertType"`
	Message         *string   `json:"message"`
	AudioURL        *string   `json:"audioUrl"`
	AudioDurationMs *int      `json:"audioDurationMs"`
	RecipientGroup  string    `json:"recipientGroup"`
	RecipientCount  int       `json:"recipientCount"`
	SentBy          *string   `json:"sentBy"`
	CreatedAt       time.Time `json:"createdAt"`
}

type deliveryModel struct {
	ID             string     `json:"id"`
	AlertID        string     `json:"alertId"`
	UnitID         string     `json:"unitId"`
	UnitName       string     `json:"unitName"`
	ContactPointID *string    `json:"contactPointId"`
	ContactAddress string     `json:"contactAddress"`
	ContactLabel   string     `json:"contactLabel"`
	ProviderRef    *string    `json:"providerRef,omitempty"`
	Status         string     `json:"status"`
	ErrorReason    *string    `json:"errorReason"`
	SentAt         time.Time  `json:"sentAt"`
	DeliveredAt    *time.Time `json:"deliveredAt"`
	ReadAt         *time.Time `json:"readAt"`
}

type deliveryStatsModel struct {
	Sent      int `json:"sent"`
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
	Bounced   int `json:"bounced"`
}

type alertLogDayModel struct {
	Label string          `json:"label"`
	Date  string          `json:"date"`
	Logs  []alertLogModel `json:"logs"`
}

type listAlertLogsResponse struct {
	Logs        []alertLogModel    `json:"logs"`
	GroupedLogs []alertLogDayModel `json:"groupedLogs"`
}

type alertLogDetailResponse struct {
	Log        alertLogModel      `json:"log"`
	Deliveries []deliveryModel    `json:"deliveries"`
	Stats      deliveryStatsModel `json:"stats"`
}

type recipientGroupModel struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	RecipientCount int    `json:"recipientCount"`
}

func (h *AlertLogHandler) ListAlertLogs(c *fiber.Ctx) error {
	var loc *time.Location
	if tz := strings.TrimSpace(c.Query("tz")); tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			return toHTTPError(fmt.Errorf("%w: unknown timezone %q", domain.ErrValidation, tz))
		}
		loc = parsed
	}

	list, err := h.logs.ListAlertLogs(c.UserContext(), loc)
	if err != nil {
		return toHTTPError(err)
	}

	days := make([]alertLogDayModel, 0, len(list.Days))
	for _, day := range list.Days {
		days = append(days, alertLogDayModel{
			Label: day.Label,
			Date:  day.Date,
			Logs:  toAlertLogModels(day.Alerts),
		})
	}

	return c.Status(fiber.StatusOK).JSON(listAlertLogsResponse{
		Logs:        toAlertLogModels(list.Alerts),
		GroupedLogs: days,
	})
}

func (h *AlertLogHandler) GetAlertLog(c *fiber.Ctx) error {
	detail, err := h.logs.GetAlertLog(c.UserContext(), strings.TrimSpace(c.Params("id")))
	if err != nil {
		return toHTTPError(err)
	}

	deliveries := make([]deliveryModel, 0, len(detail.Deliveries))
	for i := range detail.Deliveries {
		deliveries = append(deliveries, toDeliveryModel(&detail.Deliveries[i]))
	}

	return c.Status(fiber.StatusOK).JSON(alertLogDetailResponse{
		Log:        toAlertLogModel(detail.Alert),
		Deliveries: deliveries,
		Stats:      toDeliveryStatsModel(detail.Stats),
	})
}

func (h *AlertLogHandler) ListRecipientGroups(c *fiber.Ctx) error {
	groups, err := h.logs.ListRecipientGroups(c.UserContext())
	if err != nil {
		return toHTTPError(err)
	}

	models := make([]recipientGroupModel, 0, len(groups))
	for _, g := range groups {
		models = append(models, recipientGroupModel{
			ID:             g.ID.String(),
			Name:           g.Name,
			Description:    g.Description,
			RecipientCount: g.RecipientCount,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"groups": models})
}

func toAlertLogModels(alerts []domain.AlertRecord) []alertLogModel {
	models := make([]alertLogModel, 0, len(alerts))
	for i := range alerts {
		models = append(models, toAlertLogModel(&alerts[i]))
	}
	return models
}

func toAlertLogModel(a *domain.AlertRecord) alertLogModel {
	if a == nil {
		return alertLogModel{}
	}
	return alertLogModel{
		ID:              a.ID,
		AlertType:       a.Kind.String(),
		Message:         a.Message,
		AudioURL:        a.AudioURL,
		AudioDurationMs: a.AudioDurationMs,
		RecipientGroup:  a.RecipientGroup.String(),
		RecipientCount:  a.RecipientCount,
		SentBy:          a.SentBy,
		CreatedAt:       a.CreatedAt,
	}
}

func toDeliveryModel(d *domain.DeliveryRecord) deliveryModel {
	return deliveryModel{
		ID:             d.ID,
		AlertID:        d.AlertID,
		UnitID:         d.UnitID,
		UnitName:       d.UnitName,
		ContactPointID: d.ContactPointID,
		ContactAddress: d.ContactAddress,
		ContactLabel:   d.ContactLabel,
		ProviderRef:    d.ProviderRef,
		Status:         d.Status.String(),
		ErrorReason:    d.ErrorReason,
		SentAt:         d.SentAt,
		DeliveredAt:    d.DeliveredAt,
		ReadAt:         d.ReadAt,
	}
}

func toDeliveryStatsModel(s domain.DeliveryStats) deliveryStatsModel {
	return deliveryStatsModel{
		Sent:      s.Sent,
		Delivered: s.Delivered,
		Failed:    s.Failed,
		Bounced:   s.Bounced,
	}
}
