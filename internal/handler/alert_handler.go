package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/alert-dispatch/internal/domain"
	"github.com/kursadbilgin/alert-dispatch/internal/service"
)

// HeaderSentBy carries the sender identity set by the fronting auth layer.
const HeaderSentBy = "X-Sent-By"

type AlertSender interface {
	Dispatch(ctx context.Context, req service.DispatchRequest) (*service.DispatchResult, error)
}

type AlertHandler struct {
	sender AlertSender
}

func NewAlertHandler(sender AlertSender) (*AlertHandler, error) {
	if sender == nil {
		return nil, fmt.Errorf("alert sender is required")
	}
	return &AlertHandler{sender: sender}, nil
}

func RegisterAlertRoutes(router fiber.Router, sender AlertSender) error {
	h, err := NewAlertHandler(sender)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/alerts/text", h.SendTextAlert)
	v1.Post("/alerts/voice", h.SendVoiceAlert)

	return nil
}

type sendTextAlertRequest struct {
	GroupID string `json:"groupId"`
	Message string `json:"message"`
}

type sendVoiceAlertRequest struct {
	GroupID         string `json:"groupId"`
	AudioURL        string `json:"audioUrl"`
	AudioDurationMs *int   `json:"audioDurationMs,omitempty"`
}

type sendAlertResponse struct {
	AlertID        string             `json:"alertId"`
	RecipientCount int                `json:"recipientCount"`
	SMSSegments    *int               `json:"smsSegments,omitempty"`
	Message        string             `json:"message"`
	Stats          deliveryStatsModel `json:"stats"`
}

func (h *AlertHandler) SendTextAlert(c *fiber.Ctx) error {
	var req sendTextAlertRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.sender.Dispatch(c.UserContext(), service.DispatchRequest{
		Kind:    domain.AlertKindText,
		GroupID: req.GroupID,
		Content: domain.AlertContent{Message: req.Message},
		SentBy:  sentBy(c),
	})
	if err != nil {
		return toHTTPError(err)
	}

	resp := toSendAlertResponse(result)
	segments := result.Segments
	resp.SMSSegments = &segments
	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *AlertHandler) SendVoiceAlert(c *fiber.Ctx) error {
	var req sendVoiceAlertRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.sender.Dispatch(c.UserContext(), service.DispatchRequest{
		Kind:    domain.AlertKindVoice,
		GroupID: req.GroupID,
		Content: domain.AlertContent{AudioURL: req.AudioURL, AudioDurationMs: req.AudioDurationMs},
		SentBy:  sentBy(c),
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toSendAlertResponse(result))
}

func toSendAlertResponse(result *service.DispatchResult) sendAlertResponse {
	return sendAlertResponse{
		AlertID:        result.Alert.ID,
		RecipientCount: result.Alert.RecipientCount,
		Message: fmt.Sprintf("%s alert sent to %d recipients",
			strings.ToUpper(result.Alert.Kind.String()[:1])+result.Alert.Kind.String()[1:],
			result.Alert.RecipientCount),
		Stats: toDeliveryStatsModel(domain.StatsFor(result.Deliveries)),
	}
}

func sentBy(c *fiber.Ctx) *string {
	value := strings.TrimSpace(c.Get(HeaderSentBy))
	if value == "" {
		return nil
	}
	return &value
}
