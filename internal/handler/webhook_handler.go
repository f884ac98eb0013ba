package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/alert-dispatch/internal/domain"
)

// CallbackSink accepts provider status callbacks. It never fails.
type CallbackSink interface {
	Relay(ctx context.Context, cb domain.StatusCallback)
}

type WebhookHandler struct {
	sink CallbackSink
}

func NewWebhookHandler(sink CallbackSink) (*WebhookHandler, error) {
	if sink == nil {
		return nil, fmt.Errorf("callback sink is required")
	}
	return &WebhookHandler{sink: sink}, nil
}

func RegisterWebhookRoutes(router fiber.Router, sink CallbackSink) error {
	h, err := NewWebhookHandler(sink)
	if err != nil {
		return err
	}

	router.Group("/v1").Post("/webhooks/provider/status", h.ProviderStatus)
	return nil
}

// ProviderStatus acknowledges every callback with 200 so the provider does not
// retry; matching problems are the reconciler's to log.
func (h *WebhookHandler) ProviderStatus(c *fiber.Ctx) error {
	h.sink.Relay(c.UserContext(), domain.StatusCallback{
		ProviderRef:        strings.TrimSpace(c.FormValue("MessageSid")),
		ProviderStatus:     strings.TrimSpace(c.FormValue("MessageStatus")),
		DestinationAddress: strings.TrimSpace(c.FormValue("To")),
		ErrorCode:          strings.TrimSpace(c.FormValue("ErrorCode")),
		ErrorMessage:       strings.TrimSpace(c.FormValue("ErrorMessage")),
	})

	return c.Status(fiber.StatusOK).SendString("OK")
}
