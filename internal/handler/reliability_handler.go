package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/alert-dispatch/internal/service"
)

type ContactReliabilityService interface {
	Reliability(ctx context.Context, contactPointID string) (*service.ContactReliability, error)
	RecordSuccess(ctx context.Context, contactPointID string) error
}

type ReliabilityHandler struct {
	reliability ContactReliabilityService
}

func NewReliabilityHandler(reliability ContactReliabilityService) (*ReliabilityHandler, error) {
	if reliability == nil {
		return nil, fmt.Errorf("reliability service is required")
	}
	return &ReliabilityHandler{reliability: reliability}, nil
}

func RegisterReliabilityRoutes(router fiber.Router, reliability ContactReliabilityService) error {
	h, err := NewReliabilityHandler(reliability)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/contact-points/:id/reliability", h.GetReliability)
	v1.Post("/contact-points/:id/reliability/reset", h.ResetReliability)

	return nil
}

type reliabilityResponse struct {
	ContactPointID      string     `json:"contactPointId"`
	ConsecutiveFailures int        `json:"consecutiveFailures"`
	LastFailedAt        *time.Time `json:"lastFailedAt"`
	Flagged             bool       `json:"flagged"`
	Status              string     `json:"status"`
	StatusMessage       string     `json:"statusMessage"`
}

func (h *ReliabilityHandler) GetReliability(c *fiber.Ctx) error {
	r, err := h.reliability.Reliability(c.UserContext(), strings.TrimSpace(c.Params("id")))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(reliabilityResponse{
		ContactPointID:      r.ContactPointID,
		ConsecutiveFailures: r.ConsecutiveFailures,
		LastFailedAt:        r.LastFailedAt,
		Flagged:             r.Flagged,
		Status:              string(r.Status.Band),
		StatusMessage:       r.Status.Message,
	})
}

func (h *ReliabilityHandler) ResetReliability(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if err := h.reliability.RecordSuccess(c.UserContext(), id); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"contactPointId":      id,
		"consecutiveFailures": 0,
	})
}
