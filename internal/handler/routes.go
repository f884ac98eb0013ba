package handler

import "github.com/gofiber/fiber/v2"

// Services are the ports the public API is served from.
type Services struct {
	Alerts      AlertSender
	AlertLogs   AlertLogReader
	Callbacks   CallbackSink
	Reliability ContactReliabilityService
}

// RegisterRoutes mounts every /v1 route on app. Each Register*Routes owns its
// /v1 prefix, so app must be the root router.
func RegisterRoutes(app fiber.Router, svc Services) error {
	if err := RegisterAlertRoutes(app, svc.Alerts); err != nil {
		return err
	}
	if err := RegisterAlertLogRoutes(app, svc.AlertLogs); err != nil {
		return err
	}
	if err := RegisterWebhookRoutes(app, svc.Callbacks); err != nil {
		return err
	}
	return RegisterReliabilityRoutes(app, svc.Reliability)
}
