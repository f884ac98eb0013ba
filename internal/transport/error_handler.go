package transport

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/alert-dispatch/internal/observability"
	"go.uber.org/zap"
)

// ErrorHandler renders handler errors as {"error": "..."}. Client errors are
// logged at warn, everything else at error.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}

		log := observability.WithContextLogger(logger, c.UserContext())
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("request error", fields...)
		} else {
			log.Warn("request error", fields...)
		}

		message := err.Error()
		if fe == nil {
			message = "internal server error"
		}
		return c.Status(code).JSON(fiber.Map{
			"error": message,
		})
	}
}
