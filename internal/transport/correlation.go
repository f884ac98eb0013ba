package transport

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/kursadbilgin/alert-dispatch/internal/observability"
)

// CorrelationKey is the fiber locals key holding the request correlation id.
const CorrelationKey = "requestid"

// CorrelationMiddleware takes the correlation id from X-Request-ID, or mints
// one, and carries it in the request's user context and response header.
func CorrelationMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(fiber.HeaderXRequestID))
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(CorrelationKey, id)
		c.Set(fiber.HeaderXRequestID, id)
		c.SetUserContext(observability.WithCorrelationID(c.UserContext(), id))

		return c.Next()
	}
}
