package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const readinessTimeout = 2 * time.Second

// BrokerHealth reports the state of the optional callback broker.
type BrokerHealth interface {
	Healthy() bool
}

// RegisterHealthRoutes mounts /livez and /readyz. broker may be nil when
// callbacks are reconciled inline.
func RegisterHealthRoutes(app fiber.Router, sqlDB *sql.DB, rdb *redis.Client, broker BrokerHealth) {
	app.Get("/livez", LivezHandler())
	app.Get("/readyz", ReadyzHandler(sqlDB, rdb, broker))
}

func LivezHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "ok",
		})
	}
}

func ReadyzHandler(sqlDB *sql.DB, rdb *redis.Client, broker BrokerHealth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
		defer cancel()

		pgErr := sqlDB.PingContext(ctx)
		redisErr := rdb.Ping(ctx).Err()

		checks := fiber.Map{
			"postgres": checkStatus(pgErr == nil),
			"redis":    checkStatus(redisErr == nil),
		}
		ready := pgErr == nil && redisErr == nil

		// Callbacks fall back to inline reconciliation, so a down broker is
		// reported without failing readiness.
		if broker != nil {
			checks["rabbitmq"] = checkStatus(broker.Healthy())
		}

		status := "ready"
		statusCode := fiber.StatusOK
		if !ready {
			status = "not_ready"
			statusCode = fiber.StatusServiceUnavailable
		}

		return c.Status(statusCode).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}

func checkStatus(ok bool) string {
	if ok {
		return "ok"
	}
	return "down"
}
