package transport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/alert-dispatch/internal/observability"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantBody  string
		wantLevel zapcore.Level
	}{
		{
			name:      "fiber error",
			err:       fiber.NewError(fiber.StatusBadRequest, "validation error: bad group"),
			wantCode:  fiber.StatusBadRequest,
			wantBody:  "validation error: bad group",
			wantLevel: zapcore.WarnLevel,
		},
		{
			name:      "internal error is masked",
			err:       errors.New("pq: connection refused"),
			wantCode:  fiber.StatusInternalServerError,
			wantBody:  "internal server error",
			wantLevel: zapcore.ErrorLevel,
		},
	}

	for _, tc := range tests {

		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zapcore.DebugLevel)
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.New(core))})
			app.Get("/boom", func(c *fiber.Ctx) error { return tc.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			if resp.StatusCode != tc.wantCode {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.wantCode)
			}

			var body map[string]string
			raw, _ := io.ReadAll(resp.Body)
			if err := json.Unmarshal(raw, &body); err != nil {
				t.Fatalf("json unmarshal error = %v", err)
			}
			if body["error"] != tc.wantBody {
				t.Fatalf("error = %q, want %q", body["error"], tc.wantBody)
			}

			entries := logs.All()
			if len(entries) != 1 || entries[0].Level != tc.wantLevel {
				t.Fatalf("logs = %v, want one %s entry", entries, tc.wantLevel)
			}
		})
	}
}

func TestCorrelationMiddleware(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	app.Use(CorrelationMiddleware())
	app.Get("/id", func(c *fiber.Ctx) error {
		id, _ := observability.CorrelationIDFromContext(c.UserContext())
		return c.SendString(id)
	})

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-42")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "req-42" {
		t.Fatalf("context correlation id = %q, want req-42", body)
	}
	if got := resp.Header.Get(fiber.HeaderXRequestID); got != "req-42" {
		t.Fatalf("X-Request-ID = %q, want req-42", got)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/id", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	if len(body) != 36 {
		t.Fatalf("generated correlation id = %q, want uuid", body)
	}
	if got := resp.Header.Get(fiber.HeaderXRequestID); got != string(body) {
		t.Fatalf("X-Request-ID = %q, want %q", got, body)
	}
}
