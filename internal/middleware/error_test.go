package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/bandwatch/bandwatch/internal/logging"
	"github.com/bandwatch/bandwatch/internal/models"
	"github.com/bandwatch/bandwatch/internal/services"
)

func newErrorApp(err error) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(logging.NewDevelopment()),
	})
	app.Get("/fail", func(c *fiber.Ctx) error {
		return err
	})
	return app
}

func decodeError(t *testing.T, resp io.Reader) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	if err := json.NewDecoder(resp).Decode(&body); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	return body
}

func TestErrorHandler_ServiceError(t *testing.T) {
	app := newErrorApp(services.NewServiceError("INVALID_REQUEST", "events are required"))

	resp, err := app.Test(httptest.NewRequest("GET", "/fail", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}

	body := decodeError(t, resp.Body)
	if body.Error.Code != "INVALID_REQUEST" {
		t.Errorf("Expected INVALID_REQUEST, got %s", body.Error.Code)
	}
	if body.Error.Message != "events are required" {
		t.Errorf("Unexpected message: %s", body.Error.Message)
	}
}

func TestErrorHandler_FiberError(t *testing.T) {
	app := newErrorApp(fiber.NewError(fiber.StatusNotFound, "no such route"))

	resp, err := app.Test(httptest.NewRequest("GET", "/fail", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}

func TestErrorHandler_UnknownError(t *testing.T) {
	app := newErrorApp(io.ErrUnexpectedEOF)

	resp, err := app.Test(httptest.NewRequest("GET", "/fail", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", resp.StatusCode)
	}

	body := decodeError(t, resp.Body)
	if body.Error.Message != "Internal Server Error" {
		t.Errorf("Internal error details must not leak, got %q", body.Error.Message)
	}
}

func TestStatusForServiceError(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"INVALID_REQUEST", fiber.StatusBadRequest},
		{"INVALID_CONFIG", fiber.StatusBadRequest},
		{"NOT_FOUND", fiber.StatusNotFound},
		{"TOO_MANY_EVENTS", fiber.StatusRequestEntityTooLarge},
		{"SOMETHING_ELSE", fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusForServiceError(tt.code); got != tt.want {
			t.Errorf("statusForServiceError(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
