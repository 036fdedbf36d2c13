package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/bandwatch/bandwatch/internal/config"
	"github.com/bandwatch/bandwatch/internal/logging"
	"github.com/bandwatch/bandwatch/internal/models"
	"github.com/bandwatch/bandwatch/internal/services"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	logger := logging.NewDevelopment()
	svc, err := services.NewDetectService(logger, config.DetectorConfig{
		Span:           3,
		Weight:         3,
		UpperThreshold: 1.0,
		MaxWorkers:     2,
	})
	if err != nil {
		t.Fatalf("Failed to create detect service: %v", err)
	}

	app := fiber.New()
	h := New(logger, svc, "test")
	app.Get("/health", h.Health)
	app.Post("/v1/detect", h.Detect)
	app.Post("/v1/detect/counts", h.DetectCounts)
	app.Use(h.NotFound)
	return app
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	var body models.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Status != "healthy" {
		t.Errorf("Expected healthy, got %s", body.Status)
	}
	if body.Version != "test" {
		t.Errorf("Expected version test, got %s", body.Version)
	}
}

func TestNotFound(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/no/such/route", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}

	var body models.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Error.Code != "NOT_FOUND" {
		t.Errorf("Expected NOT_FOUND, got %s", body.Error.Code)
	}
	if body.Error.Path != "/no/such/route" {
		t.Errorf("Expected path in error detail, got %s", body.Error.Path)
	}
}
