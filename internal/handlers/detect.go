package handlers

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bandwatch/bandwatch/internal/aggregation"
	"github.com/bandwatch/bandwatch/internal/logging"
	"github.com/bandwatch/bandwatch/internal/models"
	"github.com/bandwatch/bandwatch/internal/services"
	"github.com/bandwatch/bandwatch/internal/utils"
)

// Detect handles detection over raw view events
// POST /v1/detect
func (h *Handler) Detect(c *fiber.Ctx) error {
	var body models.DetectRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_JSON",
				Message: "Failed to parse JSON body",
				Details: map[string]interface{}{"error": err.Error()},
			},
		})
	}

	if len(body.Events) == 0 {
		return badRequest(c, "events are required")
	}
	if len(body.Events) > utils.MaxEventsPerRequest {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "TOO_MANY_EVENTS",
				Message: fmt.Sprintf("request carries %d events, limit is %d", len(body.Events), utils.MaxEventsPerRequest),
			},
		})
	}

	opts, err := h.resolveOptions(body.Options)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Context(), utils.DetectTimeout)
	defer cancel()

	result, err := h.detectService.DetectEvents(ctx, body.Events, opts)
	if err != nil {
		return err
	}
	return h.respond(c, result)
}

// DetectCounts handles detection over pre-aggregated daily counts
// POST /v1/detect/counts
func (h *Handler) DetectCounts(c *fiber.Ctx) error {
	var body models.CountsRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_JSON",
				Message: "Failed to parse JSON body",
				Details: map[string]interface{}{"error": err.Error()},
			},
		})
	}

	if len(body.Counts) == 0 {
		return badRequest(c, "counts are required")
	}
	if len(body.Counts) > utils.MaxEventsPerRequest {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "TOO_MANY_EVENTS",
				Message: fmt.Sprintf("request carries %d counts, limit is %d", len(body.Counts), utils.MaxEventsPerRequest),
			},
		})
	}

	counts := make([]aggregation.DailyCount, 0, len(body.Counts))
	for i, rec := range body.Counts {
		dc, err := parseCountRecord(rec)
		if err != nil {
			return badRequest(c, fmt.Sprintf("counts[%d]: %v", i, err))
		}
		counts = append(counts, dc)
	}

	opts, err := h.resolveOptions(body.Options)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Context(), utils.DetectTimeout)
	defer cancel()

	result, err := h.detectService.DetectSeries(ctx, counts, opts)
	if err != nil {
		return err
	}
	return h.respond(c, result)
}

// resolveOptions layers request overrides on top of the service defaults.
func (h *Handler) resolveOptions(o models.DetectOptions) (services.RunOptions, error) {
	cfg := h.detectService.BaseConfig()

	if o.Span != nil {
		cfg.Span = *o.Span
		cfg.Alpha = 0
	}
	if o.Alpha != nil {
		cfg.Alpha = *o.Alpha
	}
	if o.Weight != nil {
		cfg.Weight = *o.Weight
	}
	if o.UpperThreshold != nil {
		cfg.UpperThreshold = *o.UpperThreshold
	}
	if o.LowerThreshold != nil {
		cfg.LowerThreshold = *o.LowerThreshold
	}
	if o.EnableLowerSide != nil {
		cfg.EnableLowerSide = *o.EnableLowerSide
	}
	if err := cfg.Validate(); err != nil {
		return services.RunOptions{}, err
	}

	sortBy, err := services.ParseSortKey(o.Sort)
	if err != nil {
		return services.RunOptions{}, err
	}

	return services.RunOptions{
		Config:         cfg,
		SortBy:         sortBy,
		IncludeRecords: o.IncludeRecords,
	}, nil
}

// parseCountRecord normalizes one incoming count row. Counts must be
// non-negative whole numbers; dates are truncated to their UTC day.
func parseCountRecord(rec models.CountRecord) (aggregation.DailyCount, error) {
	if rec.EntityID == "" {
		return aggregation.DailyCount{}, fmt.Errorf("entity_id is required")
	}

	date, err := aggregation.ParseTimestamp(rec.Date)
	if err != nil {
		return aggregation.DailyCount{}, fmt.Errorf("invalid date %q", rec.Date)
	}
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	v, ok := utils.ToFloat64(rec.Count)
	if !ok {
		return aggregation.DailyCount{}, fmt.Errorf("count must be numeric, got %T", rec.Count)
	}
	if v < 0 || v != math.Trunc(v) {
		return aggregation.DailyCount{}, fmt.Errorf("count must be a non-negative integer, got %v", v)
	}

	return aggregation.DailyCount{
		Date:     date,
		EntityID: rec.EntityID,
		Count:    int(v),
	}, nil
}

func (h *Handler) respond(c *fiber.Ctx, result *services.Result) error {
	return c.JSON(models.DetectResponse{
		Entities:      result.Entities,
		DroppedEvents: result.DroppedEvents,
		Anomalies:     result.Anomalies,
		Records:       result.Records,
		Failures:      result.Failures,
		ElapsedMs:     result.Elapsed.Milliseconds(),
		RequestID:     logging.RequestID(c.UserContext()),
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "INVALID_REQUEST",
			Message: message,
		},
	})
}
