package models

import "github.com/bandwatch/bandwatch/internal/aggregation"

// DetectOptions carries per-request parameter overrides. Any field left
// unset falls back to the service defaults.
type DetectOptions struct {
	Span            *float64 `json:"span,omitempty" validate:"omitempty,gte=1"`
	Alpha           *float64 `json:"alpha,omitempty" validate:"omitempty,gt=0,lte=1"`
	Weight          *float64 `json:"weight,omitempty" validate:"omitempty,gt=0"`
	UpperThreshold  *float64 `json:"upper_threshold,omitempty"`
	LowerThreshold  *float64 `json:"lower_threshold,omitempty"`
	EnableLowerSide *bool    `json:"enable_lower_side,omitempty"`
	Sort            string   `json:"sort,omitempty" validate:"omitempty,oneof=pct_b value date"`
	IncludeRecords  bool     `json:"include_records,omitempty"`
}

// DetectRequest represents a detection request over raw events
type DetectRequest struct {
	Events  []aggregation.RawEvent `json:"events" validate:"required,min=1"`
	Options DetectOptions          `json:"options,omitempty"`
}

// CountRecord is a pre-aggregated daily count. Count accepts any JSON
// numeric representation and is normalized by the handler.
type CountRecord struct {
	Date     string      `json:"date" validate:"required"`
	EntityID string      `json:"entity_id" validate:"required"`
	Count    interface{} `json:"count" validate:"required"`
}

// CountsRequest represents a detection request over pre-aggregated counts
type CountsRequest struct {
	Counts  []CountRecord `json:"counts" validate:"required,min=1"`
	Options DetectOptions `json:"options,omitempty"`
}
