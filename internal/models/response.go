package models

import (
	"github.com/bandwatch/bandwatch/internal/analytics/band"
	"github.com/bandwatch/bandwatch/internal/services"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// DetectResponse represents detection response
type DetectResponse struct {
	Entities      int                      `json:"entities"`
	DroppedEvents int                      `json:"dropped_events"`
	Anomalies     []band.Anomaly           `json:"anomalies"`
	Records       []band.Record            `json:"records,omitempty"`
	Failures      []services.EntityFailure `json:"failures,omitempty"`
	ElapsedMs     int64                    `json:"elapsed_ms"`
	RequestID     string                   `json:"request_id,omitempty"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
