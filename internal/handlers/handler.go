// Package handlers wires the HTTP surface to the detection service.
package handlers

import (
	"github.com/bandwatch/bandwatch/internal/logging"
	"github.com/bandwatch/bandwatch/internal/services"
)

// Handler contains all HTTP handlers
type Handler struct {
	logger        *logging.Logger
	detectService *services.DetectService
	version       string
}

// New creates a new handler instance
func New(logger *logging.Logger, detectService *services.DetectService, version string) *Handler {
	if version == "" {
		version = "dev"
	}
	return &Handler{
		logger:        logger,
		detectService: detectService,
		version:       version,
	}
}
