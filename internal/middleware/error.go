package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/bandwatch/bandwatch/internal/logging"
	"github.com/bandwatch/bandwatch/internal/models"
	"github.com/bandwatch/bandwatch/internal/services"
)

// statusForServiceError maps service error codes onto HTTP statuses.
func statusForServiceError(code string) int {
	switch code {
	case "INVALID_REQUEST", "INVALID_CONFIG":
		return fiber.StatusBadRequest
	case "NOT_FOUND":
		return fiber.StatusNotFound
	case "TOO_MANY_EVENTS":
		return fiber.StatusRequestEntityTooLarge
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler returns the application error handler. Service errors keep
// their code in the response body; everything else collapses to a generic
// error envelope.
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		errCode := "ERROR"
		message := "Internal Server Error"

		var svcErr *services.ServiceError
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &svcErr):
			code = statusForServiceError(svcErr.Code)
			errCode = svcErr.Code
			message = svcErr.Message
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			message = fiberErr.Message
		}

		logger.Error("Request error",
			"path", c.Path(),
			"method", c.Method(),
			"status", code,
			"error", err,
		)

		return c.Status(code).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    errCode,
				Message: message,
				Path:    c.Path(),
			},
		})
	}
}
