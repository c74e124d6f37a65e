package middleware

import (
	"errors"

	"carbon-registry/internal/domain"
	"carbon-registry/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ErrorHandler is the global error handler. Returns the standard error format.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code, message, details := Classify(err)
	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("trace_id", GetTraceID(c)).Str("path", c.Path()).Int("status", code).Msg("request failed")
	}
	return response.Error(c, message, code, details)
}

// Classify maps an error to its HTTP status, client-facing message and details.
// Validation 400, unknown project or record 404, storage 503, anything else 500.
func Classify(err error) (int, string, map[string]interface{}) {
	details := map[string]interface{}{}

	var fe *fiber.Error
	var verr *domain.ValidationError
	var ref *domain.ReferenceError
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message, details
	case errors.As(err, &verr):
		if verr.Field != "" {
			details["field"] = verr.Field
		}
		return fiber.StatusBadRequest, verr.Error(), details
	case errors.As(err, &ref):
		details["project_id"] = ref.ProjectID
		return fiber.StatusNotFound, ref.Error(), details
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, err.Error(), details
	case errors.Is(err, domain.ErrStorage):
		return fiber.StatusServiceUnavailable, "Storage unavailable, retry later", details
	}
	return fiber.StatusInternalServerError, "Internal Server Error", details
}
