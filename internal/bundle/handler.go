package bundle

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Handler exposes bundle processing over HTTP. It only decodes and
// encodes; all semantics live in the Coordinator.
type Handler struct {
	coordinator *Coordinator
	logger      zerolog.Logger
}

func NewHandler(coordinator *Coordinator, logger zerolog.Logger) *Handler {
	return &Handler{coordinator: coordinator, logger: logger}
}

// RegisterRoutes registers the bundle submission endpoint.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/bundles", h.Process)
}

// Process handles POST /bundles.
func (h *Handler) Process(c echo.Context) error {
	var b Bundle
	if err := c.Bind(&b); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status": StatusValidationFailed,
			"violations": []Violation{{
				EntryIndex: -1,
				Field:      "body",
				Message:    "invalid bundle JSON: " + err.Error(),
			}},
		})
	}

	resp, err := h.coordinator.Process(c.Request().Context(), &b)
	if err != nil {
		var structural *StructuralError
		var storage *StorageError
		switch {
		case errors.As(err, &structural):
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":     StatusValidationFailed,
				"violations": structural.Violations,
			})
		case errors.As(err, &storage):
			h.logger.Error().Err(err).Msg("bundle storage failure")
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "storage unavailable",
			})
		case errors.Is(err, ErrIntegrityViolation):
			// Coordinator bug: never return a short bundle as if it were
			// a valid response.
			h.logger.Error().Err(err).Msg("bundle response integrity violation")
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "internal integrity violation",
			})
		default:
			h.logger.Error().Err(err).Msg("bundle processing failed")
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "bundle processing failed",
			})
		}
	}

	return c.JSON(http.StatusOK, resp)
}
