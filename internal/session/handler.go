package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/eleven-am/classwatch/internal/shared"
	"github.com/labstack/echo/v4"
)

// Ender finishes a session: removes it from the active set, stamps the log
// and resolves its open alerts. Implemented by the monitor.
type Ender interface {
	EndSession(ctx context.Context, id string) error
}

type Handler struct {
	registry *Registry
	ender    Ender
	logger   *slog.Logger
}

func NewHandler(registry *Registry, ender Ender, logger *slog.Logger) *Handler {
	return &Handler{
		registry: registry,
		ender:    ender,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/active", h.ListActive)
	g.POST("/:id/end", h.End)
}

// @Summary      List active sessions
// @Description  Returns every session currently under supervision
// @Tags         sessions
// @Produce      json
// @Router       /sessions/active [get]
func (h *Handler) ListActive(c echo.Context) error {
	sessions := h.registry.ListActive()
	return c.JSON(http.StatusOK, map[string]any{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// @Summary      End a session
// @Tags         sessions
// @Produce      json
// @Router       /sessions/{id}/end [post]
func (h *Handler) End(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return shared.BadRequest("missing_id", "session id is required")
	}

	if err := h.ender.EndSession(c.Request().Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("session_not_found", "no active session with that id")
		}
		h.logger.Error("failed to end session", "error", err, "session_id", id)
		return shared.InternalError("end_failed", "failed to end session")
	}

	return c.NoContent(http.StatusNoContent)
}
