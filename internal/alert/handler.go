package alert

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/eleven-am/classwatch/internal/shared"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	store  *Store
	logger *slog.Logger
}

func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("/:id/resolve", h.Resolve)
}

// @Summary      List alerts
// @Description  Returns alert log rows, newest first, optionally filtered
// @Tags         alerts
// @Produce      json
// @Router       /alerts [get]
func (h *Handler) List(c echo.Context) error {
	f := Filter{
		SessionID: c.QueryParam("session_id"),
		TeacherID: c.QueryParam("teacher_id"),
		Severity:  Severity(c.QueryParam("severity")),
		Limit:     200,
	}

	if v := c.QueryParam("resolved"); v != "" {
		resolved, err := strconv.ParseBool(v)
		if err != nil {
			return shared.BadRequest("invalid_resolved", "resolved must be a boolean")
		}
		f.Resolved = &resolved
	}

	alerts, err := h.store.List(c.Request().Context(), f)
	if err != nil {
		h.logger.Error("failed to list alerts", "error", err)
		return shared.InternalError("list_failed", "failed to list alerts")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// @Summary      Resolve an alert
// @Description  Supervisor action; flips the alert to resolved
// @Tags         alerts
// @Produce      json
// @Router       /alerts/{id}/resolve [post]
func (h *Handler) Resolve(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return shared.BadRequest("missing_id", "alert id is required")
	}

	if err := h.store.ResolveByID(c.Request().Context(), id, time.Now().UTC()); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("alert_not_found", "no open alert with that id")
		}
		h.logger.Error("failed to resolve alert", "error", err, "alert_id", id)
		return shared.InternalError("resolve_failed", "failed to resolve alert")
	}

	return c.NoContent(http.StatusNoContent)
}
