package rollup

import (
	"log/slog"
	"net/http"

	"github.com/eleven-am/classwatch/internal/shared"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewHandler(aggregator *Aggregator, logger *slog.Logger) *Handler {
	return &Handler{
		aggregator: aggregator,
		logger:     logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/metrics", h.List)
	g.POST("/metrics/recompute", h.Recompute)
}

// @Summary      List teacher rollups
// @Tags         teachers
// @Produce      json
// @Router       /teachers/metrics [get]
func (h *Handler) List(c echo.Context) error {
	rollups := h.aggregator.Rollups()
	return c.JSON(http.StatusOK, map[string]any{
		"rollups": rollups,
		"count":   len(rollups),
	})
}

// @Summary      Recompute teacher rollups on demand
// @Tags         teachers
// @Produce      json
// @Router       /teachers/metrics/recompute [post]
func (h *Handler) Recompute(c echo.Context) error {
	rollups, err := h.aggregator.Recompute(c.Request().Context())
	if err != nil {
		h.logger.Error("on-demand recompute failed", "error", err)
		return shared.InternalError("recompute_failed", "failed to recompute rollups")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"rollups": rollups,
		"count":   len(rollups),
	})
}
