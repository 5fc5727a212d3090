package monitor

import (
	"log/slog"
	"net/http"

	"github.com/eleven-am/classwatch/internal/dto"
	"github.com/eleven-am/classwatch/internal/shared"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	monitor *Monitor
	logger  *slog.Logger
}

func NewHandler(monitor *Monitor, logger *slog.Logger) *Handler {
	return &Handler{
		monitor: monitor,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.Status)
	g.PUT("/auto", h.SetAuto)
}

// @Summary      Monitoring status
// @Tags         monitor
// @Produce      json
// @Router       /monitor [get]
func (h *Handler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.MonitorStatusResponse{
		AutoMonitoring:  h.monitor.AutoMonitoring(),
		IntervalSeconds: int(h.monitor.Interval().Seconds()),
	})
}

// @Summary      Toggle auto-monitoring
// @Description  Disabling stops new automatic reminders from the next tick
// @Tags         monitor
// @Accept       json
// @Router       /monitor/auto [put]
func (h *Handler) SetAuto(c echo.Context) error {
	var req dto.SetAutoMonitoringRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_body", "invalid request body")
	}
	if req.Enabled == nil {
		return shared.BadRequest("missing_enabled", "enabled is required")
	}

	h.monitor.SetAutoMonitoring(*req.Enabled)
	return c.NoContent(http.StatusNoContent)
}
