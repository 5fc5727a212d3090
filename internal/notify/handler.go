package notify

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Handler struct {
	hub    *Hub
	bus    Bus
	logger *slog.Logger
}

func NewHandler(hub *Hub, bus Bus, logger *slog.Logger) *Handler {
	return &Handler{
		hub:    hub,
		bus:    bus,
		logger: logger.With("component", "notify_handler"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.HandleConnect)
	g.GET("/status", h.Status)
}

// HandleConnect attaches a dashboard to the event stream, as SSE when the
// client asks for text/event-stream and as a WebSocket otherwise.
func (h *Handler) HandleConnect(c echo.Context) error {
	accept := c.Request().Header.Get("Accept")
	if strings.Contains(accept, "text/event-stream") {
		return h.handleSSE(c)
	}
	return h.handleWebSocket(c)
}

func (h *Handler) handleSSE(c echo.Context) error {
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	conn, err := NewSSEConn(c.Response())
	if err != nil {
		h.logger.Error("failed to create SSE connection", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming unsupported")
	}

	h.hub.Attach(conn)
	defer h.hub.Detach(conn.ID())

	h.logger.Info("dashboard connected (SSE)", "conn_id", conn.ID())
	_ = conn.Run(c.Request().Context())
	h.logger.Info("dashboard disconnected (SSE)", "conn_id", conn.ID())
	return nil
}

func (h *Handler) handleWebSocket(c echo.Context) error {
	ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return err
	}

	conn := NewWSConn(ws)
	h.hub.Attach(conn)

	h.logger.Info("dashboard connected (WebSocket)", "conn_id", conn.ID())

	go conn.WritePump()
	conn.ReadPump()

	h.hub.Detach(conn.ID())
	h.logger.Info("dashboard disconnected (WebSocket)", "conn_id", conn.ID())
	return nil
}

// Status lets pollers decide whether the push channel is healthy; a false
// "online" tells dashboards to show the realtime-connection-lost indicator
// and stay on their polling cadences.
func (h *Handler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"online":     h.bus.Online(),
		"dashboards": h.hub.ConnCount(),
	})
}
