package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/eleven-am/classwatch/internal/notify"
	"github.com/eleven-am/classwatch/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

type ComponentStatus struct {
	Status    Status `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type Response struct {
	Status         Status                     `json:"status"`
	Components     map[string]ComponentStatus `json:"components"`
	ActiveSessions int                        `json:"active_sessions"`
	Goroutines     int                        `json:"goroutines"`
	CheckedAt      time.Time                  `json:"checked_at"`
}

type Handler struct {
	db       *gorm.DB
	redis    *redis.Client
	bus      notify.Bus
	registry *session.Registry
}

func NewHandler(db *gorm.DB, redisClient *redis.Client, bus notify.Bus, registry *session.Registry) *Handler {
	return &Handler{
		db:       db,
		redis:    redisClient,
		bus:      bus,
		registry: registry,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Check)
}

func (h *Handler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	components := map[string]ComponentStatus{
		"database": h.checkDatabase(ctx),
		"redis":    h.checkRedis(ctx),
		"bus":      h.checkBus(),
	}

	overall := StatusHealthy
	for _, cs := range components {
		switch cs.Status {
		case StatusUnhealthy:
			overall = StatusUnhealthy
		case StatusDegraded:
			if overall == StatusHealthy {
				overall = StatusDegraded
			}
		}
	}

	code := http.StatusOK
	if overall == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	return c.JSON(code, Response{
		Status:         overall,
		Components:     components,
		ActiveSessions: h.registry.ActiveCount(),
		Goroutines:     runtime.NumGoroutine(),
		CheckedAt:      time.Now().UTC(),
	})
}

func (h *Handler) checkDatabase(ctx context.Context) ComponentStatus {
	start := time.Now()
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	return statusFrom(err, start, StatusUnhealthy)
}

func (h *Handler) checkRedis(ctx context.Context) ComponentStatus {
	start := time.Now()
	err := h.redis.Ping(ctx).Err()
	// Redis only carries the push channel; losing it degrades to polling.
	return statusFrom(err, start, StatusDegraded)
}

func (h *Handler) checkBus() ComponentStatus {
	if h.bus.Online() {
		return ComponentStatus{Status: StatusHealthy}
	}
	return ComponentStatus{Status: StatusDegraded, Error: "realtime channel offline"}
}

func statusFrom(err error, start time.Time, onError Status) ComponentStatus {
	cs := ComponentStatus{
		Status:    StatusHealthy,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		cs.Status = onError
		cs.Error = err.Error()
	}
	return cs
}
