package bootstrap

import (
	"log/slog"

	"github.com/eleven-am/classwatch/internal/alert"
	"github.com/eleven-am/classwatch/internal/health"
	"github.com/eleven-am/classwatch/internal/monitor"
	"github.com/eleven-am/classwatch/internal/notify"
	"github.com/eleven-am/classwatch/internal/reminder"
	"github.com/eleven-am/classwatch/internal/rollup"
	"github.com/eleven-am/classwatch/internal/roster"
	"github.com/eleven-am/classwatch/internal/session"
	"github.com/eleven-am/classwatch/internal/telemetry"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideSessionHandler(registry *session.Registry, m *monitor.Monitor, logger *slog.Logger) *session.Handler {
	return session.NewHandler(registry, m, logger.With("handler", "session"))
}

func ProvideAlertHandler(store *alert.Store, logger *slog.Logger) *alert.Handler {
	return alert.NewHandler(store, logger.With("handler", "alert"))
}

func ProvideReminderHandler(dispatcher *reminder.Dispatcher, store *reminder.Store, logger *slog.Logger) *reminder.Handler {
	return reminder.NewHandler(dispatcher, store, logger.With("handler", "reminder"))
}

func ProvideMonitorHandler(m *monitor.Monitor, logger *slog.Logger) *monitor.Handler {
	return monitor.NewHandler(m, logger.With("handler", "monitor"))
}

func ProvideRollupHandler(agg *rollup.Aggregator, logger *slog.Logger) *rollup.Handler {
	return rollup.NewHandler(agg, logger.With("handler", "rollup"))
}

func ProvideRosterHandler(store *roster.Store, logger *slog.Logger) *roster.Handler {
	return roster.NewHandler(store, logger.With("handler", "roster"))
}

func ProvideTelemetryHandler(ingestor *telemetry.Ingestor, logger *slog.Logger) *telemetry.Handler {
	return telemetry.NewHandler(ingestor, logger.With("handler", "telemetry"))
}

func ProvideNotifyHandler(hub *notify.Hub, bus notify.Bus, logger *slog.Logger) *notify.Handler {
	return notify.NewHandler(hub, bus, logger)
}

func ProvideHealthHandler(db *gorm.DB, redisClient *redis.Client, bus notify.Bus, registry *session.Registry) *health.Handler {
	return health.NewHandler(db, redisClient, bus, registry)
}

type HandlerParams struct {
	fx.In

	SessionHandler   *session.Handler
	AlertHandler     *alert.Handler
	ReminderHandler  *reminder.Handler
	MonitorHandler   *monitor.Handler
	RollupHandler    *rollup.Handler
	RosterHandler    *roster.Handler
	TelemetryHandler *telemetry.Handler
	NotifyHandler    *notify.Handler
	HealthHandler    *health.Handler
}

func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	api := e.Group("/v1")

	params.SessionHandler.RegisterRoutes(api.Group("/sessions"))
	params.AlertHandler.RegisterRoutes(api.Group("/alerts"))
	params.ReminderHandler.RegisterRoutes(api.Group("/reminders"))
	params.MonitorHandler.RegisterRoutes(api.Group("/monitor"))
	params.RollupHandler.RegisterRoutes(api.Group("/teachers"))
	params.RosterHandler.RegisterRoutes(api.Group("/teachers/roster"))
	params.TelemetryHandler.RegisterRoutes(api.Group("/telemetry"))
	params.NotifyHandler.RegisterRoutes(api.Group("/events"))

	params.HealthHandler.RegisterRoutes(e)
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideSessionHandler,
		ProvideAlertHandler,
		ProvideReminderHandler,
		ProvideMonitorHandler,
		ProvideRollupHandler,
		ProvideRosterHandler,
		ProvideTelemetryHandler,
		ProvideNotifyHandler,
		ProvideHealthHandler,
	),
	fx.Invoke(RegisterRoutes),
)
