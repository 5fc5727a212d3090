package bootstrap

import (
	"context"
	"log/slog"

	"github.com/eleven-am/classwatch/internal/alert"
	"github.com/eleven-am/classwatch/internal/monitor"
	"github.com/eleven-am/classwatch/internal/notify"
	"github.com/eleven-am/classwatch/internal/reminder"
	"github.com/eleven-am/classwatch/internal/rollup"
	"github.com/eleven-am/classwatch/internal/roster"
	"github.com/eleven-am/classwatch/internal/session"
	"github.com/eleven-am/classwatch/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

func ProvideBus(lc fx.Lifecycle, redisClient *redis.Client, logger *slog.Logger) notify.Bus {
	bus := notify.NewRedisBus(redisClient, logger)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			bus.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return bus.Close()
		},
	})
	return bus
}

func ProvideHub(lc fx.Lifecycle, bus notify.Bus, logger *slog.Logger) *notify.Hub {
	hub := notify.NewHub(bus, logger)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			hub.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			hub.Stop()
			return nil
		},
	})
	return hub
}

func ProvideAlertManager(store *alert.Store, bus notify.Bus, logger *slog.Logger) *alert.Manager {
	return alert.NewManager(store, bus, logger)
}

func ProvideCourier(cfg *Config, rosterStore *roster.Store, logger *slog.Logger) reminder.Courier {
	if cfg.SendgridAPIKey == "" {
		return reminder.NewLogCourier(logger)
	}
	return reminder.NewSendgridCourier(cfg.SendgridAPIKey, cfg.ReminderFromName, cfg.ReminderFromEmail, rosterStore)
}

func ProvideDispatcher(store *reminder.Store, courier reminder.Courier, bus notify.Bus, logger *slog.Logger) *reminder.Dispatcher {
	return reminder.NewDispatcher(reminder.DispatcherConfig{
		Store:   store,
		Courier: courier,
		Bus:     bus,
		Log:     logger,
	})
}

func ProvideIngestor(registry *session.Registry, store *session.Store, bus notify.Bus, logger *slog.Logger) *telemetry.Ingestor {
	return telemetry.NewIngestor(registry, store, bus, logger)
}

func StartPoller(lc fx.Lifecycle, cfg *Config, ingestor *telemetry.Ingestor, logger *slog.Logger) {
	if cfg.TelemetryURL == "" {
		// Push-only deployment; the backend POSTs to /v1/telemetry.
		return
	}

	poller := telemetry.NewPoller(telemetry.NewHTTPSource(cfg.TelemetryURL), ingestor, cfg.TelemetryPollInterval, logger)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			poller.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			poller.Stop()
			return nil
		},
	})
}

func ProvideMonitor(lc fx.Lifecycle, cfg *Config, registry *session.Registry, sessions *session.Store,
	alerts *alert.Manager, dispatcher *reminder.Dispatcher, bus notify.Bus, logger *slog.Logger) *monitor.Monitor {

	m := monitor.New(monitor.Config{
		Registry:   registry,
		Sessions:   sessions,
		Alerts:     alerts,
		Dispatcher: dispatcher,
		Bus:        bus,
		Interval:   cfg.SweepInterval,
		Auto:       cfg.AutoMonitoring,
		Log:        logger,
		Thresholds: monitor.Thresholds{
			TTTWarning:         cfg.TTTWarning,
			TTTCritical:        cfg.TTTCritical,
			EngagementWarning:  cfg.EngagementWarning,
			EngagementCritical: cfg.EngagementCritical,
			SilenceFraction:    cfg.SilenceFraction,
			SilenceMinElapsed:  cfg.SilenceMinElapsed,
		},
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			m.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			m.Stop()
			return nil
		},
	})
	return m
}

func ProvideAggregator(lc fx.Lifecycle, cfg *Config, sessions *session.Store, alerts *alert.Store,
	rosterStore *roster.Store, bus notify.Bus, logger *slog.Logger) *rollup.Aggregator {

	agg := rollup.NewAggregator(rollup.AggregatorConfig{
		Sessions: sessions,
		Alerts:   alerts,
		Roster:   rosterStore,
		Bus:      bus,
		Interval: cfg.RollupInterval,
		Log:      logger,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			agg.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			agg.Stop()
			return nil
		},
	})
	return agg
}

var SupervisionModule = fx.Options(
	fx.Provide(
		ProvideBus,
		ProvideHub,
		ProvideAlertManager,
		ProvideCourier,
		ProvideDispatcher,
		ProvideIngestor,
		ProvideMonitor,
		ProvideAggregator,
	),
	fx.Invoke(StartPoller),
)
