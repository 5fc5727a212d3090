package bootstrap

import (
	"log/slog"

	"github.com/eleven-am/classwatch/internal/alert"
	"github.com/eleven-am/classwatch/internal/reminder"
	"github.com/eleven-am/classwatch/internal/roster"
	"github.com/eleven-am/classwatch/internal/session"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideSessionStore(db *gorm.DB) *session.Store {
	return session.NewStore(db)
}

func ProvideSessionRegistry(cfg *Config, logger *slog.Logger) *session.Registry {
	return session.NewRegistry(session.RegistryConfig{
		StaleAfter: cfg.StaleAfter,
		Grace:      cfg.StaleGrace,
		Log:        logger,
	})
}

func ProvideAlertStore(db *gorm.DB) *alert.Store {
	return alert.NewStore(db)
}

func ProvideReminderStore(db *gorm.DB) *reminder.Store {
	return reminder.NewStore(db)
}

func ProvideRosterStore(db *gorm.DB) *roster.Store {
	return roster.NewStore(db)
}

func RunMigrations(sessions *session.Store, alerts *alert.Store, reminders *reminder.Store, rosterStore *roster.Store) error {
	if err := sessions.Migrate(); err != nil {
		return err
	}
	if err := alerts.Migrate(); err != nil {
		return err
	}
	if err := reminders.Migrate(); err != nil {
		return err
	}
	return rosterStore.Migrate()
}

var StoresModule = fx.Options(
	fx.Provide(
		ProvideSessionStore,
		ProvideSessionRegistry,
		ProvideAlertStore,
		ProvideReminderStore,
		ProvideRosterStore,
	),
	fx.Invoke(RunMigrations),
)
