package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/eleven-am/classwatch/internal/alert"
	"github.com/eleven-am/classwatch/internal/notify"
	"github.com/eleven-am/classwatch/internal/shared"
)

// Dispatcher sends coaching messages, manually or from the sweep. Both
// paths share Send, which delivers before it records and records before it
// publishes, so a record only ever describes a delivered reminder and
// subscribers never observe a record before it is persisted.
type Dispatcher struct {
	store   *Store
	pool    *TemplatePool
	picker  Picker
	courier Courier
	bus     notify.Bus
	log     *slog.Logger
	now     func() time.Time
}

type DispatcherConfig struct {
	Store   *Store
	Pool    *TemplatePool
	Picker  Picker
	Courier Courier
	Bus     notify.Bus
	Log     *slog.Logger
	Now     func() time.Time
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Pool == nil {
		cfg.Pool = NewTemplatePool()
	}
	if cfg.Picker == nil {
		cfg.Picker = NewRandPicker(time.Now().UnixNano())
	}
	if cfg.Courier == nil {
		cfg.Courier = NewLogCourier(cfg.Log)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Dispatcher{
		store:   cfg.Store,
		pool:    cfg.Pool,
		picker:  cfg.Picker,
		courier: cfg.Courier,
		bus:     cfg.Bus,
		log:     cfg.Log.With("component", "reminder_dispatcher"),
		now:     cfg.Now,
	}
}

// Send delivers one reminder. An empty message draws a template from the
// pool category matching the breach type. A delivery failure is returned
// to the caller and nothing is recorded; there is no retry.
func (d *Dispatcher) Send(ctx context.Context, teacherID, sessionID string, typ alert.Type, message string, sentBy SentBy) (*Record, error) {
	if message == "" {
		message = d.pool.Draw(CategoryFor(typ), d.picker)
	}

	rec := &Record{
		ID:        shared.NewID("rem_"),
		TeacherID: teacherID,
		SessionID: sessionID,
		Type:      string(typ),
		Message:   message,
		SentAt:    d.now().UTC(),
		SentBy:    sentBy,
	}

	if err := d.courier.Deliver(ctx, rec); err != nil {
		return nil, fmt.Errorf("delivering reminder: %w", err)
	}

	if err := d.store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("recording reminder: %w", err)
	}

	if d.bus != nil {
		if err := d.bus.Publish(ctx, notify.NewEvent(notify.KindReminderSent, rec)); err != nil {
			d.log.Warn("failed to publish reminder", "error", err, "reminder_id", rec.ID)
		}
	}
	return rec, nil
}
