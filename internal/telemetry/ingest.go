package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eleven-am/classwatch/internal/notify"
	"github.com/eleven-am/classwatch/internal/session"
)

// Ingestor applies validated snapshots to the live registry and the durable
// session log, then notifies observers. Malformed snapshots are dropped by
// the batch path and rejected by the push path; either way they never
// affect other sessions.
type Ingestor struct {
	registry *session.Registry
	store    *session.Store
	bus      notify.Bus
	log      *slog.Logger
}

func NewIngestor(registry *session.Registry, store *session.Store, bus notify.Bus, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		registry: registry,
		store:    store,
		bus:      bus,
		log:      logger.With("component", "telemetry_ingestor"),
	}
}

func (i *Ingestor) Ingest(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}

	sess, _ := i.registry.Upsert(snap.SessionID, snap.Meta(), snap.Metrics())

	if err := i.store.Save(ctx, &sess); err != nil {
		// The live view is already updated; the log catches up on the
		// next tick.
		i.log.Warn("failed to persist session record", "error", err, "session_id", sess.ID)
	}

	if err := i.bus.Publish(ctx, notify.NewEvent(notify.KindSessionUpdate, sess)); err != nil {
		i.log.Warn("failed to publish session update", "error", err, "session_id", sess.ID)
	}
	return nil
}

// IngestBatch applies every valid snapshot and reports how many were
// accepted. Invalid entries are logged and skipped.
func (i *Ingestor) IngestBatch(ctx context.Context, snaps []Snapshot) int {
	accepted := 0
	for _, snap := range snaps {
		if err := i.Ingest(ctx, snap); err != nil {
			i.log.Warn("dropping telemetry snapshot", "error", err, "session_id", snap.SessionID)
			continue
		}
		accepted++
	}
	return accepted
}
