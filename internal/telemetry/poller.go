package telemetry

import (
	"context"
	"log/slog"
	"time"
)

// Poller drives the pull fallback: every interval it fetches the current
// snapshots and feeds them through the ingestor. A failed fetch is logged
// and retried on the next tick; it never stops the loop.
type Poller struct {
	source   Source
	ingestor *Ingestor
	interval time.Duration
	log      *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(source Source, ingestor *Ingestor, interval time.Duration, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		source:   source,
		ingestor: ingestor,
		interval: interval,
		log:      logger.With("component", "telemetry_poller"),
	}
}

func (p *Poller) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx)
}

func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	snaps, err := p.source.Fetch(ctx)
	if err != nil {
		p.log.Warn("telemetry fetch failed", "error", err)
		return
	}
	p.ingestor.IngestBatch(ctx, snaps)
}
