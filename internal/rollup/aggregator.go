package rollup

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/eleven-am/classwatch/internal/alert"
	"github.com/eleven-am/classwatch/internal/notify"
	"github.com/eleven-am/classwatch/internal/roster"
	"github.com/eleven-am/classwatch/internal/session"
	"github.com/eleven-am/classwatch/internal/shared"
)

// Classifier buckets thresholds. Ties favor the stricter bucket.
type Classifier struct {
	CriticalWarnings    int64
	CriticalEngagement  float64
	ModerateWarnings    int64
	ModerateEngagement  float64
	ModerateTTT         float64
	ExcellentTTT        float64
	ExcellentEngagement float64
}

func DefaultClassifier() Classifier {
	return Classifier{
		CriticalWarnings:    10,
		CriticalEngagement:  20,
		ModerateWarnings:    5,
		ModerateEngagement:  40,
		ModerateTTT:         60,
		ExcellentTTT:        30,
		ExcellentEngagement: 70,
	}
}

// Classify is pure; the aggregator and its tests share it.
func (c Classifier) Classify(averageTTT, averageEngagement float64, warnings int64, sessions int) Performance {
	if sessions == 0 {
		return PerformanceGood
	}
	switch {
	case warnings > c.CriticalWarnings || averageEngagement < c.CriticalEngagement:
		return PerformanceCritical
	case warnings > c.ModerateWarnings || averageEngagement < c.ModerateEngagement || averageTTT > c.ModerateTTT:
		return PerformanceNeedsImprovement
	case averageTTT <= c.ExcellentTTT && averageEngagement >= c.ExcellentEngagement:
		return PerformanceExcellent
	default:
		return PerformanceGood
	}
}

// Aggregator periodically recomputes per-teacher rollups from the session
// and alert logs. The recompute is a side-effect-free projection: it reads
// the logs and replaces the cached rollup set wholesale.
type Aggregator struct {
	sessions   *session.Store
	alerts     *alert.Store
	roster     *roster.Store
	bus        notify.Bus
	classifier Classifier
	interval   time.Duration
	log        *slog.Logger
	now        func() time.Time

	mu      sync.RWMutex
	rollups []*TeacherRollup

	cancel context.CancelFunc
	done   chan struct{}
}

type AggregatorConfig struct {
	Sessions   *session.Store
	Alerts     *alert.Store
	Roster     *roster.Store
	Bus        notify.Bus
	Classifier Classifier
	Interval   time.Duration
	Log        *slog.Logger
	Now        func() time.Time
}

func NewAggregator(cfg AggregatorConfig) *Aggregator {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Classifier == (Classifier{}) {
		cfg.Classifier = DefaultClassifier()
	}
	return &Aggregator{
		sessions:   cfg.Sessions,
		alerts:     cfg.Alerts,
		roster:     cfg.Roster,
		bus:        cfg.Bus,
		classifier: cfg.Classifier,
		interval:   cfg.Interval,
		log:        cfg.Log.With("component", "rollup_aggregator"),
		now:        cfg.Now,
	}
}

func (a *Aggregator) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})
	go a.run(ctx)
}

func (a *Aggregator) Stop() {
	if a.cancel != nil {
		a.cancel()
		<-a.done
	}
}

func (a *Aggregator) run(ctx context.Context) {
	defer close(a.done)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.Recompute(ctx); err != nil {
				a.log.Error("rollup recompute failed", "error", err)
			}
		}
	}
}

// Rollups returns the latest computed set, ordered by teacher id.
func (a *Aggregator) Rollups() []*TeacherRollup {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*TeacherRollup, len(a.rollups))
	copy(out, a.rollups)
	return out
}

// Recompute rebuilds every teacher's rollup for the current day. A teacher
// with no roster record is skipped for the cycle; everyone else still gets
// recomputed.
func (a *Aggregator) Recompute(ctx context.Context) ([]*TeacherRollup, error) {
	now := a.now().UTC()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	recs, err := a.sessions.ListSince(ctx, since)
	if err != nil {
		return nil, err
	}

	byTeacher := make(map[string][]*session.Record)
	for _, rec := range recs {
		byTeacher[rec.TeacherID] = append(byTeacher[rec.TeacherID], rec)
	}

	teacherIDs := make([]string, 0, len(byTeacher))
	for id := range byTeacher {
		teacherIDs = append(teacherIDs, id)
	}
	sort.Strings(teacherIDs)

	rollups := make([]*TeacherRollup, 0, len(teacherIDs))
	for _, teacherID := range teacherIDs {
		r, err := a.computeTeacher(ctx, teacherID, byTeacher[teacherID], since, now)
		if err != nil {
			a.log.Warn("skipping teacher rollup", "error", err, "teacher_id", teacherID)
			continue
		}
		rollups = append(rollups, r)
	}

	a.mu.Lock()
	a.rollups = rollups
	a.mu.Unlock()

	if a.bus != nil {
		if err := a.bus.Publish(ctx, notify.NewEvent(notify.KindMetricsUpdate, rollups)); err != nil {
			a.log.Warn("failed to publish rollups", "error", err)
		}
	}
	return rollups, nil
}

func (a *Aggregator) computeTeacher(ctx context.Context, teacherID string, recs []*session.Record, since, now time.Time) (*TeacherRollup, error) {
	teacher, err := a.roster.GetTeacher(ctx, teacherID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrNotFound
	}

	var sumTTT, sumEngagement float64
	var totalMinutes int
	for _, rec := range recs {
		sumTTT += rec.TTTRatio
		sumEngagement += rec.Engagement

		end := now
		if rec.EndedAt != nil {
			end = *rec.EndedAt
		}
		if end.After(rec.StartedAt) {
			totalMinutes += int(end.Sub(rec.StartedAt).Minutes())
		}
	}

	n := float64(len(recs))
	averageTTT := sumTTT / n
	averageEngagement := sumEngagement / n

	warnings, err := a.alerts.CountForTeacherSince(ctx, teacherID, alert.SeverityWarning, since)
	if err != nil {
		return nil, err
	}
	total, err := a.alerts.CountForTeacherSince(ctx, teacherID, "", since)
	if err != nil {
		return nil, err
	}

	return &TeacherRollup{
		TeacherID:           teacherID,
		TeacherName:         teacher.Name,
		AverageTTT:          averageTTT,
		AverageEngagement:   averageEngagement,
		SessionsToday:       len(recs),
		TotalSessionMinutes: totalMinutes,
		WarningsCount:       warnings,
		AlertsCount:         total,
		Performance:         a.classifier.Classify(averageTTT, averageEngagement, warnings, len(recs)),
		ComputedAt:          now,
	}, nil
}
