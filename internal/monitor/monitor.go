package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/foldaway/mrtdown-site-sub000/internal/history"
	"github.com/foldaway/mrtdown-site-sub000/internal/logger"
	"github.com/foldaway/mrtdown-site-sub000/internal/metrics"
	"github.com/foldaway/mrtdown-site-sub000/internal/models"
	"github.com/foldaway/mrtdown-site-sub000/internal/monitoring"
)

const minInterval = 10 * time.Second

// Source is the upstream API as seen by the poller.
type Source interface {
	FetchOverview(ctx context.Context) (models.Overview, error)
	FetchStatistics(ctx context.Context) (models.Statistics, error)
}

// Indexer receives every issue seen in the latest refresh.
type Indexer interface {
	Replace(issues []models.IssueRef) error
}

// LineSource supplies the line catalogue.
type LineSource interface {
	Lines() []models.Line
}

// Snapshot is the overview state pushed to subscribers.
type Snapshot struct {
	Overview   models.Overview         `json:"overview"`
	Advisories metrics.AdvisorySummary `json:"advisories"`
	Timelines  []models.LineTimeline   `json:"timelines"`
	Uptime     []metrics.LineUptime    `json:"uptime"`
	FetchedAt  time.Time               `json:"fetchedAt"`
}

// Options configures a Monitor.
type Options struct {
	Interval     time.Duration
	TimelineDays int
	Location     *time.Location
	Lines        LineSource
	Index        Indexer
	Logger       logger.Logger
	Now          func() time.Time
}

// Monitor periodically refreshes the overview and fans it out to subscribers.
type Monitor struct {
	source Source
	opts   Options
	log    logger.Logger

	mu          sync.RWMutex
	latest      *Snapshot
	health      Health
	polls       []PollResult
	subscribers map[chan Snapshot]struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	stopCh    chan struct{}
	doneCh    chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates a poller for source.
func New(source Source, opts Options) *Monitor {
	if opts.Interval < minInterval {
		opts.Interval = minInterval
	}
	if opts.TimelineDays <= 0 {
		opts.TimelineDays = history.DefaultTimelineDays
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		source:      source,
		opts:        opts,
		log:         opts.Logger,
		subscribers: make(map[chan Snapshot]struct{}),
		ctx:         ctx,
		cancel:      cancel,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start launches the polling loop in a goroutine. Only the first call has
// an effect, and Start after Stop does nothing.
func (m *Monitor) Start() {
	m.startOnce.Do(func() { go m.run() })
}

// Stop requests graceful loop termination and waits until it is done. It is
// safe to call concurrently, repeatedly, or on a Monitor that never started.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		m.cancel()
		close(m.stopCh)
		m.startOnce.Do(func() { close(m.doneCh) })
	})
	<-m.doneCh
}

// Latest returns the most recent snapshot, if any refresh has succeeded.
func (m *Monitor) Latest() (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.latest == nil {
		return Snapshot{}, false
	}
	return *m.latest, true
}

// Subscribe returns a channel receiving every new snapshot and a func that
// cancels the subscription. Slow subscribers only see the newest snapshot.
func (m *Monitor) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	m.mu.Lock()
	m.subscribers[ch] = struct{}{}
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subscribers, ch)
			m.mu.Unlock()
		})
	}
}

// RunOnce refreshes the overview. On failure the previous snapshot is kept.
func (m *Monitor) RunOnce(ctx context.Context) (Snapshot, error) {
	started := time.Now()
	overview, err := m.source.FetchOverview(ctx)
	if err != nil {
		m.mu.Lock()
		m.recordPoll(PollResult{
			CheckedAt: m.opts.Now().UTC(),
			LatencyMs: time.Since(started).Milliseconds(),
			Error:     err.Error(),
		})
		m.mu.Unlock()
		monitoring.RecordPoll(false)
		return Snapshot{}, err
	}

	snap := BuildSnapshot(overview, m.lines(overview), m.opts.Now(), m.opts.TimelineDays, m.opts.Location)

	if m.opts.Index != nil {
		issues := collectIssues(overview, nil)
		if stats, err := m.source.FetchStatistics(ctx); err != nil {
			m.log.Warn("statistics refresh failed; indexing overview issues only", "error", err)
		} else {
			issues = collectIssues(overview, &stats)
		}
		if err := m.opts.Index.Replace(issues); err != nil {
			m.log.Error("search index refresh failed", "error", err)
		}
	}

	m.mu.Lock()
	m.latest = &snap
	m.recordPoll(PollResult{
		CheckedAt: snap.FetchedAt,
		OK:        true,
		LatencyMs: time.Since(started).Milliseconds(),
	})
	subscribers := make([]chan Snapshot, 0, len(m.subscribers))
	for ch := range m.subscribers {
		subscribers = append(subscribers, ch)
	}
	m.mu.Unlock()

	for _, ch := range subscribers {
		publish(ch, snap)
	}
	monitoring.RecordPoll(true)
	return snap, nil
}

// BuildSnapshot derives the advisories, line timelines and uptime of overview.
func BuildSnapshot(overview models.Overview, lines []models.Line, now time.Time, days int, loc *time.Location) Snapshot {
	if len(lines) == 0 {
		lines = overview.Lines
	}
	return Snapshot{
		Overview:   overview,
		Advisories: metrics.SummariseAdvisories(overview.IssuesActiveNow, overview.IssuesActiveToday),
		Timelines:  history.BuildLineTimelines(overview.Dates, lines, now, days, loc),
		Uptime:     metrics.ComputeLineUptime(overview.Dates, lines, now, days, loc),
		FetchedAt:  now.UTC(),
	}
}

func (m *Monitor) run() {
	defer close(m.doneCh)

	if _, err := m.RunOnce(m.ctx); err != nil {
		m.log.Error("initial overview refresh failed", "error", err)
	}

	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := m.RunOnce(m.ctx); err != nil {
				m.log.Warn("overview refresh failed", "error", err)
			}
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) lines(overview models.Overview) []models.Line {
	if m.opts.Lines != nil {
		if lines := m.opts.Lines.Lines(); len(lines) > 0 {
			return lines
		}
	}
	return overview.Lines
}

// publish replaces any unread snapshot with snap.
func publish(ch chan Snapshot, snap Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func collectIssues(overview models.Overview, stats *models.Statistics) []models.IssueRef {
	var refs []models.IssueRef
	for _, issue := range overview.IssuesActiveNow {
		refs = append(refs, issue.Ref())
	}
	for _, issue := range overview.IssuesActiveToday {
		refs = append(refs, issue.Ref())
	}
	refs = appendDateIssues(refs, overview.Dates)
	if stats != nil {
		for _, issue := range stats.IssuesOngoing {
			refs = append(refs, issue.Ref())
		}
		for _, issue := range stats.IssuesDisruptionLongest {
			refs = append(refs, issue.Ref())
		}
		refs = appendDateIssues(refs, stats.Dates)
	}
	return refs
}

func appendDateIssues(refs []models.IssueRef, dates map[string]models.DateSummary) []models.IssueRef {
	for _, summary := range dates {
		refs = append(refs, summary.Issues...)
	}
	return refs
}
