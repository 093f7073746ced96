package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foldaway/mrtdown-site-sub000/internal/models"
)

type fakeSource struct {
	mu          sync.Mutex
	overview    models.Overview
	overviewErr error
	statsErr    error
	calls       int
}

func (f *fakeSource) FetchOverview(context.Context) (models.Overview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.overview, f.overviewErr
}

func (f *fakeSource) FetchStatistics(context.Context) (models.Statistics, error) {
	if f.statsErr != nil {
		return models.Statistics{}, f.statsErr
	}
	return models.Statistics{
		IssuesDisruptionLongest: []models.Issue{{ID: "2019-longest", Type: models.IssueTypeDisruption, Title: "Longest"}},
	}, nil
}

func (f *fakeSource) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overviewErr = err
}

type recordingIndex struct {
	mu     sync.Mutex
	issues []models.IssueRef
}

func (r *recordingIndex) Replace(issues []models.IssueRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issues = issues
	return nil
}

type staticLines []models.Line

func (s staticLines) Lines() []models.Line { return s }

var fixedNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func sampleOverview() models.Overview {
	return models.Overview{
		IssuesActiveNow: []models.Issue{
			{ID: "nsl-fault", Type: models.IssueTypeDisruption, Title: "Track fault", LineIDs: []string{"NSL"}},
		},
		IssuesActiveToday: []models.Issue{
			{ID: "nsl-fault", Type: models.IssueTypeDisruption, Title: "Track fault", LineIDs: []string{"NSL"}},
			{ID: "ccl-works", Type: models.IssueTypeMaintenance, Title: "Early closure", LineIDs: []string{"CCL"}},
		},
		Dates: map[string]models.DateSummary{
			"2024-06-15": {
				ComponentIssueTypesDurationMs: map[string]map[models.IssueType]int64{
					"NSL": {models.IssueTypeDisruption: 3600000},
				},
			},
		},
	}
}

func newTestMonitor(src Source, idx Indexer) *Monitor {
	return New(src, Options{
		TimelineDays: 7,
		Lines:        staticLines{{ID: "NSL", Name: "North South Line"}, {ID: "CCL", Name: "Circle Line"}},
		Index:        idx,
		Now:          func() time.Time { return fixedNow },
	})
}

func TestRunOnceBuildsSnapshot(t *testing.T) {
	idx := &recordingIndex{}
	m := newTestMonitor(&fakeSource{overview: sampleOverview()}, idx)

	_, ok := m.Latest()
	assert.False(t, ok)

	snap, err := m.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, snap.Advisories.IssueCountsByType[models.IssueTypeDisruption])
	assert.Equal(t, 1, snap.Advisories.IssueCountsByType[models.IssueTypeMaintenance])
	assert.Equal(t, []string{"CCL"}, snap.Advisories.IssueLineIDsByType[models.IssueTypeMaintenance])
	require.Len(t, snap.Timelines, 2)
	assert.Len(t, snap.Timelines[0].Timeline, 7)
	require.Len(t, snap.Uptime, 2)
	assert.Equal(t, fixedNow, snap.FetchedAt)

	latest, ok := m.Latest()
	require.True(t, ok)
	assert.Equal(t, snap, latest)

	ids := make([]string, 0, len(idx.issues))
	for _, issue := range idx.issues {
		ids = append(ids, issue.ID)
	}
	assert.Contains(t, ids, "nsl-fault")
	assert.Contains(t, ids, "ccl-works")
	assert.Contains(t, ids, "2019-longest")

	health := m.Health()
	assert.Equal(t, fixedNow, health.LastSuccessAt)
	assert.True(t, health.Healthy(fixedNow.Add(time.Minute), 5*time.Minute))
}

func TestRunOnceIndexesOverviewWhenStatisticsFail(t *testing.T) {
	idx := &recordingIndex{}
	m := newTestMonitor(&fakeSource{overview: sampleOverview(), statsErr: errors.New("boom")}, idx)

	_, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	for _, issue := range idx.issues {
		assert.NotEqual(t, "2019-longest", issue.ID)
	}
	assert.NotEmpty(t, idx.issues)
}

func TestRunOnceFailureKeepsPreviousSnapshot(t *testing.T) {
	src := &fakeSource{overview: sampleOverview()}
	m := newTestMonitor(src, nil)

	first, err := m.RunOnce(context.Background())
	require.NoError(t, err)

	src.setErr(errors.New("upstream down"))
	_, err = m.RunOnce(context.Background())
	require.Error(t, err)
	_, err = m.RunOnce(context.Background())
	require.Error(t, err)

	latest, ok := m.Latest()
	require.True(t, ok)
	assert.Equal(t, first, latest)

	health := m.Health()
	assert.Equal(t, 2, health.ConsecutiveFailures)
	assert.Equal(t, "upstream down", health.LastError)

	polls := m.HistorySince(time.Time{})
	require.Len(t, polls, 3)
	assert.True(t, polls[0].OK)
	assert.False(t, polls[2].OK)
	assert.Empty(t, m.HistorySince(fixedNow.Add(time.Second)))
}

func TestSubscribeReceivesNewestSnapshot(t *testing.T) {
	m := newTestMonitor(&fakeSource{overview: sampleOverview()}, nil)

	ch, unsubscribe := m.Subscribe()
	defer unsubscribe()

	_, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	_, err = m.RunOnce(context.Background())
	require.NoError(t, err)

	select {
	case snap := <-ch:
		assert.Equal(t, fixedNow, snap.FetchedAt)
	default:
		t.Fatal("expected a snapshot")
	}
	select {
	case <-ch:
		t.Fatal("stale snapshot was not dropped")
	default:
	}

	unsubscribe()
	_, err = m.RunOnce(context.Background())
	require.NoError(t, err)
	select {
	case <-ch:
		t.Fatal("unsubscribed channel received a snapshot")
	default:
	}
}

func TestStartStop(t *testing.T) {
	src := &fakeSource{overview: sampleOverview()}
	m := newTestMonitor(src, nil)
	ch, unsubscribe := m.Subscribe()
	defer unsubscribe()

	m.Start()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("initial refresh did not run")
	}
	m.Stop()
	m.Stop()

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Equal(t, 1, src.calls)
}

func TestStopWithoutStart(t *testing.T) {
	src := &fakeSource{overview: sampleOverview()}
	m := newTestMonitor(src, nil)

	stopped := make(chan struct{})
	go func() {
		m.Stop()
		m.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop blocked on a monitor that never started")
	}

	m.Start()
	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Zero(t, src.calls)
}

func TestConcurrentStop(t *testing.T) {
	m := newTestMonitor(&fakeSource{overview: sampleOverview()}, nil)
	m.Start()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Stop()
		}()
	}

	stopped := make(chan struct{})
	go func() {
		wg.Wait()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("concurrent Stop calls did not return")
	}
}
