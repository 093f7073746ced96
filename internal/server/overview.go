package server

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/foldaway/mrtdown-site-sub000/internal/history"
	"github.com/foldaway/mrtdown-site-sub000/internal/locale"
	"github.com/foldaway/mrtdown-site-sub000/internal/metrics"
	"github.com/foldaway/mrtdown-site-sub000/internal/models"
	"github.com/foldaway/mrtdown-site-sub000/internal/monitor"
	"github.com/foldaway/mrtdown-site-sub000/internal/monitoring"
)

const (
	overviewPushInterval = 60 * time.Second
	overviewWriteTimeout = 5 * time.Second
	maxOverviewBuckets   = 90

	overviewStateUnknown = "unknown"
	overviewStateOK      = "ok"
	overviewStatePlanned = "planned"
	overviewStateIssue   = "issue"
)

var overviewUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		originHost := strings.ToLower(strings.TrimSpace(u.Host))
		return host == originHost
	},
}

type overviewResponse struct {
	Advisories        metrics.AdvisorySummary `json:"advisories"`
	IssuesActiveNow   []issueCard             `json:"issuesActiveNow"`
	IssuesActiveToday []issueCard             `json:"issuesActiveToday"`
	Lines             []lineOverview          `json:"lines"`
	Lang              string                  `json:"lang"`
	LastUpdatedAt     time.Time               `json:"lastUpdatedAt"`
	FetchedAt         time.Time               `json:"fetchedAt"`
}

type lineOverview struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Color    string                 `json:"color,omitempty"`
	Uptime   *metrics.LineUptime    `json:"uptime,omitempty"`
	Timeline []models.TimelinePoint `json:"timeline,omitempty"`
	Buckets  []overviewBucket       `json:"buckets,omitempty"`
}

type overviewBucket struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	State  string    `json:"state"`
	Detail string    `json:"detail,omitempty"`
}

type timeBucket struct {
	Start time.Time
	End   time.Time
}

func (s *Server) handleOverview(c *gin.Context) {
	snap, err := s.snapshot(c.Request.Context())
	if err != nil {
		writeError(c, upstreamStatus(err), err)
		return
	}
	writeJSON(c, http.StatusOK, s.buildOverviewResponse(snap, formatter(c), parseOverviewBuckets(c)))
}

func (s *Server) handleOverviewWS(c *gin.Context) {
	if s.opts.Feed == nil {
		writeJSON(c, http.StatusServiceUnavailable, gin.H{"error": "overview feed disabled"})
		return
	}
	f := formatter(c)
	buckets := parseOverviewBuckets(c)

	conn, err := overviewUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	monitoring.WebSocketOpened()
	defer monitoring.WebSocketClosed()
	s.serveOverviewConnection(conn, f, buckets)
}

func (s *Server) serveOverviewConnection(conn *websocket.Conn, f *locale.Formatter, buckets int) {
	defer conn.Close()

	updates, unsubscribe := s.opts.Feed.Subscribe()
	defer unsubscribe()

	if snap, ok := s.opts.Feed.Latest(); ok {
		if err := writeOverviewPayload(conn, s.buildOverviewResponse(snap, f, buckets)); err != nil {
			return
		}
	}

	ticker := time.NewTicker(overviewPushInterval)
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snap := <-updates:
			if err := writeOverviewPayload(conn, s.buildOverviewResponse(snap, f, buckets)); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(overviewWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func writeOverviewPayload(conn *websocket.Conn, payload overviewResponse) error {
	_ = conn.SetWriteDeadline(time.Now().Add(overviewWriteTimeout))
	return conn.WriteJSON(payload)
}

// snapshot prefers the poller's copy and falls back to a direct fetch.
func (s *Server) snapshot(ctx context.Context) (monitor.Snapshot, error) {
	if s.opts.Feed != nil {
		if snap, ok := s.opts.Feed.Latest(); ok {
			return snap, nil
		}
	}
	overview, err := s.upstream.FetchOverview(ctx)
	if err != nil {
		return monitor.Snapshot{}, err
	}
	return monitor.BuildSnapshot(overview, s.lines(), s.opts.Now(), s.opts.TimelineDays, s.opts.Location), nil
}

func (s *Server) buildOverviewResponse(snap monitor.Snapshot, f *locale.Formatter, buckets int) overviewResponse {
	now := s.opts.Now()
	ctx := history.NowContext()

	uptime := make(map[string]metrics.LineUptime, len(snap.Uptime))
	for _, u := range snap.Uptime {
		uptime[u.LineID] = u
	}
	catalogue := make(map[string]models.Line)
	for _, line := range s.lines() {
		catalogue[line.ID] = line
	}

	lines := make([]lineOverview, 0, len(snap.Timelines))
	for _, tl := range snap.Timelines {
		item := lineOverview{ID: tl.LineID, Name: tl.LineName, Color: tl.Color}
		if line, ok := catalogue[tl.LineID]; ok {
			item.Name = localizedLineName(line, f.Lang())
		}
		if u, ok := uptime[tl.LineID]; ok {
			item.Uptime = &u
		}
		if buckets > 0 {
			item.Buckets = compactTimeline(tl.Timeline, buckets)
		} else {
			item.Timeline = tl.Timeline
		}
		lines = append(lines, item)
	}

	return overviewResponse{
		Advisories:        snap.Advisories,
		IssuesActiveNow:   newIssueCards(snap.Overview.IssuesActiveNow, ctx, now, f),
		IssuesActiveToday: newIssueCards(snap.Overview.IssuesActiveToday, ctx, now, f),
		Lines:             lines,
		Lang:              f.Lang(),
		LastUpdatedAt:     snap.Overview.LastUpdatedAt,
		FetchedAt:         snap.FetchedAt,
	}
}

func parseOverviewBuckets(c *gin.Context) int {
	raw := strings.TrimSpace(c.Query("buckets"))
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0
	}
	if value > maxOverviewBuckets {
		return maxOverviewBuckets
	}
	return value
}

// compactTimeline folds day points into count equal strips, each taking the
// most severe state among the points it covers.
func compactTimeline(points []models.TimelinePoint, count int) []overviewBucket {
	if len(points) == 0 || count <= 0 {
		return nil
	}
	if count > len(points) {
		count = len(points)
	}
	perBucket := (len(points) + count - 1) / count
	start := points[0].Start
	end := points[len(points)-1].End
	buckets := buildTimeBuckets(start, points, perBucket)
	if len(buckets) > 0 {
		buckets[len(buckets)-1].End = end
	}
	return mapTimelineToBuckets(points, buckets)
}

func buildTimeBuckets(start time.Time, points []models.TimelinePoint, perBucket int) []timeBucket {
	result := make([]timeBucket, 0, (len(points)+perBucket-1)/perBucket)
	current := start
	for i := 0; i < len(points); i += perBucket {
		last := i + perBucket - 1
		if last >= len(points) {
			last = len(points) - 1
		}
		end := points[last].End
		result = append(result, timeBucket{Start: current, End: end})
		current = end
	}
	return result
}

func mapTimelineToBuckets(points []models.TimelinePoint, buckets []timeBucket) []overviewBucket {
	result := newOverviewBuckets(buckets)
	for i, bucket := range buckets {
		state := overviewStateUnknown
		detail := ""
		for _, point := range points {
			if !bucketOverlaps(bucket, point.Start, point.End) {
				continue
			}
			pointState := timelineState(point.ClassName)
			if stateRank(pointState) > stateRank(state) {
				state = pointState
				detail = timelineDetail(point)
			}
		}
		result[i].State = state
		result[i].Detail = detail
	}
	return result
}

func bucketOverlaps(bucket timeBucket, start, end time.Time) bool {
	if start.IsZero() && end.IsZero() {
		return false
	}
	if end.Before(start) {
		end = start
	}
	return start.Before(bucket.End) && end.After(bucket.Start)
}

func timelineState(className string) string {
	switch strings.ToLower(strings.TrimSpace(className)) {
	case "state-success":
		return overviewStateOK
	case "state-maintenance", "state-infra":
		return overviewStatePlanned
	case "state-disruption":
		return overviewStateIssue
	default:
		return overviewStateUnknown
	}
}

func stateRank(state string) int {
	switch state {
	case overviewStateIssue:
		return 3
	case overviewStatePlanned:
		return 2
	case overviewStateOK:
		return 1
	default:
		return 0
	}
}

func timelineDetail(point models.TimelinePoint) string {
	if len(point.Details) > 0 {
		if detail := strings.TrimSpace(point.Details[0].Title); detail != "" {
			return detail
		}
	}
	return strings.TrimSpace(point.Label)
}

func newOverviewBuckets(buckets []timeBucket) []overviewBucket {
	result := make([]overviewBucket, len(buckets))
	for i, bucket := range buckets {
		result[i] = overviewBucket{
			Start: bucket.Start,
			End:   bucket.End,
			State: overviewStateUnknown,
		}
	}
	return result
}
