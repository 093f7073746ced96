package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/foldaway/mrtdown-site-sub000/internal/history"
	"github.com/foldaway/mrtdown-site-sub000/internal/locale"
	"github.com/foldaway/mrtdown-site-sub000/internal/logger"
	"github.com/foldaway/mrtdown-site-sub000/internal/models"
	"github.com/foldaway/mrtdown-site-sub000/internal/monitor"
	"github.com/foldaway/mrtdown-site-sub000/internal/monitoring"
	"github.com/foldaway/mrtdown-site-sub000/internal/search"
	"github.com/foldaway/mrtdown-site-sub000/internal/trend"
	"github.com/foldaway/mrtdown-site-sub000/internal/upstream"
)

// Upstream is the API client used by request handlers.
type Upstream interface {
	FetchOverview(ctx context.Context) (models.Overview, error)
	FetchStatistics(ctx context.Context) (models.Statistics, error)
	FetchIssue(ctx context.Context, id string) (models.Issue, error)
	FetchHistoryDays(ctx context.Context, date time.Time, days int) (models.History, error)
	FetchHistoryWeek(ctx context.Context, date time.Time) (models.History, error)
}

// OverviewFeed is the background poller.
type OverviewFeed interface {
	Latest() (monitor.Snapshot, bool)
	Subscribe() (<-chan monitor.Snapshot, func())
	Health() monitor.Health
	HistorySince(cutoff time.Time) []monitor.PollResult
}

// Searcher looks up issues by free text.
type Searcher interface {
	Search(ctx context.Context, q string, limit int) ([]search.Result, error)
}

// LineSource supplies the line catalogue.
type LineSource interface {
	Lines() []models.Line
}

// Options wires optional collaborators and request defaults.
type Options struct {
	Addr         string
	Location     *time.Location
	TimelineDays int
	MaxStaleness time.Duration
	Feed         OverviewFeed
	Index        Searcher
	Lines        LineSource
	Logger       logger.Logger
	Now          func() time.Time
}

const (
	maxHistoryDays     = 31
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// Server wraps the HTTP API.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	upstream   Upstream
	opts       Options
	log        logger.Logger
}

// New creates a configured HTTP server.
func New(up Upstream, opts Options) *Server {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.TimelineDays <= 0 {
		opts.TimelineDays = history.DefaultTimelineDays
	}
	if opts.MaxStaleness <= 0 {
		opts.MaxStaleness = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	engine := gin.New()
	s := &Server{
		httpServer: &http.Server{Addr: opts.Addr, Handler: engine, ReadHeaderTimeout: 10 * time.Second},
		engine:     engine,
		upstream:   up,
		opts:       opts,
		log:        opts.Logger,
	}
	s.registerRoutes(engine)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run blocks and serves HTTP traffic.
func (s *Server) Run() error {
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.Use(gin.Recovery(), RequestID(), RequestLogger(s.log), monitoring.HTTPMetricsMiddleware())

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(monitoring.Handler()))
	r.GET("/ws/overview", s.handleOverviewWS)

	api := r.Group("/api")
	api.GET("/overview", s.handleOverview)
	api.GET("/statistics", s.handleStatistics)
	api.GET("/statistics/trends", s.handleTrends)
	api.GET("/issues/:id", s.handleIssue)
	api.GET("/history/days/:date", s.handleHistoryDays)
	api.GET("/history/week/:date", s.handleHistoryWeek)
	api.GET("/search", s.handleSearch)
}

func (s *Server) handleHealth(c *gin.Context) {
	now := s.opts.Now()
	if s.opts.Feed == nil {
		writeJSON(c, http.StatusOK, gin.H{"status": "ok", "time": now.UTC()})
		return
	}
	health := s.opts.Feed.Health()
	status, code := "ok", http.StatusOK
	if !health.Healthy(now, s.opts.MaxStaleness) {
		status, code = "stale", http.StatusServiceUnavailable
	}
	writeJSON(c, code, gin.H{
		"status": status,
		"time":   now.UTC(),
		"poller": health,
		"polls":  s.opts.Feed.HistorySince(now.Add(-s.opts.MaxStaleness)),
	})
}

// formatter negotiates the response locale from ?lang= or Accept-Language.
func formatter(c *gin.Context) *locale.Formatter {
	if lang := c.Query("lang"); lang != "" {
		return locale.ForAcceptLanguage(lang)
	}
	return locale.ForAcceptLanguage(c.GetHeader("Accept-Language"))
}

func (s *Server) trendOptions(f *locale.Formatter) trend.Options {
	return trend.Options{Now: s.opts.Now(), Location: s.opts.Location, Labels: f}
}

func (s *Server) lines() []models.Line {
	if s.opts.Lines == nil {
		return nil
	}
	return s.opts.Lines.Lines()
}

func writeJSON(c *gin.Context, status int, payload any) {
	c.PureJSON(status, payload)
}

func writeError(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	writeJSON(c, status, gin.H{
		"error":     err.Error(),
		"requestId": c.GetString(requestIDKey),
	})
}

// upstreamStatus maps fetch and aggregation failures to a response status.
func upstreamStatus(err error) int {
	switch {
	case upstream.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, trend.ErrInvalidBucket), errors.Is(err, history.ErrInvalidContext):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusBadGateway
	}
}
