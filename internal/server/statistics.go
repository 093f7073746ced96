package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/foldaway/mrtdown-site-sub000/internal/history"
	"github.com/foldaway/mrtdown-site-sub000/internal/locale"
	"github.com/foldaway/mrtdown-site-sub000/internal/metrics"
	"github.com/foldaway/mrtdown-site-sub000/internal/models"
	"github.com/foldaway/mrtdown-site-sub000/internal/trend"
)

type statisticsResponse struct {
	Trends                        []trendResponse         `json:"trends"`
	DurationStats                 []metrics.DurationStats `json:"durationStats"`
	IssuesOngoing                 []issueCard             `json:"issuesOngoing"`
	IssuesDisruptionLongest       []issueCard             `json:"issuesDisruptionLongest"`
	IssuesDisruptionHistoricCount int                     `json:"issuesDisruptionHistoricalCount"`
	Presets                       []trend.Bucket          `json:"presets"`
	Lang                          string                  `json:"lang"`
	LastUpdatedAt                 time.Time               `json:"lastUpdatedAt"`
}

type trendResponse struct {
	trend.Card
	CurrentText string `json:"currentText"`
	DeltaText   string `json:"deltaText"`
}

func (s *Server) handleStatistics(c *gin.Context) {
	stats, err := s.upstream.FetchStatistics(c.Request.Context())
	if err != nil {
		writeError(c, upstreamStatus(err), err)
		return
	}

	f := formatter(c)
	now := s.opts.Now()
	opts := s.trendOptions(f)

	trends := make([]trendResponse, 0, 2)
	for _, mode := range []trend.Mode{trend.ModeCount, trend.ModeDuration} {
		card, err := trend.BuildCard(stats.Dates, trend.DefaultBucket, mode, opts)
		if err != nil {
			writeError(c, trendStatus(err), err)
			return
		}
		trends = append(trends, newTrendResponse(card, f))
	}

	issues := make([]models.Issue, 0, len(stats.IssuesOngoing)+len(stats.IssuesDisruptionLongest))
	issues = append(issues, stats.IssuesOngoing...)
	issues = append(issues, stats.IssuesDisruptionLongest...)

	writeJSON(c, http.StatusOK, statisticsResponse{
		Trends:                        trends,
		DurationStats:                 metrics.ComputeDurationStats(issues, now),
		IssuesOngoing:                 newIssueCards(stats.IssuesOngoing, history.NowContext(), now, f),
		IssuesDisruptionLongest:       newIssueCards(stats.IssuesDisruptionLongest, history.NowContext(), now, f),
		IssuesDisruptionHistoricCount: stats.IssuesDisruptionHistoricCount,
		Presets:                       trend.Presets,
		Lang:                          f.Lang(),
		LastUpdatedAt:                 stats.LastUpdatedAt,
	})
}

func (s *Server) handleTrends(c *gin.Context) {
	bucket, err := trend.ParseBucket(c.Query("unit"), c.Query("count"))
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	mode := trend.Mode(strings.ToLower(strings.TrimSpace(c.Query("mode"))))
	if _, ok := mode.Factory(); !ok {
		writeError(c, http.StatusBadRequest, fmt.Errorf("%w: unknown mode %q", trend.ErrInvalidBucket, mode))
		return
	}

	stats, err := s.upstream.FetchStatistics(c.Request.Context())
	if err != nil {
		writeError(c, upstreamStatus(err), err)
		return
	}

	f := formatter(c)
	card, err := trend.BuildCard(stats.Dates, bucket, mode, s.trendOptions(f))
	if err != nil {
		writeError(c, trendStatus(err), err)
		return
	}
	writeJSON(c, http.StatusOK, newTrendResponse(card, f))
}

func newTrendResponse(card trend.Card, f *locale.Formatter) trendResponse {
	resp := trendResponse{Card: card}
	if card.Mode == trend.ModeDuration {
		resp.CurrentText = f.Duration(card.Change.Current)
		resp.DeltaText = f.SignedDuration(card.Change.Delta)
		return resp
	}
	resp.CurrentText = f.Number(card.Change.Current)
	resp.DeltaText = f.SignedNumber(card.Change.Delta)
	return resp
}

// trendStatus maps aggregation failures. Malformed upstream data and any
// other failure surface as 502; a bad bucket is the caller's fault.
func trendStatus(err error) int {
	switch {
	case errors.Is(err, trend.ErrInvalidBucket), errors.Is(err, trend.ErrInsufficientRows):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
