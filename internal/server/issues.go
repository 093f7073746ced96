package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/foldaway/mrtdown-site-sub000/internal/history"
	"github.com/foldaway/mrtdown-site-sub000/internal/metrics"
	"github.com/foldaway/mrtdown-site-sub000/internal/models"
)

type issueResponse struct {
	Issue             models.Issue `json:"issue"`
	Card              *issueCard   `json:"card"`
	TotalDurationMs   int64        `json:"totalDurationMs"`
	TotalDurationText string       `json:"totalDurationText"`
}

type historyResponse struct {
	Context history.CardContext `json:"context"`
	StartAt time.Time           `json:"startAt"`
	Issues  []issueCard         `json:"issues"`
}

type searchHit struct {
	ID    string           `json:"id"`
	Type  models.IssueType `json:"type"`
	Title string           `json:"title"`
	Score float64          `json:"score"`
}

func (s *Server) handleIssue(c *gin.Context) {
	ctx, err := history.ParseCardContext(c.Query("context"), c.Query("date"), c.Query("days"), s.opts.Location)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}

	issue, err := s.upstream.FetchIssue(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, upstreamStatus(err), err)
		return
	}

	f := formatter(c)
	now := s.opts.Now()
	total := metrics.IssueDuration(issue, now).Milliseconds()
	resp := issueResponse{
		Issue:             issue,
		TotalDurationMs:   total,
		TotalDurationText: f.Duration(total),
	}
	if card, ok := newIssueCard(issue, ctx, now, f); ok {
		resp.Card = &card
	}
	writeJSON(c, http.StatusOK, resp)
}

func (s *Server) handleHistoryDays(c *gin.Context) {
	date, ok := s.parseDateParam(c)
	if !ok {
		return
	}
	days := 1
	if raw := strings.TrimSpace(c.Query("days")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxHistoryDays {
			writeError(c, http.StatusBadRequest, fmt.Errorf("%w: days must be between 1 and %d", history.ErrInvalidContext, maxHistoryDays))
			return
		}
		days = n
	}

	result, err := s.upstream.FetchHistoryDays(c.Request.Context(), date, days)
	if err != nil {
		writeError(c, upstreamStatus(err), err)
		return
	}
	s.writeHistory(c, history.HistoryDaysContext(date, days), result)
}

func (s *Server) handleHistoryWeek(c *gin.Context) {
	date, ok := s.parseDateParam(c)
	if !ok {
		return
	}
	result, err := s.upstream.FetchHistoryWeek(c.Request.Context(), date)
	if err != nil {
		writeError(c, upstreamStatus(err), err)
		return
	}
	s.writeHistory(c, history.HistoryWeekContext(date), result)
}

func (s *Server) writeHistory(c *gin.Context, ctx history.CardContext, result models.History) {
	startAt := result.StartAt
	if startAt.IsZero() {
		startAt = ctx.Date
	}
	writeJSON(c, http.StatusOK, historyResponse{
		Context: ctx,
		StartAt: startAt,
		Issues:  newIssueCards(result.Issues, ctx, s.opts.Now(), formatter(c)),
	})
}

func (s *Server) parseDateParam(c *gin.Context) (time.Time, bool) {
	raw := c.Param("date")
	date, err := time.ParseInLocation("2006-01-02", raw, s.opts.Location)
	if err != nil {
		writeError(c, http.StatusBadRequest, fmt.Errorf("%w: date %q", history.ErrInvalidContext, raw))
		return time.Time{}, false
	}
	return date, true
}

func (s *Server) handleSearch(c *gin.Context) {
	if s.opts.Index == nil {
		writeJSON(c, http.StatusServiceUnavailable, gin.H{"error": "search disabled"})
		return
	}
	limit := defaultSearchLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	results, err := s.opts.Index.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}

	lang := formatter(c).Lang()
	hits := make([]searchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, searchHit{ID: r.Issue.ID, Type: r.Issue.Type, Title: r.Issue.LocalizedTitle(lang), Score: r.Score})
	}
	writeJSON(c, http.StatusOK, gin.H{"query": c.Query("q"), "results": hits})
}
