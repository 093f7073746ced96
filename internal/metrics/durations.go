package metrics

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/foldaway/mrtdown-site-sub000/internal/models"
)

// DurationStats describes the distribution of issue durations of one type.
type DurationStats struct {
	Type     models.IssueType `json:"type"`
	Count    int              `json:"count"`
	TotalMs  int64            `json:"totalMs"`
	MeanMs   int64            `json:"meanMs"`
	MedianMs int64            `json:"medianMs"`
	P95Ms    int64            `json:"p95Ms"`
	MaxMs    int64            `json:"maxMs"`
}

// IssueDuration sums the elapsed part of every interval; future intervals
// and the unelapsed part of open ones do not count.
func IssueDuration(issue models.Issue, now time.Time) time.Duration {
	var total time.Duration
	for _, interval := range issue.Intervals {
		if interval.Status == models.IntervalFuture || interval.StartAt.After(now) {
			continue
		}
		end := interval.EffectiveEnd(now)
		if end.After(now) {
			end = now
		}
		if end.After(interval.StartAt) {
			total += end.Sub(interval.StartAt)
		}
	}
	return total
}

// ComputeDurationStats returns one entry per issue type, in display order.
// Issues are de-duplicated by id.
func ComputeDurationStats(issues []models.Issue, now time.Time) []DurationStats {
	samples := make(map[models.IssueType][]float64, len(models.IssueTypes))
	seen := make(map[string]struct{}, len(issues))
	for _, issue := range issues {
		if _, ok := seen[issue.ID]; ok {
			continue
		}
		seen[issue.ID] = struct{}{}
		ms := float64(IssueDuration(issue, now).Milliseconds())
		samples[issue.Type] = append(samples[issue.Type], ms)
	}

	results := make([]DurationStats, 0, len(models.IssueTypes))
	for _, issueType := range models.IssueTypes {
		xs := samples[issueType]
		entry := DurationStats{Type: issueType, Count: len(xs)}
		if len(xs) > 0 {
			sort.Float64s(xs)
			entry.TotalMs = int64(floats.Sum(xs))
			entry.MeanMs = int64(stat.Mean(xs, nil))
			entry.MedianMs = int64(stat.Quantile(0.5, stat.Empirical, xs, nil))
			entry.P95Ms = int64(stat.Quantile(0.95, stat.Empirical, xs, nil))
			entry.MaxMs = int64(floats.Max(xs))
		}
		results = append(results, entry)
	}
	return results
}
