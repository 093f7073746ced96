package metrics

import (
	"math"
	"time"

	"github.com/foldaway/mrtdown-site-sub000/internal/models"
)

// LineUptime summarises how much of a window a line ran without disruption.
type LineUptime struct {
	LineID        string  `json:"lineId"`
	Name          string  `json:"name"`
	UptimePercent float64 `json:"uptimePercent"`
	DisruptedMs   int64   `json:"disruptedMs"`
	DaysAffected  int     `json:"daysAffected"`
	WindowDays    int     `json:"windowDays"`
}

// ComputeLineUptime aggregates disruption time per line over the days window
// ending on the day containing end.
func ComputeLineUptime(dates map[string]models.DateSummary, lines []models.Line, end time.Time, days int, loc *time.Location) []LineUptime {
	if days <= 0 || len(lines) == 0 {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	end = end.In(loc)
	lastDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)

	type acc struct {
		disrupted int64
		days      int
	}
	state := make(map[string]*acc, len(lines))
	for _, line := range lines {
		state[line.ID] = &acc{}
	}
	for i := 0; i < days; i++ {
		key := lastDay.AddDate(0, 0, -i).Format("2006-01-02")
		summary, ok := dates[key]
		if !ok {
			continue
		}
		for lineID, durations := range summary.ComponentIssueTypesDurationMs {
			target := state[lineID]
			if target == nil {
				continue
			}
			ms := durations[models.IssueTypeDisruption]
			if ms <= 0 {
				continue
			}
			target.disrupted += ms
			target.days++
		}
	}

	window := float64((time.Duration(days) * 24 * time.Hour).Milliseconds())
	results := make([]LineUptime, 0, len(lines))
	for _, line := range lines {
		data := state[line.ID]
		uptime := (window - float64(data.disrupted)) / window * 100
		if uptime < 0 {
			uptime = 0
		}
		name := line.Name
		if name == "" {
			name = line.ID
		}
		results = append(results, LineUptime{
			LineID:        line.ID,
			Name:          name,
			UptimePercent: round2(uptime),
			DisruptedMs:   data.disrupted,
			DaysAffected:  data.days,
			WindowDays:    days,
		})
	}
	return results
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
