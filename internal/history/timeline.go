package history

import (
	"sort"
	"strings"
	"time"

	"github.com/foldaway/mrtdown-site-sub000/internal/models"
)

const (
	// DefaultTimelineDays controls how many day points we generate per line.
	DefaultTimelineDays = 90
	maxDetailsPerPoint  = 4
)

var stateByType = map[models.IssueType][2]string{
	models.IssueTypeDisruption:  {"state-disruption", "Disrupted"},
	models.IssueTypeMaintenance: {"state-maintenance", "Maintenance"},
	models.IssueTypeInfra:       {"state-infra", "Infrastructure works"},
}

// BuildLineTimelines converts per-date summaries into one day-point timeline
// per line, ending on the day containing end. Catalogue lines keep their
// order; lines only seen in the data follow, sorted by name.
func BuildLineTimelines(
	dates map[string]models.DateSummary,
	lines []models.Line,
	end time.Time,
	days int,
	loc *time.Location,
) []models.LineTimeline {
	if days <= 0 {
		days = DefaultTimelineDays
	}
	if loc == nil {
		loc = time.UTC
	}
	end = end.In(loc)
	lastDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)
	firstDay := lastDay.AddDate(0, 0, -(days - 1))

	known := make(map[string]models.Line, len(lines))
	ordered := make([]models.Line, 0, len(lines))
	for _, line := range lines {
		if line.ID == "" {
			continue
		}
		if _, ok := known[line.ID]; ok {
			continue
		}
		if line.Name == "" {
			line.Name = line.ID
		}
		known[line.ID] = line
		ordered = append(ordered, line)
	}

	var extra []models.Line
	for _, summary := range dates {
		for lineID := range summary.ComponentIssueTypesDurationMs {
			if _, ok := known[lineID]; ok || lineID == "" {
				continue
			}
			line := models.Line{ID: lineID, Name: lineID}
			known[lineID] = line
			extra = append(extra, line)
		}
	}
	sort.Slice(extra, func(i, j int) bool {
		return strings.ToLower(extra[i].Name) < strings.ToLower(extra[j].Name)
	})
	ordered = append(ordered, extra...)

	if len(ordered) == 0 {
		return nil
	}

	result := make([]models.LineTimeline, 0, len(ordered))
	for _, line := range ordered {
		result = append(result, models.LineTimeline{
			LineID:   line.ID,
			LineName: line.Name,
			Color:    line.Color,
			Timeline: buildTimeline(dates, line, firstDay, days),
		})
	}
	return result
}

func buildTimeline(dates map[string]models.DateSummary, line models.Line, first time.Time, days int) []models.TimelinePoint {
	output := make([]models.TimelinePoint, 0, days)
	startedAt := lineStart(line, first.Location())
	for i := 0; i < days; i++ {
		dayStart := first.AddDate(0, 0, i)
		dayEnd := dayStart.AddDate(0, 0, 1)
		point := models.TimelinePoint{Start: dayStart, End: dayEnd}
		if !startedAt.IsZero() && !dayEnd.After(startedAt) {
			point.ClassName, point.Label = "state-missing", "Not in service"
		} else {
			summary, ok := dates[dayStart.Format("2006-01-02")]
			if ok {
				point.ClassName, point.Label, point.Details = evaluateDay(summary, line.ID)
			} else {
				point.ClassName, point.Label = "state-success", "Operational"
			}
		}
		output = append(output, point)
	}
	return output
}

func evaluateDay(summary models.DateSummary, lineID string) (className, label string, details []models.TimelineDetail) {
	durations := summary.ComponentIssueTypesDurationMs[lineID]
	for _, issueType := range models.IssueTypes {
		if durations[issueType] <= 0 {
			continue
		}
		state := stateByType[issueType]
		return state[0], state[1], collectDetails(summary, lineID)
	}
	return "state-success", "Operational", nil
}

func collectDetails(summary models.DateSummary, lineID string) []models.TimelineDetail {
	details := make([]models.TimelineDetail, 0, maxDetailsPerPoint)
	durations := summary.ComponentIssueTypesDurationMs[lineID]
	for _, issue := range summary.Issues {
		if len(details) >= maxDetailsPerPoint {
			break
		}
		if !containsLine(issue.LineIDs, lineID) {
			continue
		}
		details = append(details, models.TimelineDetail{
			IssueID:    issue.ID,
			Type:       issue.Type,
			Title:      issue.Title,
			DurationMs: durations[issue.Type],
		})
	}
	return details
}

func containsLine(lineIDs []string, lineID string) bool {
	for _, id := range lineIDs {
		if id == lineID {
			return true
		}
	}
	return false
}

func lineStart(line models.Line, loc *time.Location) time.Time {
	if line.StartedAt == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation("2006-01-02", line.StartedAt, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}
