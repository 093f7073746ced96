package models

import "time"

// TimelinePoint represents a single day in a line timeline.
type TimelinePoint struct {
	ClassName string           `json:"className"`
	Label     string           `json:"label"`
	Start     time.Time        `json:"start"`
	End       time.Time        `json:"end"`
	Details   []TimelineDetail `json:"details,omitempty"`
}

// TimelineDetail carries the issues behind a problematic day.
type TimelineDetail struct {
	IssueID    string    `json:"issueId"`
	Type       IssueType `json:"type"`
	Title      string    `json:"title"`
	DurationMs int64     `json:"durationMs,omitempty"`
}

// LineTimeline aggregates timeline points for a single line.
type LineTimeline struct {
	LineID   string          `json:"lineId"`
	LineName string          `json:"lineName"`
	Color    string          `json:"color,omitempty"`
	Timeline []TimelinePoint `json:"timeline"`
}
