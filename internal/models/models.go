package models

import (
	"time"
)

// IssueType classifies a reported service event.
type IssueType string

const (
	IssueTypeDisruption  IssueType = "disruption"
	IssueTypeMaintenance IssueType = "maintenance"
	IssueTypeInfra       IssueType = "infra"
)

// IssueTypes lists every issue type in display order.
var IssueTypes = []IssueType{IssueTypeDisruption, IssueTypeMaintenance, IssueTypeInfra}

// Valid reports whether t is one of the known issue types.
func (t IssueType) Valid() bool {
	switch t {
	case IssueTypeDisruption, IssueTypeMaintenance, IssueTypeInfra:
		return true
	}
	return false
}

// IntervalStatus is supplied by the API for each interval; it is never derived locally.
type IntervalStatus string

const (
	IntervalOngoing IntervalStatus = "ongoing"
	IntervalEnded   IntervalStatus = "ended"
	IntervalFuture  IntervalStatus = "future"
)

// IssueInterval is a contiguous span during which an issue held one status.
// A nil EndAt means the interval is still open.
type IssueInterval struct {
	StartAt time.Time      `json:"startAt"`
	EndAt   *time.Time     `json:"endAt,omitempty"`
	Status  IntervalStatus `json:"status"`
}

// EffectiveEnd returns EndAt, or now when the interval is still open.
func (i IssueInterval) EffectiveEnd(now time.Time) time.Time {
	if i.EndAt == nil {
		return now
	}
	return *i.EndAt
}

// BranchRef points at the part of a line an issue affects.
type BranchRef struct {
	LineID     string   `json:"lineId"`
	BranchID   string   `json:"branchId"`
	StationIDs []string `json:"stationIds,omitempty"`
}

// IssueRef is the interval-less issue reference carried by date summaries.
type IssueRef struct {
	ID                string            `json:"id"`
	Type              IssueType         `json:"type"`
	Title             string            `json:"title"`
	TitleTranslations map[string]string `json:"titleTranslations,omitempty"`
	LineIDs           []string          `json:"lineIds,omitempty"`
}

// LocalizedTitle returns the translation for lang, falling back to the plain title.
func (r IssueRef) LocalizedTitle(lang string) string {
	if title, ok := r.TitleTranslations[lang]; ok && title != "" {
		return title
	}
	return r.Title
}

// Issue is a reported disruption, maintenance activity or infrastructure work item.
type Issue struct {
	ID                string            `json:"id"`
	Type              IssueType         `json:"type"`
	Title             string            `json:"title"`
	TitleTranslations map[string]string `json:"titleTranslations,omitempty"`
	LineIDs           []string          `json:"lineIds"`
	Branches          []BranchRef       `json:"branches,omitempty"`
	Subtypes          []string          `json:"subtypes,omitempty"`
	Intervals         []IssueInterval   `json:"intervals"`
}

// Ref strips the intervals from an issue.
func (i Issue) Ref() IssueRef {
	return IssueRef{
		ID:                i.ID,
		Type:              i.Type,
		Title:             i.Title,
		TitleTranslations: i.TitleTranslations,
		LineIDs:           i.LineIDs,
	}
}

// LocalizedTitle returns the translation for lang, falling back to the plain title.
func (i Issue) LocalizedTitle(lang string) string {
	if title, ok := i.TitleTranslations[lang]; ok && title != "" {
		return title
	}
	return i.Title
}

// DateSummary is the API's pre-aggregated rollup for one calendar date.
type DateSummary struct {
	IssueTypesDurationMs          map[IssueType]int64            `json:"issueTypesDurationMs"`
	ComponentIssueTypesDurationMs map[string]map[IssueType]int64 `json:"componentIdsIssueTypesDurationMs,omitempty"`
	Issues                        []IssueRef                     `json:"issues"`
}

// Overview is the payload behind the landing page.
type Overview struct {
	IssuesActiveNow   []Issue                `json:"issuesActiveNow"`
	IssuesActiveToday []Issue                `json:"issuesActiveToday"`
	Dates             map[string]DateSummary `json:"dates"`
	Lines             []Line                 `json:"lines,omitempty"`
	LastUpdatedAt     time.Time              `json:"lastUpdatedAt"`
}

// Statistics is the payload behind the statistics dashboard.
type Statistics struct {
	Dates                         map[string]DateSummary `json:"dates"`
	IssuesOngoing                 []Issue                `json:"issuesOngoing"`
	IssuesDisruptionLongest       []Issue                `json:"issuesDisruptionLongest"`
	IssuesDisruptionHistoricCount int                    `json:"issuesDisruptionHistoricalCount"`
	LastUpdatedAt                 time.Time              `json:"lastUpdatedAt"`
}

// History lists the issues active around a historical date.
type History struct {
	StartAt time.Time `json:"startAt"`
	Issues  []Issue   `json:"issues"`
}

// Line describes an MRT or LRT line.
type Line struct {
	ID               string            `json:"id" yaml:"id"`
	Name             string            `json:"name" yaml:"name"`
	Color            string            `json:"color" yaml:"color"`
	Kind             string            `json:"kind,omitempty" yaml:"kind"`
	NameTranslations map[string]string `json:"nameTranslations,omitempty" yaml:"name_translations"`
	StartedAt        string            `json:"startedAt,omitempty" yaml:"started_at"`
}
