package trend

import (
	"github.com/foldaway/mrtdown-site-sub000/internal/models"
)

// Accumulator folds the date summaries that fall into one bucket.
type Accumulator interface {
	Add(summary models.DateSummary)
	// Values returns one entry per known issue type, zero when nothing was added.
	Values() map[models.IssueType]int64
}

// Mode selects which accumulator a trend card uses.
type Mode string

const (
	ModeCount    Mode = "count"
	ModeDuration Mode = "duration"
)

// Factory returns the accumulator constructor for a mode.
func (m Mode) Factory() (func() Accumulator, bool) {
	switch m {
	case ModeCount, "":
		return NewCountAccumulator, true
	case ModeDuration:
		return NewDurationAccumulator, true
	}
	return nil, false
}

// CountAccumulator counts distinct issues per type. An issue listed on
// several dates of the same bucket is counted once.
type CountAccumulator struct {
	ids map[models.IssueType]map[string]struct{}
}

// NewCountAccumulator returns an empty CountAccumulator.
func NewCountAccumulator() Accumulator {
	return &CountAccumulator{ids: make(map[models.IssueType]map[string]struct{})}
}

func (a *CountAccumulator) Add(summary models.DateSummary) {
	for _, issue := range summary.Issues {
		set := a.ids[issue.Type]
		if set == nil {
			set = make(map[string]struct{})
			a.ids[issue.Type] = set
		}
		set[issue.ID] = struct{}{}
	}
}

func (a *CountAccumulator) Values() map[models.IssueType]int64 {
	out := zeroValues()
	for issueType, set := range a.ids {
		out[issueType] = int64(len(set))
	}
	return out
}

// DurationAccumulator sums per-type durations in milliseconds.
type DurationAccumulator struct {
	totals map[models.IssueType]int64
}

// NewDurationAccumulator returns an empty DurationAccumulator.
func NewDurationAccumulator() Accumulator {
	return &DurationAccumulator{totals: zeroValues()}
}

func (a *DurationAccumulator) Add(summary models.DateSummary) {
	for _, issueType := range models.IssueTypes {
		a.totals[issueType] += summary.IssueTypesDurationMs[issueType]
	}
}

func (a *DurationAccumulator) Values() map[models.IssueType]int64 {
	out := make(map[models.IssueType]int64, len(a.totals))
	for k, v := range a.totals {
		out[k] = v
	}
	return out
}

func zeroValues() map[models.IssueType]int64 {
	out := make(map[models.IssueType]int64, len(models.IssueTypes))
	for _, issueType := range models.IssueTypes {
		out[issueType] = 0
	}
	return out
}
