package trend

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/foldaway/mrtdown-site-sub000/internal/models"
)

// DateLayout is the layout of date keys in API date maps and of row keys.
const DateLayout = "2006-01-02"

// ErrInvalidDate reports a date key the upstream API should never have sent.
var ErrInvalidDate = errors.New("invalid date key")

// Labeler renders the human-readable label of a bucket start.
type Labeler interface {
	DayLabel(t time.Time) string
	MonthLabel(t time.Time) string
	YearLabel(t time.Time) string
}

// Options carries the clock, reporting zone and labels for Build.
type Options struct {
	Now      time.Time
	Location *time.Location
	Labels   Labeler
}

func (o Options) normalise() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	o.Now = o.Now.In(o.Location)
	if o.Labels == nil {
		o.Labels = plainLabels{}
	}
	return o
}

// Row is one bucket of a trend chart.
type Row struct {
	Key    string                     `json:"key"`
	Label  string                     `json:"label"`
	Values map[models.IssueType]int64 `json:"values"`
}

type slot struct {
	start time.Time
	acc   Accumulator
}

// Build folds dates into the trailing window described by bucket. The result
// always holds exactly bucket.Count rows in ascending chronological order.
// A date key that does not parse aborts the build with ErrInvalidDate.
func Build(dates map[string]models.DateSummary, bucket Bucket, newAcc func() Accumulator, opts Options) ([]Row, error) {
	if err := bucket.Validate(); err != nil {
		return nil, err
	}
	if newAcc == nil {
		newAcc = NewCountAccumulator
	}
	opts = opts.normalise()

	current := Truncate(opts.Now, bucket.Unit)
	slots := make(map[string]*slot, bucket.Count)
	for i := 0; i < bucket.Count; i++ {
		start := Step(current, bucket.Unit, -i)
		slots[start.Format(DateLayout)] = &slot{start: start, acc: newAcc()}
	}

	keys := make([]string, 0, len(dates))
	for key := range dates {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		date, err := ParseDate(key, opts.Location)
		if err != nil {
			return nil, err
		}
		start := Truncate(date, bucket.Unit)
		diff := Diff(current, start, bucket.Unit)
		if diff < 0 || diff >= bucket.Count {
			continue
		}
		bucketKey := start.Format(DateLayout)
		target, ok := slots[bucketKey]
		if !ok {
			target = &slot{start: start, acc: newAcc()}
			slots[bucketKey] = target
		}
		target.acc.Add(dates[key])
	}

	rows := make([]Row, 0, len(slots))
	for key, s := range slots {
		rows = append(rows, Row{
			Key:    key,
			Label:  label(opts.Labels, bucket.Unit, s.start),
			Values: s.acc.Values(),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Key < rows[j].Key
	})
	return rows, nil
}

// ParseDate parses an API date key in loc. Full RFC 3339 timestamps are accepted too.
func ParseDate(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(DateLayout, key, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, key); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, key)
}

func label(labels Labeler, unit Unit, start time.Time) string {
	switch unit {
	case UnitYear:
		return labels.YearLabel(start)
	case UnitMonth:
		return labels.MonthLabel(start)
	default:
		return labels.DayLabel(start)
	}
}

type plainLabels struct{}

func (plainLabels) DayLabel(t time.Time) string {
	return fmt.Sprintf("%d/%d", t.Day(), int(t.Month()))
}

func (plainLabels) MonthLabel(t time.Time) string { return t.Month().String() }

func (plainLabels) YearLabel(t time.Time) string { return fmt.Sprintf("%04d", t.Year()) }
