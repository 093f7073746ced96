package trend

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Unit is the size of one bucket in a trend window.
type Unit string

const (
	UnitDay   Unit = "day"
	UnitMonth Unit = "month"
	UnitYear  Unit = "year"
)

// ErrInvalidBucket reports an unknown unit or a non-positive count.
var ErrInvalidBucket = errors.New("invalid bucket")

// Bucket selects a trailing window of Count units ending at now.
// Display overrides the picker label, e.g. 28 days shown as "1 month".
type Bucket struct {
	Unit    Unit   `json:"unit"`
	Count   int    `json:"count"`
	Display string `json:"display,omitempty"`
}

// Presets are the windows offered by the trend card pickers.
var Presets = []Bucket{
	{Unit: UnitDay, Count: 7},
	{Unit: UnitDay, Count: 28, Display: "1 month"},
	{Unit: UnitMonth, Count: 6},
	{Unit: UnitMonth, Count: 12},
	{Unit: UnitYear, Count: 5},
}

// DefaultBucket is the window shown before the user picks one.
var DefaultBucket = Presets[0]

// Validate checks the unit and count.
func (b Bucket) Validate() error {
	switch b.Unit {
	case UnitDay, UnitMonth, UnitYear:
	default:
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidBucket, b.Unit)
	}
	if b.Count <= 0 {
		return fmt.Errorf("%w: count must be positive, got %d", ErrInvalidBucket, b.Count)
	}
	return nil
}

// Label returns Display, or "<count> <unit>s".
func (b Bucket) Label() string {
	if b.Display != "" {
		return b.Display
	}
	if b.Count == 1 {
		return "1 " + string(b.Unit)
	}
	return strconv.Itoa(b.Count) + " " + string(b.Unit) + "s"
}

// ParseBucket reads a bucket from query values; empty inputs fall back to DefaultBucket.
func ParseBucket(unit, count string) (Bucket, error) {
	unit = strings.ToLower(strings.TrimSpace(unit))
	count = strings.TrimSpace(count)
	if unit == "" && count == "" {
		return DefaultBucket, nil
	}
	b := Bucket{Unit: Unit(unit)}
	if b.Unit == "" {
		b.Unit = DefaultBucket.Unit
	}
	if count == "" {
		b.Count = DefaultBucket.Count
	} else {
		n, err := strconv.Atoi(count)
		if err != nil {
			return Bucket{}, fmt.Errorf("%w: count %q", ErrInvalidBucket, count)
		}
		b.Count = n
	}
	for _, preset := range Presets {
		if preset.Unit == b.Unit && preset.Count == b.Count {
			b.Display = preset.Display
		}
	}
	return b, b.Validate()
}

// Truncate returns the start of the unit containing t, in t's location.
func Truncate(t time.Time, unit Unit) time.Time {
	switch unit {
	case UnitYear:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	case UnitMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
}

// Step moves a truncated time by n units.
func Step(t time.Time, unit Unit, n int) time.Time {
	switch unit {
	case UnitYear:
		return t.AddDate(n, 0, 0)
	case UnitMonth:
		return t.AddDate(0, n, 0)
	default:
		return t.AddDate(0, 0, n)
	}
}

// Diff counts whole units from b to a; both must already be truncated.
// Day differences use civil dates so DST shifts cannot skew them.
func Diff(a, b time.Time, unit Unit) int {
	switch unit {
	case UnitYear:
		return a.Year() - b.Year()
	case UnitMonth:
		return (a.Year()*12 + int(a.Month())) - (b.Year()*12 + int(b.Month()))
	default:
		ca := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
		cb := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
		return int(ca.Sub(cb) / (24 * time.Hour))
	}
}
