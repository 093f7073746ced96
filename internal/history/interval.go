package history

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/foldaway/mrtdown-site-sub000/internal/models"
)

// ContextKind names which interval of an issue a card should surface.
type ContextKind string

const (
	ContextNow         ContextKind = "now"
	ContextHistoryDays ContextKind = "history.days"
	ContextHistoryWeek ContextKind = "history.week"
)

// ErrInvalidContext reports a card context that cannot be parsed.
var ErrInvalidContext = errors.New("invalid card context")

// CardContext is built per request and never stored.
type CardContext struct {
	Kind ContextKind `json:"type"`
	Date time.Time   `json:"date,omitempty"`
	Days int         `json:"days,omitempty"`
}

// NowContext selects the interval that is ongoing or upcoming.
func NowContext() CardContext {
	return CardContext{Kind: ContextNow}
}

// HistoryDaysContext selects the interval overlapping [date, date+days).
func HistoryDaysContext(date time.Time, days int) CardContext {
	return CardContext{Kind: ContextHistoryDays, Date: date, Days: days}
}

// HistoryWeekContext selects the interval overlapping [date, date+7 days).
func HistoryWeekContext(date time.Time) CardContext {
	return CardContext{Kind: ContextHistoryWeek, Date: date}
}

// ParseCardContext builds a context from request values. Dates use the
// 2006-01-02 layout and are interpreted in loc.
func ParseCardContext(kind, date, days string, loc *time.Location) (CardContext, error) {
	if loc == nil {
		loc = time.UTC
	}
	switch ContextKind(strings.TrimSpace(kind)) {
	case ContextNow, "":
		return NowContext(), nil
	case ContextHistoryWeek:
		start, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), loc)
		if err != nil {
			return CardContext{}, fmt.Errorf("%w: date %q", ErrInvalidContext, date)
		}
		return HistoryWeekContext(start), nil
	case ContextHistoryDays:
		start, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), loc)
		if err != nil {
			return CardContext{}, fmt.Errorf("%w: date %q", ErrInvalidContext, date)
		}
		n := 1
		if raw := strings.TrimSpace(days); raw != "" {
			n, err = strconv.Atoi(raw)
			if err != nil || n <= 0 {
				return CardContext{}, fmt.Errorf("%w: days %q", ErrInvalidContext, days)
			}
		}
		return HistoryDaysContext(start, n), nil
	default:
		return CardContext{}, fmt.Errorf("%w: type %q", ErrInvalidContext, kind)
	}
}

// Window returns the half-open window of a history context. The now context
// has no window.
func (c CardContext) Window() (start, end time.Time, ok bool) {
	switch c.Kind {
	case ContextHistoryDays:
		return c.Date, c.Date.AddDate(0, 0, c.Days), true
	case ContextHistoryWeek:
		return c.Date, c.Date.AddDate(0, 0, 7), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// SelectDisplayInterval picks the single interval an issue card should show.
// It reports false when intervals is empty, which callers treat as "nothing
// to render". The input slice is never reordered.
func SelectDisplayInterval(intervals []models.IssueInterval, ctx CardContext, now time.Time) (models.IssueInterval, bool) {
	if len(intervals) == 0 {
		return models.IssueInterval{}, false
	}

	var preferred func(models.IssueInterval) bool
	if start, end, ok := ctx.Window(); ok {
		preferred = func(interval models.IssueInterval) bool {
			return Overlaps(interval.StartAt, interval.EffectiveEnd(now), start, end)
		}
	} else {
		preferred = func(interval models.IssueInterval) bool {
			return interval.Status == models.IntervalOngoing || interval.Status == models.IntervalFuture
		}
	}
	return partition(intervals, preferred)[0], true
}

// partition returns matching intervals followed by the rest, each group in input order.
func partition(intervals []models.IssueInterval, match func(models.IssueInterval) bool) []models.IssueInterval {
	out := make([]models.IssueInterval, 0, len(intervals))
	for _, interval := range intervals {
		if match(interval) {
			out = append(out, interval)
		}
	}
	for _, interval := range intervals {
		if !match(interval) {
			out = append(out, interval)
		}
	}
	return out
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share any instant.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aEnd.Before(aStart) {
		aEnd = aStart
	}
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
