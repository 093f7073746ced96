package trend

import (
	"errors"
	"fmt"

	"github.com/foldaway/mrtdown-site-sub000/internal/models"
)

// ErrInsufficientRows is returned when a period-over-period change is asked
// of fewer than two buckets.
var ErrInsufficientRows = errors.New("at least two buckets are required")

// Change compares the latest bucket with the one before it.
type Change struct {
	Current  int64 `json:"current"`
	Previous int64 `json:"previous"`
	Delta    int64 `json:"delta"`
}

// PeriodChange reads issueType from the last two rows.
func PeriodChange(rows []Row, issueType models.IssueType) (Change, error) {
	if len(rows) < 2 {
		return Change{}, fmt.Errorf("%w: got %d", ErrInsufficientRows, len(rows))
	}
	current := rows[len(rows)-1].Values[issueType]
	previous := rows[len(rows)-2].Values[issueType]
	return Change{
		Current:  current,
		Previous: previous,
		Delta:    current - previous,
	}, nil
}

// Card is a trend chart with its headline figures.
type Card struct {
	Bucket      Bucket `json:"bucket"`
	BucketLabel string `json:"bucketLabel"`
	Mode        Mode   `json:"mode"`
	Rows        []Row  `json:"rows"`
	Change      Change `json:"change"`
}

// BuildCard builds the rows for mode and derives the disruption change.
func BuildCard(dates map[string]models.DateSummary, bucket Bucket, mode Mode, opts Options) (Card, error) {
	newAcc, ok := mode.Factory()
	if !ok {
		return Card{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidBucket, mode)
	}
	if mode == "" {
		mode = ModeCount
	}
	rows, err := Build(dates, bucket, newAcc, opts)
	if err != nil {
		return Card{}, err
	}
	change, err := PeriodChange(rows, models.IssueTypeDisruption)
	if err != nil {
		return Card{}, err
	}
	return Card{
		Bucket:      bucket,
		BucketLabel: bucket.Label(),
		Mode:        mode,
		Rows:        rows,
		Change:      change,
	}, nil
}
