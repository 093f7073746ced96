package trend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foldaway/mrtdown-site-sub000/internal/models"
)

var sgt = time.FixedZone("SGT", 8*60*60)

func testOptions() Options {
	return Options{
		Now:      time.Date(2024, time.June, 15, 10, 30, 0, 0, sgt),
		Location: sgt,
	}
}

func disruption(id string) models.IssueRef {
	return models.IssueRef{ID: id, Type: models.IssueTypeDisruption}
}

func TestBuildReturnsEveryBucketForEmptyInput(t *testing.T) {
	for _, bucket := range []Bucket{
		{Unit: UnitDay, Count: 1},
		{Unit: UnitDay, Count: 7},
		{Unit: UnitDay, Count: 28},
		{Unit: UnitMonth, Count: 12},
		{Unit: UnitYear, Count: 5},
	} {
		rows, err := Build(nil, bucket, NewCountAccumulator, testOptions())
		require.NoError(t, err)
		require.Len(t, rows, bucket.Count, "bucket %+v", bucket)
		for _, row := range rows {
			for _, issueType := range models.IssueTypes {
				value, ok := row.Values[issueType]
				assert.True(t, ok)
				assert.Zero(t, value)
			}
		}
	}
}

func TestBuildOrdersRowsAscending(t *testing.T) {
	rows, err := Build(nil, Bucket{Unit: UnitDay, Count: 7}, NewDurationAccumulator, testOptions())
	require.NoError(t, err)

	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, row.Key)
	}
	assert.Equal(t, []string{
		"2024-06-09", "2024-06-10", "2024-06-11", "2024-06-12",
		"2024-06-13", "2024-06-14", "2024-06-15",
	}, keys)
	assert.Equal(t, "9/6", rows[0].Label)
	assert.Equal(t, "15/6", rows[6].Label)
}

func TestBuildCountsDistinctIssuesPerBucket(t *testing.T) {
	dates := map[string]models.DateSummary{
		"2024-06-01": {Issues: []models.IssueRef{disruption("X")}},
		"2024-06-02": {Issues: []models.IssueRef{
			disruption("X"),
			{ID: "Y", Type: models.IssueTypeMaintenance},
		}},
	}
	rows, err := Build(dates, Bucket{Unit: UnitMonth, Count: 1}, NewCountAccumulator, testOptions())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-06-01", rows[0].Key)
	assert.Equal(t, int64(1), rows[0].Values[models.IssueTypeDisruption])
	assert.Equal(t, int64(1), rows[0].Values[models.IssueTypeMaintenance])
	assert.Equal(t, int64(0), rows[0].Values[models.IssueTypeInfra])
}

func TestBuildSumsDurations(t *testing.T) {
	dates := map[string]models.DateSummary{
		"2024-06-01": {IssueTypesDurationMs: map[models.IssueType]int64{
			models.IssueTypeDisruption:  100,
			models.IssueTypeMaintenance: 50,
		}},
		"2024-06-10": {IssueTypesDurationMs: map[models.IssueType]int64{
			models.IssueTypeDisruption: 200,
		}},
		"2024-05-31": {IssueTypesDurationMs: map[models.IssueType]int64{
			models.IssueTypeDisruption: 999,
		}},
	}
	rows, err := Build(dates, Bucket{Unit: UnitMonth, Count: 1}, NewDurationAccumulator, testOptions())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(300), rows[0].Values[models.IssueTypeDisruption])
	assert.Equal(t, int64(50), rows[0].Values[models.IssueTypeMaintenance])
	assert.Equal(t, int64(0), rows[0].Values[models.IssueTypeInfra])

	rows, err = Build(dates, Bucket{Unit: UnitMonth, Count: 2}, NewDurationAccumulator, testOptions())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-05-01", rows[0].Key)
	assert.Equal(t, int64(999), rows[0].Values[models.IssueTypeDisruption])
	assert.Equal(t, "May", rows[0].Label)
	assert.Equal(t, "June", rows[1].Label)
}

func TestBuildExcludesDatesOutsideWindow(t *testing.T) {
	dates := map[string]models.DateSummary{
		"2024-06-08": {Issues: []models.IssueRef{disruption("seven-days-ago")}},
		"2024-06-09": {Issues: []models.IssueRef{disruption("six-days-ago")}},
		"2024-06-16": {Issues: []models.IssueRef{disruption("tomorrow")}},
	}
	rows, err := Build(dates, Bucket{Unit: UnitDay, Count: 7}, NewCountAccumulator, testOptions())
	require.NoError(t, err)
	require.Len(t, rows, 7)

	var total int64
	for _, row := range rows {
		total += row.Values[models.IssueTypeDisruption]
	}
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(1), rows[0].Values[models.IssueTypeDisruption])
}

func TestBuildYearBuckets(t *testing.T) {
	dates := map[string]models.DateSummary{
		"2023-03-04": {Issues: []models.IssueRef{disruption("A")}},
		"2023-11-20": {Issues: []models.IssueRef{disruption("A"), disruption("B")}},
		"2024-01-01": {Issues: []models.IssueRef{disruption("C")}},
	}
	rows, err := Build(dates, Bucket{Unit: UnitYear, Count: 2}, NewCountAccumulator, testOptions())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2023", rows[0].Label)
	assert.Equal(t, int64(2), rows[0].Values[models.IssueTypeDisruption])
	assert.Equal(t, "2024", rows[1].Label)
	assert.Equal(t, int64(1), rows[1].Values[models.IssueTypeDisruption])
}

func TestBuildRejectsMalformedDate(t *testing.T) {
	dates := map[string]models.DateSummary{
		"2024-06-10": {},
		"yesterday":  {},
	}
	rows, err := Build(dates, Bucket{Unit: UnitDay, Count: 7}, NewCountAccumulator, testOptions())
	require.ErrorIs(t, err, ErrInvalidDate)
	assert.Nil(t, rows)
}

func TestBuildRejectsInvalidBucket(t *testing.T) {
	_, err := Build(nil, Bucket{Unit: "week", Count: 2}, nil, testOptions())
	assert.ErrorIs(t, err, ErrInvalidBucket)

	_, err = Build(nil, Bucket{Unit: UnitDay, Count: 0}, nil, testOptions())
	assert.ErrorIs(t, err, ErrInvalidBucket)
}

func TestBuildIsIdempotent(t *testing.T) {
	dates := map[string]models.DateSummary{
		"2024-06-10": {
			Issues:               []models.IssueRef{disruption("A")},
			IssueTypesDurationMs: map[models.IssueType]int64{models.IssueTypeDisruption: 42},
		},
		"2024-06-14": {Issues: []models.IssueRef{disruption("B")}},
	}
	copied := make(map[string]models.DateSummary, len(dates))
	for k, v := range dates {
		copied[k] = v
	}
	bucket := Bucket{Unit: UnitDay, Count: 28}

	first, err := Build(dates, bucket, NewCountAccumulator, testOptions())
	require.NoError(t, err)
	second, err := Build(copied, bucket, NewCountAccumulator, testOptions())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildUsesLocationForDayBoundaries(t *testing.T) {
	// 23:30 UTC on the 14th is already the 15th in Singapore.
	opts := Options{
		Now:      time.Date(2024, time.June, 14, 23, 30, 0, 0, time.UTC),
		Location: sgt,
	}
	rows, err := Build(nil, Bucket{Unit: UnitDay, Count: 1}, nil, opts)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-15", rows[0].Key)
}

func TestParseBucket(t *testing.T) {
	b, err := ParseBucket("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultBucket, b)

	b, err = ParseBucket("day", "28")
	require.NoError(t, err)
	assert.Equal(t, "1 month", b.Label())

	b, err = ParseBucket("MONTH", "12")
	require.NoError(t, err)
	assert.Equal(t, Bucket{Unit: UnitMonth, Count: 12}, b)
	assert.Equal(t, "12 months", b.Label())

	for _, input := range [][2]string{{"week", "1"}, {"day", "abc"}, {"day", "0"}, {"year", "-3"}} {
		_, err := ParseBucket(input[0], input[1])
		assert.ErrorIs(t, err, ErrInvalidBucket, "input %v", input)
	}
}
