package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foldaway/mrtdown-site-sub000/internal/models"
)

func sampleIssues() []models.IssueRef {
	return []models.IssueRef{
		{ID: "nsl-track-fault", Type: models.IssueTypeDisruption, Title: "Track fault between Jurong East and Bukit Batok", LineIDs: []string{"NSL"}},
		{ID: "ewl-signal", Type: models.IssueTypeDisruption, Title: "Signalling fault at Tanah Merah", LineIDs: []string{"EWL"},
			TitleTranslations: map[string]string{"ms": "Kerosakan isyarat di Tanah Merah"}},
		{ID: "ccl-renewal", Type: models.IssueTypeMaintenance, Title: "Early closure for track renewal", LineIDs: []string{"CCL"}},
		{ID: "ewl-signal", Type: models.IssueTypeDisruption, Title: "duplicate"},
	}
}

func TestSearchMatchesTitles(t *testing.T) {
	idx, err := New()
	require.NoError(t, err)
	require.NoError(t, idx.Replace(sampleIssues()))
	assert.Equal(t, 3, idx.Len())

	results, err := idx.Search(context.Background(), "track", 10)
	require.NoError(t, err)
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.Issue.ID)
	}
	assert.ElementsMatch(t, []string{"nsl-track-fault", "ccl-renewal"}, ids)
}

func TestSearchMatchesLinesAndTranslations(t *testing.T) {
	idx, err := New()
	require.NoError(t, err)
	require.NoError(t, idx.Replace(sampleIssues()))

	ctx := context.Background()
	results, err := idx.Search(ctx, "EWL", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ewl-signal", results[0].Issue.ID)
	assert.Equal(t, "Signalling fault at Tanah Merah", results[0].Issue.Title)

	results, err = idx.Search(ctx, "kerosakan", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ewl-signal", results[0].Issue.ID)
}

func TestSearchEmptyQuery(t *testing.T) {
	idx, err := New()
	require.NoError(t, err)
	results, err := idx.Search(context.Background(), "  ", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestReplaceDropsPreviousIssues(t *testing.T) {
	idx, err := New()
	require.NoError(t, err)
	require.NoError(t, idx.Replace(sampleIssues()))
	require.NoError(t, idx.Replace([]models.IssueRef{
		{ID: "tel-power", Type: models.IssueTypeInfra, Title: "Power supply upgrade", LineIDs: []string{"TEL"}},
	}))

	results, err := idx.Search(context.Background(), "track", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = idx.Search(context.Background(), "power", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "tel-power", results[0].Issue.ID)
}
