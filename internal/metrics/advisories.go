package metrics

import (
	"sort"

	"github.com/foldaway/mrtdown-site-sub000/internal/models"
)

// AdvisorySummary is the headline of the advisories panel.
type AdvisorySummary struct {
	IssueCountsByType  map[models.IssueType]int      `json:"issueCountsByType"`
	IssueLineIDsByType map[models.IssueType][]string `json:"issueLineIdsByType"`
}

// SummariseAdvisories folds the issues active now and today into per-type
// issue counts and de-duplicated, sorted line ids. The two lists are folded
// as one; an issue listed in both is counted in both.
func SummariseAdvisories(activeNow, activeToday []models.Issue) AdvisorySummary {
	counts := make(map[models.IssueType]int, len(models.IssueTypes))
	lineSets := make(map[models.IssueType]map[string]struct{}, len(models.IssueTypes))
	for _, issueType := range models.IssueTypes {
		counts[issueType] = 0
		lineSets[issueType] = make(map[string]struct{})
	}

	for _, issue := range append(append([]models.Issue(nil), activeNow...), activeToday...) {
		counts[issue.Type]++
		set := lineSets[issue.Type]
		if set == nil {
			set = make(map[string]struct{})
			lineSets[issue.Type] = set
		}
		for _, lineID := range issue.LineIDs {
			set[lineID] = struct{}{}
		}
	}

	lineIDs := make(map[models.IssueType][]string, len(lineSets))
	for issueType, set := range lineSets {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		lineIDs[issueType] = ids
	}
	return AdvisorySummary{
		IssueCountsByType:  counts,
		IssueLineIDsByType: lineIDs,
	}
}
