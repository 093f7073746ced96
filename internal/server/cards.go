package server

import (
	"time"

	"github.com/foldaway/mrtdown-site-sub000/internal/history"
	"github.com/foldaway/mrtdown-site-sub000/internal/locale"
	"github.com/foldaway/mrtdown-site-sub000/internal/models"
)

// issueCard is an issue reduced to the one interval its context cares about.
type issueCard struct {
	ID           string               `json:"id"`
	Type         models.IssueType     `json:"type"`
	Title        string               `json:"title"`
	LineIDs      []string             `json:"lineIds"`
	Subtypes     []string             `json:"subtypes,omitempty"`
	Interval     models.IssueInterval `json:"interval"`
	DurationMs   int64                `json:"durationMs"`
	DurationText string               `json:"durationText"`
}

// newIssueCard reports false when no interval can be shown in ctx; such an
// issue is not rendered as a card.
func newIssueCard(issue models.Issue, ctx history.CardContext, now time.Time, f *locale.Formatter) (issueCard, bool) {
	interval, ok := history.SelectDisplayInterval(issue.Intervals, ctx, now)
	if !ok {
		return issueCard{}, false
	}
	card := issueCard{
		ID:         issue.ID,
		Type:       issue.Type,
		Title:      issue.LocalizedTitle(f.Lang()),
		LineIDs:    issue.LineIDs,
		Subtypes:   issue.Subtypes,
		Interval:   interval,
		DurationMs: elapsed(interval, now).Milliseconds(),
	}
	if card.LineIDs == nil {
		card.LineIDs = []string{}
	}
	card.DurationText = f.Duration(card.DurationMs)
	return card, true
}

// newIssueCards skips issues without a displayable interval.
func newIssueCards(issues []models.Issue, ctx history.CardContext, now time.Time, f *locale.Formatter) []issueCard {
	cards := make([]issueCard, 0, len(issues))
	for _, issue := range issues {
		if card, ok := newIssueCard(issue, ctx, now, f); ok {
			cards = append(cards, card)
		}
	}
	return cards
}

// elapsed is the part of interval that lies before now.
func elapsed(interval models.IssueInterval, now time.Time) time.Duration {
	if interval.Status == models.IntervalFuture || !interval.StartAt.Before(now) {
		return 0
	}
	end := interval.EffectiveEnd(now)
	if end.After(now) {
		end = now
	}
	if !end.After(interval.StartAt) {
		return 0
	}
	return end.Sub(interval.StartAt)
}

func localizedLineName(line models.Line, lang string) string {
	if name, ok := line.NameTranslations[lang]; ok && name != "" {
		return name
	}
	return line.Name
}
