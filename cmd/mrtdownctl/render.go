package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/foldaway/mrtdown-site-sub000/internal/locale"
	"github.com/foldaway/mrtdown-site-sub000/internal/metrics"
	"github.com/foldaway/mrtdown-site-sub000/internal/models"
	"github.com/foldaway/mrtdown-site-sub000/internal/trend"
)

const barWidth = 30

var (
	colorMuted = lipgloss.Color("#6272A4")

	typeColors = map[models.IssueType]lipgloss.Color{
		models.IssueTypeDisruption:  lipgloss.Color("#FF5555"),
		models.IssueTypeMaintenance: lipgloss.Color("#FFB86C"),
		models.IssueTypeInfra:       lipgloss.Color("#8BE9FD"),
	}

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Width(12)
	countStyle = lipgloss.NewStyle().Width(10).Align(lipgloss.Right)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

// lineLookup resolves catalogue entries for line badges.
type lineLookup interface {
	Line(id string) (models.Line, bool)
}

type renderer struct {
	lines lineLookup
	f     *locale.Formatter
}

func newRenderer(lines lineLookup, f *locale.Formatter) *renderer {
	return &renderer{lines: lines, f: f}
}

func (r *renderer) advisories(summary metrics.AdvisorySummary) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Service advisories"))
	sb.WriteString("\n")
	for _, issueType := range models.IssueTypes {
		style := labelStyle.Foreground(typeColors[issueType])
		sb.WriteString(style.Render(string(issueType)))
		sb.WriteString(countStyle.Render(r.f.Number(int64(summary.IssueCountsByType[issueType]))))
		sb.WriteString("  ")
		ids := summary.IssueLineIDsByType[issueType]
		if len(ids) == 0 {
			sb.WriteString(mutedStyle.Render("-"))
		} else {
			sb.WriteString(r.lineBadges(ids))
		}
		sb.WriteString("\n")
	}
	return panelStyle.Render(strings.TrimRight(sb.String(), "\n"))
}

func (r *renderer) lineBadges(ids []string) string {
	badges := make([]string, 0, len(ids))
	for _, id := range ids {
		style := lipgloss.NewStyle().Bold(true)
		if line, ok := r.lines.Line(id); ok && line.Color != "" {
			style = style.Foreground(lipgloss.Color(line.Color))
		}
		badges = append(badges, style.Render(id))
	}
	return strings.Join(badges, " ")
}

func (r *renderer) trendTable(card trend.Card) string {
	var peak int64
	for _, row := range card.Rows {
		for _, v := range row.Values {
			if v > peak {
				peak = v
			}
		}
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("Trend (%s, %s)", card.BucketLabel, card.Mode)))
	sb.WriteString("\n")
	for _, row := range card.Rows {
		sb.WriteString(labelStyle.Render(row.Label))
		for _, issueType := range models.IssueTypes {
			v := row.Values[issueType]
			sb.WriteString(countStyle.Render(r.value(card.Mode, v)))
		}
		sb.WriteString("  ")
		sb.WriteString(lipgloss.NewStyle().Foreground(typeColors[models.IssueTypeDisruption]).
			Render(bar(row.Values[models.IssueTypeDisruption], peak)))
		sb.WriteString("\n")
	}
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("disruption: %s (%s)",
		r.value(card.Mode, card.Change.Current), r.delta(card.Mode, card.Change.Delta))))
	return panelStyle.Render(sb.String())
}

func (r *renderer) value(mode trend.Mode, v int64) string {
	if mode == trend.ModeDuration {
		return r.f.Duration(v)
	}
	return r.f.Number(v)
}

func (r *renderer) delta(mode trend.Mode, d int64) string {
	if mode == trend.ModeDuration {
		return r.f.SignedDuration(d)
	}
	return r.f.SignedNumber(d)
}

func bar(v, peak int64) string {
	if peak <= 0 || v <= 0 {
		return ""
	}
	n := int(v * barWidth / peak)
	if n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}
