package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"inspectdash/domain/inspection"
	"inspectdash/internal/analysis"
)

// Status colors match the dashboard donut
var (
	completedColor = lipgloss.Color("#2ecc71")
	overdueColor   = lipgloss.Color("#e74c3c")
	infoColor      = lipgloss.Color("#3498db")
	mutedColor     = lipgloss.Color("#6b7280")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(infoColor)
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	labelStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	okStyle      = lipgloss.NewStyle().Foreground(completedColor)
	warnStyle    = lipgloss.NewStyle().Foreground(overdueColor)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(overdueColor)
	barStyle     = lipgloss.NewStyle().Foreground(overdueColor)

	kpiStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1).
			Width(22)
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(overdueColor).
			PaddingLeft(1).
			MarginTop(1)
)

const rankingBarWidth = 30

// renderKPIs lays the four indicators out side by side
func renderKPIs(s analysis.Summary) string {
	kpi := func(label, value string) string {
		return kpiStyle.Render(labelStyle.Render(label) + "\n" + lipgloss.NewStyle().Bold(true).Render(value))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		kpi("Total Observaciones", fmt.Sprintf("%d", s.Total)),
		kpi("Cerradas ✅", fmt.Sprintf("%d", s.Closed)),
		kpi("Pendientes ⚠️", fmt.Sprintf("%d", s.Pending)),
		kpi("% de Cumplimiento", fmt.Sprintf("%.1f%%", s.CompliancePct)),
	)
}

// renderRanking draws one horizontal bar per owner, scaled to max
func renderRanking(ranking []analysis.OwnerCount, max int) string {
	nameWidth := 0
	for _, oc := range ranking {
		if w := lipgloss.Width(oc.Owner); w > nameWidth {
			nameWidth = w
		}
	}

	lines := make([]string, 0, len(ranking))
	for _, oc := range ranking {
		n := 1
		if max > 0 {
			n = oc.Count * rankingBarWidth / max
			if n < 1 {
				n = 1
			}
		}
		name := oc.Owner + strings.Repeat(" ", nameWidth-lipgloss.Width(oc.Owner))
		lines = append(lines, fmt.Sprintf("%s  %s %d", name, barStyle.Render(strings.Repeat("█", n)), oc.Count))
	}
	return strings.Join(lines, "\n")
}

// renderObservation prints one pending observation the way the portal lists it
func renderObservation(o inspection.Observation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📌 ID: %s - %s (Límite: %s)\n", o.ID, o.Area, o.DueDate)
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Hallazgo:"), o.Description)
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Acción:"), o.CorrectiveAction)
	fmt.Fprintf(&b, "%s %s", labelStyle.Render("Riesgo:"), o.AssociatedRisk)
	return cardStyle.Render(b.String())
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
