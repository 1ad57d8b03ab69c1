package handlers

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/cdk-addons/internal/manifest"
	"github.com/imamik/cdk-addons/internal/reconcile"
)

var (
	planColorGreen = lipgloss.Color("#22c55e")
	planColorRed   = lipgloss.Color("#ef4444")
	planColorBlue  = lipgloss.Color("#3b82f6")
	planColorDim   = lipgloss.Color("#6b7280")
	planColorWhite = lipgloss.Color("#f9fafb")
)

var (
	planTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(planColorWhite)

	planSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(planColorBlue)

	planDimStyle = lipgloss.NewStyle().
			Foreground(planColorDim)

	planGreenStyle = lipgloss.NewStyle().
			Foreground(planColorGreen)

	planRedStyle = lipgloss.NewStyle().
			Foreground(planColorRed)
)

// renderPlanSummary produces a lipgloss-styled plan summary.
func renderPlanSummary(res *reconcile.Result) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(planTitleStyle.Render("  cdk-addons plan"))
	b.WriteString("\n")
	b.WriteString(planDimStyle.Render("  " + strings.Repeat("═", 30)))
	b.WriteString("\n\n")

	categories := "none"
	if len(res.Categories) > 0 {
		categories = strings.Join(res.Categories, ", ")
	}
	fmt.Fprintf(&b, "  Enabled: %s\n", categories)

	created := manifest.Sorted(res.Desired.Difference(res.Actual))
	kept := res.Desired.Len() - len(created)

	renderPlanSection(&b, "Create", "+", planGreenStyle, created)
	renderPlanSection(&b, "Delete", "-", planRedStyle, res.Surplus)

	b.WriteString("\n")
	b.WriteString(planSectionStyle.Render("  Summary"))
	b.WriteString("\n")
	b.WriteString(planDimStyle.Render("  " + strings.Repeat("─", 35)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "    Create:  %d\n", len(created))
	fmt.Fprintf(&b, "    Update:  %d\n", kept)
	fmt.Fprintf(&b, "    Delete:  %d\n", len(res.Surplus))

	return b.String()
}

func renderPlanSection(b *strings.Builder, title, marker string, style lipgloss.Style, ids []manifest.Identity) {
	if len(ids) == 0 {
		return
	}
	b.WriteString("\n")
	b.WriteString(planSectionStyle.Render("  " + title))
	b.WriteString("\n")
	b.WriteString(planDimStyle.Render("  " + strings.Repeat("─", 50)))
	b.WriteString("\n")
	for _, id := range ids {
		b.WriteString(style.Render(fmt.Sprintf("  %s %-22s %s/%s", marker, id.Kind, id.Namespace, id.Name)))
		b.WriteString("\n")
	}
}

// renderPlanPlain lists one action per line for non-terminal output.
func renderPlanPlain(res *reconcile.Result) string {
	var b strings.Builder
	for _, id := range manifest.Sorted(res.Desired) {
		action := "apply"
		if !res.Actual.Has(id) {
			action = "create"
		}
		fmt.Fprintf(&b, "%s\t%s\n", action, id)
	}
	for _, id := range res.Surplus {
		fmt.Fprintf(&b, "delete\t%s\n", id)
	}
	return b.String()
}
