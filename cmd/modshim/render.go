package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/modshim/modshim/metadata"
	"github.com/modshim/modshim/rewrite"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	refStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	rewrittenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	unresolvedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	unchangedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// renderRefs lists every host reference a mod declares, for -list.
func renderRefs(mod *metadata.Module) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("modshim"))
	b.WriteString(" " + mod.Name + "\n\n")
	fmt.Fprintf(&b, "Types: %d  Methods: %d  Fields: %d\n",
		len(mod.Types), len(mod.Methods), len(mod.Fields))

	if len(mod.Types) > 0 {
		b.WriteString("\nType references:\n")
		for _, t := range mod.Types {
			b.WriteString("  " + typeStyle.Render(t.Path) + "\n")
		}
	}
	if len(mod.Methods) > 0 {
		b.WriteString("\nMethod references:\n")
		for _, m := range mod.Methods {
			b.WriteString("  " + refStyle.Render(m.String()) +
				" " + typeStyle.Render(m.Sig.String()) + "\n")
		}
	}
	if len(mod.Fields) > 0 {
		b.WriteString("\nField references:\n")
		for _, f := range mod.Fields {
			mut := ""
			if f.Mutable {
				mut = " mut"
			}
			b.WriteString("  " + refStyle.Render(f.String()) +
				" " + typeStyle.Render(metadata.ValTypeName(f.ValType)+mut) + "\n")
		}
	}
	return b.String()
}

// renderReport renders one pass report for the terminal.
func renderReport(report *rewrite.Report) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("modshim"))
	fmt.Fprintf(&b, " %s against host %s\n\n", report.Module, report.HostVersion)

	for _, o := range report.Outcomes {
		b.WriteString("  " + renderOutcome(o) + "\n")
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "%s  %s  %s\n",
		rewrittenStyle.Render(fmt.Sprintf("%d rewritten", report.Rewritten)),
		unresolvedStyle.Render(fmt.Sprintf("%d unresolved", report.Unresolved)),
		unchangedStyle.Render(fmt.Sprintf("%d unchanged", report.Unchanged)))

	if report.Unresolved > 0 {
		b.WriteString(unresolvedStyle.Render(
			"unresolved references are left as declared; the mod loader decides whether to load this module"))
		b.WriteString("\n")
	}
	return b.String()
}

func renderOutcome(o rewrite.Outcome) string {
	kind := fmt.Sprintf("%-6s", o.RefKind)
	switch o.Kind {
	case rewrite.OutcomeRewritten:
		return fmt.Sprintf("%s %s %s -> %s  (%s)",
			rewrittenStyle.Render("rewritten "), kind,
			refStyle.Render(o.Old), refStyle.Render(o.New), o.RuleID)
	case rewrite.OutcomeUnresolved:
		return fmt.Sprintf("%s %s %s",
			unresolvedStyle.Render("unresolved"), kind, refStyle.Render(o.Old))
	default:
		return unchangedStyle.Render(fmt.Sprintf("unchanged  %s %s", kind, o.Old))
	}
}
