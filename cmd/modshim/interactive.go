package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/modshim/modshim/rewrite"
)

// browserModel is the interactive report browser: a list of per-reference
// outcomes, a cursor, an outcome-kind cycle, and a substring filter.
type browserModel struct {
	report   *rewrite.Report
	visible  []rewrite.Outcome
	filter   textinput.Model
	selected int
	kindOnly rewrite.OutcomeKind
	kindSet  bool
	filterOn bool
}

func newBrowserModel(report *rewrite.Report) *browserModel {
	ti := textinput.New()
	ti.Placeholder = "filter references"
	ti.Prompt = "/ "
	ti.Width = 40

	m := &browserModel{report: report, filter: ti}
	m.refresh()
	return m
}

// refresh recomputes the visible outcomes from the filter state.
func (m *browserModel) refresh() {
	m.visible = m.visible[:0]
	needle := strings.ToLower(m.filter.Value())
	for _, o := range m.report.Outcomes {
		if m.kindSet && o.Kind != m.kindOnly {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(o.Old), needle) &&
			!strings.Contains(strings.ToLower(o.New), needle) &&
			!strings.Contains(strings.ToLower(o.RuleID), needle) {
			continue
		}
		m.visible = append(m.visible, o)
	}
	if m.selected >= len(m.visible) {
		m.selected = 0
	}
}

func (m *browserModel) Init() tea.Cmd {
	return nil
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.filterOn {
		switch key.String() {
		case "enter", "esc":
			m.filterOn = false
			m.filter.Blur()
			if key.String() == "esc" {
				m.filter.SetValue("")
				m.refresh()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.refresh()
			return m, cmd
		}
	}

	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}

	case "down", "j":
		if m.selected < len(m.visible)-1 {
			m.selected++
		}

	case "/":
		m.filterOn = true
		m.filter.Focus()

	case "tab":
		// Cycle all -> rewritten -> unresolved -> unchanged -> all.
		switch {
		case !m.kindSet:
			m.kindSet = true
			m.kindOnly = rewrite.OutcomeRewritten
		case m.kindOnly == rewrite.OutcomeRewritten:
			m.kindOnly = rewrite.OutcomeUnresolved
		case m.kindOnly == rewrite.OutcomeUnresolved:
			m.kindOnly = rewrite.OutcomeUnchanged
		default:
			m.kindSet = false
		}
		m.refresh()

	case "esc":
		m.filter.SetValue("")
		m.kindSet = false
		m.refresh()
	}

	return m, nil
}

func (m *browserModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("modshim"))
	fmt.Fprintf(&b, " %s against host %s\n", m.report.Module, m.report.HostVersion)
	fmt.Fprintf(&b, "%s  %s  %s",
		rewrittenStyle.Render(fmt.Sprintf("%d rewritten", m.report.Rewritten)),
		unresolvedStyle.Render(fmt.Sprintf("%d unresolved", m.report.Unresolved)),
		unchangedStyle.Render(fmt.Sprintf("%d unchanged", m.report.Unchanged)))
	if m.kindSet {
		fmt.Fprintf(&b, "  showing: %s", m.kindOnly)
	}
	b.WriteString("\n\n")

	if m.filterOn || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
	}

	if len(m.visible) == 0 {
		b.WriteString(helpStyle.Render("no outcomes match"))
		b.WriteString("\n")
	}
	for i, o := range m.visible {
		cursor := "  "
		if i == m.selected {
			cursor = "> "
		}
		b.WriteString(cursor + renderOutcome(o) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ select • tab cycle kind • / filter • esc clear • q quit"))
	b.WriteString("\n")
	return b.String()
}

func runInteractive(report *rewrite.Report) error {
	p := tea.NewProgram(newBrowserModel(report), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
