package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"sdlcwizard/internal/output"
	"sdlcwizard/internal/steps"
	"sdlcwizard/internal/workflow"
)

var (
	sidebarStyle = lipgloss.NewStyle().
			Width(sidebarWidth).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(output.ColorMuted)).
			Padding(0, 1)
	mainStyle = lipgloss.NewStyle().Padding(0, 1)
	helpStyle = output.MutedStyle
)

// View renders the wizard.
func (m *Model) View() string {
	state := m.ctrl.Snapshot()
	reg := m.ctrl.Registry()

	var main string
	switch m.screen {
	case screenIntake:
		main = m.viewIntake()
	case screenFeedback:
		main = m.viewFeedback(reg)
	case screenAsk:
		main = m.viewAsk()
	case screenComplete:
		main = m.viewComplete(reg, state)
	default:
		main = m.viewStep(reg, state)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		sidebarStyle.Render(m.viewSidebar(reg, state)),
		mainStyle.Render(main),
	)
	return lipgloss.JoinVertical(lipgloss.Left,
		output.TitleStyle.Render("SDLC Wizard"),
		body,
		m.viewStatus(),
		helpStyle.Render(m.help()),
	)
}

func (m *Model) viewSidebar(reg *steps.Registry, state workflow.State) string {
	var b strings.Builder
	accessible := accessibleSet(reg, state)
	for i, s := range reg.Steps() {
		marker := output.StepMarker(state, s.ID)
		if m.generatingStep(s.ID) {
			marker = m.spinner.View()
		}
		line := fmt.Sprintf("%s %d %s", marker, i, s.Label)

		switch {
		case s.ID == state.CurrentStep:
			line = output.CurrentStyle.Render("▶ " + line)
		case !accessible[s.ID]:
			line = output.MutedStyle.Render("  " + line)
		case state.IsApproved(s.ID):
			line = output.SuccessStyle.Render("  " + line)
		default:
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	approved := 0
	for _, r := range state.Records {
		if r.Approved {
			approved++
		}
	}
	fmt.Fprintf(&b, "\n%d/%d approved", approved, len(reg.Steps())-1)
	return b.String()
}

func (m *Model) viewIntake() string {
	return strings.Join([]string{
		output.TitleStyle.Render("Getting Started"),
		"",
		"API key",
		m.apiKey.View(),
		"",
		"Project description",
		m.description.View(),
	}, "\n")
}

func (m *Model) viewStep(reg *steps.Registry, state workflow.State) string {
	id := state.CurrentStep
	title := output.TitleStyle.Render(reg.Label(id))
	if state.IsApproved(id) {
		title += " " + output.SuccessStyle.Render(output.MarkApproved+" approved")
	}
	if m.generatingStep(id) {
		title += " " + m.spinner.View()
	}
	return title + "\n\n" + m.content.View()
}

func (m *Model) viewFeedback(reg *steps.Registry) string {
	id := m.ctrl.Snapshot().CurrentStep
	return output.TitleStyle.Render("Feedback for "+reg.Label(id)) + "\n\n" + m.feedback.View()
}

func (m *Model) viewAsk() string {
	var b strings.Builder
	b.WriteString(output.TitleStyle.Render("Ask about your project") + "\n\n")
	b.WriteString(m.question.View() + "\n\n")
	switch {
	case m.asking:
		b.WriteString(m.spinner.View() + " Thinking...")
	case m.answer != "":
		b.WriteString(m.answer)
	}
	return b.String()
}

func (m *Model) viewComplete(reg *steps.Registry, state workflow.State) string {
	var b strings.Builder
	b.WriteString(output.SuccessStyle.Render("All steps approved") + "\n\n")
	if state.ProjectDescription != "" {
		fmt.Fprintf(&b, "Project: %s\n\n", state.ProjectDescription)
	}
	for _, s := range reg.Steps() {
		if state.IsApproved(s.ID) {
			fmt.Fprintf(&b, "%s %s\n", output.MarkApproved, s.Label)
		}
	}
	b.WriteString("\nPress e to export the final workflow.")
	return b.String()
}

func (m *Model) viewStatus() string {
	if m.status == "" {
		return ""
	}
	switch m.statusLevel {
	case workflow.LevelSuccess:
		return output.SuccessStyle.Render(m.status)
	case workflow.LevelWarning:
		return output.WarningStyle.Render(m.status)
	case workflow.LevelError:
		return output.ErrorStyle.Render(m.status)
	default:
		return output.InfoStyle.Render(m.status)
	}
}

func (m *Model) help() string {
	switch m.screen {
	case screenIntake:
		return "tab switch field • ctrl+s start • ctrl+c quit"
	case screenFeedback:
		return "ctrl+s submit • esc cancel"
	case screenAsk:
		return "enter ask • esc close"
	case screenComplete:
		return "e export • ← back • i intake • R reset • q quit"
	default:
		return "a approve • f feedback • ←/→ navigate • 1-9 jump • ? ask • e export • s save step • R reset • q quit"
	}
}
