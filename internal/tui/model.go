// Package tui is the interactive wizard.
//
// The bubbletea update loop is the only place that drives the workflow
// controller. Generation runs as a tea.Cmd and reports back with a
// generationDoneMsg, so a result is always applied on the loop that started
// it and stale results are filtered by the controller's tickets.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"sdlcwizard/internal/assistant"
	"sdlcwizard/internal/export"
	"sdlcwizard/internal/orchestrator"
	"sdlcwizard/internal/output"
	"sdlcwizard/internal/steps"
	"sdlcwizard/internal/workflow"
)

// screen is the panel currently shown.
type screen int

const (
	screenNone screen = iota
	screenIntake
	screenStep
	screenFeedback
	screenAsk
	screenComplete
)

const (
	sidebarWidth  = 34
	defaultWidth  = 100
	defaultHeight = 30
)

// generationDoneMsg carries a finished job back to the update loop.
type generationDoneMsg struct {
	job    *orchestrator.Job
	result orchestrator.Result
}

// askDoneMsg carries the assistant's reply.
type askDoneMsg struct {
	question string
	reply    string
	err      error
}

// Options wires the wizard to a session.
type Options struct {
	Controller   *workflow.Controller
	Orchestrator *orchestrator.Orchestrator
	Assistant    *assistant.Assistant

	// Notices must be the notifier the controller was built with.
	Notices *Notices

	// ExportDir receives exported files. Default: current directory.
	ExportDir string

	Logger *slog.Logger
	Now    func() time.Time
}

// Model is the wizard's bubbletea model.
type Model struct {
	ctx       context.Context
	ctrl      *workflow.Controller
	orch      *orchestrator.Orchestrator
	assistant *assistant.Assistant
	notices   *Notices
	exportDir string
	logger    *slog.Logger
	now       func() time.Time

	screen      screen
	apiKey      textinput.Model
	description textarea.Model
	intakeFocus int
	feedback    textarea.Model
	question    textinput.Model
	content     viewport.Model
	spinner     spinner.Model

	generatingOn string
	asking       bool
	answer       string
	confirmReset bool

	status      string
	statusLevel workflow.Level

	width  int
	height int
}

// New builds the model and syncs it with the controller's current state.
func New(ctx context.Context, opts Options) *Model {
	if opts.Notices == nil {
		opts.Notices = &Notices{}
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	apiKey := textinput.New()
	apiKey.Placeholder = "Gemini API key"
	apiKey.EchoMode = textinput.EchoPassword
	apiKey.EchoCharacter = '•'
	apiKey.Cursor.SetMode(cursor.CursorStatic)

	description := textarea.New()
	description.Placeholder = "Describe the project you want to build..."
	description.ShowLineNumbers = false
	description.Cursor.SetMode(cursor.CursorStatic)

	feedback := textarea.New()
	feedback.Placeholder = "What should change?"
	feedback.ShowLineNumbers = false
	feedback.Cursor.SetMode(cursor.CursorStatic)

	question := textinput.New()
	question.Placeholder = "Ask about your project"
	question.Cursor.SetMode(cursor.CursorStatic)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = output.InfoStyle

	m := &Model{
		ctx:         ctx,
		ctrl:        opts.Controller,
		orch:        opts.Orchestrator,
		assistant:   opts.Assistant,
		notices:     opts.Notices,
		exportDir:   opts.ExportDir,
		logger:      opts.Logger,
		now:         opts.Now,
		apiKey:      apiKey,
		description: description,
		feedback:    feedback,
		question:    question,
		content:     viewport.New(defaultWidth-sidebarWidth, defaultHeight-8),
		spinner:     sp,
		width:       defaultWidth,
		height:      defaultHeight,
	}
	m.resize()
	m.sync()
	return m
}

// Run starts the wizard and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(New(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init resumes generation for a rehydrated session.
func (m *Model) Init() tea.Cmd {
	return m.maybeGenerate()
}

// Update handles one message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case generationDoneMsg:
		return m, m.handleGenerationDone(msg)

	case askDoneMsg:
		m.asking = false
		if msg.err != nil {
			m.setStatus(workflow.LevelError, msg.err.Error())
			return m, nil
		}
		m.answer = msg.reply
		return m, nil

	case spinner.TickMsg:
		if !m.orch.InFlight() && !m.asking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.screen {
		case screenIntake:
			return m, m.updateIntake(msg)
		case screenFeedback:
			return m, m.updateFeedback(msg)
		case screenAsk:
			return m, m.updateAsk(msg)
		default:
			return m, m.updateStep(msg)
		}
	}
	return m, nil
}

func (m *Model) handleGenerationDone(msg generationDoneMsg) tea.Cmd {
	recorded := m.orch.Complete(m.ctx, msg.job, msg.result)
	m.generatingOn = ""

	if recorded && !msg.result.OK {
		m.setStatus(workflow.LevelError, fmt.Sprintf("Generation failed for %s", msg.job.Step.Label))
	}
	m.sync()
	return m.maybeGenerate()
}

// maybeGenerate starts a job when the current step needs one.
func (m *Model) maybeGenerate() tea.Cmd {
	job, ok := m.orch.Begin(m.ctx)
	if !ok {
		return nil
	}
	m.generatingOn = job.Step.ID
	m.sync()

	ctx, orch := m.ctx, m.orch
	run := func() tea.Msg {
		return generationDoneMsg{job: job, result: orch.Execute(ctx, job)}
	}
	return tea.Batch(m.spinner.Tick, run)
}

func (m *Model) updateIntake(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+s":
		return m.submitIntake()
	case "tab", "shift+tab":
		m.focusIntake(1 - m.intakeFocus)
		return nil
	case "enter":
		if m.intakeFocus == 0 {
			m.focusIntake(1)
			return nil
		}
	case "esc":
		if m.ctrl.Snapshot().ProjectDescription != "" {
			return m.navigate(m.ctrl.Registry().First().ID)
		}
		return nil
	}

	var cmd tea.Cmd
	if m.intakeFocus == 0 {
		m.apiKey, cmd = m.apiKey.Update(msg)
	} else {
		m.description, cmd = m.description.Update(msg)
	}
	return cmd
}

func (m *Model) focusIntake(i int) {
	m.intakeFocus = i
	if i == 0 {
		m.description.Blur()
		m.apiKey.Focus()
		return
	}
	m.apiKey.Blur()
	m.description.Focus()
}

func (m *Model) submitIntake() tea.Cmd {
	key, desc := m.apiKey.Value(), m.description.Value()
	if err := workflow.ValidateIntake(key, desc); err != nil {
		m.setStatus(workflow.LevelError, intakeMessage(err))
		return nil
	}

	m.ctrl.Start(m.ctx, key, desc)
	m.setStatus(workflow.LevelSuccess, "Workflow started")
	m.sync()
	return m.maybeGenerate()
}

func intakeMessage(err error) string {
	msg := err.Error()
	prefix := workflow.ErrInvalidIntake.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		msg = msg[len(prefix):]
	}
	return msg
}

func (m *Model) updateStep(msg tea.KeyMsg) tea.Cmd {
	if m.confirmReset {
		m.confirmReset = false
		if msg.String() == "y" {
			m.ctrl.Reset(m.ctx)
			m.answer = ""
			m.apiKey.SetValue("")
			m.description.Reset()
			m.setStatus(workflow.LevelInfo, "Session cleared")
			m.sync()
			return nil
		}
		m.setStatus(workflow.LevelInfo, "Reset cancelled")
		return nil
	}

	state := m.ctrl.Snapshot()
	reg := m.ctrl.Registry()

	switch msg.String() {
	case "q":
		return tea.Quit
	case "a":
		if m.screen == screenComplete {
			return nil
		}
		return m.approve(state.CurrentStep)
	case "f":
		if m.screen == screenComplete {
			return nil
		}
		if !state.HasContent(state.CurrentStep) {
			m.setStatus(workflow.LevelWarning, "Wait for content before giving feedback")
			return nil
		}
		m.screen = screenFeedback
		m.feedback.Reset()
		m.feedback.Focus()
		return nil
	case "?":
		m.screen = screenAsk
		m.question.SetValue("")
		m.question.Focus()
		return nil
	case "left", "h":
		if steps.IsTerminal(state.CurrentStep) {
			all := reg.Steps()
			return m.navigate(all[len(all)-1].ID)
		}
		if i := reg.IndexOf(state.CurrentStep); i > 0 {
			return m.navigate(reg.Steps()[i-1].ID)
		}
	case "right", "l":
		if next, ok := reg.Next(state.CurrentStep); ok {
			return m.navigate(next.ID)
		}
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		i := int(msg.Runes[0] - '0')
		all := reg.Steps()
		if i >= len(all) {
			return nil
		}
		if !accessibleSet(reg, state)[all[i].ID] {
			m.setStatus(workflow.LevelError, fmt.Sprintf("Complete the previous steps to access %s", all[i].Label))
			return nil
		}
		return m.navigate(all[i].ID)
	case "i":
		return m.navigate(steps.IntakeID)
	case "e":
		m.exportWorkflow(state)
		return nil
	case "s":
		m.exportStep(state)
		return nil
	case "R":
		m.confirmReset = true
		m.setStatus(workflow.LevelWarning, "Clear the whole session? (y/N)")
		return nil
	}

	var cmd tea.Cmd
	m.content, cmd = m.content.Update(msg)
	return cmd
}

func (m *Model) approve(id string) tea.Cmd {
	err := m.ctrl.Approve(m.ctx, id)
	switch {
	case errors.Is(err, workflow.ErrNoContent):
		m.setStatus(workflow.LevelWarning, fmt.Sprintf("%s has no content to approve yet", m.ctrl.Registry().Label(id)))
		return nil
	case err != nil:
		m.setStatus(workflow.LevelError, err.Error())
		return nil
	}

	m.setStatus(workflow.LevelSuccess, fmt.Sprintf("%s approved", m.ctrl.Registry().Label(id)))
	m.sync()
	return m.maybeGenerate()
}

func (m *Model) navigate(id string) tea.Cmd {
	if err := m.ctrl.NavigateTo(m.ctx, id); err != nil && !errors.Is(err, workflow.ErrNavigationDenied) {
		m.setStatus(workflow.LevelError, err.Error())
	}
	m.pullNotice()
	m.sync()
	return m.maybeGenerate()
}

func (m *Model) updateFeedback(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.feedback.Blur()
		m.screen = screenStep
		return nil
	case "ctrl+s":
		id := m.ctrl.Snapshot().CurrentStep
		if err := m.ctrl.SubmitFeedback(m.ctx, id, m.feedback.Value()); err != nil {
			if errors.Is(err, workflow.ErrEmptyFeedback) {
				m.setStatus(workflow.LevelWarning, "Feedback is empty")
				return nil
			}
			m.setStatus(workflow.LevelError, err.Error())
			return nil
		}
		m.feedback.Blur()
		m.screen = screenNone
		m.setStatus(workflow.LevelInfo, fmt.Sprintf("Regenerating %s with your feedback", m.ctrl.Registry().Label(id)))
		m.sync()
		return m.maybeGenerate()
	}

	var cmd tea.Cmd
	m.feedback, cmd = m.feedback.Update(msg)
	return cmd
}

func (m *Model) updateAsk(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.question.Blur()
		m.screen = screenNone
		m.sync()
		return nil
	case "enter":
		if m.asking || m.assistant == nil {
			return nil
		}
		question := m.question.Value()
		m.asking = true
		m.answer = ""

		ctx, a, state := m.ctx, m.assistant, m.ctrl.Snapshot()
		ask := func() tea.Msg {
			reply, err := a.Ask(ctx, question, state)
			return askDoneMsg{question: question, reply: reply, err: err}
		}
		return tea.Batch(m.spinner.Tick, ask)
	}

	var cmd tea.Cmd
	m.question, cmd = m.question.Update(msg)
	return cmd
}

func (m *Model) exportWorkflow(state workflow.State) {
	final := steps.IsTerminal(state.CurrentStep)
	path, err := export.WriteWorkflow(m.exportDir, m.ctrl.Registry(), state, final, m.now())
	if err != nil {
		m.setStatus(workflow.LevelError, err.Error())
		return
	}
	m.setStatus(workflow.LevelSuccess, "Exported "+path)
}

func (m *Model) exportStep(state workflow.State) {
	path, err := export.WriteStep(m.exportDir, state, state.CurrentStep, m.now())
	if err != nil {
		m.setStatus(workflow.LevelWarning, "Nothing to export for this step yet")
		return
	}
	m.setStatus(workflow.LevelSuccess, "Exported "+path)
}

// sync derives the screen and viewport content from the controller.
func (m *Model) sync() {
	state := m.ctrl.Snapshot()
	reg := m.ctrl.Registry()

	switch {
	case steps.IsIntake(state.CurrentStep):
		if m.screen != screenIntake {
			m.apiKey.SetValue(state.Credential)
			m.description.SetValue(state.ProjectDescription)
			m.focusIntake(0)
		}
		m.screen = screenIntake
		return
	case m.screen == screenFeedback || m.screen == screenAsk:
		// modal panels stay open while content updates underneath
	case steps.IsTerminal(state.CurrentStep):
		m.screen = screenComplete
	default:
		m.screen = screenStep
	}

	id := state.CurrentStep
	switch {
	case state.HasContent(id):
		m.content.SetContent(state.Record(id).Content)
	case m.generatingStep(id):
		m.content.SetContent(fmt.Sprintf("Generating %s...", reg.Label(id)))
	default:
		m.content.SetContent("")
	}
	m.content.GotoTop()
}

// generatingStep reports whether a job for id is running.
func (m *Model) generatingStep(id string) bool {
	return m.generatingOn == id && m.orch.InFlight()
}

func accessibleSet(reg *steps.Registry, state workflow.State) map[string]bool {
	set := make(map[string]bool)
	for _, s := range workflow.AccessibleSteps(reg, state) {
		set[s.ID] = true
	}
	return set
}

func (m *Model) resize() {
	w := m.width - sidebarWidth - 4
	if w < 20 {
		w = 20
	}
	h := m.height - 8
	if h < 5 {
		h = 5
	}
	m.content.Width = w
	m.content.Height = h
	m.description.SetWidth(w)
	m.description.SetHeight(6)
	m.feedback.SetWidth(w)
	m.feedback.SetHeight(5)
	m.apiKey.Width = w - 4
	m.question.Width = w - 4
}

func (m *Model) setStatus(level workflow.Level, message string) {
	m.statusLevel = level
	m.status = message
}

// pullNotice moves a pending controller notification to the status line.
func (m *Model) pullNotice() {
	if level, msg, ok := m.notices.take(); ok {
		m.setStatus(level, msg)
	}
}
