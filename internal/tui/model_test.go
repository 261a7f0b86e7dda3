package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sdlcwizard/internal/assistant"
	"sdlcwizard/internal/orchestrator"
	"sdlcwizard/internal/steps"
	"sdlcwizard/internal/store"
	"sdlcwizard/internal/workflow"
)

var (
	keyCtrlS = tea.KeyMsg{Type: tea.KeyCtrlS}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

type testEnv struct {
	model     *Model
	ctrl      *workflow.Controller
	gen       *orchestrator.MockGenerator
	completer *assistant.MockCompleter
	exportDir string
}

func newTestEnv(t *testing.T, reg *steps.Registry) *testEnv {
	t.Helper()

	ctx := context.Background()
	notices := &Notices{}
	ctrl := workflow.NewController(ctx, reg, store.NewAdapter(store.NewMemoryBackend(), nil),
		workflow.WithNotifier(notices))
	gen := &orchestrator.MockGenerator{}
	completer := &assistant.MockCompleter{Reply: "Use Go."}
	dir := t.TempDir()

	m := New(ctx, Options{
		Controller:   ctrl,
		Orchestrator: orchestrator.New(ctrl, gen),
		Assistant:    assistant.New(completer, reg),
		Notices:      notices,
		ExportDir:    dir,
		Now:          func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) },
	})
	return &testEnv{model: m, ctrl: ctrl, gen: gen, completer: completer, exportDir: dir}
}

// press sends one key and returns the resulting command without running it.
func (e *testEnv) press(msg tea.KeyMsg) tea.Cmd {
	_, cmd := e.model.Update(msg)
	return cmd
}

// drain runs cmd and every command it produces, feeding messages back into
// the model. Animation ticks are dropped.
func (e *testEnv) drain(t *testing.T, cmd tea.Cmd) {
	t.Helper()

	queue := []tea.Cmd{cmd}
	for i := 0; len(queue) > 0; i++ {
		require.Less(t, i, 100, "command loop did not settle")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil, spinner.TickMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, c := e.model.Update(msg)
			queue = append(queue, c)
		}
	}
}

func (e *testEnv) start(t *testing.T) {
	t.Helper()

	e.model.apiKey.SetValue("test-key")
	e.model.description.SetValue("todo app")
	e.drain(t, e.press(keyCtrlS))
}

func TestIntake_RequiresFields(t *testing.T) {
	env := newTestEnv(t, steps.Default())

	env.press(keyCtrlS)
	assert.Equal(t, "API key is required", env.model.status)

	env.model.apiKey.SetValue("test-key")
	env.press(keyCtrlS)
	assert.Equal(t, "project description is required", env.model.status)

	assert.Equal(t, screenIntake, env.model.screen)
	assert.Equal(t, steps.IntakeID, env.ctrl.Snapshot().CurrentStep)
	assert.Equal(t, 0, env.gen.Calls())
}

func TestIntake_StartGeneratesFirstStep(t *testing.T) {
	env := newTestEnv(t, steps.Default())

	env.start(t)

	state := env.ctrl.Snapshot()
	assert.Equal(t, "roadmap", state.CurrentStep)
	assert.Equal(t, "test-key", state.Credential)
	assert.True(t, state.HasContent("roadmap"))
	assert.Equal(t, 1, env.gen.Calls())
	assert.Contains(t, env.gen.LastRequest().Prompt, "'todo app'")
	assert.Equal(t, screenStep, env.model.screen)
	assert.False(t, env.model.orch.InFlight())
	assert.Contains(t, env.model.View(), "Road Map")
}

func TestApprove_AdvancesAndGenerates(t *testing.T) {
	env := newTestEnv(t, steps.Default())
	env.start(t)

	env.drain(t, env.press(runes("a")))

	state := env.ctrl.Snapshot()
	assert.True(t, state.IsApproved("roadmap"))
	assert.Equal(t, "user_stories", state.CurrentStep)
	assert.True(t, state.HasContent("user_stories"))
	assert.Equal(t, 2, env.gen.Calls())
	assert.Equal(t, "Road Map approved", env.model.status)
}

func TestApprove_WithoutContentIsRefused(t *testing.T) {
	env := newTestEnv(t, steps.Default())
	env.model.apiKey.SetValue("test-key")
	env.model.description.SetValue("todo app")
	env.press(keyCtrlS) // generation never completes

	env.press(runes("a"))

	assert.Equal(t, "Road Map has no content to approve yet", env.model.status)
	state := env.ctrl.Snapshot()
	assert.Equal(t, "roadmap", state.CurrentStep)
	assert.False(t, state.IsApproved("roadmap"))
}

func TestFeedback_Regenerates(t *testing.T) {
	env := newTestEnv(t, steps.Default())
	env.start(t)

	env.press(runes("f"))
	require.Equal(t, screenFeedback, env.model.screen)
	env.model.feedback.SetValue("add a budget")
	env.drain(t, env.press(keyCtrlS))

	assert.Equal(t, screenStep, env.model.screen)
	assert.Equal(t, 2, env.gen.Calls())
	assert.True(t, strings.HasSuffix(env.gen.LastRequest().Prompt, "Please incorporate this feedback: add a budget"))
	r := env.ctrl.Snapshot().Record("roadmap")
	assert.Empty(t, r.Feedback)
	assert.NotEmpty(t, r.Content)
}

func TestFeedback_EmptyAndCancel(t *testing.T) {
	env := newTestEnv(t, steps.Default())
	env.start(t)

	env.press(runes("f"))
	env.press(keyCtrlS)
	assert.Equal(t, "Feedback is empty", env.model.status)
	assert.Equal(t, screenFeedback, env.model.screen)

	env.press(keyEsc)
	assert.Equal(t, screenStep, env.model.screen)
	assert.Equal(t, 1, env.gen.Calls())
}

func TestNavigate_DeniedShowsNotice(t *testing.T) {
	env := newTestEnv(t, steps.Default())
	env.start(t)

	env.drain(t, env.press(keyRight))

	assert.Equal(t, "Complete the previous steps to access User Stories", env.model.status)
	assert.Equal(t, workflow.LevelError, env.model.statusLevel)
	assert.Equal(t, "roadmap", env.ctrl.Snapshot().CurrentStep)
}

func TestNavigate_NumberKeyOnlyReachesAccessibleSteps(t *testing.T) {
	env := newTestEnv(t, steps.Default())
	env.start(t)
	env.drain(t, env.press(runes("a")))
	require.Equal(t, 2, env.gen.Calls())
	env.drain(t, env.press(runes("1")))
	require.Equal(t, "roadmap", env.ctrl.Snapshot().CurrentStep)

	env.drain(t, env.press(runes("3")))

	assert.Equal(t, "Complete the previous steps to access Design Docs", env.model.status)
	assert.Equal(t, workflow.LevelError, env.model.statusLevel)
	assert.Equal(t, "roadmap", env.ctrl.Snapshot().CurrentStep)

	env.drain(t, env.press(runes("2")))

	assert.Equal(t, "user_stories", env.ctrl.Snapshot().CurrentStep)
	assert.Equal(t, 2, env.gen.Calls())
}

func TestNavigate_IntakeIsPrefilled(t *testing.T) {
	env := newTestEnv(t, steps.Default())
	env.start(t)

	env.drain(t, env.press(runes("i")))

	assert.Equal(t, screenIntake, env.model.screen)
	assert.Equal(t, "todo app", env.model.description.Value())
	assert.Equal(t, "test-key", env.model.apiKey.Value())

	env.drain(t, env.press(keyEsc))
	assert.Equal(t, screenStep, env.model.screen)
	assert.Equal(t, "roadmap", env.ctrl.Snapshot().CurrentStep)
	assert.Equal(t, 1, env.gen.Calls())
}

func TestReset_DiscardsInFlightResult(t *testing.T) {
	env := newTestEnv(t, steps.Default())
	env.model.apiKey.SetValue("test-key")
	env.model.description.SetValue("todo app")
	pending := env.press(keyCtrlS)

	env.press(runes("R"))
	env.press(runes("y"))
	require.Equal(t, screenIntake, env.model.screen)

	env.drain(t, pending)

	state := env.ctrl.Snapshot()
	assert.Equal(t, steps.IntakeID, state.CurrentStep)
	assert.Empty(t, state.Records)
	assert.Empty(t, state.Credential)
	assert.False(t, env.model.orch.InFlight())
}

func TestReset_Cancelled(t *testing.T) {
	env := newTestEnv(t, steps.Default())
	env.start(t)

	env.press(runes("R"))
	env.press(runes("n"))

	assert.Equal(t, "Reset cancelled", env.model.status)
	assert.Equal(t, "roadmap", env.ctrl.Snapshot().CurrentStep)
}

func TestAsk_ShowsAnswer(t *testing.T) {
	env := newTestEnv(t, steps.Default())
	env.start(t)

	env.press(runes("?"))
	require.Equal(t, screenAsk, env.model.screen)
	env.model.question.SetValue("which stack?")
	env.drain(t, env.press(keyEnter))

	assert.Equal(t, "Use Go.", env.model.answer)
	require.Len(t, env.completer.Prompts, 1)
	assert.Contains(t, env.completer.Prompts[0], "User Question: which stack?")
	assert.Contains(t, env.model.View(), "Use Go.")

	env.press(keyEsc)
	assert.Equal(t, screenStep, env.model.screen)
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, steps.Default())
	env.start(t)

	env.press(runes("e"))
	assert.True(t, strings.HasPrefix(env.model.status, "Exported "), env.model.status)
	env.press(runes("s"))
	assert.True(t, strings.HasPrefix(env.model.status, "Exported "), env.model.status)

	jsonFiles, err := filepath.Glob(filepath.Join(env.exportDir, "full_workflow_*.json"))
	require.NoError(t, err)
	assert.Len(t, jsonFiles, 1)
	mdFiles, err := filepath.Glob(filepath.Join(env.exportDir, "roadmap_*.md"))
	require.NoError(t, err)
	assert.Len(t, mdFiles, 1)
}

func TestCompletion(t *testing.T) {
	reg := steps.MustNewRegistry([]steps.Step{
		{ID: steps.IntakeID, Label: "Getting Started"},
		{ID: "plan", Label: "Plan", PromptTemplate: "Plan {prompt}"},
		{ID: "build", Label: "Build", PromptTemplate: "Build {prompt}"},
	})
	env := newTestEnv(t, reg)
	env.start(t)

	env.drain(t, env.press(runes("a")))
	env.drain(t, env.press(runes("a")))

	assert.Equal(t, steps.TerminalID, env.ctrl.Snapshot().CurrentStep)
	assert.Equal(t, screenComplete, env.model.screen)
	assert.Contains(t, env.model.View(), "All steps approved")

	env.press(runes("e"))
	files, err := filepath.Glob(filepath.Join(env.exportDir, "final_workflow_*.json"))
	require.NoError(t, err)
	assert.Len(t, files, 1)

	env.drain(t, env.press(runes("h")))
	assert.Equal(t, "build", env.ctrl.Snapshot().CurrentStep)
	assert.Equal(t, screenStep, env.model.screen)
}

func TestGenerationFailureIsShown(t *testing.T) {
	env := newTestEnv(t, steps.Default())
	env.gen.Results = []orchestrator.Result{orchestrator.Failure("Error: boom")}

	env.start(t)

	assert.Equal(t, "Generation failed for Road Map", env.model.status)
	assert.Equal(t, "Error: boom", env.ctrl.Snapshot().Record("roadmap").Content)
}

func TestInit_ResumesGeneration(t *testing.T) {
	env := newTestEnv(t, steps.Default())
	env.ctrl.Start(context.Background(), "test-key", "todo app")

	env.drain(t, env.model.Init())

	assert.True(t, env.ctrl.Snapshot().HasContent("roadmap"))
	assert.Equal(t, 1, env.gen.Calls())
}

func TestQuit(t *testing.T) {
	env := newTestEnv(t, steps.Default())
	env.start(t)

	cmd := env.press(runes("q"))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestWindowResize(t *testing.T) {
	env := newTestEnv(t, steps.Default())

	env.model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Equal(t, 120-sidebarWidth-4, env.model.content.Width)
	assert.Equal(t, 32, env.model.content.Height)
}

func TestNotices_KeepsLatest(t *testing.T) {
	n := &Notices{}
	_, _, ok := n.take()
	assert.False(t, ok)

	n.Notify(workflow.LevelInfo, "first")
	n.Notify(workflow.LevelError, "second")

	level, msg, ok := n.take()
	assert.True(t, ok)
	assert.Equal(t, workflow.LevelError, level)
	assert.Equal(t, "second", msg)
	_, _, ok = n.take()
	assert.False(t, ok)
}
