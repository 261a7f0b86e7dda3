package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sdlcwizard/internal/assistant"
	"sdlcwizard/internal/config"
	"sdlcwizard/internal/logging"
	"sdlcwizard/internal/orchestrator"
	"sdlcwizard/internal/output"
	"sdlcwizard/internal/store"
	"sdlcwizard/internal/tui"
)

// testNow is the fixed clock used for export file names in tests.
var testNow = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

// MockWizard records wizard launches instead of opening a terminal UI.
type MockWizard struct {
	// Calls records the options of every launch.
	Calls []tui.Options
	// Err is returned from every launch.
	Err error
}

// Run implements App.RunWizard.
func (m *MockWizard) Run(_ context.Context, opts tui.Options) error {
	m.Calls = append(m.Calls, opts)
	return m.Err
}

// testApp bundles an App with the mocks behind it.
type testApp struct {
	app       *App
	out       *bytes.Buffer
	backend   *store.MemoryBackend
	gen       *orchestrator.MockGenerator
	completer *assistant.MockCompleter
	wizard    *MockWizard
	exportDir string
}

// newTestApp creates an App backed by memory storage, a mock generator and a
// buffered printer. Successive commands share the session.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Store.Backend = config.BackendMemory
	cfg.Store.Dir = filepath.Join(t.TempDir(), "sessions")
	cfg.Log.File = filepath.Join(t.TempDir(), "test.log")
	cfg.Output.ExportDir = t.TempDir()

	ta := &testApp{
		out:       &bytes.Buffer{},
		backend:   store.NewMemoryBackend(),
		gen:       &orchestrator.MockGenerator{},
		completer: &assistant.MockCompleter{Reply: "Use Go."},
		wizard:    &MockWizard{},
		exportDir: cfg.Output.ExportDir,
	}
	ta.app = &App{
		Config:    cfg,
		Logger:    logging.Discard(),
		Backend:   ta.backend,
		Generator: ta.gen,
		Completer: ta.completer,
		Printer:   output.NewPrinterWithWriter(ta.out),
		Now:       func() time.Time { return testNow },
		RunWizard: ta.wizard.Run,
	}
	return ta
}

// run executes one command line and returns its result. Output produced by
// earlier commands is discarded.
func (ta *testApp) run(args ...string) ExecuteResult {
	ta.out.Reset()
	return Run(context.Background(), ta.app, args)
}

// writeTestFile writes content to name inside a temporary directory.
func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}
