package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"sdlcwizard/internal/assistant"
	"sdlcwizard/internal/config"
	"sdlcwizard/internal/gemini"
	"sdlcwizard/internal/logging"
	"sdlcwizard/internal/orchestrator"
	"sdlcwizard/internal/output"
	"sdlcwizard/internal/steps"
	"sdlcwizard/internal/store"
	"sdlcwizard/internal/tui"
	"sdlcwizard/internal/workflow"
)

// App holds the dependencies shared by all commands.
//
// Exported fields are injection points: whatever is nil when a command runs
// is built from the configuration. Tests typically set Config, Backend,
// Generator, Completer and Printer.
type App struct {
	// Config is loaded from --config or the default locations when nil.
	Config *config.Config

	// Logger defaults to a rotating log file.
	Logger *slog.Logger

	// Backend stores the session. Defaults to the configured store backend.
	Backend store.Backend

	// Generator produces step content. Defaults to the Gemini client.
	Generator orchestrator.Generator

	// Completer answers "ask" questions. Defaults to the Gemini client.
	Completer assistant.Completer

	// Printer renders command output.
	Printer *output.Printer

	// Now stamps exports. Defaults to time.Now.
	Now func() time.Time

	// RunWizard starts the interactive wizard. Replaced in tests.
	RunWizard func(ctx context.Context, opts tui.Options) error

	flags struct {
		configPath string
		session    string
		verbose    bool
		noGenerate bool
	}

	registry     *steps.Registry
	adapter      *store.Adapter
	controller   *workflow.Controller
	orchestrator *orchestrator.Orchestrator
	assistant    *assistant.Assistant
	closers      []io.Closer
}

// setup fills in every dependency that was not injected and opens the
// session.
func (a *App) setup(ctx context.Context) error {
	if a.Config == nil {
		cfg, err := loadConfig(a.flags.configPath)
		if err != nil {
			a.printer().Error("%v", err)
			return NewExitError(1)
		}
		a.Config = cfg
	}
	if a.flags.session != "" {
		a.Config.Session = a.flags.session
	}
	if a.flags.verbose {
		a.Config.Log.Level = "debug"
	}

	p := a.printer()
	p.SetTruncation(a.Config.Output.TruncateLines, a.Config.Output.TruncateLength)

	if a.Logger == nil {
		logger, closer, err := logging.New(logging.Options{
			File:       a.Config.Log.File,
			Level:      a.Config.Log.Level,
			MaxSizeMB:  a.Config.Log.MaxSizeMB,
			MaxBackups: a.Config.Log.MaxBackups,
			MaxAgeDays: a.Config.Log.MaxAgeDays,
		})
		if err != nil {
			p.Notify(workflow.LevelWarning, fmt.Sprintf("logging disabled: %v", err))
			logger = logging.Discard()
		} else {
			a.closers = append(a.closers, closer)
		}
		a.Logger = logger
	}
	if a.Now == nil {
		a.Now = time.Now
	}
	if a.RunWizard == nil {
		a.RunWizard = tui.Run
	}

	reg, err := a.Config.Registry()
	if err != nil {
		p.Error("invalid step configuration: %v", err)
		return NewExitError(1)
	}
	a.registry = reg

	backend := a.Backend
	if backend == nil {
		backend, err = a.openBackend()
		if err != nil {
			p.Error("failed to open session store: %v", err)
			return NewExitError(1)
		}
	}
	a.adapter = store.NewAdapter(backend, a.Logger)

	if a.Generator == nil || a.Completer == nil {
		client := gemini.New(
			gemini.WithBaseURL(a.Config.Gemini.BaseURL),
			gemini.WithModel(a.Config.Gemini.Model),
			gemini.WithLogger(a.Logger),
		)
		if a.Generator == nil {
			a.Generator = client
		}
		if a.Completer == nil {
			a.Completer = client
		}
	}

	a.openSession(ctx, p)
	a.assistant = assistant.New(a.Completer, reg)

	a.Logger.Debug("session opened",
		"session", a.Config.Session, "backend", a.Config.Store.Backend, "steps", len(reg.Steps()))
	return nil
}

// openSession rehydrates the controller with notifications going to n.
func (a *App) openSession(ctx context.Context, n workflow.Notifier) {
	a.controller = workflow.NewController(ctx, a.registry, a.adapter,
		workflow.WithNotifier(n),
		workflow.WithLogger(a.Logger),
	)
	a.orchestrator = orchestrator.New(a.controller, a.Generator,
		orchestrator.WithTimeout(a.Config.Gemini.Timeout),
		orchestrator.WithLogger(a.Logger),
	)
}

func (a *App) openBackend() (store.Backend, error) {
	cfg := a.Config
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return store.NewMemoryBackend(), nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
		a.closers = append(a.closers, client)
		return store.NewRedisBackend(client, cfg.Session,
			store.WithPrefix(cfg.Store.RedisPrefix),
			store.WithTTL(cfg.Store.TTL),
		)
	default:
		return store.NewFileBackend(cfg.Store.Dir, cfg.Session)
	}
}

func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader()
	if path != "" {
		return loader.LoadFromFile(path)
	}
	return loader.Load()
}

// Close releases the log file and store connections.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil && a.Logger != nil {
			a.Logger.Warn("failed to close resource", "error", err)
		}
	}
	a.closers = nil
}

func (a *App) printer() *output.Printer {
	if a.Printer == nil {
		a.Printer = output.NewPrinter()
	}
	return a.Printer
}

// generate runs generation passes until the current step needs nothing more,
// then previews the result. It does nothing when --no-generate is set.
func (a *App) generate(ctx context.Context) {
	if a.flags.noGenerate {
		return
	}
	state := a.controller.Snapshot()
	if !orchestrator.NeedsGeneration(a.registry, state) {
		return
	}

	label := a.registry.Label(state.CurrentStep)
	a.Printer.Info("Generating %s...", label)
	if !a.orchestrator.Pass(ctx) {
		return
	}
	if ctx.Err() != nil {
		a.Printer.Error("Generation of %s cancelled", label)
		return
	}

	state = a.controller.Snapshot()
	if state.HasContent(state.CurrentStep) {
		a.Printer.Preview(label, state.Record(state.CurrentStep).Content)
	}
}
