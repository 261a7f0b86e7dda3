// Package cli provides the command-line interface for sdlcwizard.
//
// Every command rehydrates the named session from the configured store, runs
// one workflow operation, lets the orchestrator generate whatever the new
// state needs, and exits. The "wizard" command runs the same workflow as an
// interactive terminal UI.
//
// Key types:
//   - [App] holds injected dependencies; tests replace the generator, store
//     backend and printer
//   - [ExitError] carries a process exit code out of a command
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sdlcwizard/internal/config"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sdlcwizard",
		Short: "Generate SDLC artifacts step by step with an AI model",
		Long: `sdlcwizard walks a project description through the software development
lifecycle: road map, user stories, design docs, code, reviews, test plans,
deployment and monitoring. Each step is generated, reviewed, and approved
or revised with feedback before the next one unlocks.

Sessions persist between invocations, so commands can be run one at a time:

  sdlcwizard start --api-key $GEMINI_API_KEY "A todo app with reminders"
  sdlcwizard show
  sdlcwizard feedback "Add a budget section"
  sdlcwizard approve
  sdlcwizard wizard`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd.Context())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&app.flags.configPath, "config", "", "config file (default: platform config dir)")
	flags.StringVar(&app.flags.session, "session", "", "session name (default from config)")
	flags.BoolVarP(&app.flags.verbose, "verbose", "v", false, "log at debug level")
	flags.BoolVar(&app.flags.noGenerate, "no-generate", false, "do not generate content after the command")

	rootCmd.AddCommand(
		newStartCommand(app),
		newStatusCommand(app),
		newShowCommand(app),
		newGenerateCommand(app),
		newApproveCommand(app),
		newFeedbackCommand(app),
		newGotoCommand(app),
		newEditCommand(app),
		newResetCommand(app),
		newExportCommand(app),
		newAskCommand(app),
		newWizardCommand(app),
	)

	return rootCmd
}

// ExecuteResult is the outcome of a command run.
type ExecuteResult struct {
	ExitCode int
	Err      error
}

// Run executes the command tree for app with args and returns the exit code
// instead of exiting.
func Run(ctx context.Context, app *App, args []string) ExecuteResult {
	defer app.Close()

	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if code, ok := IsExitError(err); ok {
			return ExecuteResult{ExitCode: code, Err: err}
		}
		// Usage errors from cobra itself.
		app.printer().Error("%v", err)
		return ExecuteResult{ExitCode: 1, Err: err}
	}
	return ExecuteResult{ExitCode: 0}
}

// RunWithConfig runs the command tree with cfg. A nil cfg is loaded from the
// --config flag or the default locations.
func RunWithConfig(ctx context.Context, cfg *config.Config, args []string) ExecuteResult {
	return Run(ctx, &App{Config: cfg}, args)
}

// Execute runs the CLI with the process arguments and exits.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	result := RunWithConfig(ctx, nil, os.Args[1:])
	stop()
	os.Exit(result.ExitCode)
}
