package cli

import (
	"github.com/spf13/cobra"

	"sdlcwizard/internal/steps"
)

func newStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the workflow steps and where the session is",
		Long: `Show every step with its status and a preview of the current step.

Markers:
  ✓ approved   ● has content   ✎ feedback pending   ○ not generated   ▶ current`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state := app.controller.Snapshot()

			app.Printer.Header(app.registry, app.Config.Session, state)
			app.Printer.StepList(app.registry, state)

			if steps.IsIntake(state.CurrentStep) {
				app.Printer.Text("\nRun 'sdlcwizard start' to begin.")
				return nil
			}
			if content := state.Record(state.CurrentStep).Content; content != "" {
				app.Printer.Text("")
				app.Printer.Preview(app.registry.Label(state.CurrentStep), content)
			}
			return nil
		},
	}
}

func newShowCommand(app *App) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show [step]",
		Short: "Print the full content of a step",
		Long:  `Print the full content of a step, the current step by default.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := app.stepArg(args)
			if err != nil {
				return err
			}

			content := app.controller.Snapshot().Record(id).Content
			if content == "" {
				app.Printer.Error("%s has no content yet", app.registry.Label(id))
				return NewExitError(1)
			}
			if raw {
				app.Printer.Text(content)
				return nil
			}
			app.Printer.StepContent(app.registry.Label(id), content)
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the content without decoration")
	return cmd
}

// stepArg resolves an optional step argument, defaulting to the current
// step. Intake, completion and unknown ids are rejected.
func (a *App) stepArg(args []string) (string, error) {
	id := a.controller.Snapshot().CurrentStep
	if len(args) > 0 && args[0] != "" {
		id = args[0]
	}
	return id, a.checkStep(id)
}

func (a *App) checkStep(id string) error {
	if _, ok := a.registry.StepAt(id); !ok || steps.IsIntake(id) {
		if steps.IsIntake(id) {
			a.Printer.Error("Run 'sdlcwizard start' first")
		} else if steps.IsTerminal(id) {
			a.Printer.Error("All steps are approved; name a step")
		} else {
			a.Printer.Error("Unknown step %q (see 'sdlcwizard status')", id)
		}
		return NewExitError(1)
	}
	return nil
}
