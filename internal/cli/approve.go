package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"sdlcwizard/internal/steps"
	"sdlcwizard/internal/workflow"
)

func newApproveCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "approve [step]",
		Short: "Approve a step and move to the next one",
		Long: `Approve a step (the current step by default) and move to the step after it,
generating it. Approving the last step completes the workflow.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := app.stepArg(args)
			if err != nil {
				return err
			}

			if err := app.controller.Approve(ctx, id); err != nil {
				if errors.Is(err, workflow.ErrNoContent) {
					app.Printer.Error("%s has no content to approve yet; run 'sdlcwizard generate'", app.registry.Label(id))
					return NewExitError(1)
				}
				app.Printer.Error("%v", err)
				return NewExitError(1)
			}

			app.Printer.Success("%s approved", app.registry.Label(id))
			next := app.controller.Snapshot().CurrentStep
			if steps.IsTerminal(next) {
				app.Printer.Success("All steps approved. Run 'sdlcwizard export --final' to save the workflow.")
				return nil
			}
			app.generate(ctx)
			return nil
		},
	}
}
