package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"sdlcwizard/internal/workflow"
)

func newGotoCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "goto <step>",
		Short: "Navigate to a step",
		Long: `Make a step current. The intake step is always reachable; any other step
must already have content or approval.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// The controller prints the refusal or success notice.
			if err := app.controller.NavigateTo(ctx, args[0]); err != nil {
				if !errors.Is(err, workflow.ErrNavigationDenied) {
					app.Printer.Error("%v", err)
				}
				return NewExitError(1)
			}
			app.generate(ctx)
			return nil
		},
	}
}
