package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"sdlcwizard/internal/workflow"
)

func newFeedbackCommand(app *App) *cobra.Command {
	var step string

	cmd := &cobra.Command{
		Use:   "feedback <text>",
		Short: "Ask for a step to be regenerated with changes",
		Long: `Submit feedback for a step (the current step by default). The step becomes
current, loses its content and approval, and is generated again with the
feedback appended to its prompt.

Example:
  sdlcwizard feedback "Split the timeline into two-week sprints"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := app.stepArg([]string{step})
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			if strings.TrimSpace(text) == "" {
				app.Printer.Error("Feedback is empty")
				return NewExitError(1)
			}

			// Feedback always applies to the step being worked on.
			if app.controller.Snapshot().CurrentStep != id {
				if err := app.controller.NavigateTo(ctx, id); err != nil {
					return NewExitError(1)
				}
			}

			if err := app.controller.SubmitFeedback(ctx, id, text); err != nil {
				if errors.Is(err, workflow.ErrEmptyFeedback) {
					app.Printer.Error("Feedback is empty")
					return NewExitError(1)
				}
				app.Printer.Error("%v", err)
				return NewExitError(1)
			}
			app.Printer.Success("Feedback recorded for %s", app.registry.Label(id))
			app.generate(ctx)
			return nil
		},
	}

	cmd.Flags().StringVar(&step, "step", "", "step to give feedback on (default: current)")
	return cmd
}
