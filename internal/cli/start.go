package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"sdlcwizard/internal/workflow"
)

func newStartCommand(app *App) *cobra.Command {
	var apiKey string

	cmd := &cobra.Command{
		Use:   "start <project description>",
		Short: "Start a workflow for a project",
		Long: `Record the API key and project description, move to the first step and
generate it. The key may also come from SDLCWIZARD_API_KEY or the config file.

Example:
  sdlcwizard start --api-key $GEMINI_API_KEY "A todo app with reminders"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if apiKey == "" {
				apiKey = app.Config.APIKey
			}
			description := strings.TrimSpace(strings.Join(args, " "))

			if err := workflow.ValidateIntake(apiKey, description); err != nil {
				app.Printer.Error("%s", intakeMessage(err))
				return NewExitError(1)
			}

			app.controller.Start(ctx, apiKey, description)
			first := app.registry.First()
			app.Printer.Success("Workflow started at %s", first.Label)
			app.generate(ctx)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "Gemini API key")
	return cmd
}

// intakeMessage strips the sentinel prefix from an intake validation error.
func intakeMessage(err error) string {
	return strings.TrimPrefix(err.Error(), workflow.ErrInvalidIntake.Error()+": ")
}
