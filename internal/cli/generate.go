package cli

import (
	"github.com/spf13/cobra"

	"sdlcwizard/internal/orchestrator"
)

func newGenerateCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate the current step if it needs content",
		Long: `Generate the current step when it has no content or has pending feedback.
Other commands do this automatically unless --no-generate is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state := app.controller.Snapshot()
			if !orchestrator.NeedsGeneration(app.registry, state) {
				app.Printer.Info("Nothing to generate for %s", app.registry.Label(state.CurrentStep))
				return nil
			}

			// An explicit generate ignores --no-generate.
			app.flags.noGenerate = false
			app.generate(cmd.Context())
			return nil
		},
	}
}
