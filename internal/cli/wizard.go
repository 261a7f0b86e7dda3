package cli

import (
	"github.com/spf13/cobra"

	"sdlcwizard/internal/tui"
)

func newWizardCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "wizard",
		Short: "Run the interactive wizard",
		Long: `Open the session in an interactive terminal UI. Keys:

  a approve   f feedback   ←/→ previous/next step   1-9 jump
  ? ask       e export     s save step   R reset   q quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// Reopen the session so notices reach the wizard's status line.
			notices := &tui.Notices{}
			app.openSession(ctx, notices)

			err := app.RunWizard(ctx, tui.Options{
				Controller:   app.controller,
				Orchestrator: app.orchestrator,
				Assistant:    app.assistant,
				Notices:      notices,
				ExportDir:    app.Config.Output.ExportDir,
				Logger:       app.Logger,
				Now:          app.Now,
			})
			if err != nil {
				app.Printer.Error("wizard failed: %v", err)
				return NewExitError(1)
			}
			return nil
		},
	}
}
