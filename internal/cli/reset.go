package cli

import (
	"github.com/spf13/cobra"
)

func newResetCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the session, API key included",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.controller.Reset(cmd.Context())
			app.Printer.Success("Session %q cleared", app.Config.Session)
			return nil
		},
	}
}
