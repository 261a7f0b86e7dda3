package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"sdlcwizard/internal/assistant"
)

func newAskCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the project assistant a question",
		Long: `Ask a question about the project. The assistant sees the project
description, the current step and a short excerpt of every generated artifact.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if t := app.Config.Gemini.Timeout; t > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, t)
				defer cancel()
			}

			reply, err := app.assistant.Ask(ctx, strings.Join(args, " "), app.controller.Snapshot())
			if err != nil {
				if errors.Is(err, assistant.ErrNoCredential) {
					app.Printer.Error("Run 'sdlcwizard start' first")
					return NewExitError(1)
				}
				app.Printer.Error("Sorry, I encountered an error: %v", err)
				return NewExitError(1)
			}
			app.Printer.Text(reply)
			return nil
		},
	}
}
