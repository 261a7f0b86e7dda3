package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"sdlcwizard/internal/workflow"
)

func newEditCommand(app *App) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "edit <step> --file <path>",
		Short: "Replace a step's content with an edited version",
		Long: `Replace the content of a step that already has content, for example after
editing the generated code by hand. Use --file - to read from stdin.
Approval is kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := app.stepArg(args)
			if err != nil {
				return err
			}

			content, err := readContent(cmd.InOrStdin(), file)
			if err != nil {
				app.Printer.Error("%v", err)
				return NewExitError(1)
			}

			if err := app.controller.UpdateContent(cmd.Context(), id, content); err != nil {
				if errors.Is(err, workflow.ErrNoContent) {
					app.Printer.Error("%s has no content to edit, or the new content is empty", app.registry.Label(id))
					return NewExitError(1)
				}
				app.Printer.Error("%v", err)
				return NewExitError(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "file with the new content, or - for stdin")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readContent(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
