package cli

import (
	"github.com/spf13/cobra"

	"sdlcwizard/internal/export"
	"sdlcwizard/internal/steps"
)

func newExportCommand(app *App) *cobra.Command {
	var (
		final bool
		step  string
		dir   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Save the workflow or one step to disk",
		Long: `Write every step with content to a JSON file, or one step's artifact with
--step (HTML for code generation, Markdown otherwise). --final exports the
completed workflow.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = app.Config.Output.ExportDir
			}
			state := app.controller.Snapshot()
			now := app.Now()

			if step != "" {
				if err := app.checkStep(step); err != nil {
					return err
				}
				path, err := export.WriteStep(dir, state, step, now)
				if err != nil {
					app.Printer.Error("%s has no content to export", app.registry.Label(step))
					return NewExitError(1)
				}
				app.Printer.Success("Exported %s", path)
				return nil
			}

			if final && !steps.IsTerminal(state.CurrentStep) {
				app.Printer.Error("Approve every step before exporting the final workflow")
				return NewExitError(1)
			}
			path, err := export.WriteWorkflow(dir, app.registry, state, final, now)
			if err != nil {
				app.Printer.Error("%v", err)
				return NewExitError(1)
			}
			app.Printer.Success("Exported %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&final, "final", false, "export the completed workflow")
	cmd.Flags().StringVar(&step, "step", "", "export only this step's artifact")
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default from config)")
	return cmd
}
