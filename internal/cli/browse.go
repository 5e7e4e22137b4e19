package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/distantorigin/lwjgl3ify-installer/internal/instance"
	"github.com/distantorigin/lwjgl3ify-installer/internal/paths"
	"github.com/distantorigin/lwjgl3ify-installer/internal/prompt"
)

func newBrowseCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Choose the Prism Launcher instances folder and remember it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runBrowse()
		},
	}
}

func (a *App) runBrowse() error {
	start := a.settings.InstancesFolder
	if start == "" {
		start = paths.DetectInstanceRoot()
	}

	folder, err := a.prompter().SelectFolder(start)
	if errors.Is(err, prompt.ErrCancelled) {
		a.println(WarningStyle.Render("No folder selected."))
		return nil
	}
	if err != nil {
		return err
	}
	if folder == "" {
		return errNoRoot
	}

	// Scan first so an unusable folder is reported and not saved.
	records, err := instance.NewScanner(a.logger).Scan(folder)
	if err != nil {
		return a.scanFailed(folder, err)
	}
	if a.settingsPath == "" {
		return errors.New("no config file location available to save the folder")
	}
	a.rememberRoot(folder)

	a.printInstances(folder, records)
	return nil
}
