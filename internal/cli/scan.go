package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/distantorigin/lwjgl3ify-installer/internal/instance"
)

func newScanCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "scan [instances-folder]",
		Short: "List the Prism Launcher instances in a folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runScan(args)
		},
	}
}

func (a *App) runScan(args []string) error {
	root, explicit, err := a.resolveRoot(args)
	if err != nil {
		return err
	}

	records, err := instance.NewScanner(a.logger).Scan(root)
	if err != nil {
		return a.scanFailed(root, err)
	}
	if explicit {
		a.rememberRoot(root)
	}

	a.printInstances(root, records)
	return nil
}

func (a *App) printInstances(root string, records []instance.Record) {
	a.println(TitleStyle.Render("Instances in ") + SubtitleStyle.Render(root))
	if len(records) == 0 {
		a.println(WarningStyle.Render("No instances found"))
		return
	}

	width := 0
	for _, r := range records {
		width = max(width, len(r.Name))
	}
	for i, r := range records {
		a.printf("  %2d. %s  %s\n", i+1, NameStyle.Render(fmt.Sprintf("%-*s", width, r.Name)), SubtitleStyle.Render(r.Path))
	}
}
