// Package cli contains the commands of the lwjgl3ify installer.
package cli

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/distantorigin/lwjgl3ify-installer/internal/console"
	"github.com/distantorigin/lwjgl3ify-installer/internal/version"
)

var consoleWindow = console.GetWindow

// NewRootCommand creates the command tree for app
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lwjgl3ify-installer",
		Short: "Install lwjgl3ify into a Prism Launcher instance",
		Long: TitleStyle.Render("lwjgl3ify-installer") + SubtitleStyle.Render(" - Install lwjgl3ify into a Prism Launcher instance") + `

Finds the instances managed by Prism Launcher, downloads the latest
lwjgl3ify release from GitHub and extracts it into the chosen instance,
overwriting the files it replaces.

` + SubtitleStyle.Render("Examples:") + `
  lwjgl3ify-installer install                  Pick an instance and install
  lwjgl3ify-installer install --instance GTNH  Install into the instance named GTNH
  lwjgl3ify-installer scan ~/instances         List the instances in a folder
  lwjgl3ify-installer latest                   Show the latest release
  lwjgl3ify-installer browse                   Choose and save the instances folder`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			console.Init(app.quiet)
			return app.setup()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&app.quiet, "quiet", "q", false, "no sound, progress or informational logs")
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is the user config dir/lwjgl3ify-installer/config.toml)")

	rootCmd.AddCommand(newScanCommand(app))
	rootCmd.AddCommand(newLatestCommand(app))
	rootCmd.AddCommand(newInstallCommand(app))
	rootCmd.AddCommand(newBrowseCommand(app))

	return rootCmd
}

// Execute runs the installer. This is called by main.main().
func Execute() {
	console.Attach()

	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(version.Current),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
