package cli

import (
	"context"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/distantorigin/lwjgl3ify-installer/internal/github"
	"github.com/distantorigin/lwjgl3ify-installer/internal/report"
	"github.com/distantorigin/lwjgl3ify-installer/internal/version"
)

func newLatestCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Show the latest lwjgl3ify release and the asset that would be installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runLatest(cmd.Context())
		},
	}
}

func (a *App) runLatest(ctx context.Context) error {
	client := a.githubClient()

	release, err := client.LatestRelease(ctx)
	if err != nil {
		return err
	}
	asset, err := github.SelectAsset(release, a.settings.AssetPatterns)
	if err != nil {
		return err
	}
	a.logger.Info("Latest version", "tag", asset.Tag)

	title := release.Name
	if title == "" {
		title = "lwjgl3ify " + version.Display(release.TagName)
	}
	a.println(TitleStyle.Render(title))
	a.printf("Tag:   %s\n", release.TagName)
	a.printf("Asset: %s %s\n", NameStyle.Render(asset.Filename), SubtitleStyle.Render("("+humanize.Bytes(uint64(max(asset.Size, 0)))+")"))
	a.printf("URL:   %s\n", SubtitleStyle.Render(asset.DownloadURL))

	if notes := report.ReleaseNotes(release.Body); notes != "" {
		a.println("")
		a.println(notes)
	}
	return nil
}
