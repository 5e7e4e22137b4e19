package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/distantorigin/lwjgl3ify-installer/internal/audio"
	"github.com/distantorigin/lwjgl3ify-installer/internal/console"
	"github.com/distantorigin/lwjgl3ify-installer/internal/failure"
	"github.com/distantorigin/lwjgl3ify-installer/internal/install"
	"github.com/distantorigin/lwjgl3ify-installer/internal/instance"
	"github.com/distantorigin/lwjgl3ify-installer/internal/pipeline"
	"github.com/distantorigin/lwjgl3ify-installer/internal/process"
	"github.com/distantorigin/lwjgl3ify-installer/internal/prompt"
	"github.com/distantorigin/lwjgl3ify-installer/internal/report"
)

type installOptions struct {
	instance string
	yes      bool
	wait     time.Duration
}

// launcherRunning and waitForLauncher are replaced in tests
var (
	launcherRunning = process.LauncherRunning
	waitForLauncher = func(ctx context.Context, timeout time.Duration) bool {
		return process.WaitForTermination(ctx, timeout, process.LauncherNames...)
	}
)

// errLauncherRunning is returned when --wait times out
var errLauncherRunning = errors.New("Prism Launcher is still running")

func newInstallCommand(app *App) *cobra.Command {
	var opts installOptions

	cmd := &cobra.Command{
		Use:   "install [instances-folder]",
		Short: "Install the latest lwjgl3ify release into an instance",
		Long: `Install the latest lwjgl3ify release into a Prism Launcher instance.

Files from the release archive overwrite existing files in the instance.
Nothing is backed up and a failed install is not rolled back.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runInstall(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.instance, "instance", "", "instance name or path to install into (skips the menu)")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "do not ask for confirmation")
	cmd.Flags().DurationVar(&opts.wait, "wait", 0, "wait up to this long for Prism Launcher to close before installing (0 only warns)")
	return cmd
}

func (a *App) runInstall(ctx context.Context, args []string, opts installOptions) error {
	root, explicit, err := a.resolveRoot(args)
	if err != nil {
		return err
	}

	p := a.newPipeline()
	p.OnStateChange(func(from, to pipeline.State) {
		a.logger.Debug("Install state", "from", from, "to", to)
	})

	records, err := p.Scan(root)
	if err != nil {
		return a.scanFailed(root, err)
	}
	if explicit {
		a.rememberRoot(root)
	}
	if len(records) == 0 {
		return fmt.Errorf("no instances found in %s", root)
	}

	ask := a.prompter()
	if err := a.chooseInstance(p, records, opts.instance, ask); err != nil {
		if errors.Is(err, prompt.ErrCancelled) {
			a.println(WarningStyle.Render("Installation cancelled."))
			return nil
		}
		return err
	}

	target, _ := p.Selected()
	if !opts.yes && !ask.Confirm(fmt.Sprintf("Install lwjgl3ify into %s?", target.Name)) {
		a.println(WarningStyle.Render("Installation cancelled."))
		return nil
	}

	if err := a.checkLauncher(ctx, opts.wait); err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, func() {
		p.Cancel()
		audio.StopAll()
	})
	defer stop()

	audio.PlayAsync(audio.CueDownload)
	result, err := p.Install(ctx, a.progressPrinter())
	if !a.quiet {
		a.println("")
	}

	a.println(report.Build(report.Info{
		Instance:  target,
		Asset:     p.Asset(),
		Result:    result,
		Err:       err,
		Completed: time.Now(),
	}))

	if err != nil {
		audio.Play(audio.CueError)
		a.println(ErrorStyle.Render("Installation failed: ") + err.Error())
		return err
	}
	audio.Play(audio.CueSuccess)
	a.println(SuccessStyle.Render(result.Message))
	return nil
}

// checkLauncher warns about a running Prism Launcher, or waits for it to
// close when wait is positive
func (a *App) checkLauncher(ctx context.Context, wait time.Duration) error {
	if !launcherRunning(ctx) {
		return nil
	}
	if wait <= 0 {
		a.println(WarningStyle.Render("Prism Launcher is running. Restart it after the install so it picks up the new files."))
		return nil
	}

	a.println(WarningStyle.Render("Waiting for Prism Launcher to close..."))
	if !waitForLauncher(ctx, wait) {
		if ctx.Err() != nil {
			return failure.New(failure.KindCancelled, "wait for Prism Launcher", ctx.Err())
		}
		return fmt.Errorf("%w after %s; close it and try again", errLauncherRunning, wait)
	}
	a.logger.Debug("Prism Launcher closed")
	return nil
}

// chooseInstance selects by --instance when given, otherwise from the menu
func (a *App) chooseInstance(p *pipeline.Pipeline, records []instance.Record, query string, ask *prompt.Prompter) error {
	if query != "" {
		i, ok := instance.Find(records, query)
		if !ok {
			return fmt.Errorf("no single instance matches %q", query)
		}
		return p.Select(i)
	}

	i, err := ask.SelectInstance(records)
	if err != nil {
		return err
	}
	return p.Select(i)
}

// progressPrinter redraws one status line and mirrors the percentage in the
// console title
func (a *App) progressPrinter() install.ProgressFunc {
	if a.quiet {
		return nil
	}
	width := 0
	return func(p install.Progress) {
		line := report.Progress(p)
		pad := ""
		if n := width - len(line); n > 0 {
			pad = strings.Repeat(" ", n)
		}
		width = max(width, len(line))
		a.printf("\r%s%s", line, pad)
		_ = console.SetTitle(console.ProgressTitle(string(p.Stage), p.Percent))
	}
}
