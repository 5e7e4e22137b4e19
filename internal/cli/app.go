package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/distantorigin/lwjgl3ify-installer/internal/audio"
	"github.com/distantorigin/lwjgl3ify-installer/internal/download"
	"github.com/distantorigin/lwjgl3ify-installer/internal/failure"
	"github.com/distantorigin/lwjgl3ify-installer/internal/github"
	"github.com/distantorigin/lwjgl3ify-installer/internal/install"
	"github.com/distantorigin/lwjgl3ify-installer/internal/instance"
	"github.com/distantorigin/lwjgl3ify-installer/internal/paths"
	"github.com/distantorigin/lwjgl3ify-installer/internal/pipeline"
	"github.com/distantorigin/lwjgl3ify-installer/internal/prompt"
	"github.com/distantorigin/lwjgl3ify-installer/internal/settings"
)

type (
	// Dependencies are the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Stdin      io.Reader
		Stdout     io.Writer
		Stderr     io.Writer
		HTTPClient *http.Client
		// APIBaseURL overrides the GitHub API root; tests only.
		APIBaseURL string
		// NonInteractive disables prompts, e.g. when stdin is not a terminal.
		NonInteractive bool
	}

	// App is the composition root for the CLI layer. Settings and logger are
	// filled in by the root command before any subcommand runs.
	App struct {
		deps Dependencies

		verbose    bool
		quiet      bool
		configPath string

		settings     settings.Settings
		settingsPath string
		logger       *log.Logger
	}

	// soundPlayer adapts the audio package to prompt.SoundPlayer
	soundPlayer struct{}
)

func (soundPlayer) Play(cue audio.Cue)      { audio.Play(cue) }
func (soundPlayer) PlayAsync(cue audio.Cue) { audio.PlayAsync(cue) }

// errNoRoot is returned when no instances folder was given, saved or detected
var errNoRoot = errors.New("no instances folder found; pass one as an argument or run 'browse'")

// NewApp creates an App, defaulting to the process's standard streams
func NewApp(deps Dependencies) *App {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	return &App{
		deps:     deps,
		settings: settings.Default(),
		logger:   log.New(io.Discard),
	}
}

// setup loads settings and configures logging, sound and the console
func (a *App) setup() error {
	level := log.InfoLevel
	switch {
	case a.verbose:
		level = log.DebugLevel
	case a.quiet:
		level = log.WarnLevel
	}
	a.logger = log.NewWithOptions(a.deps.Stderr, log.Options{
		Prefix:          "lwjgl3ify",
		Level:           level,
		ReportTimestamp: a.verbose,
		TimeFormat:      time.TimeOnly,
	})

	s, path, err := settings.Load(a.configPath)
	if err != nil {
		// A broken config file should not block an install.
		fmt.Fprintln(a.deps.Stderr, WarningStyle.Render("Warning: ")+err.Error())
	}
	a.settings = s
	a.settingsPath = path

	audio.Init(a.settings.Sound && !a.quiet, a.logger)
	return nil
}

func (a *App) githubClient() *github.Client {
	opts := []github.Option{github.WithToken(a.settings.GitHubToken)}
	if a.deps.APIBaseURL != "" {
		opts = append(opts, github.WithBaseURL(a.deps.APIBaseURL))
	}
	if len(a.settings.AssetPatterns) > 0 {
		opts = append(opts, github.WithAssetPatterns(a.settings.AssetPatterns))
	}
	return github.NewClient(a.deps.HTTPClient, opts...)
}

func (a *App) newPipeline() *pipeline.Pipeline {
	installer := install.New(download.New(a.deps.HTTPClient), a.logger)
	return pipeline.New(instance.NewScanner(a.logger), a.githubClient(), installer, a.logger)
}

func (a *App) prompter() *prompt.Prompter {
	cfg := prompt.Config{NonInteractive: a.deps.NonInteractive}
	if !a.quiet {
		cfg.Sound = soundPlayer{}
	}
	cfg.GetConsoleWindow = consoleWindow
	return prompt.New(a.deps.Stdin, a.deps.Stdout, cfg)
}

// resolveRoot picks the instances folder: the argument, then the saved
// folder, then the launcher's default location.
func (a *App) resolveRoot(args []string) (root string, explicit bool, err error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], true, nil
	}
	if a.settings.InstancesFolder != "" {
		return a.settings.InstancesFolder, false, nil
	}
	if detected := paths.DetectInstanceRoot(); detected != "" {
		a.logger.Debug("Using detected instances folder", "root", detected)
		return detected, false, nil
	}
	return "", false, errNoRoot
}

// rememberRoot saves root as the instances folder for later runs
func (a *App) rememberRoot(root string) {
	if a.settingsPath == "" {
		return
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	if err := settings.RememberFolder(a.settingsPath, root); err != nil {
		a.logger.Warn("Could not save the instances folder", "err", err)
		return
	}
	a.settings.InstancesFolder = root
	a.logger.Debug("Saved instances folder", "root", root, "config", a.settingsPath)
}

// scanFailed reports an unusable instances folder before returning err
func (a *App) scanFailed(root string, err error) error {
	if errors.Is(err, failure.ErrInvalidRoot) {
		a.println(WarningStyle.Render("No instances found in ") + root)
	}
	return err
}

func (a *App) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.deps.Stdout, format, args...)
}

func (a *App) println(s string) {
	fmt.Fprintln(a.deps.Stdout, s)
}
