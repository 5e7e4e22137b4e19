package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/distantorigin/lwjgl3ify-installer/internal/audio"
	"github.com/distantorigin/lwjgl3ify-installer/internal/instance"
)

// ErrCancelled is returned when the user backs out of a prompt
var ErrCancelled = errors.New("selection cancelled")

// SoundPlayer defines the interface for playing sounds
type SoundPlayer interface {
	Play(cue audio.Cue)
	PlayAsync(cue audio.Cue)
}

// Config holds configuration for prompting
type Config struct {
	NonInteractive   bool
	Sound            SoundPlayer
	GetConsoleWindow func() uintptr
}

// Prompter asks questions on a terminal
type Prompter struct {
	cfg Config
	in  *bufio.Reader
	out io.Writer
}

// New creates a Prompter reading answers from in and writing questions to out
func New(in io.Reader, out io.Writer, cfg Config) *Prompter {
	return &Prompter{cfg: cfg, in: bufio.NewReader(in), out: out}
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// WaitForKey waits for user to press Enter
func (p *Prompter) WaitForKey(msg string) {
	if p.cfg.NonInteractive {
		return
	}
	fmt.Fprint(p.out, msg)
	_, _ = p.readLine()
}

// Confirm asks the user to confirm an action
func (p *Prompter) Confirm(msg string) bool {
	if p.cfg.NonInteractive {
		return true
	}

	fmt.Fprintf(p.out, "%s (y/n): ", msg)
	response, err := p.readLine()
	if err != nil {
		return false
	}
	response = strings.ToLower(response)
	return response == "y" || response == "yes"
}

// SelectInstance shows a numbered menu of records and returns the chosen
// index. Entering 0 cancels. Without a terminal only a single record can be
// chosen, and it is chosen automatically.
func (p *Prompter) SelectInstance(records []instance.Record) (int, error) {
	if len(records) == 0 {
		return -1, fmt.Errorf("no instances to choose from")
	}
	if p.cfg.NonInteractive {
		if len(records) == 1 {
			return 0, nil
		}
		return -1, fmt.Errorf("%d instances found; choose one with --instance", len(records))
	}

	fmt.Fprintln(p.out, "\nSelect an instance:")
	fmt.Fprintln(p.out)
	for i, r := range records {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, r.Name)
		fmt.Fprintf(p.out, "     %s\n", r.Path)
	}
	fmt.Fprintln(p.out)
	fmt.Fprintf(p.out, "Enter choice (1-%d) or 0 to cancel: ", len(records))

	for {
		response, err := p.readLine()
		if err != nil {
			fmt.Fprintln(p.out, "\nError reading input, cancelling.")
			return -1, ErrCancelled
		}
		if response == "0" {
			return -1, ErrCancelled
		}

		choice, err := strconv.Atoi(response)
		if err == nil && choice >= 1 && choice <= len(records) {
			if p.cfg.Sound != nil {
				p.cfg.Sound.PlayAsync(audio.CueDownload)
			}
			return choice - 1, nil
		}
		fmt.Fprintf(p.out, "Invalid choice. Please enter 0-%d: ", len(records))
	}
}

// ReadPath asks for a path, returning defaultPath on an empty answer
func (p *Prompter) ReadPath(msg, defaultPath string) (string, error) {
	if p.cfg.NonInteractive {
		return defaultPath, nil
	}

	if defaultPath != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", msg, defaultPath)
	} else {
		fmt.Fprintf(p.out, "%s: ", msg)
	}
	response, err := p.readLine()
	if err != nil {
		return "", ErrCancelled
	}
	if response == "" {
		if defaultPath == "" {
			return "", ErrCancelled
		}
		return defaultPath, nil
	}
	return strings.Trim(response, `"'`), nil
}

// SelectFolder lets the user pick the instances folder. Windows shows the
// shell folder dialog; other platforms ask for a typed path.
func (p *Prompter) SelectFolder(defaultPath string) (string, error) {
	if p.cfg.NonInteractive {
		return defaultPath, nil
	}
	return p.selectFolder(defaultPath)
}
