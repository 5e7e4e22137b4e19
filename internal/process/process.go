package process

import (
	"context"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// LauncherNames are the executable names Prism Launcher runs under
var LauncherNames = []string{"prismlauncher.exe", "prismlauncher", "PrismLauncher"}

// listProcesses returns the system process table as text. Replaced in tests.
var listProcesses = func(ctx context.Context) (string, error) {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "tasklist", "/FO", "CSV", "/NH")
	} else {
		cmd = exec.CommandContext(ctx, "ps", "-A", "-o", "comm=")
	}
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(output), nil
}

// IsRunning reports whether a process with any of the given executable
// names is running. Names are matched case-insensitively against the last
// path element of each process.
func IsRunning(ctx context.Context, names ...string) bool {
	output, err := listProcesses(ctx)
	if err != nil {
		// If the process table can't be read, assume nothing is running
		return false
	}

	for _, line := range strings.Split(output, "\n") {
		proc := processName(line)
		if proc == "" {
			continue
		}
		for _, name := range names {
			if strings.EqualFold(proc, name) {
				return true
			}
		}
	}
	return false
}

// LauncherRunning reports whether Prism Launcher is open
func LauncherRunning(ctx context.Context) bool {
	return IsRunning(ctx, LauncherNames...)
}

// WaitForTermination polls until none of the named processes are running.
// Returns true if they terminated, false on timeout or cancellation.
func WaitForTermination(ctx context.Context, timeout time.Duration, names ...string) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if !IsRunning(ctx, names...) {
			return ctx.Err() == nil
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

// processName extracts the executable name from one line of tasklist CSV
// or ps output
func processName(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}
	if strings.HasPrefix(line, `"`) {
		// "prismlauncher.exe","1234","Console","1","120,000 K"
		end := strings.Index(line[1:], `"`)
		if end < 0 {
			return ""
		}
		return line[1 : end+1]
	}
	if i := strings.LastIndexAny(line, `/\`); i >= 0 {
		line = line[i+1:]
	}
	return line
}
