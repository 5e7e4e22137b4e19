package process

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fakeProcesses(t *testing.T, output string, err error) {
	t.Helper()
	orig := listProcesses
	listProcesses = func(context.Context) (string, error) { return output, err }
	t.Cleanup(func() { listProcesses = orig })
}

func TestProcessName(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{`"prismlauncher.exe","1234","Console","1","120,000 K"`, "prismlauncher.exe"},
		{`"System Idle Process","0","Services","0","8 K"`, "System Idle Process"},
		{"/usr/bin/prismlauncher", "prismlauncher"},
		{"  PrismLauncher  ", "PrismLauncher"},
		{"", ""},
		{`"unterminated`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := processName(tt.line); got != tt.want {
				t.Errorf("processName(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestLauncherRunning(t *testing.T) {
	tests := []struct {
		name   string
		output string
		err    error
		want   bool
	}{
		{"windows tasklist", "\"explorer.exe\",\"10\"\r\n\"PrismLauncher.exe\",\"42\"\r\n", nil, true},
		{"linux ps", "systemd\nbash\n/app/bin/prismlauncher\n", nil, true},
		{"not running", "systemd\nbash\nprismlauncher-helper\n", nil, false},
		{"listing fails", "", errors.New("ps not found"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakeProcesses(t, tt.output, tt.err)
			if got := LauncherRunning(context.Background()); got != tt.want {
				t.Errorf("LauncherRunning() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWaitForTermination_AlreadyTerminated(t *testing.T) {
	fakeProcesses(t, "bash\n", nil)

	start := time.Now()
	if !WaitForTermination(context.Background(), time.Second, "prismlauncher") {
		t.Error("WaitForTermination() = false, want true")
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("WaitForTermination() took %v for a process that is not running", elapsed)
	}
}

func TestWaitForTermination_Timeout(t *testing.T) {
	fakeProcesses(t, "prismlauncher\n", nil)

	if WaitForTermination(context.Background(), 50*time.Millisecond, "prismlauncher") {
		t.Error("WaitForTermination() = true, want false on timeout")
	}
}

func TestIsRunning_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	// A name no real process uses
	if IsRunning(context.Background(), "definitely-not-a-process-9f3c") {
		t.Error("IsRunning() = true for a nonexistent process")
	}
}
