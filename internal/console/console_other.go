//go:build !windows

package console

import (
	"fmt"
	"os"
)

// Terminals already exist wherever the installer is started from.
func attach() bool { return true }

// setTitle uses the xterm title sequence, which most terminals honour.
func setTitle(title string) error {
	_, err := fmt.Fprintf(os.Stderr, "\x1b]0;%s\x07", title)
	return err
}

// GetWindow returns 0; there is no console window handle outside Windows
func GetWindow() uintptr { return 0 }
