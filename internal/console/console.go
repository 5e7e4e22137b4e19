package console

import (
	"fmt"
	"strings"
)

var (
	attached bool
	quiet    bool
)

// Init configures the console package
func Init(quietMode bool) {
	quiet = quietMode
}

// IsAttached returns whether a console is attached
func IsAttached() bool {
	return attached
}

// Attach makes sure output has somewhere to go. Returns true if a console is
// available.
func Attach() bool {
	attached = attach()
	return attached
}

// SetTitle sets the console window title. It does nothing in quiet mode or
// without a console.
func SetTitle(title string) error {
	if quiet || !attached {
		return nil
	}
	return setTitle(sanitizeTitle(title))
}

// ProgressTitle is the window title shown while an install runs
func ProgressTitle(stage string, percent int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return fmt.Sprintf("lwjgl3ify installer - %s %d%%", stage, percent)
}

// sanitizeTitle strips control characters so a title cannot end the escape
// sequence early.
func sanitizeTitle(title string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, title)
}
