package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/distantorigin/lwjgl3ify-installer/internal/failure"
	"github.com/distantorigin/lwjgl3ify-installer/internal/github"
	"github.com/distantorigin/lwjgl3ify-installer/internal/install"
	"github.com/distantorigin/lwjgl3ify-installer/internal/instance"
	"github.com/distantorigin/lwjgl3ify-installer/internal/version"
)

// Info is everything the final report describes
type Info struct {
	Instance  instance.Record
	Asset     github.Asset
	Result    install.Result
	Err       error
	Completed time.Time
}

// FormatNoteLine normalizes one line of release notes. Markdown headings and
// bullets become plain text so the report reads well in a terminal.
func FormatNoteLine(line string) string {
	line = strings.TrimRight(line, " \t\r")
	trimmed := strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(trimmed, "#"):
		return strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
	case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "+ "):
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		return indent + "* " + strings.TrimSpace(trimmed[2:])
	}
	return line
}

// ReleaseNotes formats a release body, dropping leading and trailing blank lines
func ReleaseNotes(body string) string {
	body = strings.Trim(strings.ReplaceAll(body, "\r\n", "\n"), "\n ")
	if body == "" {
		return ""
	}

	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = FormatNoteLine(line)
	}
	return strings.Join(lines, "\n")
}

// Build creates the install report shown after an install attempt
func Build(info Info) string {
	var report strings.Builder

	report.WriteString("lwjgl3ify Install Report\n\n")
	report.WriteString(fmt.Sprintf("Instance: %s (%s)\n", info.Instance.Name, info.Instance.Path))
	if info.Asset.Tag != "" {
		report.WriteString(fmt.Sprintf("Version: %s\n", version.Display(info.Asset.Tag)))
	}
	if info.Asset.Filename != "" {
		size := "unknown size"
		if info.Asset.Size > 0 {
			size = humanize.Bytes(uint64(info.Asset.Size))
		}
		report.WriteString(fmt.Sprintf("Asset: %s (%s)\n", info.Asset.Filename, size))
	}
	if !info.Completed.IsZero() {
		report.WriteString(fmt.Sprintf("Finished: %s\n", info.Completed.Format("2006-01-02 15:04:05")))
	}

	if info.Err != nil {
		report.WriteString(fmt.Sprintf("Result: failed (%s)\n", failure.KindOf(info.Err)))
		report.WriteString(fmt.Sprintf("Error: %s\n", info.Err))
		if n := failure.FilesWritten(info.Err); n > 0 {
			report.WriteString(fmt.Sprintf("Files written before the failure: %d (not rolled back)\n", n))
		}
	} else {
		report.WriteString(fmt.Sprintf("Result: %s\n", info.Result.Message))
	}

	if notes := ReleaseNotes(info.Asset.Notes); notes != "" && info.Err == nil {
		report.WriteString("\n")
		report.WriteString(strings.Repeat("=", 60))
		report.WriteString("\nRELEASE NOTES\n")
		report.WriteString(strings.Repeat("=", 60))
		report.WriteString("\n\n")
		report.WriteString(notes)
		report.WriteString("\n")
	}

	if len(info.Result.Files) > 0 {
		report.WriteString("\n")
		report.WriteString(strings.Repeat("-", 60))
		report.WriteString(fmt.Sprintf("\nFiles written (%d):\n", len(info.Result.Files)))
		report.WriteString(strings.Repeat("-", 60))
		report.WriteString("\n\n")
		for _, name := range info.Result.Files {
			report.WriteString(fmt.Sprintf("  + %s\n", name))
		}
	}

	return report.String()
}

// Progress renders one progress notification as a single status line
func Progress(p install.Progress) string {
	switch p.Stage {
	case install.StageDownloading:
		if p.TotalBytes <= 0 {
			return fmt.Sprintf("Downloading... %s", humanize.Bytes(uint64(p.BytesComplete)))
		}
		return fmt.Sprintf("Downloading... %d%% (%s / %s)", p.Percent,
			humanize.Bytes(uint64(p.BytesComplete)), humanize.Bytes(uint64(p.TotalBytes)))
	case install.StageExtracting:
		return fmt.Sprintf("Extracting... %d%% (%d/%d files) %s", p.Percent, p.FilesWritten, p.TotalFiles, p.Current)
	default:
		return string(p.Stage)
	}
}
