package paths

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
)

// Normalize converts a path to use forward slashes (archive/display form)
func Normalize(p string) string {
	return strings.ReplaceAll(filepath.Clean(p), string(filepath.Separator), "/")
}

// Denormalize converts a path from forward slashes to platform-specific separators
func Denormalize(p string) string {
	return strings.ReplaceAll(p, "/", string(filepath.Separator))
}

// ArchiveEntry validates a ZIP entry name and returns it cleaned, using forward
// slashes. Names that are absolute, carry a volume, or climb out of the archive
// root with ".." are rejected.
func ArchiveEntry(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty entry name")
	}
	// ZIP names should use "/", but some Windows tools write "\".
	slashed := strings.ReplaceAll(name, "\\", "/")
	if strings.HasPrefix(slashed, "/") || filepath.VolumeName(name) != "" || hasDriveLetter(slashed) {
		return "", fmt.Errorf("absolute entry path %q", name)
	}

	cleaned := path.Clean(slashed)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("entry %q escapes the archive root", name)
	}
	return cleaned, nil
}

func hasDriveLetter(p string) bool {
	return len(p) >= 2 && p[1] == ':' &&
		((p[0] >= 'a' && p[0] <= 'z') || (p[0] >= 'A' && p[0] <= 'Z'))
}

// Within resolves rel against base and ensures the result stays inside base
// (path traversal protection).
func Within(base, rel string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}

	target := filepath.Join(absBase, Denormalize(rel))
	r, err := filepath.Rel(absBase, target)
	if err != nil {
		return "", fmt.Errorf("path traversal attempt detected: %w", err)
	}
	if r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) || filepath.IsAbs(r) {
		return "", fmt.Errorf("path traversal attempt detected: %s", rel)
	}
	return target, nil
}

// DefaultInstanceRoots returns the conventional Prism Launcher instance folders
// for the current platform, most likely first.
func DefaultInstanceRoots() []string {
	return instanceRoots(runtime.GOOS, os.Getenv, os.UserHomeDir)
}

func instanceRoots(goos string, getenv func(string) string, home func() (string, error)) []string {
	var roots []string
	homeDir, _ := home()

	switch goos {
	case "windows":
		if appData := getenv("APPDATA"); appData != "" {
			roots = append(roots, filepath.Join(appData, "PrismLauncher", "instances"))
		}
		if homeDir != "" {
			roots = append(roots, filepath.Join(homeDir, "scoop", "persist", "prismlauncher", "instances"))
		}
	case "darwin":
		if homeDir != "" {
			roots = append(roots, filepath.Join(homeDir, "Library", "Application Support", "PrismLauncher", "instances"))
		}
	default:
		dataHome := getenv("XDG_DATA_HOME")
		if dataHome == "" && homeDir != "" {
			dataHome = filepath.Join(homeDir, ".local", "share")
		}
		if dataHome != "" {
			roots = append(roots, filepath.Join(dataHome, "PrismLauncher", "instances"))
		}
		if homeDir != "" {
			roots = append(roots, filepath.Join(homeDir, ".var", "app", "org.prismlauncher.PrismLauncher",
				"data", "PrismLauncher", "instances"))
		}
	}
	return roots
}

// DetectInstanceRoot returns the first default instance folder that exists,
// or "" when none is found.
func DetectInstanceRoot() string {
	for _, root := range DefaultInstanceRoots() {
		if info, err := os.Stat(root); err == nil && info.IsDir() {
			return root
		}
	}
	return ""
}
