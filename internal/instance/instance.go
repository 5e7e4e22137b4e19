// Package instance finds Prism Launcher instances inside an instances folder.
package instance

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/ini.v1"

	"github.com/distantorigin/lwjgl3ify-installer/internal/failure"
)

// MarkerFile identifies a directory as a launcher instance.
const MarkerFile = "instance.cfg"

// Record is one instance found by a scan.
type Record struct {
	Path string
	Name string
}

func (r Record) String() string {
	return r.Name
}

// Scanner enumerates instances under a root folder.
type Scanner struct {
	logger *log.Logger
}

// NewScanner creates a Scanner. A nil logger discards output.
func NewScanner(logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Scanner{logger: logger}
}

// Scan lists the immediate children of root that contain MarkerFile, sorted by
// display name. Children without the marker are skipped. A root that is not a
// readable directory yields a failure.KindInvalidRoot error and no records.
func (s *Scanner) Scan(root string) ([]Record, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, failure.New(failure.KindInvalidRoot, "read instances folder", err).WithResource(root)
	}
	if !info.IsDir() {
		return nil, failure.New(failure.KindInvalidRoot, "read instances folder", fmt.Errorf("not a directory")).WithResource(root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, failure.New(failure.KindInvalidRoot, "read instances folder", err).WithResource(root)
	}

	var records []Record
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		marker := filepath.Join(dir, MarkerFile)
		if fi, err := os.Stat(marker); err != nil || fi.IsDir() {
			continue
		}

		name, err := ReadName(marker)
		if err != nil {
			s.logger.Debug("Error reading instance config", "instance", entry.Name(), "err", err)
		}
		if name == "" {
			name = entry.Name()
		}
		records = append(records, Record{Path: dir, Name: name})
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := strings.ToLower(records[i].Name), strings.ToLower(records[j].Name)
		if a != b {
			return a < b
		}
		return records[i].Path < records[j].Path
	})

	s.logger.Info(fmt.Sprintf("Found %d instances", len(records)), "root", root)
	return records, nil
}

// ReadName returns the trimmed "name" value from an instance config, or ""
// when the key is absent. Prism writes the key either before any section or
// under [General]; the first occurrence wins.
func ReadName(configPath string) (string, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		Loose:                   true,
		IgnoreInlineComment:     true,
		SkipUnrecognizableLines: true,
	}, configPath)
	if err == nil {
		for _, section := range cfg.Sections() {
			if section.HasKey("name") {
				return strings.TrimSpace(section.Key("name").String()), nil
			}
		}
		return "", nil
	}

	// Not valid INI; fall back to a plain key=value scan.
	name, scanErr := scanName(configPath)
	if scanErr != nil {
		return "", fmt.Errorf("failed to parse %s: %w", configPath, err)
	}
	return name, nil
}

func scanName(configPath string) (string, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if value, ok := strings.CutPrefix(line, "name="); ok {
			return strings.TrimSpace(value), nil
		}
	}
	return "", scanner.Err()
}

// Find returns the index of the record whose path or name matches query.
// Paths match exactly after cleaning; names match case-insensitively. An
// ambiguous name matches nothing.
func Find(records []Record, query string) (int, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return -1, false
	}

	clean := filepath.Clean(query)
	for i, r := range records {
		if filepath.Clean(r.Path) == clean {
			return i, true
		}
	}

	found := -1
	for i, r := range records {
		if strings.EqualFold(r.Name, query) {
			if found >= 0 {
				return -1, false
			}
			found = i
		}
	}
	return found, found >= 0
}
