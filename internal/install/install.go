package install

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/distantorigin/lwjgl3ify-installer/internal/download"
	"github.com/distantorigin/lwjgl3ify-installer/internal/failure"
	"github.com/distantorigin/lwjgl3ify-installer/internal/github"
	"github.com/distantorigin/lwjgl3ify-installer/internal/paths"
	"github.com/distantorigin/lwjgl3ify-installer/internal/version"
)

// Stage is the phase an install is in when progress is reported
type Stage string

const (
	StageDownloading Stage = "downloading"
	StageExtracting  Stage = "extracting"
)

// Progress is one progress notification
type Progress struct {
	Stage         Stage
	BytesComplete int64
	TotalBytes    int64 // -1 when unknown
	Percent       int
	FilesWritten  int
	TotalFiles    int
	Current       string // entry being written while extracting
}

// ProgressFunc receives progress notifications. It is called from the
// installing goroutine and must not block for long.
type ProgressFunc func(Progress)

// Result is the terminal outcome of one install attempt
type Result struct {
	Success      bool
	Message      string
	FilesWritten int
	Files        []string
}

// Downloader fetches an asset into a temporary file
type Downloader interface {
	ToTemp(ctx context.Context, url, prefix string, callback download.ProgressCallback) (string, error)
}

// Installer downloads a release archive and extracts it into an instance
type Installer struct {
	downloader Downloader
	logger     *log.Logger
}

// New creates an Installer. A nil logger discards output.
func New(downloader Downloader, logger *log.Logger) *Installer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Installer{downloader: downloader, logger: logger}
}

// Install downloads asset and extracts it over targetDir. Existing files are
// overwritten; nothing is written to targetDir unless the whole archive
// downloads and validates.
func (i *Installer) Install(ctx context.Context, asset github.Asset, targetDir string, progress ProgressFunc) (Result, error) {
	if err := CheckTarget(targetDir); err != nil {
		return failed(err), err
	}

	i.logger.Info("Downloading", "url", asset.DownloadURL)
	archivePath, err := i.downloader.ToTemp(ctx, asset.DownloadURL, "lwjgl3ify-", func(done, total int64, pct int) {
		if progress != nil {
			progress(Progress{Stage: StageDownloading, BytesComplete: done, TotalBytes: total, Percent: pct})
		}
	})
	if err != nil {
		return failed(err), err
	}
	defer os.Remove(archivePath)
	i.logger.Info("Download completed")

	// The instance may have moved while the download ran.
	if err := CheckTarget(targetDir); err != nil {
		return failed(err), err
	}

	i.logger.Info("Extracting files...", "target", targetDir)
	result, err := Extract(archivePath, targetDir, progress)
	if err != nil {
		i.logger.Error("Extraction failed", "err", err, "written", result.FilesWritten)
		return result, err
	}

	result.Message = fmt.Sprintf("Installed lwjgl3ify %s into %s (%d files)",
		version.Display(asset.Tag), targetDir, result.FilesWritten)
	i.logger.Info("Installation completed successfully!", "files", result.FilesWritten)
	return result, nil
}

func failed(err error) Result {
	return Result{Message: err.Error(), FilesWritten: failure.FilesWritten(err)}
}

// CheckTarget ensures dir exists, is a directory and accepts new files
func CheckTarget(dir string) error {
	const op = "use instance directory"

	info, err := os.Stat(dir)
	if err != nil {
		return failure.New(failure.KindTargetUnavailable, op, err).WithResource(dir)
	}
	if !info.IsDir() {
		return failure.New(failure.KindTargetUnavailable, op, fmt.Errorf("not a directory")).WithResource(dir)
	}

	probe, err := os.CreateTemp(dir, ".lwjgl3ify-write-check-*")
	if err != nil {
		return failure.New(failure.KindTargetUnavailable, op, fmt.Errorf("directory is not writable: %w", err)).WithResource(dir)
	}
	name := probe.Name()
	probe.Close()
	_ = os.Remove(name)
	return nil
}

type entry struct {
	file *zip.File
	rel  string
	dest string
}

// Extract writes every entry of the ZIP archive at archivePath under
// targetDir. The archive is fully validated first: unsafe names, unsupported
// entry types and checksum failures are reported as corrupt before any file
// is touched.
func Extract(archivePath, targetDir string, progress ProgressFunc) (Result, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		err = failure.New(failure.KindCorruptArchive, "open archive", err)
		return failed(err), err
	}
	defer r.Close()

	entries, err := plan(r.File, targetDir)
	if err != nil {
		return failed(err), err
	}

	totalFiles := 0
	for _, e := range entries {
		if !e.file.FileInfo().IsDir() {
			totalFiles++
		}
	}

	var result Result
	for _, e := range entries {
		if e.file.FileInfo().IsDir() {
			if err := os.MkdirAll(e.dest, 0755); err != nil {
				err = writeError(e.rel, result.FilesWritten, err)
				result.Message = err.Error()
				return result, err
			}
			continue
		}

		if err := writeEntry(e); err != nil {
			err = writeError(e.rel, result.FilesWritten, err)
			result.Message = err.Error()
			return result, err
		}

		result.FilesWritten++
		result.Files = append(result.Files, e.rel)
		if progress != nil {
			progress(Progress{
				Stage:        StageExtracting,
				Percent:      result.FilesWritten * 100 / totalFiles,
				FilesWritten: result.FilesWritten,
				TotalFiles:   totalFiles,
				Current:      e.rel,
			})
		}
	}

	result.Success = true
	result.Message = fmt.Sprintf("Extracted %d files", result.FilesWritten)
	return result, nil
}

// plan resolves every entry against targetDir and verifies its contents.
// When a name repeats, the last entry wins and keeps the first one's place.
func plan(files []*zip.File, targetDir string) ([]entry, error) {
	const op = "validate archive"

	entries := make([]entry, 0, len(files))
	seen := make(map[string]int, len(files))
	for _, f := range files {
		rel, err := paths.ArchiveEntry(f.Name)
		if err != nil {
			return nil, failure.New(failure.KindCorruptArchive, op, err)
		}
		if rel == "." {
			continue
		}
		if f.Mode()&os.ModeType&^os.ModeDir != 0 {
			return nil, failure.New(failure.KindCorruptArchive, op, fmt.Errorf("unsupported entry type %s for %q", f.Mode().Type(), f.Name))
		}

		dest, err := paths.Within(targetDir, rel)
		if err != nil {
			return nil, failure.New(failure.KindCorruptArchive, op, err)
		}

		if !f.FileInfo().IsDir() {
			if err := verify(f); err != nil {
				return nil, failure.New(failure.KindCorruptArchive, op, err)
			}
		}
		e := entry{file: f, rel: rel, dest: dest}
		if i, ok := seen[rel]; ok {
			entries[i] = e
			continue
		}
		seen[rel] = len(entries)
		entries = append(entries, e)
	}
	return entries, nil
}

// verify reads an entry to the end so the ZIP reader checks its CRC-32
func verify(f *zip.File) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return nil
}

func writeEntry(e entry) error {
	if err := os.MkdirAll(filepath.Dir(e.dest), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	rc, err := e.file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file in archive: %w", err)
	}
	defer rc.Close()

	perm := e.file.Mode().Perm()
	if perm == 0 {
		perm = 0644
	}
	out, err := os.OpenFile(e.dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func writeError(rel string, written int, err error) error {
	return &failure.Error{
		Kind:         failure.KindWrite,
		Op:           "write",
		Resource:     paths.Normalize(rel),
		FilesWritten: written,
		Cause:        err,
	}
}
