package download

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cavaliergopher/grab/v3"

	"github.com/distantorigin/lwjgl3ify-installer/internal/failure"
	"github.com/distantorigin/lwjgl3ify-installer/internal/version"
)

// ProgressCallback is called during download with progress info.
// totalBytes is -1 when the server sent no Content-Length.
type ProgressCallback func(bytesComplete, totalBytes int64, percentage int)

// Downloader fetches release archives with grab
type Downloader struct {
	client   *grab.Client
	interval time.Duration
}

// New creates a Downloader. A nil httpClient uses grab's default client.
func New(httpClient *http.Client) *Downloader {
	client := grab.NewClient()
	client.UserAgent = version.UserAgent()
	if httpClient != nil {
		client.HTTPClient = httpClient
	}
	return &Downloader{client: client, interval: 100 * time.Millisecond}
}

// File downloads url to targetPath, overwriting it, with an optional progress callback
func (d *Downloader) File(ctx context.Context, url, targetPath string, callback ProgressCallback) error {
	const op = "download"

	req, err := grab.NewRequest(targetPath, url)
	if err != nil {
		return failure.New(failure.KindNetwork, op, fmt.Errorf("failed to create request: %w", err)).WithResource(url)
	}
	req = req.WithContext(ctx)
	req.NoResume = true // Always overwrite, never resume

	resp := d.client.Do(req)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	lastPercentage := -1
	report := func(final bool) {
		if callback == nil {
			return
		}
		var percentage int
		if resp.Size() > 0 {
			percentage = int(resp.Progress() * 100)
		}
		if final && resp.Err() == nil {
			percentage = 100
		}
		if percentage != lastPercentage || final {
			callback(resp.BytesComplete(), resp.Size(), percentage)
			lastPercentage = percentage
		}
	}

loop:
	for {
		select {
		case <-ticker.C:
			report(false)
		case <-resp.Done:
			report(true)
			break loop
		}
	}

	if err := resp.Err(); err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return failure.New(failure.KindCancelled, op, err).WithResource(url)
		}
		return failure.New(failure.KindNetwork, op, err).WithResource(url)
	}
	return nil
}

// ToTemp downloads url to a new temporary file and returns its path. On any
// failure the partial file is removed.
func (d *Downloader) ToTemp(ctx context.Context, url, prefix string, callback ProgressCallback) (string, error) {
	tempFile, err := os.CreateTemp("", prefix+"*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := d.File(ctx, url, tempPath, callback); err != nil {
		_ = os.Remove(tempPath) // Best effort cleanup
		return "", err
	}

	return tempPath, nil
}
