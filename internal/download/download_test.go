package download

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/distantorigin/lwjgl3ify-installer/internal/failure"
)

// isolateTemp points os.CreateTemp at a per-test directory and returns it
func isolateTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TMPDIR", dir)
	t.Setenv("TMP", dir)
	t.Setenv("TEMP", dir)
	return dir
}

func serveBytes(body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Write(body)
	}
}

// TestToTemp tests temporary file download
func TestToTemp(t *testing.T) {
	isolateTemp(t)
	body := bytes.Repeat([]byte("lwjgl3ify"), 4096)
	server := httptest.NewServer(serveBytes(body))
	defer server.Close()

	path, err := New(nil).ToTemp(context.Background(), server.URL+"/asset.zip", "test-", nil)
	if err != nil {
		t.Fatalf("ToTemp() error = %v", err)
	}
	defer os.Remove(path)

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read download: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("downloaded %d bytes, want %d", len(got), len(body))
	}
}

// TestFileWithProgress tests download with progress callback
func TestFileWithProgress(t *testing.T) {
	body := bytes.Repeat([]byte("x"), 64*1024)
	server := httptest.NewServer(serveBytes(body))
	defer server.Close()

	var mu sync.Mutex
	var calls [][3]int64
	callback := func(done, total int64, pct int) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, [3]int64{done, total, int64(pct)})
	}

	target := t.TempDir() + "/asset.jar"
	if err := New(nil).File(context.Background(), server.URL+"/asset.jar", target, callback); err != nil {
		t.Fatalf("File() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(calls) == 0 {
		t.Fatal("progress callback was never called")
	}
	last := calls[len(calls)-1]
	if last[0] != int64(len(body)) || last[1] != int64(len(body)) || last[2] != 100 {
		t.Errorf("final progress = %v, want [%d %d 100]", last, len(body), len(body))
	}
}

// TestFile_OverwritesExisting tests that an existing target is replaced, not resumed
func TestFile_OverwritesExisting(t *testing.T) {
	server := httptest.NewServer(serveBytes([]byte("new")))
	defer server.Close()

	target := t.TempDir() + "/asset.jar"
	if err := os.WriteFile(target, []byte("old content that is longer"), 0644); err != nil {
		t.Fatalf("failed to seed target: %v", err)
	}

	if err := New(nil).File(context.Background(), server.URL+"/asset.jar", target, nil); err != nil {
		t.Fatalf("File() error = %v", err)
	}
	got, _ := os.ReadFile(target)
	if string(got) != "new" {
		t.Errorf("target = %q, want %q", got, "new")
	}
}

// TestToTemp_CleanupOnError tests that partial files are removed on failure
func TestToTemp_CleanupOnError(t *testing.T) {
	tmp := isolateTemp(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := New(nil).ToTemp(context.Background(), server.URL+"/missing.zip", "test-", nil)
	if !errors.Is(err, failure.ErrNetwork) {
		t.Fatalf("ToTemp() error = %v, want ErrNetwork", err)
	}

	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatalf("failed to read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir has %d leftover entries, want 0", len(entries))
	}
}

func TestFile_Cancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1048576")
		w.WriteHeader(http.StatusOK)
		w.Write(make([]byte, 1024))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	err := New(nil).File(ctx, server.URL+"/slow.zip", t.TempDir()+"/slow.zip", nil)
	if !errors.Is(err, failure.ErrCancelled) {
		t.Errorf("File() error = %v, want ErrCancelled", err)
	}
}

func TestFile_Unreachable(t *testing.T) {
	server := httptest.NewServer(serveBytes(nil))
	url := server.URL
	server.Close()

	err := New(nil).File(context.Background(), url+"/asset.zip", t.TempDir()+"/asset.zip", nil)
	if !errors.Is(err, failure.ErrNetwork) {
		t.Errorf("File() error = %v, want ErrNetwork", err)
	}
}
