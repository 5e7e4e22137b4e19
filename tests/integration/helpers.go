package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/distantorigin/lwjgl3ify-installer/internal/download"
	"github.com/distantorigin/lwjgl3ify-installer/internal/github"
	"github.com/distantorigin/lwjgl3ify-installer/internal/install"
	"github.com/distantorigin/lwjgl3ify-installer/internal/instance"
	"github.com/distantorigin/lwjgl3ify-installer/internal/pipeline"
	"github.com/distantorigin/lwjgl3ify-installer/internal/testutil"
)

// TestEnvironment represents a complete test environment: an instances
// folder, a mock GitHub API and a pipeline wired to both
type TestEnvironment struct {
	T        *testing.T
	BaseDir  string
	GitHub   *testutil.MockGitHubServer
	Client   *github.Client
	Pipeline *pipeline.Pipeline
}

// SetupTestEnvironment creates a complete test environment
func SetupTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()

	// Keep downloaded archives inside the test's temp space.
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)
	t.Setenv("TMP", tmp)
	t.Setenv("TEMP", tmp)

	server := testutil.NewMockGitHubServer(t)
	client := github.NewClient(nil, github.WithBaseURL(server.URL))
	installer := install.New(download.New(nil), nil)

	return &TestEnvironment{
		T:        t,
		BaseDir:  t.TempDir(),
		GitHub:   server,
		Client:   client,
		Pipeline: pipeline.New(instance.NewScanner(nil), client, installer, nil),
	}
}

// CreateInstance creates an instance directory with a marker naming it
func (e *TestEnvironment) CreateInstance(dir, name string) string {
	e.T.Helper()
	return testutil.MakeInstance(e.T, e.BaseDir, dir, fmt.Sprintf("[General]\nInstanceType=OneSix\nname=%s\n", name))
}

// CreateFile creates a file in the test environment
func (e *TestEnvironment) CreateFile(relativePath, content string) error {
	e.T.Helper()

	fullPath := filepath.Join(e.BaseDir, relativePath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(fullPath, []byte(content), 0644)
}

// ReadFile reads a file from the test environment
func (e *TestEnvironment) ReadFile(relativePath string) (string, error) {
	e.T.Helper()

	data, err := os.ReadFile(filepath.Join(e.BaseDir, relativePath))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FileExists checks if a file exists in the test environment
func (e *TestEnvironment) FileExists(relativePath string) bool {
	e.T.Helper()

	_, err := os.Stat(filepath.Join(e.BaseDir, relativePath))
	return err == nil
}

// PublishRelease serves a release with one archive asset built from files
func (e *TestEnvironment) PublishRelease(tag, assetName string, files ...testutil.ZipEntry) {
	e.T.Helper()
	e.GitHub.SetLatestRelease(e.T, tag, "Release "+tag,
		testutil.MockAsset{Name: assetName, Body: testutil.ZipBytes(e.T, files...)})
}

// InstallInto scans, selects the instance at dir and installs
func (e *TestEnvironment) InstallInto(dir string) (install.Result, error) {
	e.T.Helper()

	if _, err := e.Pipeline.Scan(e.BaseDir); err != nil {
		e.T.Fatalf("Scan() error = %v", err)
	}
	if err := e.Pipeline.SelectPath(filepath.Join(e.BaseDir, dir)); err != nil {
		e.T.Fatalf("SelectPath() error = %v", err)
	}
	return e.Pipeline.Install(context.Background(), nil)
}

// Snapshot returns the files of one instance
func (e *TestEnvironment) Snapshot(dir string) map[string]string {
	e.T.Helper()
	return testutil.Snapshot(e.T, filepath.Join(e.BaseDir, dir))
}

// AssertFileContent asserts that a file has specific content
func (e *TestEnvironment) AssertFileContent(relativePath, expectedContent string) {
	e.T.Helper()

	content, err := e.ReadFile(relativePath)
	if err != nil {
		e.T.Fatalf("failed to read file %s: %v", relativePath, err)
	}
	if content != expectedContent {
		e.T.Errorf("file %s content = %q, want %q", relativePath, content, expectedContent)
	}
}

// AssertFileExists asserts that a file exists
func (e *TestEnvironment) AssertFileExists(relativePath string) {
	e.T.Helper()

	if !e.FileExists(relativePath) {
		e.T.Errorf("file should exist: %s", relativePath)
	}
}

// AssertFileNotExists asserts that a file does not exist
func (e *TestEnvironment) AssertFileNotExists(relativePath string) {
	e.T.Helper()

	if e.FileExists(relativePath) {
		e.T.Errorf("file should not exist: %s", relativePath)
	}
}
