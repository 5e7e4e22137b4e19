package testutil

import (
	"archive/zip"
	"bytes"
	"testing"
)

// ZipEntry is one file in a test archive. Names ending in "/" are directories.
type ZipEntry struct {
	Name string
	Body string
}

// ZipBytes builds an in-memory ZIP archive with entries in the given order
func ZipBytes(t *testing.T, entries ...ZipEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			t.Fatalf("failed to add %s to archive: %v", e.Name, err)
		}
		if e.Body == "" {
			continue
		}
		if _, err := w.Write([]byte(e.Body)); err != nil {
			t.Fatalf("failed to write %s to archive: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close archive: %v", err)
	}
	return buf.Bytes()
}
