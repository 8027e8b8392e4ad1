package artifact

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"telegram-ai-forge/internal/domain"
)

func newTestWriter() *Writer {
	logger := zerolog.New(io.Discard)
	return NewWriter(&logger)
}

func seedWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestCopyWorkspaceToOutput(t *testing.T) {
	files := map[string]string{
		"index.html":    "<h1>hi</h1>",
		"css/style.css": "body{}",
		"js/app.js":     "console.log(1)",
	}
	workspace := seedWorkspace(t, files)
	output := filepath.Join(t.TempDir(), "out")

	n, err := newTestWriter().CopyWorkspaceToOutput(workspace, output)
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if n != 3 {
		t.Errorf("copied = %d, want 3", n)
	}
	for rel, want := range files {
		b, err := os.ReadFile(filepath.Join(output, filepath.FromSlash(rel)))
		if err != nil {
			t.Fatalf("read %s: %v", rel, err)
		}
		if string(b) != want {
			t.Errorf("%s = %q, want %q", rel, b, want)
		}
	}
}

func TestCopyWorkspaceMissingSource(t *testing.T) {
	_, err := newTestWriter().CopyWorkspaceToOutput(filepath.Join(t.TempDir(), "absent"), t.TempDir())
	var pe *domain.PackagingError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %T, want *domain.PackagingError", err)
	}
}

func TestCreateZipArchiveMirrorsTree(t *testing.T) {
	files := map[string]string{
		"index.html":    "<h1>hi</h1>",
		"css/style.css": "body{}",
	}
	output := seedWorkspace(t, files)
	archive := filepath.Join(t.TempDir(), "arch", "job.zip")

	if err := newTestWriter().CreateZipArchive(output, archive); err != nil {
		t.Fatalf("zip: %v", err)
	}

	r, err := zip.OpenReader(archive)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer r.Close()

	got := map[string]string{}
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", f.Name, err)
		}
		got[f.Name] = string(b)
	}

	if len(got) != len(files) {
		t.Fatalf("entries = %v, want exactly the materialized files", got)
	}
	for rel, want := range files {
		if got[rel] != want {
			t.Errorf("entry %s = %q, want %q (names must use forward slashes)", rel, got[rel], want)
		}
	}
}

func TestCreateZipArchiveFailureLeavesNoFile(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "job.zip")
	err := newTestWriter().CreateZipArchive(filepath.Join(t.TempDir(), "absent"), archive)
	var pe *domain.PackagingError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %T, want *domain.PackagingError", err)
	}
	if _, statErr := os.Stat(archive); !os.IsNotExist(statErr) {
		t.Errorf("partial archive left behind: %v", statErr)
	}
}
