// Package artifact packages finished job workspaces: a plain recursive
// copy into the output tree and a zip archive for chat delivery.
package artifact

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"telegram-ai-forge/internal/domain"
	"telegram-ai-forge/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.ArtifactWriter = (*Writer)(nil)

type Writer struct {
	log *zerolog.Logger
}

func NewWriter(logger *zerolog.Logger) *Writer {
	l := logger.With().Str("component", "ArtifactWriter").Logger()
	return &Writer{log: &l}
}

// CopyWorkspaceToOutput mirrors the workspace tree into outputDir and
// returns the number of files copied.
func (w *Writer) CopyWorkspaceToOutput(workspaceDir, outputDir string) (int, error) {
	count := 0
	err := filepath.WalkDir(workspaceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(workspaceDir, path)
		if err != nil {
			return err
		}
		target := filepath.Join(outputDir, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if err := copyFile(path, target); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, &domain.PackagingError{Path: workspaceDir, Err: err}
	}
	w.log.Debug().Int("files", count).Str("output", outputDir).Msg("workspace copied")
	return count, nil
}

// CreateZipArchive packages outputDir into a zip at archivePath. Entry
// names use forward slashes regardless of platform. A failure never
// leaves a partial archive behind.
func (w *Writer) CreateZipArchive(outputDir, archivePath string) error {
	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return &domain.PackagingError{Path: archivePath, Err: err}
	}
	f, err := os.Create(archivePath)
	if err != nil {
		return &domain.PackagingError{Path: archivePath, Err: err}
	}
	zw := zip.NewWriter(f)

	walkErr := filepath.WalkDir(outputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(outputDir, path)
		if err != nil {
			return err
		}
		entry, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		_, err = io.Copy(entry, in)
		return err
	})
	if walkErr != nil {
		zw.Close()
		f.Close()
		os.Remove(archivePath)
		return &domain.PackagingError{Path: archivePath, Err: walkErr}
	}
	if err := zw.Close(); err != nil {
		f.Close()
		os.Remove(archivePath)
		return &domain.PackagingError{Path: archivePath, Err: err}
	}
	if err := f.Close(); err != nil {
		return &domain.PackagingError{Path: archivePath, Err: err}
	}
	w.log.Debug().Str("archive", archivePath).Msg("archive written")
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
