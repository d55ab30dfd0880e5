// Package writer exposes sinks for encoded resource files.
package writer

import (
	"fmt"
	"os"
	"path/filepath"
)

// Sink receives a complete encoded resource file.
type Sink interface {
	WriteFork(buf []byte) error
}

// FileWriter writes resource file bytes to a filesystem path atomically.
type FileWriter struct {
	Path string
	Perm os.FileMode // 0 keeps the existing file's mode, or 0644 for new files
}

// WriteFork writes buf to the configured path atomically via temp file + rename.
func (w *FileWriter) WriteFork(buf []byte) error {
	perm := w.Perm
	if perm == 0 {
		perm = 0o644
		if info, err := os.Stat(w.Path); err == nil {
			perm = info.Mode().Perm()
		}
	}

	// Create temp file in same directory to ensure atomic rename
	dir := filepath.Dir(w.Path)
	tmpFile, err := os.CreateTemp(dir, ".tmplkit-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on error
	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, writeErr := tmpFile.Write(buf); writeErr != nil {
		return fmt.Errorf("write temp file: %w", writeErr)
	}
	if chmodErr := tmpFile.Chmod(perm); chmodErr != nil {
		return fmt.Errorf("chmod temp file: %w", chmodErr)
	}
	if syncErr := tmpFile.Sync(); syncErr != nil {
		return fmt.Errorf("sync temp file: %w", syncErr)
	}

	// Close before rename
	if closeErr := tmpFile.Close(); closeErr != nil {
		return fmt.Errorf("close temp file: %w", closeErr)
	}
	tmpFile = nil // Don't clean up in defer

	if renameErr := os.Rename(tmpPath, w.Path); renameErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", renameErr)
	}

	return nil
}
