// Package atomicfile provides crash-safe whole-file replacement.
//
// A write is observed as all-or-nothing by any reader: the target file is
// either untouched (old content) or fully replaced (new content), never
// partially written, regardless of process crash, disk-full, or permission
// failure at any point in the sequence.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// WriteFile writes data to path atomically: it writes to a uniquely named
// temporary file in the same directory (so the rename stays on one
// filesystem; cross-device renames are not atomic) and renames it onto
// path. On any failure the temporary file is removed best-effort and the
// original error is returned.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		removeTemp(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	// The data must be on disk before the rename can publish it.
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		removeTemp(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		removeTemp(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		removeTemp(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		removeTemp(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// removeTemp deletes an orphaned temp file. A failure here is logged and
// swallowed: an orphaned temp file is harmless and must never mask the
// error that caused the rollback.
func removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", path).Msg("failed to remove temp file")
	}
}
