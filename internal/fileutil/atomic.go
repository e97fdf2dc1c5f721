// Package fileutil holds small filesystem helpers shared by the hand
// archiver.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to filename via a temp file in the same
// directory followed by a rename. Readers never observe a partially
// written file. The temp file stays on the same filesystem so the
// rename is atomic.
func WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	dir, base := filepath.Split(filename)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	writeErr := func() error {
		if _, err := tmp.Write(data); err != nil {
			return fmt.Errorf("writing %s: %w", tmpPath, err)
		}
		if err := tmp.Sync(); err != nil {
			return fmt.Errorf("syncing %s: %w", tmpPath, err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", tmpPath, err)
		}
		if err := os.Chmod(tmpPath, perm); err != nil {
			return fmt.Errorf("chmod %s: %w", tmpPath, err)
		}
		return os.Rename(tmpPath, filename)
	}()
	if writeErr != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return writeErr
	}
	return nil
}
