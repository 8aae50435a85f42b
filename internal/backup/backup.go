// Package backup archives the model file a simulation was generated from,
// so every output directory records the exact parameters that produced it.
package backup

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// lockName is the lock file taken in the destination directory while copying.
const lockName = ".archive.lock"

// FileName returns the archived file name for a model.
func FileName(name, version, ext string) string {
	return fmt.Sprintf("%s_%s_simulation_model%s", name, version, ext)
}

// Archive copies src verbatim to destRoot/name/{name}_{version}_simulation_model{ext}
// and returns the destination path.
//
// The destination directory is created if needed; failing to create it is an
// error. Concurrent archives into the same directory are serialized with a
// file lock, and the copy is written to a temp file then renamed so readers
// never see a partial file.
func Archive(src, destRoot, name, version string) (string, error) {
	dir := filepath.Join(destRoot, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create archive directory %s: %w", dir, err)
	}

	lock := flock.New(filepath.Join(dir, lockName))
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("lock archive directory %s: %w", dir, err)
	}
	defer lock.Unlock()

	dest := filepath.Join(dir, FileName(name, version, filepath.Ext(src)))
	if err := copyFile(src, dest); err != nil {
		return "", err
	}

	slog.Info("model archived", "src", src, "dest", dest)
	return dest, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open model file: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // No-op once renamed

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return fmt.Errorf("copy model file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
