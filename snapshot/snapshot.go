// Package snapshot names and places still images saved from the camera feed.
package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	SNAPSHOT_DIR_NAME = "snapshots"
	SNAPSHOT_PREFIX   = "snapshot_"
	SNAPSHOT_EXT      = ".jpg"

	// ISO 8601 without colons, which some filesystems reject.
	TIMESTAMP_LAYOUT = "2006-01-02T15-04-05"
)

// FileName returns the snapshot file name for t.
func FileName(t time.Time) string {
	return SNAPSHOT_PREFIX + t.Format(TIMESTAMP_LAYOUT) + SNAPSHOT_EXT
}

// DefaultBase returns the directory of the running executable, or the
// working directory when it cannot be resolved.
func DefaultBase() string {
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// Dir returns the snapshots directory under base.
func Dir(base string) string {
	return filepath.Join(base, SNAPSHOT_DIR_NAME)
}

// Prepare creates dir on demand and returns a free path for a snapshot taken
// at t. Several snapshots within one second get _1, _2, ... suffixes.
func Prepare(dir string, t time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := FileName(t)
	path := filepath.Join(dir, name)
	stem := name[:len(name)-len(SNAPSHOT_EXT)]
	for i := 1; ; i++ {
		_, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("check snapshot path: %w", err)
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, SNAPSHOT_EXT))
	}
}
