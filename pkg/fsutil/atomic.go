// Package fsutil provides filesystem utilities for renames and syncing.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrDestinationExists is returned by RenameNoClobber when newpath is taken.
var ErrDestinationExists = errors.New("destination exists")

// RenameAndSync renames old to new and fsyncs the parent directory.
func RenameAndSync(oldpath, newpath string) error {
	if err := os.Rename(oldpath, newpath); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return FsyncDir(filepath.Dir(newpath))
}

// RenameNoClobber renames oldpath to newpath unless newpath already names a
// different entry. Renaming a path onto itself succeeds without touching the
// filesystem. The existence check and the rename are not atomic together.
func RenameNoClobber(oldpath, newpath string) error {
	if filepath.Clean(oldpath) == filepath.Clean(newpath) {
		return nil
	}
	if dst, err := os.Lstat(newpath); err == nil {
		// Case-insensitive filesystems report the source itself.
		src, serr := os.Lstat(oldpath)
		if serr != nil || !os.SameFile(src, dst) {
			return fmt.Errorf("rename %s: %w", newpath, ErrDestinationExists)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat destination: %w", err)
	}
	return RenameAndSync(oldpath, newpath)
}

// FsyncDir fsyncs a directory to ensure rename visibility is durable.
func FsyncDir(dirPath string) error {
	d, err := os.Open(dirPath)
	if err != nil {
		return fmt.Errorf("fsync dir open: %w", err)
	}
	defer d.Close()
	return d.Sync()
}
