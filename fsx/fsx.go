// Package fsx provides filesystem helpers for output directory preparation.
package fsx

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureEmptyDir guarantees that path exists, is a directory, and is empty.
//
// A populated directory has its contents removed, a regular file at path is
// replaced by a directory, and a missing path is created with parents. The
// directory itself is never recreated when it already exists, so its inode
// and permissions are preserved.
func EnsureEmptyDir(path string) error {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if !info.IsDir() {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove %s: %w", path, err)
		}
		if err := os.Mkdir(path, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		return nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	for _, entry := range entries {
		sub := filepath.Join(path, entry.Name())
		if err := os.RemoveAll(sub); err != nil {
			return fmt.Errorf("remove %s: %w", sub, err)
		}
	}
	return nil
}
