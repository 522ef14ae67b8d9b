package installer

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"blender-downloader/internal/logger"
)

// RemoveTree deletes root and everything under it, best effort.
// Every entry that cannot be listed or removed is logged and counted once; the
// walk never stops early. It returns the number of failed paths (0 when root
// did not exist).
func RemoveTree(root string) int {
	if _, err := os.Lstat(root); errors.Is(err, fs.ErrNotExist) {
		return 0
	}

	failed := make(map[string]bool)
	var paths []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Either root itself vanished or a directory could not be read.
			// The directory (if any) was already recorded on its first visit.
			logger.Error("[ERROR] Error removing %s: %v\n", path, err)
			failed[path] = true
			return nil
		}
		paths = append(paths, path)
		return nil
	})

	// WalkDir visits parents before children; remove in reverse so directories are empty.
	for i := len(paths) - 1; i >= 0; i-- {
		if err := os.Remove(paths[i]); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Error("[ERROR] Error removing %s: %v\n", paths[i], err)
			failed[paths[i]] = true
		}
	}
	return len(failed)
}
