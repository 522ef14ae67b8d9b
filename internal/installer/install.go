package installer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/otiai10/copy"

	"blender-downloader/internal/logger"
)

// Install unpacks archivePath and replaces the contents of installDir with the
// contents of the archive's top-level folder.
//
// Builds are expected to contain exactly one top-level folder. That is not
// verified: when there are several entries the first one by name is used.
//
// The archive is extracted before installDir is touched, so a corrupt archive
// leaves the previous install in place.
func Install(archivePath, installDir string) error {
	scratch, err := os.MkdirTemp("", "build-extract-*")
	if err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			logger.Warn("[WARN] Failed to remove scratch directory %s: %v\n", scratch, err)
		}
	}()

	logger.Debug("[DEBUG] Extracting %s into %s\n", archivePath, scratch)
	if err := ExtractArchive(archivePath, scratch); err != nil {
		return fmt.Errorf("failed to extract archive: %w", err)
	}

	top, err := topLevelDir(scratch)
	if err != nil {
		return err
	}

	if err := prepareInstallDir(installDir); err != nil {
		return err
	}

	return moveChildren(top, installDir)
}

// topLevelDir returns the folder an archive was packed under.
func topLevelDir(scratch string) (string, error) {
	entries, err := os.ReadDir(scratch)
	if err != nil {
		return "", fmt.Errorf("failed to list extracted archive: %w", err)
	}
	if len(entries) == 0 {
		return "", errors.New("archive is empty")
	}
	if len(entries) > 1 {
		logger.Warn("[WARN] Archive has %d top-level entries, using %s\n", len(entries), entries[0].Name())
	}

	top := filepath.Join(scratch, entries[0].Name())
	info, err := os.Stat(top)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("expected a top-level folder in archive, found file %s", entries[0].Name())
	}
	return top, nil
}

// prepareInstallDir wipes installDir (best effort) and recreates it empty.
func prepareInstallDir(installDir string) error {
	if failures := RemoveTree(installDir); failures > 0 {
		logger.Warn("[WARN] %d entries could not be removed from %s, continuing\n", failures, installDir)
	}
	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return fmt.Errorf("failed to create install directory %s: %w", installDir, err)
	}
	return nil
}

// moveChildren moves every entry of srcDir into destDir.
func moveChildren(srcDir, destDir string) error {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", srcDir, err)
	}
	for _, entry := range entries {
		src := filepath.Join(srcDir, entry.Name())
		dst := filepath.Join(destDir, entry.Name())
		if err := moveEntry(src, dst); err != nil {
			return err
		}
	}
	logger.Debug("[DEBUG] Moved %d entries into %s\n", len(entries), destDir)
	return nil
}

// moveEntry renames src to dst, falling back to copy-then-delete when a rename
// is not possible (scratch space on another filesystem, leftovers in dst).
func moveEntry(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	logger.Debug("[DEBUG] Rename %s -> %s failed (%v), copying instead\n", src, dst, err)

	opts := copy.Options{
		OnSymlink: func(string) copy.SymlinkAction { return copy.Shallow },
	}
	if err := copy.Copy(src, dst, opts); err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", src, dst, err)
	}
	if err := os.RemoveAll(src); err != nil {
		logger.Warn("[WARN] Failed to remove %s after copying: %v\n", src, err)
	}
	return nil
}
