package state

import (
	"errors"
	"fmt"
	"os"

	"blender-downloader/internal/logger"
)

// ErrNotFound is returned by Load when no build has been recorded yet.
var ErrNotFound = errors.New("build marker not found")

// markerFileMode is used when (re)writing the marker: read/write owner, read others.
const markerFileMode = 0o644

// Load returns the link recorded in the marker file at path.
// The content is returned verbatim; no trimming is applied, so the comparison
// against a freshly scraped link is an exact string match.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read build marker %s: %w", path, err)
	}
	return string(data), nil
}

// Save overwrites the marker file at path with link.
func Save(path, link string) error {
	logger.Debug("[DEBUG] Writing build marker %s: %s\n", path, link)
	if err := os.WriteFile(path, []byte(link), markerFileMode); err != nil {
		return fmt.Errorf("failed to write build marker %s: %w", path, err)
	}
	return nil
}

// IsCurrent reports whether the marker at path already records link.
// A missing marker is not an error; it simply means nothing is installed yet.
func IsCurrent(path, link string) (bool, error) {
	recorded, err := Load(path)
	if errors.Is(err, ErrNotFound) {
		logger.Debug("[DEBUG] No build marker at %s\n", path)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return recorded == link, nil
}
