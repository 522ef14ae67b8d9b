package installer

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bodgit/sevenzip"

	"blender-downloader/internal/logger"
)

// ValidateArchive opens path as the archive type its extension names and
// lists every entry. A nil result means the archive is structurally complete
// enough to extract; a truncated download fails here.
func ValidateArchive(path string) error {
	switch {
	case strings.HasSuffix(path, ".zip"):
		r, err := zip.OpenReader(path)
		if err != nil {
			return err
		}
		defer r.Close()
		logger.Debug("[DEBUG] %s lists %d entries\n", path, len(r.File))
		return nil
	case strings.HasSuffix(path, ".7z"):
		r, err := sevenzip.OpenReader(path)
		if err != nil {
			return err
		}
		defer r.Close()
		logger.Debug("[DEBUG] %s lists %d entries\n", path, len(r.File))
		return nil
	case isTarArchive(path):
		return validateTar(path)
	default:
		return fmt.Errorf("unsupported archive format: %s", path)
	}
}

// validateTar walks every header; tar.Reader skips each body, so a short or
// corrupt compressed stream surfaces as an error. A tar stream ends with
// zero blocks, so an empty or zero-length file would otherwise pass.
func validateTar(path string) error {
	tr, closeAll, err := openTar(path)
	if err != nil {
		return err
	}
	defer closeAll()

	entries := 0
	for {
		_, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		entries++
	}
	if entries == 0 {
		return errors.New("tar archive has no entries")
	}
	logger.Debug("[DEBUG] %s lists %d entries\n", path, entries)
	return nil
}
