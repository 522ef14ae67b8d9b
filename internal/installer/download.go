package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"blender-downloader/internal/logger"
)

// downloadChunkSize is the buffer used to stream archive bodies to disk.
const downloadChunkSize = 8192

// EnsureArchive makes sure a valid archive exists at destPath, downloading it
// from archiveURL unless a previous run left a complete copy there.
// It reports whether the cached copy was reused.
func EnsureArchive(ctx context.Context, client *http.Client, archiveURL, destPath string, progress io.Writer) (bool, error) {
	if _, err := os.Stat(destPath); err == nil {
		verr := ValidateArchive(destPath)
		if verr == nil {
			logger.Info("[INFO] Reusing previously downloaded archive %s\n", destPath)
			return true, nil
		}
		logger.Debug("[DEBUG] Cached archive %s is not valid (%v), downloading again\n", destPath, verr)
		if err := os.Remove(destPath); err != nil {
			return false, fmt.Errorf("failed to remove stale archive %s: %w", destPath, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("failed to stat %s: %w", destPath, err)
	}

	logger.Info("[INFO] Downloading archive...\n")
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return false, fmt.Errorf("failed to create download directory: %w", err)
	}
	if err := downloadFile(ctx, client, archiveURL, destPath, progress); err != nil {
		return false, err
	}

	// A body cut short by the server still copies without error; only the
	// archive structure tells us the file is complete.
	if err := ValidateArchive(destPath); err != nil {
		return false, fmt.Errorf("downloaded archive %s is not valid: %w", destPath, err)
	}
	return false, nil
}

// downloadFile streams the content located at url into destPath, advancing a
// progress bar written to progress by the size of every chunk.
func downloadFile(ctx context.Context, client *http.Client, url, destPath string, progress io.Writer) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to GET %s: %w", url, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Error("[ERROR] Failed to close response body: %s\n", cerr)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("download failed for %s: HTTP status %d", url, resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", destPath, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", destPath, cerr)
		}
	}()

	total := resp.ContentLength
	size := "unknown size"
	if total > 0 {
		size = humanize.Bytes(uint64(total))
	} else {
		total = -1 // indeterminate bar
	}
	logger.Info("[INFO] Fetching %s (%s)\n", filepath.Base(destPath), size)

	bar := newProgressBar(total, progress)
	buf := make([]byte, downloadChunkSize)
	if _, err := io.CopyBuffer(io.MultiWriter(out, bar), resp.Body, buf); err != nil {
		return fmt.Errorf("failed to write response to file: %w", err)
	}
	if err := bar.Finish(); err != nil {
		logger.Debug("[DEBUG] Failed to finish progress bar: %v\n", err)
	}

	logger.Debug("[DEBUG] Downloaded archive to: %s\n", destPath)
	return nil
}

func newProgressBar(total int64, w io.Writer) *progressbar.ProgressBar {
	if w == nil {
		w = os.Stderr
	}
	return progressbar.NewOptions64(
		total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetDescription("   "),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
	)
}
