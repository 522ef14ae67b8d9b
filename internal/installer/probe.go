package installer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"blender-downloader/internal/logger"
)

// ErrNoWriteAccess is returned when the base directory cannot be written to.
var ErrNoWriteAccess = errors.New("no write permission")

// probeFileName is the throwaway file created to test write access.
const probeFileName = "_temp_test.txt"

// CheckWriteAccess creates, writes and deletes a probe file in dir.
// The probe is removed on every path; any failure is reported as ErrNoWriteAccess.
func CheckWriteAccess(dir string) (err error) {
	probe := filepath.Join(dir, probeFileName)
	logger.Debug("[DEBUG] Probing write access with %s\n", probe)

	f, err := os.Create(probe)
	if err != nil {
		return fmt.Errorf("%w in %s: %v", ErrNoWriteAccess, dir, err)
	}
	defer func() {
		if rerr := os.Remove(probe); rerr != nil && !errors.Is(rerr, os.ErrNotExist) && err == nil {
			err = fmt.Errorf("%w in %s: %v", ErrNoWriteAccess, dir, rerr)
		}
	}()

	_, werr := f.WriteString("TEST")
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return fmt.Errorf("%w in %s: %v", ErrNoWriteAccess, dir, werr)
	}
	return nil
}
