package installer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"blender-downloader/internal/config"
	"blender-downloader/internal/logger"
	"blender-downloader/internal/state"
)

// Outcome is how a run ended when it did not fail.
type Outcome int

const (
	// OutcomeInstalled means a new build was downloaded (or reused from cache) and installed.
	OutcomeInstalled Outcome = iota
	// OutcomeUpToDate means the marker already records the matched build.
	OutcomeUpToDate
	// OutcomeNotFound means no link on the listing page matched.
	OutcomeNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInstalled:
		return "installed"
	case OutcomeUpToDate:
		return "up-to-date"
	case OutcomeNotFound:
		return "not-found"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Installer runs the fetch, match, download and install sequence for one build.
type Installer struct {
	client   *http.Client
	progress io.Writer
}

// New returns an Installer. A nil client means http.DefaultClient; a nil
// progress writer sends the download bar to stderr.
func New(client *http.Client, progress io.Writer) *Installer {
	if client == nil {
		client = http.DefaultClient
	}
	return &Installer{client: client, progress: progress}
}

// Run installs the latest build described by opts. Every stage either
// finishes or returns an error that ends the run; nothing is retried.
func (in *Installer) Run(ctx context.Context, opts config.Options) (Outcome, error) {
	if err := CheckWriteAccess(opts.BaseDir); err != nil {
		return 0, err
	}

	logger.Info("[INFO] Fetching the download page...\n")
	links, err := FetchLinks(ctx, in.client, opts.URL)
	if err != nil {
		return 0, err
	}

	logger.Info("[INFO] Looking for the latest version...\n")
	link, ok := SelectLink(links, opts)
	if !ok {
		logger.Warn("[WARN] This version cannot be found\n")
		return OutcomeNotFound, nil
	}

	current, err := state.IsCurrent(opts.MarkerPath(), link)
	if err != nil {
		return 0, err
	}
	if current {
		logger.Info("[INFO] No new version available.\n")
		return OutcomeUpToDate, nil
	}
	logger.Info("[INFO] Found the latest version: %s\n", link)

	archiveURL, err := resolveLink(opts.URL, link)
	if err != nil {
		return 0, err
	}
	name, err := archiveName(link)
	if err != nil {
		return 0, err
	}
	archivePath := filepath.Join(opts.DownloadDir, name)

	if _, err := EnsureArchive(ctx, in.client, archiveURL, archivePath, in.progress); err != nil {
		return 0, err
	}

	logger.Info("[INFO] Extracting archive...\n")
	if err := Install(archivePath, opts.InstallDir()); err != nil {
		return 0, err
	}

	if err := state.Save(opts.MarkerPath(), link); err != nil {
		return 0, err
	}

	logger.Info("[INFO] %s %s latest build downloaded and installed successfully!\n", opts.Product, opts.Version)
	return OutcomeInstalled, nil
}
