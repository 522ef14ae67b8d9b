package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"runtime"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var (
	// ErrUnsupportedOS is returned when --os (or the host) is not a known platform.
	ErrUnsupportedOS = errors.New("unsupported operating system")
	// ErrUnsupportedArchive is returned when --archive names an extension we cannot extract.
	ErrUnsupportedArchive = errors.New("unsupported archive format")
	// ErrMissingVersion is returned when the version argument is blank.
	ErrMissingVersion = errors.New("version is required")
)

// SupportedArchives lists the archive extensions the installer can validate and extract.
var SupportedArchives = []string{".zip", ".7z", ".tar.xz", ".tar.gz", ".tgz", ".tar.bz2", ".tar"}

// hostOS maps runtime.GOOS values to platform tags.
var hostOS = map[string]string{
	"windows": "windows",
	"linux":   "linux",
	"darwin":  "macos",
}

// LoadDefaults parses the embedded defaults document.
func LoadDefaults() (Defaults, error) {
	var d Defaults
	if err := yaml.Unmarshal(defaultsYAML, &d); err != nil {
		return Defaults{}, fmt.Errorf("failed to unmarshal built-in defaults: %w", err)
	}
	if d.Product == "" || d.URL == "" || len(d.Platforms) == 0 {
		return Defaults{}, errors.New("built-in defaults are incomplete")
	}
	return d, nil
}

// PlatformNames returns the sorted list of supported OS tags.
func (d Defaults) PlatformNames() []string {
	names := make([]string, 0, len(d.Platforms))
	for name := range d.Platforms {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DetectOS returns the platform tag for a runtime.GOOS value, or the value
// itself when it has no mapping (which Resolve then rejects).
func DetectOS(goos string) string {
	if tag, ok := hostOS[goos]; ok {
		return tag
	}
	return goos
}

// Resolve turns raw flag values into Options, filling in defaults.
// Only the OS tag and archive extension are validated; the version is free text.
func (d Defaults) Resolve(f Flags) (Options, error) {
	version := strings.TrimSpace(f.Version)
	if version == "" {
		return Options{}, ErrMissingVersion
	}

	osTag := strings.ToLower(strings.TrimSpace(f.OS))
	if osTag == "" {
		osTag = DetectOS(runtime.GOOS)
	}
	defaultBase, ok := d.Platforms[osTag]
	if !ok {
		return Options{}, fmt.Errorf("%w: %s (expected one of %s)", ErrUnsupportedOS, osTag, strings.Join(d.PlatformNames(), ", "))
	}

	baseDir := f.BaseDir
	if baseDir == "" {
		baseDir = defaultBase
	}

	url := f.URL
	if url == "" {
		url = d.URL
	}

	archive, err := normalizeArchive(f.Archive, d.Archive)
	if err != nil {
		return Options{}, err
	}

	downloadDir := f.DownloadDir
	if downloadDir == "" {
		downloadDir = os.TempDir()
	}

	return Options{
		Product:     d.Product,
		Version:     version,
		OS:          osTag,
		BaseDir:     baseDir,
		URL:         url,
		Archive:     archive,
		DownloadDir: downloadDir,
	}, nil
}

// normalizeArchive lower-cases the extension, adds the leading dot and checks it is supported.
func normalizeArchive(value, fallback string) (string, error) {
	ext := strings.ToLower(strings.TrimSpace(value))
	if ext == "" {
		ext = fallback
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if !slices.Contains(SupportedArchives, ext) {
		return "", fmt.Errorf("%w: %s (expected one of %s)", ErrUnsupportedArchive, ext, strings.Join(SupportedArchives, ", "))
	}
	return ext, nil
}
