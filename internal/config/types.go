package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Defaults mirrors defaults.yaml.
// - Product: display name used for the install directory ("Blender 4.1").
// - URL: listing page scraped for build links.
// - Archive: archive extension a build link must end with.
// - Platforms: OS tag -> default base directory.
type Defaults struct {
	Product   string            `yaml:"product"`
	URL       string            `yaml:"url"`
	Archive   string            `yaml:"archive"`
	Platforms map[string]string `yaml:"platforms"`
}

// Flags holds the raw command line values before resolution.
// Empty strings mean "use the default".
type Flags struct {
	Version     string
	OS          string
	BaseDir     string
	URL         string
	Archive     string
	DownloadDir string
}

// Options is the resolved, immutable configuration for one run.
// It is passed by value through every stage of the install.
type Options struct {
	Product     string // Display name, e.g. "Blender"
	Version     string // Free-form version token matched as a substring
	OS          string // One of the keys in Defaults.Platforms
	BaseDir     string // Directory that holds "<Product> <Version>"
	URL         string // Listing page URL
	Archive     string // Archive extension including the leading dot
	DownloadDir string // Where archives are downloaded to and cached
}

// markerPrefix is prepended to the lower-cased product name to form the marker file name.
const markerPrefix = "."

// markerSuffix completes the marker file name, e.g. ".blender_build".
const markerSuffix = "_build"

// InstallDir returns "<BaseDir>/<Product> <Version>".
func (o Options) InstallDir() string {
	return filepath.Join(o.BaseDir, fmt.Sprintf("%s %s", o.Product, o.Version))
}

// MarkerPath returns the path of the build marker inside the install directory.
func (o Options) MarkerPath() string {
	return filepath.Join(o.InstallDir(), markerPrefix+strings.ToLower(o.Product)+markerSuffix)
}

// BuildToken is the "<product>-<version>" substring a build link must contain.
func (o Options) BuildToken() string {
	return strings.ToLower(o.Product) + "-" + o.Version
}
