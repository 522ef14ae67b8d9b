package main

import (
	"os"

	"blender-downloader/cmd" // CLI definition and execution
)

// main is the program entry point.
// It delegates to cmd.Execute(), which parses arguments, runs the install and
// returns the exit status.
//
// blender-downloader installs the latest daily build of a Blender version:
//   - Scrapes the build listing page for the first archive link naming the
//     requested version and operating system
//   - Skips everything when the .blender_build marker already records that link
//   - Downloads the archive with a progress bar, reusing a valid copy left in
//     the download directory by an earlier run
//   - Extracts it and moves the archive's top-level folder contents into
//     "<base-dir>/Blender <version>", then records the link in the marker
//
// Exit status is 0 when a build was installed, was already current or could
// not be found, and 1 on any error.
func main() {
	os.Exit(cmd.Execute())
}
