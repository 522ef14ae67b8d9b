package cmd

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"blender-downloader/internal/config"
	"blender-downloader/internal/installer"
	"blender-downloader/internal/logger"
)

// newRootCmd builds the blender-downloader command. The HTTP client and the
// progress writer are injected so the whole flow can run against test servers.
func newRootCmd(client *http.Client, progress io.Writer) *cobra.Command {
	var (
		flags config.Flags
		debug bool
	)

	rootCmd := &cobra.Command{
		Use:   "blender-downloader <version>",
		Short: "Download and install the latest Blender build",
		Long: `Download and install the latest daily Blender build for a version.

The build listing page is scraped for the first archive link naming the
version and operating system. The archive is downloaded (or reused from the
download directory when still valid), extracted and moved into
"<base-dir>/Blender <version>". A .blender_build marker inside that
directory records the installed link so reruns skip unchanged builds.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,

		// Set up logging (verbose if --debug is true) before running.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(debug)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.Version = args[0]
			return run(cmd.Context(), flags, installer.New(client, progress))
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.Flags().StringVar(&flags.OS, "os", "", "Operating system: windows, linux or macos (default: detected)")
	rootCmd.Flags().StringVar(&flags.BaseDir, "base-dir", "", "Base directory for the installation (default: per operating system)")
	rootCmd.Flags().StringVar(&flags.URL, "url", "", "Build listing URL to parse (default: the daily builds page)")
	rootCmd.Flags().StringVar(&flags.Archive, "archive", "", "Archive extension to look for (default: .zip)")
	rootCmd.Flags().StringVar(&flags.DownloadDir, "download-dir", "", "Directory archives are downloaded to (default: system temp dir)")

	return rootCmd
}

// run resolves the configuration and hands it to the installer.
func run(ctx context.Context, flags config.Flags, in *installer.Installer) error {
	defaults, err := config.LoadDefaults()
	if err != nil {
		return err
	}
	opts, err := defaults.Resolve(flags)
	if err != nil {
		return err
	}
	logger.Debug("[DEBUG] Resolved options: %+v\n", opts)

	outcome, err := in.Run(ctx, opts)
	if err != nil {
		return err
	}
	logger.Debug("[DEBUG] Run finished: %s\n", outcome)
	return nil
}

// exitCode reports err to the user and maps it onto the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	logger.Error("[ERROR] %v\n", err)
	if errors.Is(err, installer.ErrNoWriteAccess) {
		logger.Error("[ERROR] Please restart as admin or select a different target directory with --base-dir\n")
	}
	return 1
}

// Execute runs the CLI against the real network and returns the exit code.
func Execute() int {
	return exitCode(newRootCmd(http.DefaultClient, os.Stderr).Execute())
}
