package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/despuyt/mmsync/pkg/config"
	logpkg "github.com/despuyt/mmsync/pkg/log"
)

var (
	// Version contains the application version number. It's set via ldflags
	// when building.
	Version = ""

	// CommitSHA contains the SHA of the commit that this application was built
	// against. It's set via ldflags when building.
	CommitSHA = ""

	configPath string

	cfg     *config.Config
	logger  *log.Logger
	logFile *os.File

	rootCmd = &cobra.Command{
		Use:          "mmsync",
		Short:        "Synchronize a membership roster with a Mattermost instance",
		Long:         "mmsync imports a membership CSV into Mattermost and keeps teams, channels, and accounts in line with it.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cfg = config.DefaultConfig()
			if err = cfg.Parse(configPath); err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger, logFile, err = logpkg.NewLogger(cfg)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			log.SetDefault(logger)

			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if logFile != nil {
				logFile.Close() // nolint: errcheck
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.AddCommand(
		importCmd,
		disableCmd,
		channelCmd,
		prepareCmd,
		purgeCmd,
		manCmd,
	)

	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Sum != "" {
			Version = info.Main.Version
		} else {
			Version = "unknown (built from source)"
		}
	}
	rootCmd.Version = Version
}
