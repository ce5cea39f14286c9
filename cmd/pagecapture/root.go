package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jordanella.com/pagecapture-go/internal/config"
	"jordanella.com/pagecapture-go/internal/logging"
)

// cli carries state shared by the subcommands once the root pre-run has
// loaded the configuration
type cli struct {
	configPath string
	logLevel   string
	debug      bool

	settings *config.Settings
	profiles *config.ProfileRegistry
	flush    func()
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:   "pagecapture",
		Short: "Capture paginated documents from an app window",
		Long: `pagecapture turns a document shown page by page in another app into
an ordered set of page images. It captures the app window, skips frames
that look like the previous page, sends the next-page key and stops once
the document no longer changes. Pages can then be bound into a PDF.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.flush != nil {
				c.flush()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&c.configPath, "config", "Settings.ini", "path to the ini settings file")
	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override log level (DEBUG, INFO, WARN, ERROR)")
	cmd.PersistentFlags().BoolVar(&c.debug, "debug", false, "human-readable debug logging")

	cmd.AddCommand(
		newAppsCmd(c),
		newCaptureCmd(c),
		newPDFCmd(c),
		newSplitCmd(c),
		newRunsCmd(c),
		newPagesCmd(c),
		newInitCmd(c),
		newProfileCmd(c),
	)
	return cmd
}

func (c *cli) load(cmd *cobra.Command) error {
	settings, err := config.LoadFromINI(c.configPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if c.logLevel != "" {
		settings.LogLevel = c.logLevel
	}
	if c.debug {
		settings.DebugMode = true
		settings.LogLevel = string(logging.LogLevelDebug)
	}

	profiles, err := config.LoadProfiles(settings.ProfilesPath)
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}

	flush, err := logging.Setup(logging.Options{
		Level:       logging.ParseLevel(settings.LogLevel),
		Development: settings.DebugMode,
	})
	if err != nil {
		return err
	}

	c.settings = settings
	c.profiles = profiles
	c.flush = flush
	return nil
}
