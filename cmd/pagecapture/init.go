package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jordanella.com/pagecapture-go/internal/config"
)

func newInitCmd(c *cli) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the current settings to the ini file",
		Long: `init writes the settings in effect (defaults plus anything already in
the file) to the --config path, so they can be edited by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(c.configPath); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", c.configPath)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			if err := c.settings.Validate(); err != nil {
				return err
			}
			if err := config.SaveToINI(c.settings, c.configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Settings written to %s\n", c.configPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
