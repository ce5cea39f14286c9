package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"jordanella.com/pagecapture-go/internal/adb"
	"jordanella.com/pagecapture-go/internal/cv"
	"jordanella.com/pagecapture-go/internal/desktop"
)

func newAppsCmd(c *cli) *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "apps",
		Short: "List apps that can be captured",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("backend") {
				backend = c.settings.Backend
			}
			method, err := cv.ParseCaptureMethod(backend)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()

			if method == cv.CaptureMethodADB {
				ctrl, err := adb.ConnectADB(cmd.Context(), c.settings.ADBPath, c.settings.ADBSerial)
				if err != nil {
					return err
				}
				pkgs, err := ctrl.ListPackages(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "PACKAGE\n")
				for _, p := range pkgs {
					fmt.Fprintf(w, "%s\n", p)
				}
				return nil
			}

			apps, err := desktop.NewHost().ListApps(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "#\tNAME\tBUNDLE ID\tPID\n")
			for i, app := range apps {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", i+1, app.Name, app.BundleID, app.PID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "desktop or adb")
	return cmd
}
