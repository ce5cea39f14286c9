package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"jordanella.com/pagecapture-go/internal/database"
)

func newRunsCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent capture runs from the ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := database.OpenAndMigrate(c.settings.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.ListRuns(limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintf(w, "RUN\tTARGET\tSTATUS\tREASON\tPAGES\tSTARTED\n")
			for _, r := range runs {
				reason := "-"
				if r.Reason != nil && *r.Reason != "" {
					reason = *r.Reason
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
					r.ID, r.TargetID, r.Status, reason, r.PageCount, r.StartedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}
