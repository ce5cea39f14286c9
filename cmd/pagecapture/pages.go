package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"jordanella.com/pagecapture-go/internal/cv"
	"jordanella.com/pagecapture-go/internal/database"
)

func newPagesCmd(c *cli) *cobra.Command {
	var fingerprint string

	cmd := &cobra.Command{
		Use:   "pages [run-id]",
		Short: "List the pages recorded for a run, or find pages by fingerprint",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && fingerprint == "" {
				return fmt.Errorf("a run id or --fingerprint is required")
			}

			db, err := database.OpenAndMigrate(c.settings.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			var pages []*database.Page
			if fingerprint != "" {
				fp, err := cv.ParseFingerprint(fingerprint)
				if err != nil {
					return err
				}
				pages, err = db.FindPagesByFingerprint(fp.String())
				if err != nil {
					return err
				}
			} else {
				pages, err = db.ListPages(args[0])
				if err != nil {
					return err
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintf(w, "RUN\tPAGE\tFINGERPRINT\tPATH\n")
			for _, p := range pages {
				if len(args) > 0 && p.RunID != args[0] {
					continue
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", p.RunID, p.Index, p.Fingerprint, p.Path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fingerprint, "fingerprint", "", "find pages of any run with this fingerprint")
	return cmd
}
