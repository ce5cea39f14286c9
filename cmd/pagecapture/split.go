package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jordanella.com/pagecapture-go/internal/export"
)

func newSplitCmd(_ *cli) *cobra.Command {
	var (
		from, to int
		out      string
	)

	cmd := &cobra.Command{
		Use:   "split <file.pdf>",
		Short: "Extract a page range into a new PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := args[0]
			if !cmd.Flags().Changed("to") {
				n, err := export.PageCount(in)
				if err != nil {
					return err
				}
				to = n
			}

			res, err := export.ExtractRange(in, out, from, to)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pages %d-%d written to %s\n", from, to, res.Path)
			return nil
		},
	}

	cmd.Flags().IntVar(&from, "from", 1, "first page (1-based)")
	cmd.Flags().IntVar(&to, "to", 0, "last page, inclusive (default: last page of the document)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default: <name>_<from>-<to>.pdf)")
	return cmd
}
