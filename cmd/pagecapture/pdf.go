package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"jordanella.com/pagecapture-go/internal/export"
)

func newPDFCmd(c *cli) *cobra.Command {
	var (
		out      string
		keepLast bool
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "pdf [page-dir]",
		Short: "Bind captured page images into a PDF",
		Long: `pdf binds the PNG pages of a directory, in file name order, into one PDF.
The last page is left out unless --keep-last is given, since a capture run
ends on a repeat of the final page.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := c.settings.OutputDir
			if len(args) > 0 {
				dir = args[0]
			}
			if !cmd.Flags().Changed("out") {
				out = c.settings.PDFPath
			}

			pages, err := filepath.Glob(filepath.Join(dir, "*.png"))
			if err != nil {
				return err
			}
			sort.Strings(pages)

			res, err := export.BuildPDF(pages, out, export.Options{
				KeepLast:  keepLast,
				Overwrite: force,
				Progress:  cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "PDF written to %s (%d pages, %.2f MB)\n",
				res.Path, res.Pages, float64(res.Size)/(1024*1024))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "PDF output path")
	cmd.Flags().BoolVar(&keepLast, "keep-last", false, "include the final page")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing PDF")
	return cmd
}
