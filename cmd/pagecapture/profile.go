package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"jordanella.com/pagecapture-go/internal/config"
)

func newProfileCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit per-app profiles",
	}
	cmd.AddCommand(newProfileListCmd(c), newProfileSetCmd(c))
	return cmd
}

func newProfileListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the loaded profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintf(w, "ID\tNAME\tTHRESHOLD\tMAX DUPLICATES\n")
			for _, id := range c.profiles.IDs() {
				p, _ := c.profiles.Get(id)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, optInt(p.Threshold), optInt(p.MaxDuplicates))
			}
			return nil
		},
	}
}

func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func newProfileSetCmd(c *cli) *cobra.Command {
	var (
		name                                   string
		threshold, maxDuplicates               int
		pageLoadMs, postAdvanceMs, keySettleMs int
		nextKey                                string
	)

	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Create or update the profile for an app",
		Long: `set stores overrides for one app, keyed by bundle id or Android package.
Only the flags given are changed; the rest of an existing profile is kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.settings.ProfilesPath == "" {
				return fmt.Errorf("profilesPath is not set")
			}

			p, ok := c.profiles.Get(args[0])
			if !ok {
				p = config.Profile{ID: args[0]}
			}

			flags := cmd.Flags()
			if flags.Changed("name") {
				p.Name = name
			}
			if flags.Changed("threshold") {
				p.Threshold = &threshold
			}
			if flags.Changed("max-duplicates") {
				p.MaxDuplicates = &maxDuplicates
			}
			if flags.Changed("page-load-ms") {
				p.PageLoadMs = &pageLoadMs
			}
			if flags.Changed("post-advance-ms") {
				p.PostAdvanceMs = &postAdvanceMs
			}
			if flags.Changed("key-settle-ms") {
				p.KeySettleMs = &keySettleMs
			}
			if flags.Changed("next-key") {
				p.NextKey = nextKey
			}

			if err := p.Validate(); err != nil {
				return err
			}
			c.profiles.Set(p)
			if err := c.profiles.SaveToFile(c.settings.ProfilesPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile %s saved to %s\n", p.ID, c.settings.ProfilesPath)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&name, "name", "", "display name")
	flags.IntVar(&threshold, "threshold", 0, "maximum fingerprint distance that counts as the same page")
	flags.IntVar(&maxDuplicates, "max-duplicates", 0, "consecutive duplicates that end the document")
	flags.IntVar(&pageLoadMs, "page-load-ms", 0, "wait after focusing before the first capture")
	flags.IntVar(&postAdvanceMs, "post-advance-ms", 0, "wait after each next-page key")
	flags.IntVar(&keySettleMs, "key-settle-ms", 0, "pause after a delivered next-page key")
	flags.StringVar(&nextKey, "next-key", "", "adb key event for the next page")
	return cmd
}
