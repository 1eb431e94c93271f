package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mediawatch/newscrawler/internal/sites"
)

func newSitesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List the configured site adapters.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, id := range sites.Builtin().IDs() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), id); err != nil {
					return fmt.Errorf("write site list: %w", err)
				}
			}
			return nil
		},
	}
}
