package pagescmder

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/quill/pkg/cliui"
)

func newListCmd(cmder *pagesCommander) *cobra.Command {
	var parentID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pages, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pages, err := cmder.client().ListPages(cmd.Context(), parentID)
			if err != nil {
				return fmt.Errorf("listing pages: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(pages) == 0 {
				lipgloss.Fprintf(out, "  %s\n", cliui.DimStyle.Render("No pages."))
				return nil
			}
			for _, p := range pages {
				printPageLine(out, p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&parentID, "parent", "", "List the children of this page instead of the root pages")

	return cmd
}
