package pagescmder

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/quill/pkg/cliui"
)

func newRmCmd(cmder *pagesCommander) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a page and every page below it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmder.client().DeletePage(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("deleting page: %w", err)
			}
			lipgloss.Fprintf(cmd.OutOrStdout(), "  %s Deleted page %s\n", cliui.SuccessMark, cliui.DimStyle.Render(args[0]))
			return nil
		},
	}
}
