package tablescmder

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/quill/pkg/cliui"
)

func newListCmd(cmder *tablesCommander) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tables, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tables, err := cmder.client().ListTables(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing tables: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(tables) == 0 {
				lipgloss.Fprintf(out, "  %s\n", cliui.DimStyle.Render("No tables."))
				return nil
			}
			for _, t := range tables {
				lipgloss.Fprintf(out, "  %s  %s %s\n",
					cliui.DimStyle.Render(t.ID),
					cliui.NameStyle.Render(t.Name),
					cliui.DimStyle.Render(fmt.Sprintf("(%d rows)", len(t.Rows))),
				)
			}
			return nil
		},
	}
}
