package tablescmder

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/quill/pkg/cliui"
	"github.com/papercomputeco/quill/pkg/workspace"
)

func newShowCmd(cmder *tablesCommander) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := cmder.client().GetTable(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("getting table: %w", err)
			}

			out := cmd.OutOrStdout()
			lipgloss.Fprintf(out, "\n  %s\n\n", cliui.KeyStyle.Render(t.Name))
			lipgloss.Fprintln(out, renderTable(t))
			return nil
		},
	}
}

func renderTable(t *workspace.Table) string {
	headers := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		headers[i] = c.Name
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(cliui.DimStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return cliui.KeyStyle.Padding(0, 1)
			}
			return cliui.ValueStyle.Padding(0, 1)
		})

	for _, r := range t.Rows {
		cells := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			cells[i] = workspace.FormatCell(r.Cells[c.ID])
		}
		tbl.Row(cells...)
	}

	return tbl.Render()
}
