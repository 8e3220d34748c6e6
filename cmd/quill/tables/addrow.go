package tablescmder

import (
	"fmt"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/quill/pkg/cliui"
	"github.com/papercomputeco/quill/pkg/workspace"
)

func newAddRowCmd(cmder *tablesCommander) *cobra.Command {
	return &cobra.Command{
		Use:   "add-row <table-id> <column=value>...",
		Short: "Append a row to a table",
		Long: `Append a row to a table.

Cells are given as column=value, where column is a column name. Values are
converted by column type: numbers are parsed, checkboxes take true/false and
multiselect values are comma separated.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := cmder.client()

			t, err := client.GetTable(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("getting table: %w", err)
			}

			cells, err := parseCells(t.Columns, args[1:])
			if err != nil {
				return err
			}

			row, err := client.AppendRow(cmd.Context(), t.ID, cells)
			if err != nil {
				return fmt.Errorf("adding row: %w", err)
			}

			lipgloss.Fprintf(cmd.OutOrStdout(), "  %s Added row %s to %s\n",
				cliui.SuccessMark,
				cliui.DimStyle.Render(row.ID),
				cliui.NameStyle.Render(t.Name),
			)
			return nil
		},
	}
}

// parseCells maps column=value assignments onto column ids.
func parseCells(columns []workspace.Column, assignments []string) (map[string]any, error) {
	byName := make(map[string]workspace.Column, len(columns))
	for _, c := range columns {
		byName[strings.ToLower(c.Name)] = c
	}

	cells := make(map[string]any, len(assignments))
	for _, a := range assignments {
		name, raw, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("invalid cell %q: expected column=value", a)
		}

		col, ok := byName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown column %q", name)
		}

		v, err := cellValue(col, raw)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		cells[col.ID] = v
	}
	return cells, nil
}

func cellValue(col workspace.Column, raw string) (any, error) {
	switch col.Type {
	case workspace.ColumnNumber:
		return strconv.ParseFloat(strings.TrimSpace(raw), 64)
	case workspace.ColumnCheckbox:
		return strconv.ParseBool(strings.TrimSpace(raw))
	case workspace.ColumnMultiselect:
		var out []string
		for v := range strings.SplitSeq(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		return out, nil
	default:
		return raw, nil
	}
}
