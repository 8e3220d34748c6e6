package tablescmder

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/quill/pkg/cliui"
	"github.com/papercomputeco/quill/pkg/workspace"
)

func newCreateCmd(cmder *tablesCommander) *cobra.Command {
	var (
		name    string
		columns []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a table",
		Long: `Create a table.

Columns are given as name:type, with select options appended as
name:select:opt1|opt2. Without --column the table gets Name and Status
columns.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cols, err := parseColumns(columns)
			if err != nil {
				return err
			}

			t, err := cmder.client().CreateTable(cmd.Context(), workspace.TableInput{
				Name:    name,
				Columns: cols,
			})
			if err != nil {
				return fmt.Errorf("creating table: %w", err)
			}

			lipgloss.Fprintf(cmd.OutOrStdout(), "  %s Created table %s %s\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(t.Name),
				cliui.DimStyle.Render(t.ID),
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Table name")
	cmd.Flags().StringArrayVarP(&columns, "column", "c", nil, "Column as name:type[:opt1|opt2] (repeatable)")

	return cmd
}

// parseColumns turns name:type[:options] specs into columns. Ids are left
// for the server to assign.
func parseColumns(specs []string) ([]workspace.Column, error) {
	cols := make([]workspace.Column, 0, len(specs))
	for _, spec := range specs {
		parts := strings.SplitN(spec, ":", 3)

		col := workspace.Column{
			Name: strings.TrimSpace(parts[0]),
			Type: workspace.ColumnText,
		}
		if col.Name == "" {
			return nil, fmt.Errorf("invalid column %q: missing name", spec)
		}
		if len(parts) > 1 && parts[1] != "" {
			col.Type = workspace.ColumnType(strings.ToLower(parts[1]))
			if !col.Type.Valid() {
				return nil, fmt.Errorf("invalid column %q: unknown type %q", spec, parts[1])
			}
		}
		if len(parts) > 2 {
			for opt := range strings.SplitSeq(parts[2], "|") {
				if opt = strings.TrimSpace(opt); opt != "" {
					col.Options = append(col.Options, opt)
				}
			}
		}
		cols = append(cols, col)
	}
	return cols, nil
}
