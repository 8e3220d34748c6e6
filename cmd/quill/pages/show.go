package pagescmder

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/quill/pkg/cliui"
)

func newShowCmd(cmder *pagesCommander) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := cmder.client().GetPage(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("getting page: %w", err)
			}

			out := cmd.OutOrStdout()
			lipgloss.Fprintf(out, "\n  %s\n\n", cliui.KeyStyle.Render(page.Title))

			content := page.Content
			if !raw && content != "" && cliui.SupportsColor(out) {
				if rendered, err := cliui.RenderMarkdown(content); err == nil {
					content = rendered
				}
			}
			fmt.Fprintln(out, content)
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the markdown source without rendering")

	return cmd
}
