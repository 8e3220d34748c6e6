package pagescmder

import (
	"fmt"
	"io"
	"os"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/quill/pkg/cliui"
	"github.com/papercomputeco/quill/pkg/workspace"
)

const createLongDesc string = `Create a page.

Content comes from --content, or from --file ("-" reads stdin).

Examples:
  quill pages create --title "Ideas"
  quill pages create --title "Spec" --file spec.md --parent <id>`

func newCreateCmd(cmder *pagesCommander) *cobra.Command {
	var (
		in   workspace.PageInput
		file string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a page",
		Long:  createLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file != "" {
				content, err := readContent(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}
				in.Content = content
			}

			page, err := cmder.client().CreatePage(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("creating page: %w", err)
			}

			lipgloss.Fprintf(cmd.OutOrStdout(), "  %s Created page %s %s\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(page.Title),
				cliui.DimStyle.Render(page.ID),
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&in.Title, "title", "t", "", "Page title")
	cmd.Flags().StringVarP(&in.Content, "content", "c", "", "Markdown content")
	cmd.Flags().StringVar(&in.Icon, "icon", "", "Icon shown next to the title")
	cmd.Flags().StringVar(&in.ParentID, "parent", "", "Parent page id")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read content from a file (- for stdin)")
	cmd.MarkFlagsMutuallyExclusive("content", "file")

	return cmd
}

func readContent(stdin io.Reader, file string) (string, error) {
	if file == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", file, err)
	}
	return string(data), nil
}
