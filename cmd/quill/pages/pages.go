// Package pagescmder provides the pages command for managing workspace pages
// through the quill API.
package pagescmder

import (
	"fmt"
	"io"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/quill/pkg/apiclient"
	"github.com/papercomputeco/quill/pkg/cliui"
	"github.com/papercomputeco/quill/pkg/config"
	"github.com/papercomputeco/quill/pkg/utils"
	"github.com/papercomputeco/quill/pkg/workspace"
)

type pagesCommander struct {
	flags     config.FlagSet
	apiTarget string
	cfg       *config.Config
}

const pagesLongDesc string = `Manage workspace pages.

Pages are markdown documents that can be attached to a chat with
"quill chat --page <id>". Commands talk to a running quill API server.

Examples:
  quill pages list
  quill pages create --title "Meeting notes" --content "..."
  quill pages show <id>
  quill pages rm <id>`

const pagesShortDesc string = "Manage workspace pages"

func NewPagesCmd() *cobra.Command {
	cmder := &pagesCommander{flags: config.Flags}

	cmd := &cobra.Command{
		Use:   "pages",
		Short: pagesShortDesc,
		Long:  pagesLongDesc,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, cmder.flags, []string{config.FlagAPITarget})
			cmder.cfg = config.FromViper(v)
			return nil
		},
	}

	config.AddPersistentStringFlag(cmd, cmder.flags, config.FlagAPITarget, &cmder.apiTarget)

	cmd.AddCommand(newListCmd(cmder))
	cmd.AddCommand(newShowCmd(cmder))
	cmd.AddCommand(newCreateCmd(cmder))
	cmd.AddCommand(newRmCmd(cmder))

	return cmd
}

func (c *pagesCommander) client() *apiclient.Client {
	return apiclient.New(c.cfg.Client.APITarget)
}

const maxListTitle = 48

func printPageLine(w io.Writer, p *workspace.Page) {
	title := utils.Truncate(p.Title, maxListTitle)
	if p.Icon != "" {
		title = p.Icon + " " + title
	}
	lipgloss.Fprintf(w, "  %s  %s %s\n",
		cliui.DimStyle.Render(p.ID),
		cliui.NameStyle.Render(title),
		cliui.DimStyle.Render(p.UpdatedAt.Local().Format("2006-01-02 15:04")),
	)
}
