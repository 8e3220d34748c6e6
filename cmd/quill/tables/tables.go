// Package tablescmder provides the tables command for managing workspace
// tables through the quill API.
package tablescmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/quill/pkg/apiclient"
	"github.com/papercomputeco/quill/pkg/config"
)

type tablesCommander struct {
	flags     config.FlagSet
	apiTarget string
	cfg       *config.Config
}

const tablesLongDesc string = `Manage workspace tables.

Tables hold typed rows that can be attached to a chat with
"quill chat --table <id>". Commands talk to a running quill API server.

Examples:
  quill tables list
  quill tables create --name Tasks --column Name:text --column "Status:select:Todo|Done"
  quill tables add-row <id> Name="Write docs" Status=Todo
  quill tables show <id>`

const tablesShortDesc string = "Manage workspace tables"

func NewTablesCmd() *cobra.Command {
	cmder := &tablesCommander{flags: config.Flags}

	cmd := &cobra.Command{
		Use:   "tables",
		Short: tablesShortDesc,
		Long:  tablesLongDesc,
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
	cmd.AddCommand(newAddRowCmd(cmder))

	return cmd
}

func (c *tablesCommander) client() *apiclient.Client {
	return apiclient.New(c.cfg.Client.APITarget)
}
