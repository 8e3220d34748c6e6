// Package apicmder provides the workspace API cobra command.
package apicmder

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/quill/api"
	"github.com/papercomputeco/quill/pkg/config"
	"github.com/papercomputeco/quill/pkg/logger"
	"github.com/papercomputeco/quill/pkg/services"
)

type apiCommander struct {
	flags config.FlagSet

	listen      string
	sqlitePath  string
	postgresDSN string
	disableMCP  bool

	cfg    *config.Config
	debug  bool
	logger *slog.Logger
}

var apiFlags = []string{
	config.FlagAPIListenStandalone,
	config.FlagSQLite,
	config.FlagPostgres,
}

const apiLongDesc string = `Run the quill workspace API.

Serves CRUD for pages and tables, context assembly for the chat relay,
recorded chat turns, and an MCP endpoint at /mcp.`

const apiShortDesc string = "Run the quill workspace API"

func NewAPICmd() *cobra.Command {
	cmder := &apiCommander{flags: config.Flags}

	cmd := &cobra.Command{
		Use:   "api",
		Short: apiShortDesc,
		Long:  apiLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, cmder.flags, apiFlags)
			cmder.cfg = config.FromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd)
		},
	}

	config.AddStringFlag(cmd, cmder.flags, config.FlagAPIListenStandalone, &cmder.listen)
	config.AddStringFlag(cmd, cmder.flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, cmder.flags, config.FlagPostgres, &cmder.postgresDSN)
	cmd.Flags().BoolVar(&cmder.disableMCP, "disable-mcp", false, "Serve an empty MCP server at /mcp")

	return cmd
}

func (c *apiCommander) run(cmd *cobra.Command) error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true), logger.WithComponent("api"))

	driver, err := services.NewStorageDriver(cmd.Context(), c.cfg.Storage, c.logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	server, err := api.NewServer(api.Config{
		ListenAddr: c.cfg.API.Listen,
		DisableMCP: c.disableMCP,
	}, driver, c.logger)
	if err != nil {
		return fmt.Errorf("creating api server: %w", err)
	}

	c.logger.Info("starting API server", "listen", c.cfg.API.Listen)

	return server.Run()
}
