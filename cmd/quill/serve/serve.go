// Package servecmder provides the serve command with subcommands for running services.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/quill/api"
	apicmder "github.com/papercomputeco/quill/cmd/quill/serve/api"
	relaycmder "github.com/papercomputeco/quill/cmd/quill/serve/relay"
	"github.com/papercomputeco/quill/pkg/config"
	"github.com/papercomputeco/quill/pkg/services"
)

type serveCommander struct {
	flags config.FlagSet

	relayListen      string
	apiListen        string
	sqlitePath       string
	postgresDSN      string
	anthropicBaseURL string
	openaiBaseURL    string
	requestTimeout   string
	modelCatalog     string
	kafkaBrokers     string
	kafkaTopic       string
	logFile          string

	cfg    *config.Config
	debug  bool
	logger *slog.Logger
}

var serveFlags = []string{
	config.FlagRelayListen,
	config.FlagAPIListen,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagAnthropicBaseURL,
	config.FlagOpenAIBaseURL,
	config.FlagRequestTimeout,
	config.FlagModelCatalog,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
}

const serveLongDesc string = `Run quill services.

Use subcommands to run individual services or all services together:
  quill serve          Run both the chat relay and the workspace API
  quill serve relay    Run just the chat relay
  quill serve api      Run just the workspace API

Provider API keys are read from ANTHROPIC_API_KEY and OPENAI_API_KEY.`

const serveShortDesc string = "Run quill services"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{flags: config.Flags}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, cmder.flags, serveFlags)
			cmder.cfg = config.FromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, cmder.flags, config.FlagRelayListen, &cmder.relayListen)
	config.AddStringFlag(cmd, cmder.flags, config.FlagAPIListen, &cmder.apiListen)
	config.AddStringFlag(cmd, cmder.flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, cmder.flags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, cmder.flags, config.FlagAnthropicBaseURL, &cmder.anthropicBaseURL)
	config.AddStringFlag(cmd, cmder.flags, config.FlagOpenAIBaseURL, &cmder.openaiBaseURL)
	config.AddStringFlag(cmd, cmder.flags, config.FlagRequestTimeout, &cmder.requestTimeout)
	config.AddStringFlag(cmd, cmder.flags, config.FlagModelCatalog, &cmder.modelCatalog)
	config.AddStringFlag(cmd, cmder.flags, config.FlagKafkaBrokers, &cmder.kafkaBrokers)
	config.AddStringFlag(cmd, cmder.flags, config.FlagKafkaTopic, &cmder.kafkaTopic)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")

	cmd.AddCommand(apicmder.NewAPICmd())
	cmd.AddCommand(relaycmder.NewRelayCmd())

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	log, logFile, err := services.NewLogger(c.debug, c.logFile)
	if err != nil {
		return err
	}
	defer logFile.Close()
	c.logger = log

	driver, err := services.NewStorageDriver(ctx, c.cfg.Storage, c.logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	publisher, err := services.NewPublisher(c.cfg.EventStream, c.logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	r, err := services.NewRelay(c.cfg, driver, publisher, c.logger.With("component", "relay"))
	if err != nil {
		return err
	}

	apiServer, err := api.NewServer(api.Config{ListenAddr: c.cfg.API.Listen}, driver, c.logger.With("component", "api"))
	if err != nil {
		return fmt.Errorf("creating api server: %w", err)
	}

	c.logger.Info("starting relay", "relay_addr", c.cfg.Relay.Listen)
	c.logger.Info("starting api server", "api_addr", c.cfg.API.Listen)

	errChan := make(chan error, 2)

	go func() {
		if err := r.Run(); err != nil {
			errChan <- fmt.Errorf("relay error: %w", err)
		}
	}()

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case runErr = <-errChan:
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
	}

	// The relay drains its recording queue before the store is closed.
	return errors.Join(runErr, r.Close(), apiServer.Shutdown())
}
