// Package relaycmder provides the chat relay cobra command.
package relaycmder

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/quill/pkg/config"
	"github.com/papercomputeco/quill/pkg/eventstream"
	"github.com/papercomputeco/quill/pkg/logger"
	"github.com/papercomputeco/quill/pkg/services"
	"github.com/papercomputeco/quill/pkg/storage"
)

type relayCommander struct {
	flags config.FlagSet

	listen           string
	sqlitePath       string
	postgresDSN      string
	anthropicBaseURL string
	openaiBaseURL    string
	requestTimeout   string
	modelCatalog     string
	kafkaBrokers     string
	kafkaTopic       string
	record           bool

	cfg    *config.Config
	debug  bool
	logger *slog.Logger
}

var relayFlags = []string{
	config.FlagRelayListenStandalone,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagAnthropicBaseURL,
	config.FlagOpenAIBaseURL,
	config.FlagRequestTimeout,
	config.FlagModelCatalog,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
}

const relayLongDesc string = `Run the quill chat relay.

The relay accepts a conversation on POST /api/chat, streams the reply from
Anthropic or OpenAI and forwards it as server-sent events. API keys are read
from ANTHROPIC_API_KEY and OPENAI_API_KEY.

With --record, completed turns are saved to the configured store and
published to Kafka when brokers are set.`

const relayShortDesc string = "Run the quill chat relay"

func NewRelayCmd() *cobra.Command {
	cmder := &relayCommander{flags: config.Flags}

	cmd := &cobra.Command{
		Use:   "relay",
		Short: relayShortDesc,
		Long:  relayLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, cmder.flags, relayFlags)
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

	config.AddStringFlag(cmd, cmder.flags, config.FlagRelayListenStandalone, &cmder.listen)
	config.AddStringFlag(cmd, cmder.flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, cmder.flags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, cmder.flags, config.FlagAnthropicBaseURL, &cmder.anthropicBaseURL)
	config.AddStringFlag(cmd, cmder.flags, config.FlagOpenAIBaseURL, &cmder.openaiBaseURL)
	config.AddStringFlag(cmd, cmder.flags, config.FlagRequestTimeout, &cmder.requestTimeout)
	config.AddStringFlag(cmd, cmder.flags, config.FlagModelCatalog, &cmder.modelCatalog)
	config.AddStringFlag(cmd, cmder.flags, config.FlagKafkaBrokers, &cmder.kafkaBrokers)
	config.AddStringFlag(cmd, cmder.flags, config.FlagKafkaTopic, &cmder.kafkaTopic)
	cmd.Flags().BoolVar(&cmder.record, "record", false, "Record completed turns to the configured store")

	return cmd
}

func (c *relayCommander) run(cmd *cobra.Command) error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true), logger.WithComponent("relay"))

	var (
		store     storage.TurnStore
		publisher eventstream.Publisher
	)
	if c.record {
		driver, err := services.NewStorageDriver(cmd.Context(), c.cfg.Storage, c.logger)
		if err != nil {
			return err
		}
		defer driver.Close()
		store = driver

		pub, err := services.NewPublisher(c.cfg.EventStream, c.logger)
		if err != nil {
			return err
		}
		defer pub.Close()
		publisher = pub
	}

	r, err := services.NewRelay(c.cfg, store, publisher, c.logger)
	if err != nil {
		return err
	}
	defer r.Close()

	c.logger.Info("starting relay", "listen", c.cfg.Relay.Listen, "record", c.record)

	return r.Run()
}
