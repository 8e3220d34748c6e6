// Package services builds the long-lived dependencies shared by the quill
// server commands from a resolved config.
package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/papercomputeco/quill/pkg/config"
	"github.com/papercomputeco/quill/pkg/eventstream"
	"github.com/papercomputeco/quill/pkg/eventstream/kafka"
	"github.com/papercomputeco/quill/pkg/eventstream/nop"
	"github.com/papercomputeco/quill/pkg/llm/provider"
	"github.com/papercomputeco/quill/pkg/logger"
	"github.com/papercomputeco/quill/pkg/models"
	"github.com/papercomputeco/quill/pkg/storage"
	"github.com/papercomputeco/quill/pkg/storage/inmemory"
	"github.com/papercomputeco/quill/pkg/storage/postgres"
	"github.com/papercomputeco/quill/pkg/storage/sqlite"
	"github.com/papercomputeco/quill/relay"
)

const kafkaWriteTimeout = 10 * time.Second

// NewStorageDriver opens the configured store. PostgreSQL wins over SQLite,
// and with neither configured the store lives in memory.
func NewStorageDriver(ctx context.Context, cfg config.StorageConfig, log *slog.Logger) (storage.Driver, error) {
	switch {
	case cfg.PostgresDSN != "":
		driver, err := postgres.NewDriver(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL driver: %w", err)
		}
		log.Info("using PostgreSQL storage")
		return driver, nil

	case cfg.SQLitePath != "":
		driver, err := sqlite.NewDriver(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite driver: %w", err)
		}
		log.Info("using SQLite storage", "path", cfg.SQLitePath)
		return driver, nil

	default:
		log.Info("using in-memory storage")
		return inmemory.NewDriver(), nil
	}
}

// NewRegistry returns the built-in model table, layered with the YAML
// catalog when one is configured, and with the configured default applied.
func NewRegistry(cfg config.ModelsConfig) (*models.Registry, error) {
	reg := models.Builtin()
	if cfg.CatalogPath != "" {
		var err error
		reg, err = models.LoadCatalog(cfg.CatalogPath, reg)
		if err != nil {
			return nil, err
		}
	}
	return reg.WithDefault(cfg.Default)
}

// NewProviders configures one provider per API key found in the environment.
func NewProviders(cfg config.RelayConfig) (provider.Set, error) {
	return provider.NewSetFromEnv(map[string]string{
		provider.Anthropic: cfg.AnthropicBaseURL,
		provider.OpenAI:    cfg.OpenAIBaseURL,
	}, nil)
}

// NewRelay assembles the chat relay. store and pub may be nil, which
// disables turn recording.
func NewRelay(cfg *config.Config, store storage.TurnStore, pub eventstream.Publisher, log *slog.Logger) (*relay.Relay, error) {
	registry, err := NewRegistry(cfg.Models)
	if err != nil {
		return nil, err
	}

	providers, err := NewProviders(cfg.Relay)
	if err != nil {
		return nil, err
	}
	if len(providers) == 0 {
		log.Warn("no provider API keys found; chat requests will fail",
			"env", []string{provider.APIKeyEnv(provider.Anthropic), provider.APIKeyEnv(provider.OpenAI)})
	}

	timeout, err := cfg.Relay.Timeout()
	if err != nil {
		return nil, err
	}

	r, err := relay.New(relay.Config{
		ListenAddr:     cfg.Relay.Listen,
		Registry:       registry,
		Providers:      providers,
		RequestTimeout: timeout,
		TurnStore:      store,
		Publisher:      pub,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("creating relay: %w", err)
	}

	log.Info("relay configured",
		"providers", providers.Names(),
		"default_model", registry.Default().ID,
	)
	return r, nil
}

// NewPublisher returns a Kafka publisher when brokers are configured and a
// no-op publisher otherwise.
func NewPublisher(cfg config.EventStreamConfig, log *slog.Logger) (eventstream.Publisher, error) {
	brokers := kafka.ParseBrokers(cfg.KafkaBrokers)
	if len(brokers) == 0 {
		return nop.NewPublisher(), nil
	}

	pub, err := kafka.NewPublisher(kafka.Config{
		Brokers:      brokers,
		Topic:        cfg.KafkaTopic,
		WriteTimeout: kafkaWriteTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("creating kafka publisher: %w", err)
	}
	log.Info("publishing turn events to kafka", "brokers", brokers, "topic", cfg.KafkaTopic)
	return pub, nil
}

// NewLogger returns the console logger and, when logFile is set, fans every
// record out to a JSON log at that path as well. The returned closer closes
// the file and is safe to call when no file was opened.
func NewLogger(debug bool, logFile string) (*slog.Logger, io.Closer, error) {
	console := logger.New(logger.WithDebug(debug), logger.WithPretty(true))
	if logFile == "" {
		return console, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(logger.WithDebug(debug), logger.WithJSON(true), logger.WithWriter(f))
	return logger.Multi(console, file), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
