package config

import (
	"fmt"
	"time"
)

// Config represents the persistent quill configuration stored as config.toml
// in the .quill/ directory. The TOML layout uses sections for logical grouping.
//
// Provider API keys are never part of the config; they are read from
// ANTHROPIC_API_KEY and OPENAI_API_KEY at startup.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	Relay       RelayConfig       `toml:"relay"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	Models      ModelsConfig      `toml:"models"`
	EventStream EventStreamConfig `toml:"eventstream"`
}

// StorageConfig selects the workspace storage backend. PostgresDSN wins over
// SQLitePath; with neither set the store is in-memory.
type StorageConfig struct {
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// RelayConfig holds chat relay settings.
type RelayConfig struct {
	Listen           string `toml:"listen,omitempty"`
	AnthropicBaseURL string `toml:"anthropic_base_url,omitempty"`
	OpenAIBaseURL    string `toml:"openai_base_url,omitempty"`
	RequestTimeout   string `toml:"request_timeout,omitempty"`
}

// Timeout parses RequestTimeout. An empty value means no timeout.
func (r RelayConfig) Timeout() (time.Duration, error) {
	if r.RequestTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid relay.request_timeout: %w", err)
	}
	return d, nil
}

// APIConfig holds workspace API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to the running
// relay and API servers (e.g. quill chat, quill pages).
// Targets are full URLs (scheme + host + port).
type ClientConfig struct {
	RelayTarget string `toml:"relay_target,omitempty"`
	APITarget   string `toml:"api_target,omitempty"`
	Model       string `toml:"model,omitempty"`
}

// ModelsConfig points at an optional YAML model catalog and default model.
type ModelsConfig struct {
	CatalogPath string `toml:"catalog_path,omitempty"`
	Default     string `toml:"default,omitempty"`
}

// EventStreamConfig enables the Kafka turn publisher when brokers are set.
// Brokers are comma separated host:port pairs.
type EventStreamConfig struct {
	KafkaBrokers string `toml:"kafka_brokers,omitempty"`
	KafkaTopic   string `toml:"kafka_topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"relay.listen": {
		get: func(c *Config) string { return c.Relay.Listen },
		set: func(c *Config, v string) error { c.Relay.Listen = v; return nil },
	},
	"relay.anthropic_base_url": {
		get: func(c *Config) string { return c.Relay.AnthropicBaseURL },
		set: func(c *Config, v string) error { c.Relay.AnthropicBaseURL = v; return nil },
	},
	"relay.openai_base_url": {
		get: func(c *Config) string { return c.Relay.OpenAIBaseURL },
		set: func(c *Config, v string) error { c.Relay.OpenAIBaseURL = v; return nil },
	},
	"relay.request_timeout": {
		get: func(c *Config) string { return c.Relay.RequestTimeout },
		set: func(c *Config, v string) error {
			if v != "" {
				if _, err := time.ParseDuration(v); err != nil {
					return fmt.Errorf("invalid value for relay.request_timeout: %w", err)
				}
			}
			c.Relay.RequestTimeout = v
			return nil
		},
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"client.relay_target": {
		get: func(c *Config) string { return c.Client.RelayTarget },
		set: func(c *Config, v string) error { c.Client.RelayTarget = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"client.model": {
		get: func(c *Config) string { return c.Client.Model },
		set: func(c *Config, v string) error { c.Client.Model = v; return nil },
	},
	"models.catalog_path": {
		get: func(c *Config) string { return c.Models.CatalogPath },
		set: func(c *Config, v string) error { c.Models.CatalogPath = v; return nil },
	},
	"models.default": {
		get: func(c *Config) string { return c.Models.Default },
		set: func(c *Config, v string) error { c.Models.Default = v; return nil },
	},
	"eventstream.kafka_brokers": {
		get: func(c *Config) string { return c.EventStream.KafkaBrokers },
		set: func(c *Config, v string) error { c.EventStream.KafkaBrokers = v; return nil },
	},
	"eventstream.kafka_topic": {
		get: func(c *Config) string { return c.EventStream.KafkaTopic },
		set: func(c *Config, v string) error { c.EventStream.KafkaTopic = v; return nil },
	},
}
