package config

const (
	defaultRelayListen    = ":8080"
	defaultAPIListen      = ":8081"
	defaultRequestTimeout = "5m"

	defaultClientRelayTarget = "http://localhost:8080"
	defaultClientAPITarget   = "http://localhost:8081"

	defaultModel      = "claude-4-sonnet"
	defaultKafkaTopic = "quill.turns"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Relay: RelayConfig{
			Listen:         defaultRelayListen,
			RequestTimeout: defaultRequestTimeout,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			RelayTarget: defaultClientRelayTarget,
			APITarget:   defaultClientAPITarget,
			Model:       defaultModel,
		},
		Models: ModelsConfig{
			Default: defaultModel,
		},
		EventStream: EventStreamConfig{
			KafkaTopic: defaultKafkaTopic,
		},
	}
}
