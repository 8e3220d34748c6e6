// Package models is the registry of chat models quill can relay to. Each
// entry maps a user-facing id to a provider, the provider's own model id,
// an output token budget and the capability flags that decide how the
// provider adapter shapes the request.
package models

import "errors"

// Provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// DefaultModelID is used whenever an id is empty or unknown.
const DefaultModelID = "claude-4-sonnet"

// ErrUnknownProvider is returned when a model names a provider quill has no
// adapter for.
var ErrUnknownProvider = errors.New("unknown provider")

// ModelConfig describes one selectable model.
type ModelConfig struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Provider   string `json:"provider"`
	UpstreamID string `json:"upstreamId"`
	MaxTokens  int    `json:"maxTokens"`

	// SupportsStreaming is false for reasoning models that only answer with
	// a single completed response.
	SupportsStreaming bool `json:"supportsStreaming"`

	// SupportsSystemRole is false for models that reject a system turn; the
	// adapter folds the system prompt into the first user turn instead.
	SupportsSystemRole bool `json:"supportsSystemRole"`
}

// KnownProvider reports whether name has an adapter.
func KnownProvider(name string) bool {
	switch name {
	case ProviderAnthropic, ProviderOpenAI:
		return true
	default:
		return false
	}
}

var builtinModels = []ModelConfig{
	{
		ID:                 "claude-4-sonnet",
		Name:               "Claude 4 Sonnet",
		Provider:           ProviderAnthropic,
		UpstreamID:         "claude-sonnet-4-20250514",
		MaxTokens:          8192,
		SupportsStreaming:  true,
		SupportsSystemRole: true,
	},
	{
		ID:                 "claude-4.5-opus",
		Name:               "Claude 4.5 Opus",
		Provider:           ProviderAnthropic,
		UpstreamID:         "claude-opus-4-5-20251101",
		MaxTokens:          8192,
		SupportsStreaming:  true,
		SupportsSystemRole: true,
	},
	{
		ID:                 "gpt-4o",
		Name:               "GPT-4o",
		Provider:           ProviderOpenAI,
		UpstreamID:         "gpt-4o",
		MaxTokens:          4096,
		SupportsStreaming:  true,
		SupportsSystemRole: true,
	},
	{
		ID:         "o1",
		Name:       "o1",
		Provider:   ProviderOpenAI,
		UpstreamID: "o1",
		MaxTokens:  32768,
	},
	{
		ID:         "o1-mini",
		Name:       "o1-mini",
		Provider:   ProviderOpenAI,
		UpstreamID: "o1-mini",
		MaxTokens:  65536,
	},
}
