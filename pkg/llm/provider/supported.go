package provider

import (
	"fmt"
	"net/http"
	"os"

	"github.com/papercomputeco/quill/pkg/llm/provider/anthropic"
	"github.com/papercomputeco/quill/pkg/llm/provider/openai"
	"github.com/papercomputeco/quill/pkg/models"
)

// Supported provider type constants
const (
	Anthropic = models.ProviderAnthropic
	OpenAI    = models.ProviderOpenAI
)

// apiKeyEnv names the environment variable holding each provider's key.
var apiKeyEnv = map[string]string{
	Anthropic: "ANTHROPIC_API_KEY",
	OpenAI:    "OPENAI_API_KEY",
}

// Options configures a provider client.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// SupportedProviders returns the list of all supported provider type names.
func SupportedProviders() []string {
	return []string{Anthropic, OpenAI}
}

// New creates a new Provider instance for the given provider type.
// Returns an error if the provider type is not recognized.
func New(providerType string, opts Options) (Provider, error) {
	switch providerType {
	case Anthropic:
		return anthropic.New(anthropic.Config{
			APIKey:     opts.APIKey,
			BaseURL:    opts.BaseURL,
			HTTPClient: opts.HTTPClient,
		}), nil
	case OpenAI:
		return openai.New(openai.Config{
			APIKey:     opts.APIKey,
			BaseURL:    opts.BaseURL,
			HTTPClient: opts.HTTPClient,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: %v)", models.ErrUnknownProvider, providerType, SupportedProviders())
	}
}

// APIKeyEnv returns the environment variable that holds the key for
// providerType, or "" for unknown providers.
func APIKeyEnv(providerType string) string {
	return apiKeyEnv[providerType]
}

// NewSetFromEnv builds a Set with one provider for every supported name
// whose API key is present in the environment. baseURLs optionally
// overrides the upstream endpoint per provider.
func NewSetFromEnv(baseURLs map[string]string, httpClient *http.Client) (Set, error) {
	set := Set{}
	for _, name := range SupportedProviders() {
		key := os.Getenv(apiKeyEnv[name])
		if key == "" {
			continue
		}
		p, err := New(name, Options{
			APIKey:     key,
			BaseURL:    baseURLs[name],
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, err
		}
		set[name] = p
	}
	return set, nil
}
