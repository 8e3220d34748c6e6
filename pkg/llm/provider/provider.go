// Package provider adapts upstream chat APIs to the normalized llm.Delta
// stream the relay consumes.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/papercomputeco/quill/pkg/llm"
	"github.com/papercomputeco/quill/pkg/models"
)

// ErrNoProvider is returned by Set.For when no adapter was configured for
// a model's provider (typically because its API key is unset).
var ErrNoProvider = errors.New("no provider configured")

// Provider streams one chat turn from an upstream API.
type Provider interface {
	// Name returns the canonical provider name ("anthropic", "openai").
	Name() string

	// Stream starts the turn and returns its deltas. The channel yields zero
	// or more text deltas and then exactly one done or error delta before it
	// is closed. When ctx is cancelled the producer stops and closes the
	// channel, possibly without a terminal delta.
	Stream(ctx context.Context, req llm.StreamRequest) <-chan llm.Delta
}

// Set maps provider names to configured providers.
type Set map[string]Provider

// For returns the provider that serves m.
func (s Set) For(m models.ModelConfig) (Provider, error) {
	p, ok := s[m.Provider]
	if !ok || p == nil {
		return nil, fmt.Errorf("%w for %q (model %q)", ErrNoProvider, m.Provider, m.ID)
	}
	return p, nil
}

// Names returns the configured provider names.
func (s Set) Names() []string {
	out := make([]string, 0, len(s))
	for _, name := range SupportedProviders() {
		if _, ok := s[name]; ok {
			out = append(out, name)
		}
	}
	return out
}
