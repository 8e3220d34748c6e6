// Package anthropic streams chat turns from the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/papercomputeco/quill/pkg/llm"
)

// Config holds the client settings. Empty fields fall back to the SDK
// defaults.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Provider implements provider.Provider for Anthropic.
type Provider struct {
	client anthropic.Client
}

// New builds a Provider. Extra SDK options are appended after the ones
// derived from cfg.
func New(cfg Config, extra ...option.RequestOption) *Provider {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	opts = append(opts, extra...)

	return &Provider{client: anthropic.NewClient(opts...)}
}

// Name
func (p *Provider) Name() string {
	return "anthropic"
}

// Stream sends the conversation to the Messages API and relays text deltas.
// Anthropic carries the system prompt out of band, so system turns in the
// conversation are dropped.
func (p *Provider) Stream(ctx context.Context, req llm.StreamRequest) <-chan llm.Delta {
	out := make(chan llm.Delta, 16)

	go func() {
		defer close(out)

		stream := p.client.Messages.NewStreaming(ctx, buildParams(req))
		defer stream.Close()

		for stream.Next() {
			event := stream.Current()
			if event.Type != "content_block_delta" || event.Delta.Type != "text_delta" {
				continue
			}
			if !llm.Emit(ctx, out, llm.TextDelta(event.Delta.Text)) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			llm.Emit(ctx, out, llm.ErrorDelta(fmt.Errorf("anthropic: %w", err)))
			return
		}

		llm.Emit(ctx, out, llm.DoneDelta())
	}()

	return out
}

func buildParams(req llm.StreamRequest) anthropic.MessageNewParams {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = req.Model.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model.UpstreamID),
		MaxTokens: int64(maxTokens),
	}

	turns := llm.WithoutSystem(req.Messages)
	params.Messages = make([]anthropic.MessageParam, 0, len(turns))
	for _, m := range turns {
		params.Messages = append(params.Messages, anthropic.MessageParam{
			Role:    anthropic.MessageParamRole(m.Role),
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Content)},
		})
	}

	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	return params
}
