// Package openai streams chat turns from the OpenAI Chat Completions API,
// including reasoning models that neither stream nor accept a system turn.
package openai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/papercomputeco/quill/pkg/llm"
)

// Config holds the client settings. Empty fields fall back to the SDK
// defaults.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Provider implements provider.Provider for OpenAI.
type Provider struct {
	client openai.Client
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

	return &Provider{client: openai.NewClient(opts...)}
}

// Name
func (p *Provider) Name() string {
	return "openai"
}

// Stream dispatches on the model's capabilities: streaming models relay
// chunk deltas, the rest make one blocking call and emit the whole answer
// as a single delta.
func (p *Provider) Stream(ctx context.Context, req llm.StreamRequest) <-chan llm.Delta {
	out := make(chan llm.Delta, 16)

	go func() {
		defer close(out)

		if req.Model.SupportsStreaming {
			p.stream(ctx, req, out)
			return
		}
		p.complete(ctx, req, out)
	}()

	return out
}

func (p *Provider) stream(ctx context.Context, req llm.StreamRequest, out chan<- llm.Delta) {
	params := openai.ChatCompletionNewParams{
		Model:    req.Model.UpstreamID,
		Messages: buildMessages(req),
	}
	params.MaxTokens = openai.Int(int64(maxTokens(req)))

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		if !llm.Emit(ctx, out, llm.TextDelta(chunk.Choices[0].Delta.Content)) {
			return
		}
	}

	if err := stream.Err(); err != nil {
		llm.Emit(ctx, out, llm.ErrorDelta(fmt.Errorf("openai: %w", err)))
		return
	}

	llm.Emit(ctx, out, llm.DoneDelta())
}

func (p *Provider) complete(ctx context.Context, req llm.StreamRequest, out chan<- llm.Delta) {
	params := openai.ChatCompletionNewParams{
		Model:    req.Model.UpstreamID,
		Messages: buildMessages(req),
	}
	params.MaxCompletionTokens = openai.Int(int64(maxTokens(req)))

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		llm.Emit(ctx, out, llm.ErrorDelta(fmt.Errorf("openai: %w", err)))
		return
	}

	// The answer is always one text delta, even when it is empty.
	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}
	if !llm.Emit(ctx, out, llm.TextDelta(content)) {
		return
	}

	llm.Emit(ctx, out, llm.DoneDelta())
}

func maxTokens(req llm.StreamRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return req.Model.MaxTokens
}

// buildMessages shapes the conversation for the model. Models with a system
// role get the prompt as a leading system turn. The others lose their system
// turns and, when the conversation opens with a user turn, get the prompt
// folded into it.
func buildMessages(req llm.StreamRequest) []openai.ChatCompletionMessageParamUnion {
	if req.Model.SupportsSystemRole {
		msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
		if req.SystemPrompt != "" {
			msgs = append(msgs, openai.SystemMessage(req.SystemPrompt))
		}
		for _, m := range req.Messages {
			msgs = append(msgs, toParam(m.Role, m.Content))
		}
		return msgs
	}

	turns := llm.WithoutSystem(req.Messages)
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for i, m := range turns {
		content := m.Content
		if i == 0 && m.Role == llm.RoleUser && req.SystemPrompt != "" {
			content = req.SystemPrompt + "\n\n" + content
		}
		msgs = append(msgs, toParam(m.Role, content))
	}
	return msgs
}

func toParam(role, content string) openai.ChatCompletionMessageParamUnion {
	switch role {
	case llm.RoleSystem:
		return openai.SystemMessage(content)
	case llm.RoleAssistant:
		return openai.AssistantMessage(content)
	default:
		return openai.UserMessage(content)
	}
}
