package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/openai/openai-go/option"

	"github.com/papercomputeco/quill/pkg/llm"
	"github.com/papercomputeco/quill/pkg/llm/provider/openai"
	"github.com/papercomputeco/quill/pkg/models"
)

func chunk(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion.chunk",
		"created": 1234567890,
		"model":   "gpt-4o",
		"choices": []any{map[string]any{
			"index":         0,
			"delta":         map[string]any{"content": content},
			"finish_reason": nil,
		}},
	})
	return "data: " + string(b) + "\n\n"
}

const roleChunk = `data: {"id":"chatcmpl-1","object":"chat.completion.chunk","created":1234567890,"model":"gpt-4o","choices":[{"index":0,"delta":{"role":"assistant"},"finish_reason":null}]}` + "\n\n"

const completion = `{"id":"chatcmpl-2","object":"chat.completion","created":1234567890,"model":"o1","choices":[{"index":0,"message":{"role":"assistant","content":"Deep thought"},"finish_reason":"stop"}],"usage":{"prompt_tokens":5,"completion_tokens":2,"total_tokens":7}}`

type capturedRequest struct {
	Path string
	Body map[string]any
}

func (c capturedRequest) messages() []map[string]any {
	raw, _ := c.Body["messages"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, m := range raw {
		out = append(out, m.(map[string]any))
	}
	return out
}

var registry = models.Builtin()

var _ = Describe("Provider", func() {
	var (
		captured capturedRequest
		server   *httptest.Server
		p        *openai.Provider
	)

	serve := func(status int, contentType, body string) {
		captured = capturedRequest{}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			captured.Path = r.URL.Path
			_ = json.Unmarshal(raw, &captured.Body)

			w.Header().Set("Content-Type", contentType)
			w.WriteHeader(status)
			_, _ = io.WriteString(w, body)
		}))
		p = openai.New(openai.Config{APIKey: "test-key", BaseURL: server.URL}, option.WithMaxRetries(0))
	}

	AfterEach(func() {
		if server != nil {
			server.Close()
		}
	})

	It("names itself", func() {
		Expect(openai.New(openai.Config{}).Name()).To(Equal("openai"))
	})

	Context("with a streaming model", func() {
		gpt := registry.Resolve("gpt-4o")

		It("relays non-empty content deltas and finishes with done", func() {
			serve(http.StatusOK, "text/event-stream",
				roleChunk+chunk("Hello")+chunk("")+chunk(" there")+"data: [DONE]\n\n")

			var deltas []llm.Delta
			for d := range p.Stream(context.Background(), llm.StreamRequest{
				Model:        gpt,
				Messages:     []llm.ChatMessage{{Role: "user", Content: "hi"}},
				SystemPrompt: "You are a helpful AI assistant.",
				MaxTokens:    gpt.MaxTokens,
			}) {
				deltas = append(deltas, d)
			}

			Expect(deltas).To(Equal([]llm.Delta{
				llm.TextDelta("Hello"),
				llm.TextDelta(" there"),
				llm.DoneDelta(),
			}))
		})

		It("prepends the system prompt and sends max_tokens", func() {
			serve(http.StatusOK, "text/event-stream", "data: [DONE]\n\n")

			_, err := llm.Collect(p.Stream(context.Background(), llm.StreamRequest{
				Model: gpt,
				Messages: []llm.ChatMessage{
					{Role: "user", Content: "one"},
					{Role: "assistant", Content: "two"},
					{Role: "user", Content: "three"},
				},
				SystemPrompt: "sys",
				MaxTokens:    gpt.MaxTokens,
			}))
			Expect(err).NotTo(HaveOccurred())

			Expect(captured.Path).To(Equal("/chat/completions"))
			Expect(captured.Body["model"]).To(Equal("gpt-4o"))
			Expect(captured.Body["stream"]).To(BeTrue())
			Expect(captured.Body["max_tokens"]).To(BeNumerically("==", 4096))
			Expect(captured.Body).NotTo(HaveKey("max_completion_tokens"))

			msgs := captured.messages()
			Expect(msgs).To(HaveLen(4))
			Expect(msgs[0]["role"]).To(Equal("system"))
			Expect(msgs[0]["content"]).To(Equal("sys"))
			Expect(msgs[1]["content"]).To(Equal("one"))
			Expect(msgs[2]["role"]).To(Equal("assistant"))
			Expect(msgs[3]["content"]).To(Equal("three"))
		})

		It("emits an aborting error delta on a mid-stream error", func() {
			serve(http.StatusOK, "text/event-stream",
				chunk("partial")+`data: {"error":{"message":"server overloaded","type":"server_error"}}`+"\n\n")

			text, err := llm.Collect(p.Stream(context.Background(), llm.StreamRequest{
				Model:    gpt,
				Messages: []llm.ChatMessage{{Role: "user", Content: "hi"}},
			}))
			Expect(text).To(Equal("partial"))
			Expect(errors.Is(err, llm.ErrStreamAborted)).To(BeTrue())
		})

		It("emits an error delta when the request is rejected", func() {
			serve(http.StatusUnauthorized, "application/json",
				`{"error":{"message":"Invalid API key","type":"invalid_api_key","code":"invalid_api_key"}}`)

			var deltas []llm.Delta
			for d := range p.Stream(context.Background(), llm.StreamRequest{
				Model:    gpt,
				Messages: []llm.ChatMessage{{Role: "user", Content: "hi"}},
			}) {
				deltas = append(deltas, d)
			}
			Expect(deltas).To(HaveLen(1))
			Expect(deltas[0].Kind).To(Equal(llm.DeltaError))
			Expect(deltas[0].Err).To(MatchError(llm.ErrStreamAborted))
		})
	})

	Context("with a reasoning model", func() {
		o1 := registry.Resolve("o1")

		It("makes one blocking call and emits the whole answer", func() {
			serve(http.StatusOK, "application/json", completion)

			var deltas []llm.Delta
			for d := range p.Stream(context.Background(), llm.StreamRequest{
				Model:        o1,
				Messages:     []llm.ChatMessage{{Role: "user", Content: "think"}},
				SystemPrompt: "You are a helpful AI assistant.",
				MaxTokens:    o1.MaxTokens,
			}) {
				deltas = append(deltas, d)
			}

			Expect(deltas).To(Equal([]llm.Delta{llm.TextDelta("Deep thought"), llm.DoneDelta()}))
			Expect(captured.Body).NotTo(HaveKey("stream"))
			Expect(captured.Body["max_completion_tokens"]).To(BeNumerically("==", 32768))
			Expect(captured.Body).NotTo(HaveKey("max_tokens"))
		})

		It("folds the system prompt into the first user turn", func() {
			serve(http.StatusOK, "application/json", completion)

			_, err := llm.Collect(p.Stream(context.Background(), llm.StreamRequest{
				Model: o1,
				Messages: []llm.ChatMessage{
					{Role: "system", Content: "dropped"},
					{Role: "user", Content: "question"},
					{Role: "assistant", Content: "answer"},
					{Role: "user", Content: "follow-up"},
				},
				SystemPrompt: "Use the context.",
			}))
			Expect(err).NotTo(HaveOccurred())

			msgs := captured.messages()
			Expect(msgs).To(HaveLen(3))
			for _, m := range msgs {
				Expect(m["role"]).NotTo(Equal("system"))
			}
			Expect(msgs[0]["content"]).To(Equal("Use the context.\n\nquestion"))
			Expect(msgs[1]["content"]).To(Equal("answer"))
			Expect(msgs[2]["content"]).To(Equal("follow-up"))
		})

		It("does not fold the prompt into a leading assistant turn", func() {
			serve(http.StatusOK, "application/json", completion)

			_, err := llm.Collect(p.Stream(context.Background(), llm.StreamRequest{
				Model: registry.Resolve("o1-mini"),
				Messages: []llm.ChatMessage{
					{Role: "assistant", Content: "hello"},
					{Role: "user", Content: "hi"},
				},
				SystemPrompt: "sys",
			}))
			Expect(err).NotTo(HaveOccurred())

			msgs := captured.messages()
			Expect(msgs[0]["content"]).To(Equal("hello"))
			Expect(msgs[1]["content"]).To(Equal("hi"))
			Expect(captured.Body["max_completion_tokens"]).To(BeNumerically("==", 65536))
		})

		It("emits an empty text delta for an empty answer", func() {
			serve(http.StatusOK, "application/json",
				`{"id":"c","object":"chat.completion","created":1,"model":"o1","choices":[{"index":0,"message":{"role":"assistant","content":""},"finish_reason":"stop"}]}`)

			var deltas []llm.Delta
			for d := range p.Stream(context.Background(), llm.StreamRequest{
				Model:    o1,
				Messages: []llm.ChatMessage{{Role: "user", Content: "hi"}},
			}) {
				deltas = append(deltas, d)
			}
			Expect(deltas).To(Equal([]llm.Delta{llm.TextDelta(""), llm.DoneDelta()}))
		})

		It("emits an error delta when the call fails", func() {
			serve(http.StatusBadRequest, "application/json",
				`{"error":{"message":"Unsupported value: 'messages[0].role' does not support 'system'","type":"invalid_request_error"}}`)

			_, err := llm.Collect(p.Stream(context.Background(), llm.StreamRequest{
				Model:    o1,
				Messages: []llm.ChatMessage{{Role: "user", Content: "hi"}},
			}))
			Expect(errors.Is(err, llm.ErrStreamAborted)).To(BeTrue())
		})
	})
})
