package anthropic_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/anthropics/anthropic-sdk-go/option"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/quill/pkg/llm"
	"github.com/papercomputeco/quill/pkg/llm/provider/anthropic"
	"github.com/papercomputeco/quill/pkg/models"
)

func sseEvent(name, data string) string {
	return "event: " + name + "\ndata: " + data + "\n\n"
}

const (
	messageStart = `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","content":[],"model":"claude-sonnet-4-20250514","stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":10,"output_tokens":1}}}`
	blockStart   = `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`
	blockStop    = `{"type":"content_block_stop","index":0}`
	messageDelta = `{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":5}}`
	messageStop  = `{"type":"message_stop"}`
)

func textDelta(text string) string {
	b, _ := json.Marshal(map[string]any{
		"type":  "content_block_delta",
		"index": 0,
		"delta": map[string]any{"type": "text_delta", "text": text},
	})
	return string(b)
}

type capturedRequest struct {
	Path string
	Body map[string]any
}

func fakeUpstream(captured *capturedRequest, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		captured.Path = r.URL.Path
		_ = json.Unmarshal(raw, &captured.Body)

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, body)
	}))
}

var sonnet = models.Builtin().Resolve("claude-4-sonnet")

var _ = Describe("Provider", func() {
	var (
		captured capturedRequest
		server   *httptest.Server
		p        *anthropic.Provider
	)

	newProvider := func(body string) {
		captured = capturedRequest{}
		server = fakeUpstream(&captured, body)
		p = anthropic.New(anthropic.Config{APIKey: "test-key", BaseURL: server.URL}, option.WithMaxRetries(0))
	}

	AfterEach(func() {
		if server != nil {
			server.Close()
		}
	})

	It("names itself", func() {
		Expect(anthropic.New(anthropic.Config{}).Name()).To(Equal("anthropic"))
	})

	It("relays text deltas and finishes with done", func() {
		newProvider(
			sseEvent("message_start", messageStart) +
				sseEvent("content_block_start", blockStart) +
				sseEvent("ping", `{"type":"ping"}`) +
				sseEvent("content_block_delta", textDelta("Hel")) +
				sseEvent("content_block_delta", textDelta("lo")) +
				sseEvent("content_block_stop", blockStop) +
				sseEvent("message_delta", messageDelta) +
				sseEvent("message_stop", messageStop),
		)

		ch := p.Stream(context.Background(), llm.StreamRequest{
			Model:        sonnet,
			Messages:     []llm.ChatMessage{{Role: "user", Content: "hi"}},
			SystemPrompt: "You are a helpful AI assistant.",
			MaxTokens:    sonnet.MaxTokens,
		})

		var deltas []llm.Delta
		for d := range ch {
			deltas = append(deltas, d)
		}

		Expect(deltas).To(HaveLen(3))
		Expect(deltas[0]).To(Equal(llm.TextDelta("Hel")))
		Expect(deltas[1]).To(Equal(llm.TextDelta("lo")))
		Expect(deltas[2].Kind).To(Equal(llm.DeltaDone))
	})

	It("ignores non-text content deltas", func() {
		thinking := `{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"hmm"}}`
		newProvider(
			sseEvent("message_start", messageStart) +
				sseEvent("content_block_delta", thinking) +
				sseEvent("content_block_delta", textDelta("ok")) +
				sseEvent("message_stop", messageStop),
		)

		text, err := llm.Collect(p.Stream(context.Background(), llm.StreamRequest{
			Model:    sonnet,
			Messages: []llm.ChatMessage{{Role: "user", Content: "hi"}},
		}))
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("ok"))
	})

	It("sends the system prompt out of band and drops system turns", func() {
		newProvider(sseEvent("message_start", messageStart) + sseEvent("message_stop", messageStop))

		_, err := llm.Collect(p.Stream(context.Background(), llm.StreamRequest{
			Model: sonnet,
			Messages: []llm.ChatMessage{
				{Role: "system", Content: "ignored"},
				{Role: "user", Content: "first"},
				{Role: "assistant", Content: "second"},
				{Role: "user", Content: "third"},
			},
			SystemPrompt: "Be brief.",
			MaxTokens:    1234,
		}))
		Expect(err).NotTo(HaveOccurred())

		Expect(captured.Path).To(Equal("/v1/messages"))
		Expect(captured.Body["model"]).To(Equal("claude-sonnet-4-20250514"))
		Expect(captured.Body["max_tokens"]).To(BeNumerically("==", 1234))
		Expect(captured.Body["stream"]).To(BeTrue())

		system, ok := captured.Body["system"].([]any)
		Expect(ok).To(BeTrue())
		Expect(system[0].(map[string]any)["text"]).To(Equal("Be brief."))

		msgs := captured.Body["messages"].([]any)
		Expect(msgs).To(HaveLen(3))
		roles := []string{}
		for _, m := range msgs {
			roles = append(roles, m.(map[string]any)["role"].(string))
		}
		Expect(roles).To(Equal([]string{"user", "assistant", "user"}))
	})

	It("falls back to the model budget when MaxTokens is unset", func() {
		newProvider(sseEvent("message_stop", messageStop))

		_, err := llm.Collect(p.Stream(context.Background(), llm.StreamRequest{
			Model:    sonnet,
			Messages: []llm.ChatMessage{{Role: "user", Content: "hi"}},
		}))
		Expect(err).NotTo(HaveOccurred())
		Expect(captured.Body["max_tokens"]).To(BeNumerically("==", 8192))
	})

	It("emits an aborting error delta when the stream reports an error", func() {
		newProvider(
			sseEvent("message_start", messageStart) +
				sseEvent("content_block_delta", textDelta("partial")) +
				sseEvent("error", `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`),
		)

		ch := p.Stream(context.Background(), llm.StreamRequest{
			Model:    sonnet,
			Messages: []llm.ChatMessage{{Role: "user", Content: "hi"}},
		})

		text, err := llm.Collect(ch)
		Expect(text).To(Equal("partial"))
		Expect(errors.Is(err, llm.ErrStreamAborted)).To(BeTrue())
	})

	It("emits an error delta when the upstream rejects the request", func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
		}))
		p = anthropic.New(anthropic.Config{APIKey: "bad", BaseURL: server.URL}, option.WithMaxRetries(0))

		var deltas []llm.Delta
		for d := range p.Stream(context.Background(), llm.StreamRequest{
			Model:    sonnet,
			Messages: []llm.ChatMessage{{Role: "user", Content: "hi"}},
		}) {
			deltas = append(deltas, d)
		}

		Expect(deltas).To(HaveLen(1))
		Expect(deltas[0].Kind).To(Equal(llm.DeltaError))
		Expect(deltas[0].Err).To(MatchError(llm.ErrStreamAborted))
		Expect(deltas[0].Err.Error()).To(ContainSubstring("anthropic"))
	})

	It("closes the channel when the context is cancelled", func() {
		newProvider(strings.Repeat(sseEvent("content_block_delta", textDelta("x")), 100))

		ctx, cancel := context.WithCancel(context.Background())
		ch := p.Stream(ctx, llm.StreamRequest{
			Model:    sonnet,
			Messages: []llm.ChatMessage{{Role: "user", Content: "hi"}},
		})
		cancel()

		Eventually(func() bool {
			select {
			case _, ok := <-ch:
				return !ok
			default:
				return false
			}
		}).Should(BeTrue())
	})
})
