// Package chatclient consumes the relay's chat stream and keeps the
// client-side conversation in sync with it.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/quill/pkg/llm"
	"github.com/papercomputeco/quill/pkg/sse"
)

// ApologyMessage replaces the assistant placeholder when a send fails
// before the stream could be read.
const ApologyMessage = "Sorry, I encountered an error. Please try again."

var (
	// ErrSendInFlight is returned by Send while another send is outstanding.
	ErrSendInFlight = errors.New("a message is already being sent")

	// ErrIncompleteStream is returned when the stream ends without the
	// done marker. Content received up to that point is kept.
	ErrIncompleteStream = errors.New("stream ended before completion")
)

// State is the stream consumer's position in a send.
type State int

const (
	StateIdle State = iota
	StateReading
	StateAccumulating
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReading:
		return "reading"
	case StateAccumulating:
		return "accumulating"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config configures a Conversation.
type Config struct {
	// Target is the relay base URL, e.g. "http://localhost:8080".
	Target string

	// Model is sent with every turn. Empty lets the relay pick its default.
	Model string

	HTTPClient *http.Client

	// OnUpdate is called with the assistant message id and its full content
	// each time a text frame is applied.
	OnUpdate func(messageID, content string)
}

// Conversation is an ordered chat history bound to one relay.
type Conversation struct {
	config Config
	client *http.Client

	mu       sync.Mutex
	messages []llm.ChatMessage
	context  string
	loading  bool
	state    State
}

// New creates an empty conversation.
func New(config Config) *Conversation {
	client := config.HTTPClient
	if client == nil {
		// No overall timeout: a turn streams for as long as the model talks.
		client = &http.Client{}
	}
	return &Conversation{
		config: config,
		client: client,
		state:  StateIdle,
	}
}

// SetMessages replaces the history, for example when resuming a session.
func (c *Conversation) SetMessages(msgs []llm.ChatMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append([]llm.ChatMessage(nil), msgs...)
}

// SetContext sets the workspace context text sent with subsequent turns.
func (c *Conversation) SetContext(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.context = text
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []llm.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]llm.ChatMessage(nil), c.messages...)
}

// Loading reports whether a send is in flight.
func (c *Conversation) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// State returns the state of the current or most recent send.
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

type chatRequest struct {
	Messages []llm.ChatMessage `json:"messages"`
	Model    string            `json:"model,omitempty"`
	Context  string            `json:"context,omitempty"`
}

// Send appends content as a user message, streams the assistant reply into
// a placeholder message and returns that message once the stream ends.
//
// A transport failure (network error, non-2xx status, missing body) replaces
// the placeholder with ApologyMessage and returns the cause. A stream that
// ends without the done marker, or whose body breaks off after a 2xx, keeps
// what arrived and returns an error wrapping ErrIncompleteStream.
func (c *Conversation) Send(ctx context.Context, content string) (llm.ChatMessage, error) {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return llm.ChatMessage{}, ErrSendInFlight
	}
	c.loading = true
	c.state = StateReading

	now := time.Now()
	c.messages = append(c.messages, llm.ChatMessage{
		ID:        uuid.NewString(),
		Role:      llm.RoleUser,
		Content:   content,
		CreatedAt: now,
	})
	body := chatRequest{
		Messages: append([]llm.ChatMessage(nil), c.messages...),
		Model:    c.config.Model,
		Context:  c.context,
	}
	placeholder := llm.ChatMessage{
		ID:        uuid.NewString(),
		Role:      llm.RoleAssistant,
		CreatedAt: now,
	}
	c.messages = append(c.messages, placeholder)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	err := c.stream(ctx, placeholder.ID, body)
	if err != nil && !errors.Is(err, ErrIncompleteStream) {
		c.setContent(placeholder.ID, ApologyMessage)
	}

	c.mu.Lock()
	if err != nil {
		c.state = StateFailed
	} else {
		c.state = StateDone
	}
	msg, _ := c.find(placeholder.ID)
	c.mu.Unlock()

	return msg, err
}

func (c *Conversation) stream(ctx context.Context, messageID string, body chatRequest) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.config.Target, "/")+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e llm.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error != "" {
			return fmt.Errorf("relay returned %d: %s", resp.StatusCode, e.Error)
		}
		return fmt.Errorf("relay returned %d", resp.StatusCode)
	}
	if resp.Body == http.NoBody {
		return errors.New("relay returned no body")
	}

	reader := sse.NewReader(resp.Body)
	for {
		ev, err := reader.Next()
		if err != nil {
			// The relay ends a failed stream by cutting the body, so a read
			// error after a 2xx is a stream that stopped short.
			return fmt.Errorf("%w: reading chat stream: %w", ErrIncompleteStream, err)
		}
		if ev == nil {
			return ErrIncompleteStream
		}

		c.setState(StateAccumulating)
		// A well-formed event carries one frame, but several data lines that
		// were not separated by a blank line arrive joined with "\n".
		for line := range strings.SplitSeq(ev.Data, "\n") {
			if line == sse.DoneMarker {
				return nil
			}

			var frame sse.Frame
			if err := json.Unmarshal([]byte(line), &frame); err != nil {
				continue
			}
			if frame.Type != sse.FrameTypeText {
				continue
			}
			c.appendContent(messageID, frame.Content)
		}
		c.setState(StateReading)
	}
}

func (c *Conversation) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Conversation) appendContent(id, text string) {
	c.mu.Lock()
	i := c.index(id)
	if i < 0 {
		c.mu.Unlock()
		return
	}
	c.messages[i].Content += text
	content := c.messages[i].Content
	c.mu.Unlock()

	if c.config.OnUpdate != nil {
		c.config.OnUpdate(id, content)
	}
}

func (c *Conversation) setContent(id, text string) {
	c.mu.Lock()
	if i := c.index(id); i >= 0 {
		c.messages[i].Content = text
	}
	c.mu.Unlock()
}

func (c *Conversation) find(id string) (llm.ChatMessage, bool) {
	if i := c.index(id); i >= 0 {
		return c.messages[i], true
	}
	return llm.ChatMessage{}, false
}

// index must be called with mu held.
func (c *Conversation) index(id string) int {
	for i := range c.messages {
		if c.messages[i].ID == id {
			return i
		}
	}
	return -1
}
