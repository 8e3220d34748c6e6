package eventstream

import (
	"time"

	"github.com/papercomputeco/quill/pkg/llm"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnCompleted is emitted after a relayed turn is recorded.
	EventTypeTurnCompleted = "quill.turn.completed"
)

// TurnCompletedEvent is a transport-neutral event payload for a recorded turn.
type TurnCompletedEvent struct {
	SchemaVersion int             `json:"schema_version"`
	EventType     string          `json:"event_type"`
	EventID       string          `json:"event_id"`
	EmittedAt     time.Time       `json:"emitted_at"`
	Source        EventSource     `json:"source"`
	RequestMeta   TurnRequestMeta `json:"request_meta"`
	Turn          TurnPayload     `json:"turn"`
}

// EventSource identifies where the turn originated.
type EventSource struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// TurnRequestMeta captures request lifecycle metadata for the event.
type TurnRequestMeta struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
}

// TurnPayload is the conversation exchange carried by the event.
type TurnPayload struct {
	ID       string            `json:"id"`
	Messages []llm.ChatMessage `json:"messages"`
	Response string            `json:"response"`
}
