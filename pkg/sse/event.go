// Package sse implements the small slice of Server-Sent Events that quill
// speaks: the relay writes one JSON frame per "data:" line and the chat client
// reads them back, tolerating lines that arrive split across network reads.
//
// Event stream format:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// DoneMarker is the data payload that terminates a successful stream.
const DoneMarker = "[DONE]"

// FrameTypeText is the only frame type emitted by the relay.
const FrameTypeText = "text"

// Frame is the JSON payload carried by each relay "data:" line.
type Frame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Event represents a single parsed SSE event, delimited by a blank line
// in the byte stream.
type Event struct {
	// Type is the SSE event type from the "event:" field.
	// An empty string means the default "message" type.
	Type string

	// Data is the concatenated contents of all "data:" lines for this event,
	// joined with "\n".
	Data string

	// ID is the last event ID from the "id:" field, if present.
	ID string
}

// IsDone reports whether the event is the end-of-stream marker.
func (e *Event) IsDone() bool {
	return e != nil && e.Data == DoneMarker
}
