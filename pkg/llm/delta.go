package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/papercomputeco/quill/pkg/models"
)

// ErrStreamAborted marks a turn that ended before the provider finished.
// Every error delta wraps it.
var ErrStreamAborted = errors.New("stream aborted")

// DeltaKind discriminates the normalized stream events.
type DeltaKind int

const (
	DeltaText DeltaKind = iota
	DeltaDone
	DeltaError
)

func (k DeltaKind) String() string {
	switch k {
	case DeltaText:
		return "text"
	case DeltaDone:
		return "done"
	case DeltaError:
		return "error"
	default:
		return fmt.Sprintf("DeltaKind(%d)", int(k))
	}
}

// Delta is one normalized event of a provider stream. A turn yields zero or
// more text deltas followed by exactly one done or error delta.
type Delta struct {
	Kind DeltaKind
	Text string
	Err  error
}

// TextDelta returns a text delta.
func TextDelta(text string) Delta {
	return Delta{Kind: DeltaText, Text: text}
}

// DoneDelta returns the successful terminal delta.
func DoneDelta() Delta {
	return Delta{Kind: DeltaDone}
}

// ErrorDelta returns the failed terminal delta. The error always wraps
// ErrStreamAborted, and cause when it is non-nil.
func ErrorDelta(cause error) Delta {
	if cause == nil || errors.Is(cause, ErrStreamAborted) {
		if cause == nil {
			cause = ErrStreamAborted
		}
		return Delta{Kind: DeltaError, Err: cause}
	}
	return Delta{Kind: DeltaError, Err: fmt.Errorf("%w: %w", ErrStreamAborted, cause)}
}

// Terminal reports whether d ends the stream.
func (d Delta) Terminal() bool {
	return d.Kind == DeltaDone || d.Kind == DeltaError
}

// StreamRequest is what the relay hands a provider for one turn.
type StreamRequest struct {
	Model        models.ModelConfig
	Messages     []ChatMessage
	SystemPrompt string
	MaxTokens    int
}

// Emit sends d on out unless ctx is cancelled first. It returns false when
// the consumer has gone away and the producer should stop.
func Emit(ctx context.Context, out chan<- Delta, d Delta) bool {
	select {
	case out <- d:
		return true
	case <-ctx.Done():
		return false
	}
}

// Collect drains ch and returns the concatenated text. The error is the
// error delta's, or ErrStreamAborted when the channel closed without a
// terminal delta.
func Collect(ch <-chan Delta) (string, error) {
	var sb strings.Builder
	for d := range ch {
		switch d.Kind {
		case DeltaText:
			sb.WriteString(d.Text)
		case DeltaDone:
			return sb.String(), nil
		case DeltaError:
			return sb.String(), d.Err
		}
	}
	return sb.String(), ErrStreamAborted
}
