package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

type flusher interface {
	Flush() error
}

// Writer emits relay frames. When the underlying writer buffers (a
// *bufio.Writer from fasthttp's body stream, for instance) every frame is
// flushed so the client sees each delta as soon as it is produced.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteText writes a single text frame.
func (s *Writer) WriteText(content string) error {
	var payload bytes.Buffer
	enc := json.NewEncoder(&payload)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(Frame{Type: FrameTypeText, Content: content}); err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}
	// Encode terminates with a newline that the frame supplies itself.
	return s.writeData(bytes.TrimSuffix(payload.Bytes(), []byte("\n")))
}

// WriteDone writes the end-of-stream marker.
func (s *Writer) WriteDone() error {
	return s.writeData([]byte(DoneMarker))
}

func (s *Writer) writeData(payload []byte) error {
	buf := make([]byte, 0, len(payload)+8)
	buf = append(buf, "data: "...)
	buf = append(buf, payload...)
	buf = append(buf, '\n', '\n')

	if _, err := s.w.Write(buf); err != nil {
		return err
	}
	if f, ok := s.w.(flusher); ok {
		return f.Flush()
	}
	return nil
}
