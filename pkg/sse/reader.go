package sse

import (
	"errors"
	"io"
	"strings"
)

const readChunkSize = 4096

// Reader parses SSE events from an io.Reader. Bytes are consumed in raw
// chunks through a LineBuffer, so an event whose line is split across two
// reads still parses as one line.
type Reader struct {
	src   io.Reader
	buf   []byte
	lines LineBuffer
	queue []string
	eof   bool
	err   error

	// current accumulates fields for the event being built.
	current *Event
	hasData bool
}

// NewReader returns a Reader over src.
func NewReader(src io.Reader) *Reader {
	return &Reader{
		src:     src,
		buf:     make([]byte, readChunkSize),
		current: &Event{},
	}
}

// Next blocks until a complete event is available (terminated by a blank
// line). It returns nil, nil once the source is exhausted. A source error
// other than io.EOF is returned as is once the events completed before it
// have been delivered, and any half-built event is dropped.
func (r *Reader) Next() (*Event, error) {
	for {
		for len(r.queue) > 0 {
			raw := r.queue[0]
			r.queue = r.queue[1:]

			if raw == "" {
				if r.hasData {
					ev := r.current
					r.reset()
					return ev, nil
				}
				// Keep-alive newlines.
				continue
			}

			if strings.HasPrefix(raw, ":") {
				continue
			}

			r.parseLine(raw)
		}

		if r.err != nil {
			return nil, r.err
		}

		if r.eof {
			// A stream may end without the trailing blank line.
			if r.hasData {
				ev := r.current
				r.reset()
				return ev, nil
			}
			return nil, nil
		}

		r.fill()
	}
}

// fill reads one chunk. Lines completed by the chunk are queued even when
// the read also failed; the failure is kept until the queue drains.
func (r *Reader) fill() {
	n, err := r.src.Read(r.buf)
	if n > 0 {
		r.queue = append(r.queue, r.lines.Feed(r.buf[:n])...)
	}

	switch {
	case errors.Is(err, io.EOF):
		r.eof = true
		if tail, ok := r.lines.Flush(); ok {
			r.queue = append(r.queue, tail)
		}
	case err != nil:
		r.err = err
	}
}

// parseLine accumulates one "field:value" line into the current event.
// The first space after the colon is optional and stripped if present.
func (r *Reader) parseLine(line string) {
	var field, value string

	if before, after, ok := strings.Cut(line, ":"); ok {
		field = before
		value = strings.TrimPrefix(after, " ")
	} else {
		field = line
	}

	switch field {
	case "data":
		if r.hasData && r.current.Data != "" {
			r.current.Data += "\n"
		}
		r.current.Data += value
		r.hasData = true
	case "event":
		r.current.Type = value
		r.hasData = true
	case "id":
		r.current.ID = value
		r.hasData = true
	default:
		// "retry" and unknown fields are ignored.
	}
}

func (r *Reader) reset() {
	r.current = &Event{}
	r.hasData = false
}
