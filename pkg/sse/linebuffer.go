package sse

import "strings"

// LineBuffer splits a byte stream into lines without losing a line that
// straddles two reads. The trailing fragment of each chunk is held back
// until the newline that completes it arrives.
type LineBuffer struct {
	pending strings.Builder
}

// Feed appends chunk and returns every line it completed, without the
// terminating "\n" (a preceding "\r" is dropped too).
func (b *LineBuffer) Feed(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}
	b.pending.Write(chunk)

	buf := b.pending.String()
	last := strings.LastIndexByte(buf, '\n')
	if last < 0 {
		return nil
	}

	complete, rest := buf[:last], buf[last+1:]
	b.pending.Reset()
	b.pending.WriteString(rest)

	lines := strings.Split(complete, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Flush returns whatever partial line is still buffered and empties the
// buffer. ok is false when nothing was pending.
func (b *LineBuffer) Flush() (line string, ok bool) {
	if b.pending.Len() == 0 {
		return "", false
	}
	line = strings.TrimSuffix(b.pending.String(), "\r")
	b.pending.Reset()
	return line, true
}
