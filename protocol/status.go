package protocol

import "strings"

// TruncateStatus cuts text at its first NUL byte and to MaxStatusLength bytes
func TruncateStatus(text string) string {
	if i := strings.IndexByte(text, 0); i >= 0 {
		text = text[:i]
	}
	if len(text) > MaxStatusLength {
		return text[:MaxStatusLength]
	}
	return text
}

// ChunkCount returns how many chunks a text of length n needs.
// The terminator always travels too, so a text whose length is a
// multiple of ChunkPartSize gets an extra terminator-only chunk.
func ChunkCount(n int) int {
	if n > MaxStatusLength {
		n = MaxStatusLength
	}
	return (n + 1 + ChunkPartSize - 1) / ChunkPartSize
}

// Chunker splits one status text into chunks, in offset order.
// It is consumed once; there is no way to rewind it.
type Chunker struct {
	text   string
	offset int
	done   bool
}

// NewChunker creates a Chunker for text, truncated to MaxStatusLength
func NewChunker(text string) *Chunker {
	return &Chunker{text: TruncateStatus(text)}
}

// Next returns the next chunk, or false once the terminator has been emitted
func (c *Chunker) Next() (StatusChunk, bool) {
	if c.done {
		return StatusChunk{}, false
	}

	chunk := StatusChunk{Offset: uint8(c.offset)}
	n := 0
	if c.offset < len(c.text) {
		n = copy(chunk.Part[:], c.text[c.offset:])
	}
	// Part is zero filled, so a short copy leaves the terminator in place
	if n < ChunkPartSize {
		c.done = true
	}
	c.offset += ChunkPartSize
	return chunk, true
}

// Remaining returns the number of chunks Next will still produce
func (c *Chunker) Remaining() int {
	if c.done {
		return 0
	}
	return ChunkCount(len(c.text)) - c.offset/ChunkPartSize
}

// ChunkStatus returns all chunks of text
func ChunkStatus(text string) []StatusChunk {
	c := NewChunker(text)
	chunks := make([]StatusChunk, 0, c.Remaining())
	for {
		chunk, ok := c.Next()
		if !ok {
			return chunks
		}
		chunks = append(chunks, chunk)
	}
}

// Reassembler rebuilds status texts from chunks on the receiving node.
// Only one message is in flight at a time.
type Reassembler struct {
	buf      [MaxStatusLength + 1]byte
	inFlight bool
}

// Apply writes chunk into the message buffer. It returns the text and
// true the moment the terminator is written.
//
// A chunk at offset 0, or any chunk following a completed message,
// starts a new message and drops whatever was incomplete.
func (r *Reassembler) Apply(chunk StatusChunk) (string, bool, error) {
	if chunk.Offset == 0 || !r.inFlight {
		r.Reset()
		r.inFlight = true
	}

	off := int(chunk.Offset)
	if off > MaxStatusLength {
		r.Reset()
		return "", false, &ChunkOverflowError{Offset: chunk.Offset}
	}

	for i, b := range chunk.Part {
		pos := off + i
		if b == 0 {
			return r.finish(pos), true, nil
		}
		if pos >= MaxStatusLength {
			// The buffer only has room for the terminator here
			return r.finish(MaxStatusLength), true, nil
		}
		r.buf[pos] = b
	}

	return "", false, nil
}

// Pending reports whether a message is partially received
func (r *Reassembler) Pending() bool {
	return r.inFlight
}

// Reset drops any partial message
func (r *Reassembler) Reset() {
	r.buf = [MaxStatusLength + 1]byte{}
	r.inFlight = false
}

func (r *Reassembler) finish(end int) string {
	// Positions skipped by a message that started mid-way read as blanks
	for i := 0; i < end; i++ {
		if r.buf[i] == 0 {
			r.buf[i] = ' '
		}
	}
	text := string(r.buf[:end])
	r.Reset()
	return text
}
