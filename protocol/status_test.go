package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func reassemble(t require.TestingT, chunks []StatusChunk) (string, bool) {
	var r Reassembler
	for i, c := range chunks {
		text, done, err := r.Apply(c)
		require.NoError(t, err)
		if done {
			require.Equal(t, len(chunks)-1, i, "completed before the last chunk")
			return text, true
		}
	}
	return "", false
}

func TestChunkStatusScenario(t *testing.T) {
	text := "Connection lost: retry"
	chunks := ChunkStatus(text)

	require.Len(t, chunks, 3)
	require.Equal(t, uint8(0), chunks[0].Offset)
	require.Equal(t, uint8(10), chunks[1].Offset)
	require.Equal(t, uint8(20), chunks[2].Offset)
	require.Equal(t, byte(0), chunks[2].Part[len(text)-20])

	got, done := reassemble(t, chunks)
	require.True(t, done)
	require.Equal(t, text, got)
}

func TestChunkStatusTerminatorChunk(t *testing.T) {
	for _, n := range []int{0, 10, 20, 50, 90, 100} {
		text := strings.Repeat("x", n)
		chunks := ChunkStatus(text)

		require.Len(t, chunks, n/ChunkPartSize+1, "length %d", n)
		last := chunks[len(chunks)-1]
		require.Equal(t, uint8(n), last.Offset)
		require.Equal(t, [ChunkPartSize]byte{}, last.Part)
	}
}

func TestChunkStatusTruncates(t *testing.T) {
	text := strings.Repeat("abcdefghij", 12)
	chunks := ChunkStatus(text)
	require.Len(t, chunks, ChunkCount(MaxStatusLength))

	got, done := reassemble(t, chunks)
	require.True(t, done)
	require.Equal(t, text[:MaxStatusLength], got)
}

func TestChunkStatusStopsAtNUL(t *testing.T) {
	chunks := ChunkStatus("ok\x00hidden")
	require.Len(t, chunks, 1)

	got, done := reassemble(t, chunks)
	require.True(t, done)
	require.Equal(t, "ok", got)
}

func TestChunkerConsumedOnce(t *testing.T) {
	c := NewChunker("twelve chars")
	require.Equal(t, 2, c.Remaining())

	_, ok := c.Next()
	require.True(t, ok)
	require.Equal(t, 1, c.Remaining())
	_, ok = c.Next()
	require.True(t, ok)
	require.Equal(t, 0, c.Remaining())

	_, ok = c.Next()
	require.False(t, ok)
	_, ok = c.Next()
	require.False(t, ok)
}

func TestChunkRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.SliceOfN(rapid.ByteRange(1, 255), 0, MaxStatusLength).Draw(t, "text")
		text := string(raw)

		chunks := ChunkStatus(text)
		if want := (len(text) + 1 + ChunkPartSize - 1) / ChunkPartSize; len(chunks) != want {
			t.Fatalf("got %d chunks for length %d, want %d", len(chunks), len(text), want)
		}

		var r Reassembler
		for i, c := range chunks {
			got, done, err := r.Apply(c)
			if err != nil {
				t.Fatalf("apply: %v", err)
			}
			if done != (i == len(chunks)-1) {
				t.Fatalf("chunk %d/%d: done=%v", i, len(chunks), done)
			}
			if done && got != text {
				t.Fatalf("reassembled %q, want %q", got, text)
			}
		}
	})
}

func TestReassemblerOffsetZeroRestarts(t *testing.T) {
	var r Reassembler

	first := ChunkStatus("first message that is long")
	_, done, err := r.Apply(first[0])
	require.NoError(t, err)
	require.False(t, done)
	require.True(t, r.Pending())

	got, done := reassemble(t, ChunkStatus("second"))
	require.True(t, done)
	require.Equal(t, "second", got)

	// The same reassembler drops the incomplete first message
	for _, c := range ChunkStatus("third one here") {
		got, done, err = r.Apply(c)
		require.NoError(t, err)
	}
	require.True(t, done)
	require.Equal(t, "third one here", got)
	require.False(t, r.Pending())
}

func TestReassemblerIgnoresBytesAfterTerminator(t *testing.T) {
	var r Reassembler
	chunk := StatusChunk{Offset: 0, Part: [ChunkPartSize]byte{'h', 'i', 0, 'x', 'y'}}

	got, done, err := r.Apply(chunk)
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, "hi", got)
}

func TestReassemblerChunkAfterCompletionStartsNew(t *testing.T) {
	var r Reassembler

	_, done, err := r.Apply(StatusChunk{Offset: 0, Part: [ChunkPartSize]byte{'d', 'o', 'n', 'e'}})
	require.NoError(t, err)
	require.True(t, done)

	// Offset 10 cannot continue a finished message; its missing prefix reads as blanks
	got, done, err := r.Apply(StatusChunk{Offset: 10, Part: [ChunkPartSize]byte{'t', 'a', 'i', 'l'}})
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, strings.Repeat(" ", 10)+"tail", got)
}

func TestReassemblerOverflow(t *testing.T) {
	var r Reassembler

	_, _, err := r.Apply(StatusChunk{Offset: 0, Part: [ChunkPartSize]byte{'a', 'a', 'a', 'a', 'a', 'a', 'a', 'a', 'a', 'a'}})
	require.NoError(t, err)

	_, done, err := r.Apply(StatusChunk{Offset: MaxStatusLength + 1})
	require.ErrorIs(t, err, ErrChunkOverflow)
	require.False(t, done)
	require.False(t, r.Pending())
}

func TestReassemblerFullBufferWithoutTerminator(t *testing.T) {
	var r Reassembler
	full := [ChunkPartSize]byte{}
	for i := range full {
		full[i] = 'z'
	}

	var got string
	var done bool
	var err error
	for off := 0; off <= MaxStatusLength; off += ChunkPartSize {
		got, done, err = r.Apply(StatusChunk{Offset: uint8(off), Part: full})
		require.NoError(t, err)
		if done {
			break
		}
	}
	require.True(t, done)
	require.Equal(t, strings.Repeat("z", MaxStatusLength), got)
}
