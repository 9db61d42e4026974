package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEncodeLayout(t *testing.T) {
	testCases := []struct {
		name   string
		packet Packet
		expect Frame
	}{
		{
			"line",
			LinePacket{Line: Line{X0: 1, Y0: -1, X1: 0x1234, Y1: 300, Color: 7}},
			Frame{'L', 0x01, 0x00, 0xff, 0xff, 0x34, 0x12, 0x2c, 0x01, 7, 0, 0},
		},
		{
			"status",
			StatusPacket{Chunk: StatusChunk{Offset: 20, Part: [ChunkPartSize]byte{'o', 'k'}}},
			Frame{'M', 20, 'o', 'k', 0, 0, 0, 0, 0, 0, 0, 0},
		},
		{"clear", ClearPacket{}, Frame{'C'}},
		{"alive", AlivePacket{}, Frame{'A'}},
		{"pointer", &AlivePacket{}, Frame{'A'}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Encode(tc.packet)
			require.NoError(t, err)
			require.Equal(t, tc.expect, f)
			require.Len(t, f, FrameSize)
		})
	}
}

func TestEncodeNil(t *testing.T) {
	_, err := Encode(nil)
	require.ErrorIs(t, err, ErrNilPacket)
}

func TestEncodeNilPointerVariants(t *testing.T) {
	for _, p := range []Packet{(*LinePacket)(nil), (*StatusPacket)(nil)} {
		require.NotPanics(t, func() {
			_, err := Encode(p)
			require.ErrorIs(t, err, ErrNilPacket)
		})
	}

	f, err := Encode(&LinePacket{Line: Line{X0: 1}})
	require.NoError(t, err)
	require.Equal(t, byte(OpLine), f[0])
}

func TestDecodeLineScenario(t *testing.T) {
	f, err := Encode(LinePacket{Line: Line{X0: 0, Y0: 0, X1: 10, Y1: 10, Color: 2}})
	require.NoError(t, err)

	p, err := Decode(f[:], ToDisplay)
	require.NoError(t, err)
	require.Equal(t, LinePacket{Line: Line{X0: 0, Y0: 0, X1: 10, Y1: 10, Color: 2}}, p)
}

func TestDecodeIncomplete(t *testing.T) {
	f, err := Encode(ClearPacket{})
	require.NoError(t, err)

	for n := 0; n < FrameSize; n++ {
		_, err := Decode(f[:n], ToDisplay)
		require.ErrorIs(t, err, ErrIncomplete, "length %d", n)
	}
}

func TestDecodeUnknownOpcode(t *testing.T) {
	for b := 0; b < 256; b++ {
		if Opcode(b).Known() {
			continue
		}
		frame := make([]byte, FrameSize)
		frame[0] = byte(b)

		_, err := Decode(frame, ToDisplay)
		require.ErrorIs(t, err, ErrUnknownOpcode)

		var unknown *UnknownOpcodeError
		require.True(t, errors.As(err, &unknown))
		require.Equal(t, byte(b), unknown.Opcode)
	}
}

func TestDecodeDirection(t *testing.T) {
	testCases := []struct {
		op      Opcode
		dir     Direction
		allowed bool
	}{
		{OpLine, ToDisplay, true},
		{OpStatus, ToDisplay, true},
		{OpClear, ToDisplay, true},
		{OpAlive, ToDisplay, true},
		{OpLine, ToNetwork, true},
		{OpAlive, ToNetwork, true},
		{OpStatus, ToNetwork, false},
		{OpClear, ToNetwork, false},
	}

	for _, tc := range testCases {
		t.Run(tc.op.String()+"/"+tc.dir.String(), func(t *testing.T) {
			frame := make([]byte, FrameSize)
			frame[0] = byte(tc.op)
			_, err := Decode(frame, tc.dir)
			if tc.allowed {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrWrongDirection)
			}
		})
	}
}

func TestDecodeIgnoresTrailingBytes(t *testing.T) {
	buf, err := AppendFrame(nil, AlivePacket{})
	require.NoError(t, err)
	buf, err = AppendFrame(buf, ClearPacket{})
	require.NoError(t, err)
	require.Len(t, buf, 2*FrameSize)

	p, err := Decode(buf, ToDisplay)
	require.NoError(t, err)
	require.Equal(t, AlivePacket{}, p)
}

func TestLineRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		line := Line{
			X0:    rapid.Int16().Draw(t, "x0"),
			Y0:    rapid.Int16().Draw(t, "y0"),
			X1:    rapid.Int16().Draw(t, "x1"),
			Y1:    rapid.Int16().Draw(t, "y1"),
			Color: rapid.Uint8().Draw(t, "color"),
		}
		dir := Direction(rapid.IntRange(0, 1).Draw(t, "dir"))

		f, err := Encode(LinePacket{Line: line})
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		p, err := Decode(f[:], dir)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got := p.(LinePacket).Line; got != line {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, line)
		}
	})
}

func TestStatusChunkRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var chunk StatusChunk
		chunk.Offset = rapid.Uint8().Draw(t, "offset")
		part := rapid.SliceOfN(rapid.Byte(), ChunkPartSize, ChunkPartSize).Draw(t, "part")
		copy(chunk.Part[:], part)

		f, err := Encode(StatusPacket{Chunk: chunk})
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		p, err := Decode(f[:], ToDisplay)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got := p.(StatusPacket).Chunk; got != chunk {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, chunk)
		}
	})
}
