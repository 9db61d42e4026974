package protocol

import (
	"encoding/binary"
	"fmt"
)

// Frame is one fixed-width wire frame
type Frame [FrameSize]byte

// Encode converts a packet into its wire frame.
// The payload region is always FrameSize-1 bytes; unused bytes are zero.
func Encode(p Packet) (Frame, error) {
	var f Frame
	if p == nil {
		return f, ErrNilPacket
	}

	payload := f[1:]

	switch pkt := p.(type) {
	case LinePacket:
		putLine(payload, pkt.Line)
	case *LinePacket:
		if pkt == nil {
			return Frame{}, ErrNilPacket
		}
		putLine(payload, pkt.Line)
	case StatusPacket:
		putChunk(payload, pkt.Chunk)
	case *StatusPacket:
		if pkt == nil {
			return Frame{}, ErrNilPacket
		}
		putChunk(payload, pkt.Chunk)
	case ClearPacket, *ClearPacket, AlivePacket, *AlivePacket:
		// No payload
	default:
		return Frame{}, fmt.Errorf("%w: %T", ErrUnknownOpcode, p)
	}
	// Typed nil pointers are rejected above, so Opcode cannot panic here
	f[0] = byte(p.Opcode())

	return f, nil
}

// AppendFrame encodes p and appends the frame to buf
func AppendFrame(buf []byte, p Packet) ([]byte, error) {
	f, err := Encode(p)
	if err != nil {
		return buf, err
	}
	return append(buf, f[:]...), nil
}

// Decode interprets exactly one frame from the front of data.
// It never consumes anything itself: callers pop FrameSize bytes after a
// successful decode (or after a direction error) and retry later on
// ErrIncomplete.
func Decode(data []byte, dir Direction) (Packet, error) {
	if len(data) < FrameSize {
		return nil, ErrIncomplete
	}

	op := Opcode(data[0])
	if !op.Known() {
		return nil, &UnknownOpcodeError{Opcode: data[0]}
	}
	if !dir.Allows(op) {
		return nil, &DirectionError{Opcode: op, Direction: dir}
	}

	payload := data[1:FrameSize]
	switch op {
	case OpLine:
		return LinePacket{Line: getLine(payload)}, nil
	case OpStatus:
		return StatusPacket{Chunk: getChunk(payload)}, nil
	case OpClear:
		return ClearPacket{}, nil
	default:
		return AlivePacket{}, nil
	}
}

func putLine(b []byte, l Line) {
	binary.LittleEndian.PutUint16(b[0:], uint16(l.X0))
	binary.LittleEndian.PutUint16(b[2:], uint16(l.Y0))
	binary.LittleEndian.PutUint16(b[4:], uint16(l.X1))
	binary.LittleEndian.PutUint16(b[6:], uint16(l.Y1))
	b[8] = l.Color
}

func getLine(b []byte) Line {
	return Line{
		X0:    int16(binary.LittleEndian.Uint16(b[0:])),
		Y0:    int16(binary.LittleEndian.Uint16(b[2:])),
		X1:    int16(binary.LittleEndian.Uint16(b[4:])),
		Y1:    int16(binary.LittleEndian.Uint16(b[6:])),
		Color: b[8],
	}
}

func putChunk(b []byte, c StatusChunk) {
	b[0] = c.Offset
	copy(b[1:ChunkSize], c.Part[:])
}

func getChunk(b []byte) StatusChunk {
	var c StatusChunk
	c.Offset = b[0]
	copy(c.Part[:], b[1:ChunkSize])
	return c
}
