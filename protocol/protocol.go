// Package protocol implements the drawlink serial packet protocol
package protocol

// Version represents the drawlink firmware version
const Version = "1.4.0"

// Opcode identifies the semantic type of a frame
type Opcode byte

// Opcodes as transmitted on the wire
const (
	OpLine   Opcode = 'L'
	OpStatus Opcode = 'M'
	OpClear  Opcode = 'C'
	OpAlive  Opcode = 'A'
)

// Protocol constants
const (
	// MaxStatusLength is the longest status text, not counting the terminator.
	// The status bar shows exactly 100 characters on one line.
	MaxStatusLength = 100

	ChunkPartSize = 10                // Status text bytes carried per chunk
	ChunkSize     = 1 + ChunkPartSize // offset + part

	LineSize = 4*2 + 1 // four int16 coordinates + color

	PayloadSize = ChunkSize // larger of LineSize and ChunkSize
	FrameSize   = 1 + PayloadSize
)

// Direction tells which node receives a frame
type Direction uint8

const (
	// ToDisplay frames flow from the network node to the display node
	ToDisplay Direction = iota
	// ToNetwork frames flow from the display node to the network node
	ToNetwork
)

func (d Direction) String() string {
	switch d {
	case ToDisplay:
		return "to-display"
	case ToNetwork:
		return "to-network"
	default:
		return "unknown"
	}
}

// Peer returns the opposite direction
func (d Direction) Peer() Direction {
	if d == ToDisplay {
		return ToNetwork
	}
	return ToDisplay
}

// Known reports whether op is one of the four defined opcodes
func (op Opcode) Known() bool {
	switch op {
	case OpLine, OpStatus, OpClear, OpAlive:
		return true
	}
	return false
}

// Allows reports whether packets with opcode op may travel in direction d.
// The display node only ever sends touch strokes and heartbeats.
func (d Direction) Allows(op Opcode) bool {
	switch d {
	case ToDisplay:
		return op.Known()
	case ToNetwork:
		return op == OpLine || op == OpAlive
	}
	return false
}

func (op Opcode) String() string {
	switch op {
	case OpLine:
		return "line"
	case OpStatus:
		return "status"
	case OpClear:
		return "clear"
	case OpAlive:
		return "alive"
	default:
		return "0x" + hexByte(byte(op))
	}
}

func hexByte(b byte) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[b>>4], digits[b&0x0F]})
}
