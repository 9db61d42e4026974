package protocol

// Line is one drawn segment. Color is an index into the display palette.
type Line struct {
	X0, Y0 int16
	X1, Y1 int16
	Color  uint8
}

// StatusChunk is one fragment of a status text
type StatusChunk struct {
	Offset uint8
	Part   [ChunkPartSize]byte
}

// Packet is the decoded form of one frame. The concrete type selects the
// opcode: LinePacket, StatusPacket, ClearPacket or AlivePacket.
type Packet interface {
	Opcode() Opcode
}

// LinePacket carries one line in either direction
type LinePacket struct {
	Line Line
}

// StatusPacket carries one status text chunk toward the display node
type StatusPacket struct {
	Chunk StatusChunk
}

// ClearPacket asks the display node to clear the drawing
type ClearPacket struct{}

// AlivePacket is the heartbeat
type AlivePacket struct{}

func (LinePacket) Opcode() Opcode   { return OpLine }
func (StatusPacket) Opcode() Opcode { return OpStatus }
func (ClearPacket) Opcode() Opcode  { return OpClear }
func (AlivePacket) Opcode() Opcode  { return OpAlive }
