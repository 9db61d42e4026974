package core

import (
	"fmt"

	"drawlink/protocol"
)

// Event is the result of dispatching one packet
type Event interface {
	Opcode() protocol.Opcode
}

// LineEvent carries a line to render. Coordinates and color are passed
// through unchecked; the renderer owns bounds and palette validation.
type LineEvent struct {
	Line protocol.Line
}

// ClearEvent asks for the drawing to be cleared
type ClearEvent struct{}

// StatusChunkEvent carries one status text fragment
type StatusChunkEvent struct {
	Chunk protocol.StatusChunk
}

// AliveEvent reports a heartbeat from the peer
type AliveEvent struct{}

func (LineEvent) Opcode() protocol.Opcode        { return protocol.OpLine }
func (ClearEvent) Opcode() protocol.Opcode       { return protocol.OpClear }
func (StatusChunkEvent) Opcode() protocol.Opcode { return protocol.OpStatus }
func (AliveEvent) Opcode() protocol.Opcode       { return protocol.OpAlive }

// AliveRecorder is told about every heartbeat
type AliveRecorder interface {
	AliveReceived()
}

// Dispatcher maps decoded packets to events
type Dispatcher struct {
	liveness AliveRecorder
	counts   [4]uint32
}

// NewDispatcher creates a Dispatcher. liveness may be nil on nodes that
// do not supervise their peer.
func NewDispatcher(liveness AliveRecorder) *Dispatcher {
	return &Dispatcher{liveness: liveness}
}

// Dispatch maps p to its event. Alive packets also update the liveness
// recorder. A packet of an unknown kind yields protocol.ErrUnknownOpcode.
func (d *Dispatcher) Dispatch(p protocol.Packet) (Event, error) {
	switch pkt := p.(type) {
	case protocol.LinePacket:
		d.counts[0]++
		return LineEvent{Line: pkt.Line}, nil
	case protocol.ClearPacket:
		d.counts[1]++
		return ClearEvent{}, nil
	case protocol.StatusPacket:
		d.counts[2]++
		return StatusChunkEvent{Chunk: pkt.Chunk}, nil
	case protocol.AlivePacket:
		d.counts[3]++
		if d.liveness != nil {
			d.liveness.AliveReceived()
		}
		return AliveEvent{}, nil
	case nil:
		return nil, protocol.ErrUnknownOpcode
	default:
		return nil, fmt.Errorf("%w: %T", protocol.ErrUnknownOpcode, p)
	}
}

// Count returns how many packets with opcode op were dispatched
func (d *Dispatcher) Count(op protocol.Opcode) uint32 {
	switch op {
	case protocol.OpLine:
		return d.counts[0]
	case protocol.OpClear:
		return d.counts[1]
	case protocol.OpStatus:
		return d.counts[2]
	case protocol.OpAlive:
		return d.counts[3]
	}
	return 0
}
