package protocol

import "errors"

// PacketHandler is a function type for handling decoded packets
type PacketHandler func(p Packet) error

// ErrorHandler receives frame errors the transport recovered from
type ErrorHandler func(err error)

// Stats counts transport activity since boot or the last Reset
type Stats struct {
	FramesReceived  uint32
	FramesSent      uint32
	DroppedBytes    uint32 // bytes skipped while resynchronizing
	UnknownOpcodes  uint32 // desync episodes started by an unknown opcode
	DirectionErrors uint32
	HandlerErrors   uint32
	OutputOverflows uint32
}

// Transport handles fixed-width frames on one node. It decodes frames
// addressed to this node (direction rx) and encodes frames for the peer.
//
// There is no sync byte or checksum on the wire. When an unknown opcode
// shows up the transport drops bytes one at a time until the head of the
// input is an opcode valid for rx, then treats that byte as a frame start.
type Transport struct {
	rx             Direction
	isSynchronized bool
	output         OutputBuffer
	handler        PacketHandler
	errorCallback  ErrorHandler
	flushCallback  func()
	stats          Stats
}

// NewTransport creates a new Transport instance for frames arriving in direction rx
func NewTransport(rx Direction, output OutputBuffer, handler PacketHandler) *Transport {
	return &Transport{
		rx:             rx,
		isSynchronized: true, // Start synchronized
		output:         output,
		handler:        handler,
	}
}

// Receive decodes every complete frame in input. Incomplete trailing
// bytes stay in input for the next poll.
func (t *Transport) Receive(input InputBuffer) {
	data := input.Data()

	for len(data) > 0 {
		if !t.isSynchronized {
			if !t.rx.Allows(Opcode(data[0])) {
				data = data[1:]
				t.stats.DroppedBytes++
				continue
			}
			t.isSynchronized = true
		}

		if !Opcode(data[0]).Known() {
			// The frame boundary is lost; scan byte by byte
			t.isSynchronized = false
			t.stats.UnknownOpcodes++
			t.stats.DroppedBytes++
			t.reportError(&UnknownOpcodeError{Opcode: data[0]})
			data = data[1:]
			continue
		}

		p, err := Decode(data, t.rx)
		if errors.Is(err, ErrIncomplete) {
			break
		}
		if err != nil {
			t.stats.DirectionErrors++
			data = data[FrameSize:]
			t.reportError(err)
			continue
		}

		data = data[FrameSize:]
		t.stats.FramesReceived++
		t.handle(p)
	}

	// Remove consumed bytes from input
	consumed := input.Available() - len(data)
	if consumed > 0 {
		input.Pop(consumed)
	}
}

// handle runs the packet handler; a panic is reported as a handler error
func (t *Transport) handle(p Packet) {
	defer func() {
		if r := recover(); r != nil {
			t.stats.HandlerErrors++
			t.reportError(errHandlerPanic)
		}
	}()

	if t.handler == nil {
		return
	}
	if err := t.handler(p); err != nil {
		t.stats.HandlerErrors++
		t.reportError(err)
	}
}

var errHandlerPanic = errors.New("packet handler panicked")

// Send encodes p into the output buffer. Only opcodes the peer accepts
// may be sent.
func (t *Transport) Send(p Packet) error {
	if p == nil {
		return ErrNilPacket
	}
	tx := t.rx.Peer()
	if !tx.Allows(p.Opcode()) {
		return &DirectionError{Opcode: p.Opcode(), Direction: tx}
	}

	f, err := Encode(p)
	if err != nil {
		return err
	}
	if t.output.Free() < FrameSize {
		// Flush first so the frame is never split across writes
		t.flush()
		if t.output.Free() < FrameSize {
			t.stats.OutputOverflows++
			return ErrOutputFull
		}
	}
	t.output.Output(f[:])
	t.stats.FramesSent++
	return nil
}

// ErrOutputFull means the peer is not draining frames fast enough
var ErrOutputFull = errors.New("output buffer full")

// Flush pushes buffered frames to the channel via the flush callback
func (t *Transport) Flush() {
	t.flush()
}

func (t *Transport) flush() {
	if t.flushCallback != nil {
		t.flushCallback()
	}
}

// Synchronized reports whether the transport trusts its frame boundaries
func (t *Transport) Synchronized() bool {
	return t.isSynchronized
}

// Stats returns a copy of the counters
func (t *Transport) Stats() Stats {
	return t.stats
}

// Reset resets the transport state and counters
func (t *Transport) Reset() {
	t.Resync()
	t.stats = Stats{}
}

// Resync trusts the next byte as a frame start again, keeping the
// counters. Used when the peer was rebooted mid-stream.
func (t *Transport) Resync() {
	t.isSynchronized = true
}

// SetErrorCallback sets a callback for recovered frame errors
func (t *Transport) SetErrorCallback(callback ErrorHandler) {
	t.errorCallback = callback
}

// SetFlushCallback sets a callback that writes buffered output to the channel
func (t *Transport) SetFlushCallback(callback func()) {
	t.flushCallback = callback
}

func (t *Transport) reportError(err error) {
	if t.errorCallback != nil {
		t.errorCallback(err)
	}
}
