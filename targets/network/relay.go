//go:build rp2040 || rp2350

package main

import (
	"github.com/rs/zerolog"

	"drawlink/core"
	"drawlink/protocol"
)

const maxWriteFailures = 10

// hostRelay decodes frames the PC sends over USB and replays them through
// the network node. It is also the node's LineSink: touch strokes go
// back to the PC.
type hostRelay struct {
	usb       core.ByteChannel
	node      *core.NetworkNode
	rx        *protocol.FifoBuffer
	out       *protocol.ScratchOutput
	transport *protocol.Transport
	status    protocol.Reassembler
	log       zerolog.Logger

	readBuf                  [64]byte
	consecutiveWriteFailures uint32
}

func newHostRelay(usb core.ByteChannel, log zerolog.Logger) *hostRelay {
	r := &hostRelay{
		usb: usb,
		rx:  protocol.NewFifoBuffer(256),
		out: protocol.NewScratchOutput(),
		log: log,
	}
	// The PC speaks as if it were the network node talking to the display
	r.transport = protocol.NewTransport(protocol.ToDisplay, r.out, r.handle)
	r.transport.SetFlushCallback(r.flush)
	r.transport.SetErrorCallback(func(err error) {
		r.log.Warn().Err(err).Msg("usb frame")
	})
	return r
}

func (r *hostRelay) poll() {
	for r.usb.Buffered() > 0 && r.rx.Free() > 0 {
		buf := r.readBuf[:]
		if free := r.rx.Free(); free < len(buf) {
			buf = buf[:free]
		}
		n, err := r.usb.Read(buf)
		if n > 0 {
			r.rx.Write(buf[:n])
		}
		if err != nil || n == 0 {
			break
		}
	}
	if r.rx.Available() > 0 {
		r.transport.Receive(r.rx)
	}
}

func (r *hostRelay) handle(p protocol.Packet) error {
	switch p := p.(type) {
	case protocol.LinePacket:
		return r.node.SendLine(p.Line)
	case protocol.ClearPacket:
		return r.node.SendClear()
	case protocol.StatusPacket:
		text, done, err := r.status.Apply(p.Chunk)
		if err != nil || !done {
			return err
		}
		return r.node.SendStatus(text)
	}
	// The node sends its own heartbeats
	return nil
}

// HandleLine reports a touch stroke to the PC
func (r *hostRelay) HandleLine(l protocol.Line) error {
	return r.transport.Send(protocol.LinePacket{Line: l})
}

// flush writes pending frames to USB, handling partial writes
func (r *hostRelay) flush() {
	result := r.out.Result()
	if len(result) == 0 {
		return
	}

	n, err := r.usb.Write(result)
	if n > 0 {
		r.out.Consume(n)
	}
	if err == nil && n == len(result) {
		r.consecutiveWriteFailures = 0
		return
	}

	// No PC attached; after several failures clear stale data
	r.consecutiveWriteFailures++
	if r.consecutiveWriteFailures > maxWriteFailures {
		r.out.Reset()
		r.consecutiveWriteFailures = 0
	}
}

func (r *hostRelay) reset() {
	r.rx.Reset()
	r.out.Reset()
	r.transport.Reset()
	r.status.Reset()
	r.consecutiveWriteFailures = 0
}
