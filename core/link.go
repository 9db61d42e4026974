package core

import (
	"github.com/rs/zerolog"

	"drawlink/protocol"
)

const (
	// RxBufferSize holds a few frames between loop iterations
	RxBufferSize = 16 * protocol.FrameSize

	// maxWriteFailures before buffered output is considered stale and dropped
	maxWriteFailures = 10
)

// link owns the buffers and transport shared by both node loops
type link struct {
	ch        ByteChannel
	rx        *protocol.FifoBuffer
	out       *protocol.ScratchOutput
	transport *protocol.Transport
	log       zerolog.Logger

	readBuf                  [64]byte
	consecutiveWriteFailures uint32
	staleDrops               uint32
}

func newLink(ch ByteChannel, rx protocol.Direction, handler protocol.PacketHandler, log zerolog.Logger) *link {
	l := &link{
		ch:  ch,
		rx:  protocol.NewFifoBuffer(RxBufferSize),
		out: protocol.NewScratchOutput(),
		log: log,
	}
	l.transport = protocol.NewTransport(rx, l.out, handler)
	l.transport.SetFlushCallback(l.flush)
	return l
}

// poll moves bytes the channel already holds into the receive FIFO and
// decodes every complete frame
func (l *link) poll() {
	for l.ch.Buffered() > 0 && l.rx.Free() > 0 {
		buf := l.readBuf[:]
		if free := l.rx.Free(); free < len(buf) {
			buf = buf[:free]
		}
		n, err := l.ch.Read(buf)
		if n > 0 {
			l.rx.Write(buf[:n])
		}
		if err != nil {
			l.log.Debug().Err(err).Msg("channel read failed")
			break
		}
		if n == 0 {
			break
		}
	}

	if l.rx.Available() > 0 {
		l.transport.Receive(l.rx)
	}
}

// flush writes buffered frames to the channel
func (l *link) flush() {
	result := l.out.Result()
	if len(result) == 0 {
		return
	}

	n, err := l.ch.Write(result)
	if n > 0 {
		l.out.Consume(n)
	}
	if err == nil && n == len(result) {
		l.consecutiveWriteFailures = 0
		return
	}

	l.consecutiveWriteFailures++
	if l.consecutiveWriteFailures > maxWriteFailures {
		// Peer is not draining; drop what is left rather than replay stale frames
		l.log.Warn().Err(err).Int("dropped", len(l.out.Result())).Msg("dropping stale output")
		l.out.Reset()
		l.consecutiveWriteFailures = 0
		l.staleDrops++
	}
}

// reset clears buffers, transport state and counters, as after a reboot
func (l *link) reset() {
	l.restart()
	l.transport.Reset()
}

// restart drops everything in flight after the peer was rebooted:
// half received frames, frames queued for the old peer and the resync
// state. The counters survive.
func (l *link) restart() {
	l.rx.Reset()
	l.out.Reset()
	l.transport.Resync()
	l.consecutiveWriteFailures = 0
}
