package core

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"drawlink/protocol"
)

// DefaultAliveInterval keeps heartbeats well inside the display node's
// one second watchdog interval
const DefaultAliveInterval = 500 * time.Millisecond

// NetworkConfig configures a NetworkNode
type NetworkConfig struct {
	NodeConfig
	AliveInterval time.Duration
}

// NetworkNode is the bridge side of the link. It forwards drawing data
// to the display node, sends heartbeats and hands touch strokes to its
// LineSink. Step must be called from a single loop.
type NetworkNode struct {
	link          *link
	dispatcher    *Dispatcher
	clock         clockwork.Clock
	aliveInterval time.Duration
	lastAliveSent time.Time
	peerAlive     time.Time
	lines         LineSink
	ready         ReadyLine
	log           zerolog.Logger
	heartbeats    bool
}

// NewNetworkNode wires a network node. lines and ready may be nil.
func NewNetworkNode(cfg NetworkConfig, ch ByteChannel, lines LineSink, ready ReadyLine) *NetworkNode {
	interval := cfg.AliveInterval
	if interval <= 0 {
		interval = DefaultAliveInterval
	}

	n := &NetworkNode{
		clock:         cfg.clock(),
		aliveInterval: interval,
		lines:         lines,
		ready:         ready,
		log:           cfg.logger().With().Str("node", "network").Logger(),
		heartbeats:    true,
	}
	n.dispatcher = NewDispatcher(n)
	n.link = newLink(ch, protocol.ToNetwork, n.handlePacket, n.log)
	n.link.transport.SetErrorCallback(func(err error) {
		n.log.Warn().Err(err).Msg("link error")
	})
	return n
}

// Step runs one loop iteration: drain the channel, send a heartbeat
// when one is due and flush queued frames
func (n *NetworkNode) Step() {
	n.link.poll()

	if n.heartbeats {
		now := n.clock.Now()
		if n.lastAliveSent.IsZero() || now.Sub(n.lastAliveSent) >= n.aliveInterval {
			if err := n.SendAlive(); err != nil {
				n.log.Warn().Err(err).Msg("failed to queue heartbeat")
			} else {
				n.lastAliveSent = now
			}
		}
	}

	n.link.flush()
}

// SetReady raises or lowers the ready-to-draw line
func (n *NetworkNode) SetReady(ready bool) error {
	if n.ready == nil {
		return nil
	}
	return n.ready.SetReady(ready)
}

// SetHeartbeat turns automatic Alive packets on or off
func (n *NetworkNode) SetHeartbeat(enabled bool) {
	n.heartbeats = enabled
}

// SendLine queues a line for the display node
func (n *NetworkNode) SendLine(l protocol.Line) error {
	return n.link.transport.Send(protocol.LinePacket{Line: l})
}

// SendClear asks the display node to clear the drawing
func (n *NetworkNode) SendClear() error {
	return n.link.transport.Send(protocol.ClearPacket{})
}

// SendAlive queues one heartbeat
func (n *NetworkNode) SendAlive() error {
	return n.link.transport.Send(protocol.AlivePacket{})
}

// SendStatus queues text for the display node's status bar, one frame
// per chunk. Text longer than protocol.MaxStatusLength is cut.
func (n *NetworkNode) SendStatus(text string) error {
	c := protocol.NewChunker(text)
	for {
		chunk, ok := c.Next()
		if !ok {
			return nil
		}
		if err := n.link.transport.Send(protocol.StatusPacket{Chunk: chunk}); err != nil {
			return err
		}
	}
}

// SendStatusf is SendStatus with printf style arguments
func (n *NetworkNode) SendStatusf(format string, args ...interface{}) error {
	return n.SendStatus(Formatf(format, args...))
}

// AliveReceived records a heartbeat from the display node
func (n *NetworkNode) AliveReceived() {
	n.peerAlive = n.clock.Now()
}

// PeerAlive returns when the display node last sent Alive, zero if never
func (n *NetworkNode) PeerAlive() time.Time {
	return n.peerAlive
}

func (n *NetworkNode) handlePacket(p protocol.Packet) error {
	ev, err := n.dispatcher.Dispatch(p)
	if err != nil {
		return err
	}

	if e, ok := ev.(LineEvent); ok && n.lines != nil {
		return n.lines.HandleLine(e.Line)
	}
	return nil
}

// Flush writes queued frames now instead of at the end of the next Step
func (n *NetworkNode) Flush() {
	n.link.flush()
}

// Reset drops buffered data, as after a reboot
func (n *NetworkNode) Reset() {
	n.link.reset()
	n.lastAliveSent = time.Time{}
}

// Dispatcher returns the node's dispatcher
func (n *NetworkNode) Dispatcher() *Dispatcher {
	return n.dispatcher
}

// Stats returns the link counters
func (n *NetworkNode) Stats() protocol.Stats {
	return n.link.transport.Stats()
}
