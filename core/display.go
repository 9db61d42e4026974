package core

import (
	"errors"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"drawlink/protocol"
)

// ErrPeerNotReady is returned when the network node has not raised its
// ready-to-draw line
var ErrPeerNotReady = errors.New("network node not ready to draw")

// NodeConfig holds what both node loops need besides their collaborators
type NodeConfig struct {
	Clock  clockwork.Clock
	Logger *zerolog.Logger
}

func (c NodeConfig) clock() clockwork.Clock {
	if c.Clock == nil {
		return clockwork.NewRealClock()
	}
	return c.Clock
}

func (c NodeConfig) logger() zerolog.Logger {
	if c.Logger == nil {
		return zerolog.Nop()
	}
	return *c.Logger
}

// DisplayConfig configures a DisplayNode
type DisplayConfig struct {
	NodeConfig
	Watchdog WatchdogConfig
}

// DisplayNode is the touchscreen side of the link. It renders what the
// network node sends and resets the network node when it goes quiet.
// Step must be called from a single loop.
type DisplayNode struct {
	link       *link
	dispatcher *Dispatcher
	watchdog   *Watchdog
	status     protocol.Reassembler
	renderer   Renderer
	ready      ReadySignal
	log        zerolog.Logger
}

// NewDisplayNode wires a display node. ready may be nil, in which case
// the peer is always considered ready.
func NewDisplayNode(cfg DisplayConfig, ch ByteChannel, renderer Renderer, reset ResetLine, ready ReadySignal) *DisplayNode {
	n := &DisplayNode{
		renderer: renderer,
		ready:    ready,
		log:      cfg.logger().With().Str("node", "display").Logger(),
	}
	n.watchdog = NewWatchdog(cfg.clock(), reset, n, cfg.Watchdog, n.log)
	n.dispatcher = NewDispatcher(n.watchdog)
	n.link = newLink(ch, protocol.ToDisplay, n.handlePacket, n.log)
	n.link.transport.SetErrorCallback(n.handleLinkError)
	return n
}

// Step runs one loop iteration: drain the channel, dispatch frames,
// evaluate the watchdog and flush outgoing strokes
func (n *DisplayNode) Step() {
	n.link.poll()

	resets := n.watchdog.Resets()
	n.watchdog.Poll()
	if n.watchdog.Resets() != resets {
		// Whatever was in flight belongs to the old peer
		n.link.restart()
		n.status.Reset()
	}

	n.link.flush()
}

// SendLine queues a touch stroke for the network node
func (n *DisplayNode) SendLine(l protocol.Line) error {
	if n.ready != nil && !n.ready.Ready() {
		return ErrPeerNotReady
	}
	return n.link.transport.Send(protocol.LinePacket{Line: l})
}

// Status shows msg on the status bar. The watchdog reports through it.
func (n *DisplayNode) Status(msg string) {
	n.showStatus(protocol.TruncateStatus(msg))
}

// Errorf reports an error on the status bar
func (n *DisplayNode) Errorf(format string, args ...interface{}) {
	msg := Formatf(format, args...)
	n.log.Error().Msg(msg)
	n.showStatus(msg)
}

// showStatus draws text on the status bar. A failing status bar can only
// be logged.
func (n *DisplayNode) showStatus(text string) {
	if err := n.renderer.ShowStatus(text); err != nil {
		n.log.Error().Err(err).Str("status", text).Msg("status bar")
	}
}

func (n *DisplayNode) handlePacket(p protocol.Packet) error {
	ev, err := n.dispatcher.Dispatch(p)
	if err != nil {
		return err
	}

	switch e := ev.(type) {
	case LineEvent:
		if err := n.renderer.DrawLine(e.Line); err != nil {
			n.Errorf("Cannot draw line: %v", err)
		}
	case ClearEvent:
		if err := n.renderer.Clear(); err != nil {
			n.Errorf("Cannot clear display: %v", err)
		}
	case StatusChunkEvent:
		text, done, err := n.status.Apply(e.Chunk)
		if err != nil {
			return err
		}
		if done {
			n.showStatus(text)
		}
	}
	return nil
}

func (n *DisplayNode) handleLinkError(err error) {
	n.log.Warn().Err(err).Msg("link error")
	n.Errorf("Serial error: %v", err)
}

// Watchdog returns the node's watchdog
func (n *DisplayNode) Watchdog() *Watchdog {
	return n.watchdog
}

// Dispatcher returns the node's dispatcher
func (n *DisplayNode) Dispatcher() *Dispatcher {
	return n.dispatcher
}

// Stats returns the link counters
func (n *DisplayNode) Stats() protocol.Stats {
	return n.link.transport.Stats()
}
