// Package bridge runs the network node on a PC, between a serial port to
// the display node and a remote drawing source
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"drawlink/core"
	"drawlink/host/serial"
	"drawlink/host/source"
	"drawlink/protocol"
)

// DefaultStepInterval paces the node loop on the host
const DefaultStepInterval = 5 * time.Millisecond

var ErrNotConnected = errors.New("not connected to display node")

// Config configures a Bridge
type Config struct {
	Network      core.NetworkConfig
	StepInterval time.Duration
	// OnTouch, if set, sees every touch stroke from the display
	OnTouch func(protocol.Line)
}

// Bridge owns the serial connection and the network node loop. Its
// methods may be called from other goroutines while Run is active.
type Bridge struct {
	cfg   Config
	src   source.Source
	clock clockwork.Clock
	log   zerolog.Logger

	mu        sync.Mutex
	channel   *protocol.HostChannel
	node      *core.NetworkNode
	connected bool
}

// New creates a Bridge (not yet connected). src may be nil.
func New(cfg Config, src source.Source) *Bridge {
	if cfg.StepInterval <= 0 {
		cfg.StepInterval = DefaultStepInterval
	}
	clock := cfg.Network.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
		cfg.Network.Clock = clock
	}
	log := zerolog.Nop()
	if cfg.Network.Logger != nil {
		log = *cfg.Network.Logger
	}
	return &Bridge{
		cfg:   cfg,
		src:   src,
		clock: clock,
		log:   log.With().Str("component", "bridge").Logger(),
	}
}

// Connect opens device with the default serial settings
func (b *Bridge) Connect(device string) error {
	return b.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig opens a serial port with a custom config
func (b *Bridge) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	b.Attach(port)
	b.log.Info().Str("device", cfg.Device).Int("baud", cfg.Baud).Msg("connected")
	return nil
}

// Attach uses an already open port, such as one end of a pipe
func (b *Bridge) Attach(port io.ReadWriteCloser) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.channel = protocol.NewHostChannel(port)
	b.node = core.NewNetworkNode(b.cfg.Network, b.channel, core.LineSinkFunc(b.handleTouch), nil)
	b.connected = true
}

// Close closes the connection to the display node
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.connected {
		return nil
	}
	b.connected = false
	return b.channel.Close()
}

// Run steps the node and forwards source commands until ctx is done or
// the source fails
func (b *Bridge) Run(ctx context.Context) error {
	if !b.Connected() {
		return ErrNotConnected
	}

	g, ctx := errgroup.WithContext(ctx)
	commands := make(chan source.Command, 64)

	if b.src != nil {
		g.Go(func() error {
			return b.src.Run(ctx, commands)
		})
	}

	g.Go(func() error {
		ticker := b.clock.NewTicker(b.cfg.StepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case cmd := <-commands:
				if err := b.apply(cmd); err != nil {
					b.log.Warn().Err(err).Stringer("command", cmd.Kind).Msg("cannot forward command")
				}
			case <-ticker.Chan():
				b.Step()
			}
		}
	})

	return g.Wait()
}

// Step runs one node loop iteration
func (b *Bridge) Step() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.connected {
		b.node.Step()
	}
}

func (b *Bridge) apply(cmd source.Command) error {
	switch cmd.Kind {
	case source.CommandLine:
		return b.SendLine(cmd.Line)
	case source.CommandClear:
		return b.SendClear()
	case source.CommandStatus:
		return b.SendStatus(cmd.Text)
	default:
		return fmt.Errorf("unknown command %v", cmd.Kind)
	}
}

func (b *Bridge) withNode(fn func(n *core.NetworkNode) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return ErrNotConnected
	}
	if err := fn(b.node); err != nil {
		return err
	}
	b.node.Flush()
	return nil
}

func (b *Bridge) SendLine(l protocol.Line) error {
	return b.withNode(func(n *core.NetworkNode) error { return n.SendLine(l) })
}

func (b *Bridge) SendClear() error {
	return b.withNode(func(n *core.NetworkNode) error { return n.SendClear() })
}

func (b *Bridge) SendStatus(text string) error {
	return b.withNode(func(n *core.NetworkNode) error { return n.SendStatus(text) })
}

func (b *Bridge) SendAlive() error {
	return b.withNode(func(n *core.NetworkNode) error { return n.SendAlive() })
}

// SetHeartbeat turns automatic Alive packets on or off
func (b *Bridge) SetHeartbeat(enabled bool) error {
	return b.withNode(func(n *core.NetworkNode) error {
		n.SetHeartbeat(enabled)
		return nil
	})
}

// Connected reports whether a port is attached
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

// Stats returns the link counters
func (b *Bridge) Stats() protocol.Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.node == nil {
		return protocol.Stats{}
	}
	return b.node.Stats()
}

// PeerAlive returns when the display node last sent Alive
func (b *Bridge) PeerAlive() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.node == nil {
		return time.Time{}
	}
	return b.node.PeerAlive()
}

// handleTouch runs inside Step with b.mu held
func (b *Bridge) handleTouch(l protocol.Line) error {
	if b.cfg.OnTouch != nil {
		b.cfg.OnTouch(l)
	}
	if b.src == nil {
		return nil
	}
	return b.src.HandleLine(l)
}
