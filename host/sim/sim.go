// Package sim runs a display node and a network node in one process,
// linked by an in-memory serial line
package sim

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"tinygo.org/x/tinyfont"

	"drawlink/core"
	"drawlink/host/export"
	"drawlink/protocol"
	"drawlink/render"
)

const (
	DefaultWidth        = 320
	DefaultHeight       = 240
	DefaultStepInterval = 2 * time.Millisecond
)

// Config configures a Sim. Zero values take defaults.
type Config struct {
	Display       core.WatchdogConfig
	AliveInterval time.Duration
	Width, Height int16
	Font          tinyfont.Fonter
	StepInterval  time.Duration
	Logger        *zerolog.Logger
	// OnTouch sees touch strokes arriving at the network node
	OnTouch func(protocol.Line)
}

func (c *Config) applyDefaults() {
	if c.Width == 0 {
		c.Width = DefaultWidth
	}
	if c.Height == 0 {
		c.Height = DefaultHeight
	}
	if c.Font == nil {
		c.Font = &tinyfont.TomThumb
	}
	if c.StepInterval <= 0 {
		c.StepInterval = DefaultStepInterval
	}
}

// Sim owns both node loops. Methods are safe to call while Run is
// active.
type Sim struct {
	cfg   Config
	clock clockwork.Clock
	log   zerolog.Logger

	displayMu sync.Mutex
	display   *core.DisplayNode
	fb        *render.Framebuffer
	history   *export.History

	networkMu sync.Mutex
	network   *core.NetworkNode
	hung      atomic.Bool
	reboots   uint32

	displayCh *protocol.HostChannel
	networkCh *protocol.HostChannel
	reset     *resetWire
	ready     *readyWire
}

// New wires both nodes over a fresh in-memory link
func New(cfg Config) *Sim {
	cfg.applyDefaults()
	s := &Sim{
		cfg:   cfg,
		clock: clockwork.NewRealClock(),
		log:   zerolog.Nop(),
		reset: &resetWire{},
		ready: &readyWire{},
	}
	if cfg.Logger != nil {
		s.log = *cfg.Logger
	}

	displayEnd, networkEnd := net.Pipe()
	s.displayCh = protocol.NewHostChannel(displayEnd)
	s.networkCh = protocol.NewHostChannel(networkEnd)

	s.fb = render.NewFramebuffer(cfg.Width, cfg.Height)
	canvas, err := render.NewCanvas(s.fb, render.Config{Font: cfg.Font})
	if err != nil {
		s.log.Warn().Err(err).Msg("initial display refresh")
	}
	s.history = export.NewHistory(canvas)

	node := core.NodeConfig{Clock: s.clock, Logger: &s.log}
	s.display = core.NewDisplayNode(core.DisplayConfig{NodeConfig: node, Watchdog: cfg.Display},
		s.displayCh, s.history, s.reset, s.ready)
	s.network = core.NewNetworkNode(core.NetworkConfig{NodeConfig: node, AliveInterval: cfg.AliveInterval},
		s.networkCh, core.LineSinkFunc(s.handleTouch), s.ready)
	s.network.SetReady(true)
	return s
}

// Run steps both nodes until ctx is done
func (s *Sim) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.loop(ctx, s.stepDisplay)
	})
	g.Go(func() error {
		return s.loop(ctx, s.stepNetwork)
	})
	return g.Wait()
}

func (s *Sim) loop(ctx context.Context, step func()) error {
	ticker := s.clock.NewTicker(s.cfg.StepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			step()
		}
	}
}

func (s *Sim) stepDisplay() {
	s.displayMu.Lock()
	defer s.displayMu.Unlock()
	s.display.Step()
}

// stepNetwork models the network board: nothing runs while it is held
// in reset, and a release reboots it with a clean link
func (s *Sim) stepNetwork() {
	s.networkMu.Lock()
	defer s.networkMu.Unlock()

	if s.reset.held.Load() {
		s.network.SetReady(false)
		return
	}
	if n := s.reset.reboots.Load(); n != s.reboots {
		s.reboots = n
		s.hung.Store(false)
		s.network.Reset()
		s.network.SetReady(true)
		s.log.Info().Msg("network node rebooted")
	}
	if s.hung.Load() {
		return
	}
	s.network.Step()
}

// Hang stops the network node until the display node resets it
func (s *Sim) Hang() {
	s.hung.Store(true)
}

func (s *Sim) withNetwork(fn func(n *core.NetworkNode) error) error {
	s.networkMu.Lock()
	defer s.networkMu.Unlock()
	return fn(s.network)
}

// SendLine draws a line as if it came from the remote source
func (s *Sim) SendLine(l protocol.Line) error {
	return s.withNetwork(func(n *core.NetworkNode) error { return n.SendLine(l) })
}

func (s *Sim) SendClear() error {
	return s.withNetwork(func(n *core.NetworkNode) error { return n.SendClear() })
}

func (s *Sim) SendStatus(text string) error {
	return s.withNetwork(func(n *core.NetworkNode) error { return n.SendStatus(text) })
}

// Touch sends a stroke from the display node as the touchscreen would
func (s *Sim) Touch(l protocol.Line) error {
	s.displayMu.Lock()
	defer s.displayMu.Unlock()
	return s.display.SendLine(l)
}

// Lines returns the lines currently on the display
func (s *Sim) Lines() []protocol.Line {
	return s.history.Lines()
}

// Status returns the status bar text
func (s *Sim) Status() string {
	return s.history.Status()
}

// WatchdogState returns the display node's view of the network node
func (s *Sim) WatchdogState() (core.HealthState, uint32) {
	s.displayMu.Lock()
	defer s.displayMu.Unlock()
	w := s.display.Watchdog()
	return w.State(), w.Resets()
}

// DisplayStats and NetworkStats return the link counters of each side
func (s *Sim) DisplayStats() protocol.Stats {
	s.displayMu.Lock()
	defer s.displayMu.Unlock()
	return s.display.Stats()
}

func (s *Sim) NetworkStats() protocol.Stats {
	s.networkMu.Lock()
	defer s.networkMu.Unlock()
	return s.network.Stats()
}

// Pixel reads the simulated screen
func (s *Sim) Pixel(x, y int16) (r, g, b uint8) {
	s.displayMu.Lock()
	defer s.displayMu.Unlock()
	c := s.fb.At(x, y)
	return c.R, c.G, c.B
}

// Size returns the simulated screen size
func (s *Sim) Size() (w, h int16) {
	return s.cfg.Width, s.cfg.Height
}

// Close tears down the in-memory link
func (s *Sim) Close() error {
	err := s.displayCh.Close()
	if nerr := s.networkCh.Close(); err == nil {
		err = nerr
	}
	return err
}

func (s *Sim) handleTouch(l protocol.Line) error {
	if s.cfg.OnTouch != nil {
		s.cfg.OnTouch(l)
	}
	return nil
}
