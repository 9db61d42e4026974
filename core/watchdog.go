package core

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// HealthState is the watchdog's view of the peer
type HealthState uint8

const (
	Healthy HealthState = iota
	Unresponsive
)

func (s HealthState) String() string {
	if s == Healthy {
		return "healthy"
	}
	return "unresponsive"
}

const (
	DefaultWatchdogInterval = time.Second
	DefaultResetPulse       = 50 * time.Millisecond
)

// WatchdogConfig holds the watchdog timing
type WatchdogConfig struct {
	// Interval between evaluations; a peer must send at least one Alive
	// per interval
	Interval time.Duration

	// ResetPulse is how long the reset line stays asserted
	ResetPulse time.Duration
}

func (c WatchdogConfig) withDefaults() WatchdogConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultWatchdogInterval
	}
	if c.ResetPulse <= 0 {
		c.ResetPulse = DefaultResetPulse
	}
	return c
}

// Watchdog supervises the peer through its Alive packets and resets it
// when they stop. It is polled from the node loop and never blocks: the
// reset pulse is released by a later Poll once its width has elapsed.
type Watchdog struct {
	clock clockwork.Clock
	line  ResetLine
	sink  StatusSink
	log   zerolog.Logger
	cfg   WatchdogConfig

	state     HealthState
	lastAlive time.Time // zero until the first Alive
	lastTick  time.Time
	releaseAt time.Time
	pulsing   bool
	resets    uint32
}

// NewWatchdog creates a Watchdog. Its first evaluation happens one full
// interval after this call.
func NewWatchdog(clock clockwork.Clock, line ResetLine, sink StatusSink, cfg WatchdogConfig, log zerolog.Logger) *Watchdog {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Watchdog{
		clock:    clock,
		line:     line,
		sink:     sink,
		log:      log,
		cfg:      cfg.withDefaults(),
		state:    Healthy,
		lastTick: clock.Now(),
	}
}

// AliveReceived records a heartbeat
func (w *Watchdog) AliveReceived() {
	w.lastAlive = w.clock.Now()
	if w.state == Unresponsive {
		w.state = Healthy
		w.log.Info().Uint32("resets", w.resets).Msg("peer alive again")
	}
}

// Poll releases a finished reset pulse and evaluates the peer when an
// interval has passed. It reports whether an evaluation ran.
func (w *Watchdog) Poll() bool {
	now := w.clock.Now()

	if w.pulsing && !now.Before(w.releaseAt) {
		w.release()
	}

	if now.Sub(w.lastTick) < w.cfg.Interval {
		return false
	}
	w.evaluate(now)
	return true
}

func (w *Watchdog) evaluate(now time.Time) {
	missed := w.lastAlive.IsZero() || w.lastAlive.Before(w.lastTick)
	w.lastTick = now
	if !missed {
		return
	}

	// A pulse still pending from the previous miss ends before the next
	// one starts, so every miss is a separate assert/release pair
	if w.pulsing {
		w.release()
	}

	w.state = Unresponsive
	w.resets++
	w.log.Warn().
		Uint32("resets", w.resets).
		Time("last_alive", w.lastAlive).
		Msg("peer missed heartbeat, resetting")
	w.pulseReset(now)
}

// pulseReset asserts the reset line and reports the failure
func (w *Watchdog) pulseReset(now time.Time) {
	if w.line != nil {
		if err := w.line.Assert(); err != nil {
			w.log.Error().Err(err).Msg("failed to assert reset line")
			w.report("Reset line failure: %v", err)
			return
		}
		w.pulsing = true
		w.releaseAt = now.Add(w.cfg.ResetPulse)
	}
	w.report("Network node not responding, reset #%d", w.resets)
}

func (w *Watchdog) release() {
	w.pulsing = false
	if err := w.line.Release(); err != nil {
		w.log.Error().Err(err).Msg("failed to release reset line")
		w.report("Reset line failure: %v", err)
	}
}

func (w *Watchdog) report(format string, args ...interface{}) {
	if w.sink != nil {
		w.sink.Status(Formatf(format, args...))
	}
}

// State returns the current health state
func (w *Watchdog) State() HealthState {
	return w.state
}

// Resets returns how many reset pulses were issued
func (w *Watchdog) Resets() uint32 {
	return w.resets
}

// Pulsing reports whether the reset line is currently asserted
func (w *Watchdog) Pulsing() bool {
	return w.pulsing
}

// LastAlive returns when the last heartbeat arrived, zero if never
func (w *Watchdog) LastAlive() time.Time {
	return w.lastAlive
}
