package core

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type statusLog []string

func (s *statusLog) Status(msg string) { *s = append(*s, msg) }

func newTestWatchdog() (*Watchdog, *clockwork.FakeClock, *fakeResetLine, *statusLog) {
	clock := clockwork.NewFakeClock()
	line := &fakeResetLine{}
	sink := &statusLog{}
	w := NewWatchdog(clock, line, sink, WatchdogConfig{Interval: time.Second, ResetPulse: 20 * time.Millisecond}, zerolog.Nop())
	return w, clock, line, sink
}

func TestWatchdogGracePeriod(t *testing.T) {
	w, clock, line, _ := newTestWatchdog()

	clock.Advance(999 * time.Millisecond)
	require.False(t, w.Poll())
	require.Equal(t, Healthy, w.State())
	require.Zero(t, line.asserts)
}

func TestWatchdogNeverAlive(t *testing.T) {
	w, clock, line, sink := newTestWatchdog()

	clock.Advance(time.Second)
	require.True(t, w.Poll())

	require.Equal(t, Unresponsive, w.State())
	require.Equal(t, 1, line.asserts)
	require.True(t, line.asserted)
	require.Equal(t, uint32(1), w.Resets())
	require.Equal(t, statusLog{"Network node not responding, reset #1"}, *sink)

	// The same tick never pulses twice
	require.False(t, w.Poll())
	require.Equal(t, 1, line.asserts)
}

func TestWatchdogReleasesPulse(t *testing.T) {
	w, clock, line, _ := newTestWatchdog()

	clock.Advance(time.Second)
	w.Poll()
	require.True(t, w.Pulsing())

	clock.Advance(19 * time.Millisecond)
	w.Poll()
	require.True(t, line.asserted)

	clock.Advance(time.Millisecond)
	w.Poll()
	require.False(t, line.asserted)
	require.False(t, w.Pulsing())
	require.Equal(t, 1, line.releases)
}

func TestWatchdogAliveBeforeTick(t *testing.T) {
	w, clock, line, sink := newTestWatchdog()

	clock.Advance(500 * time.Millisecond)
	w.AliveReceived()
	clock.Advance(500 * time.Millisecond)

	require.True(t, w.Poll())
	require.Equal(t, Healthy, w.State())
	require.Zero(t, line.asserts)
	require.Empty(t, *sink)
}

func TestWatchdogAliveMustRepeatEachInterval(t *testing.T) {
	w, clock, line, _ := newTestWatchdog()

	w.AliveReceived()
	clock.Advance(time.Second)
	w.Poll()
	require.Equal(t, Healthy, w.State())

	// No heartbeat during the second interval
	clock.Advance(time.Second)
	w.Poll()
	require.Equal(t, Unresponsive, w.State())
	require.Equal(t, 1, line.asserts)
}

func TestWatchdogOnePulsePerMissedInterval(t *testing.T) {
	w, clock, line, sink := newTestWatchdog()

	clock.Advance(time.Second)
	w.Poll()
	for i := 2; i <= 3; i++ {
		clock.Advance(20 * time.Millisecond)
		w.Poll()
		require.Equal(t, i-1, line.releases)

		clock.Advance(980 * time.Millisecond)
		w.Poll()
		require.Equal(t, i, line.asserts)
	}
	require.Len(t, *sink, 3)
	require.Equal(t, "Network node not responding, reset #3", (*sink)[2])
}

func TestWatchdogPulseLongerThanInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	line := &fakeResetLine{}
	cfg := WatchdogConfig{Interval: time.Second, ResetPulse: 1500 * time.Millisecond}
	w := NewWatchdog(clock, line, nil, cfg, zerolog.Nop())

	for i := 1; i <= 3; i++ {
		clock.Advance(time.Second)
		w.Poll()
		require.Equal(t, i, line.asserts)
		require.Equal(t, i-1, line.releases)
	}
	require.True(t, line.asserted)

	// The peer comes back; the last pulse still ends on time
	w.AliveReceived()
	clock.Advance(1500 * time.Millisecond)
	w.Poll()
	require.False(t, line.asserted)
	require.Equal(t, 3, line.asserts)
	require.Equal(t, 3, line.releases)
	require.Equal(t, Healthy, w.State())
}

func TestWatchdogRecovers(t *testing.T) {
	w, clock, _, _ := newTestWatchdog()

	clock.Advance(time.Second)
	w.Poll()
	require.Equal(t, Unresponsive, w.State())

	clock.Advance(300 * time.Millisecond)
	w.AliveReceived()
	require.Equal(t, Healthy, w.State(), "alive recovers immediately, not at the next tick")
	require.Equal(t, clock.Now(), w.LastAlive())

	clock.Advance(700 * time.Millisecond)
	w.Poll()
	require.Equal(t, Healthy, w.State())
	require.Equal(t, uint32(1), w.Resets())
}

func TestWatchdogResetLineFailure(t *testing.T) {
	w, clock, line, sink := newTestWatchdog()
	line.assertErr = errors.New("pin busy")

	clock.Advance(time.Second)
	w.Poll()

	require.Equal(t, Unresponsive, w.State())
	require.False(t, w.Pulsing())
	require.Equal(t, statusLog{"Reset line failure: pin busy"}, *sink)
}

func TestWatchdogDefaults(t *testing.T) {
	w := NewWatchdog(nil, nil, nil, WatchdogConfig{}, zerolog.Nop())
	require.Equal(t, DefaultWatchdogInterval, w.cfg.Interval)
	require.Equal(t, DefaultResetPulse, w.cfg.ResetPulse)

	// No reset line and no sink: evaluation still works
	w.lastTick = w.lastTick.Add(-2 * time.Second)
	require.True(t, w.Poll())
	require.Equal(t, Unresponsive, w.State())
}
