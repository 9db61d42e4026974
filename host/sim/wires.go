package sim

import "sync/atomic"

// resetWire stands in for the reset circuit between the two boards.
// The network node is held in reset while the line is asserted and
// reboots when it is released.
type resetWire struct {
	held    atomic.Bool
	reboots atomic.Uint32
}

func (w *resetWire) Assert() error {
	w.held.Store(true)
	return nil
}

func (w *resetWire) Release() error {
	if w.held.Swap(false) {
		w.reboots.Add(1)
	}
	return nil
}

// readyWire is the ready-to-draw line: the network node drives it and
// the display node reads it
type readyWire struct {
	level atomic.Bool
}

func (w *readyWire) SetReady(ready bool) error {
	w.level.Store(ready)
	return nil
}

func (w *readyWire) Ready() bool {
	return w.level.Load()
}
