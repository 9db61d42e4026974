package core

import (
	"errors"

	"drawlink/protocol"
)

// fakeChannel is a ByteChannel backed by two byte slices
type fakeChannel struct {
	in       []byte
	out      []byte
	writeErr error
}

func (c *fakeChannel) Buffered() int { return len(c.in) }

func (c *fakeChannel) Read(p []byte) (int, error) {
	n := copy(p, c.in)
	c.in = c.in[n:]
	return n, nil
}

func (c *fakeChannel) Write(p []byte) (int, error) {
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	c.out = append(c.out, p...)
	return len(p), nil
}

func (c *fakeChannel) feed(packets ...protocol.Packet) {
	for _, p := range packets {
		c.in, _ = protocol.AppendFrame(c.in, p)
	}
}

// takeOut decodes and clears everything written so far
func (c *fakeChannel) takeOut(dir protocol.Direction) []protocol.Packet {
	var packets []protocol.Packet
	data := c.out
	for len(data) >= protocol.FrameSize {
		p, err := protocol.Decode(data, dir)
		if err != nil {
			panic(err)
		}
		packets = append(packets, p)
		data = data[protocol.FrameSize:]
	}
	c.out = nil
	return packets
}

// fakeResetLine records the reset line level
type fakeResetLine struct {
	asserted   bool
	asserts    int
	releases   int
	assertErr  error
	releaseErr error
}

func (r *fakeResetLine) Assert() error {
	if r.assertErr != nil {
		return r.assertErr
	}
	r.asserted = true
	r.asserts++
	return nil
}

func (r *fakeResetLine) Release() error {
	if r.releaseErr != nil {
		return r.releaseErr
	}
	r.asserted = false
	r.releases++
	return nil
}

type fakeRenderer struct {
	lines     []protocol.Line
	clears    int
	statuses  []string
	badColor  uint8
	clearErr  error
	statusErr error
}

var errBadColor = errors.New("color out of palette")

func (r *fakeRenderer) DrawLine(l protocol.Line) error {
	if r.badColor != 0 && l.Color >= r.badColor {
		return errBadColor
	}
	r.lines = append(r.lines, l)
	return nil
}

func (r *fakeRenderer) Clear() error {
	if r.clearErr != nil {
		return r.clearErr
	}
	r.clears++
	return nil
}

func (r *fakeRenderer) ShowStatus(text string) error {
	if r.statusErr != nil {
		return r.statusErr
	}
	r.statuses = append(r.statuses, text)
	return nil
}

type fakeReady bool

func (f *fakeReady) Ready() bool { return bool(*f) }

// mockGPIODriver is a GPIODriver that keeps pin levels in a map
type mockGPIODriver struct {
	pins    map[GPIOPin]bool
	outputs map[GPIOPin]bool
	inputs  map[GPIOPin]bool
	err     error
}

func newMockGPIODriver() *mockGPIODriver {
	return &mockGPIODriver{
		pins:    make(map[GPIOPin]bool),
		outputs: make(map[GPIOPin]bool),
		inputs:  make(map[GPIOPin]bool),
	}
}

func (m *mockGPIODriver) ConfigureOutput(pin GPIOPin) error {
	if m.err != nil {
		return m.err
	}
	m.outputs[pin] = true
	return nil
}

func (m *mockGPIODriver) ConfigureInputPullDown(pin GPIOPin) error {
	if m.err != nil {
		return m.err
	}
	m.inputs[pin] = true
	return nil
}

func (m *mockGPIODriver) SetPin(pin GPIOPin, value bool) error {
	if m.err != nil {
		return m.err
	}
	m.pins[pin] = value
	return nil
}

func (m *mockGPIODriver) GetPin(pin GPIOPin) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.pins[pin], nil
}
