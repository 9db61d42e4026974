//go:build rp2040 || rp2350

package main

import (
	"machine"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/touch/resistive"

	"drawlink/protocol"
)

// Four wire resistive panel on the ADC pins
const (
	touchYP = machine.ADC0
	touchXM = machine.ADC1
	touchYM = machine.GPIO22
	touchXP = machine.GPIO14

	// Pressure below this is treated as no touch
	touchThreshold = 8000
	strokeColor    = 0
)

// touchInput turns consecutive touch samples into line segments
type touchInput struct {
	panel         resistive.FourWire
	width, height int16

	down  bool
	lastX int16
	lastY int16
}

func newTouchInput(d drivers.Displayer) *touchInput {
	w, h := d.Size()
	t := &touchInput{width: w, height: h}
	t.panel.Configure(&resistive.FourWireConfig{
		YP: touchYP,
		YM: touchYM,
		XP: touchXP,
		XM: touchXM,
	})
	return t
}

// poll samples the panel and returns the segment drawn since the last
// sample, if any. Raw readings are scaled linearly to the screen.
func (t *touchInput) poll() (protocol.Line, bool) {
	p := t.panel.ReadTouchPoint()
	if p.Z < touchThreshold {
		t.down = false
		return protocol.Line{}, false
	}

	x := int16(p.X * int(t.width) / 0x10000)
	y := int16(p.Y * int(t.height) / 0x10000)
	if !t.down {
		t.down = true
		t.lastX, t.lastY = x, y
		return protocol.Line{}, false
	}
	if x == t.lastX && y == t.lastY {
		return protocol.Line{}, false
	}

	l := protocol.Line{X0: t.lastX, Y0: t.lastY, X1: x, Y1: y, Color: strokeColor}
	t.lastX, t.lastY = x, y
	return l, true
}
