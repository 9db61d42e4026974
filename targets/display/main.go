//go:build rp2040 || rp2350

// Display node firmware: ILI9341 screen, resistive touch panel, and the
// reset and ready-to-draw wires to the network node
package main

import (
	"errors"
	"machine"
	"time"

	"github.com/rs/zerolog"
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/ili9341"
	"tinygo.org/x/tinyfont"

	"drawlink/core"
	"drawlink/protocol"
	"drawlink/render"
	"drawlink/targets/rp"
)

// Pin assignment
const (
	resetPin core.GPIOPin = 7 // drives the network board's reset circuit
	readyPin core.GPIOPin = 3 // high while the network node accepts strokes

	spiSCK = machine.GPIO18
	spiSDO = machine.GPIO19
	spiSDI = machine.GPIO16
	lcdDC  = machine.GPIO20
	lcdCS  = machine.GPIO17
	lcdRST = machine.GPIO21
)

var loopErrors uint32

func main() {
	// Disable the hardware watchdog left over from a previous boot
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	log := rp.DebugLogger(zerolog.WarnLevel)

	uart, err := rp.ConfigureLink()
	if err != nil {
		log.Error().Err(err).Msg("link uart")
		return
	}

	display := initDisplay()
	canvas, err := render.NewCanvas(display, render.Config{Font: &tinyfont.TomThumb})
	if err != nil {
		log.Error().Err(err).Msg("display")
	}
	if err := canvas.ShowStatus("drawlink " + protocol.Version); err != nil {
		log.Error().Err(err).Msg("status bar")
	}

	gpio := rp.NewGPIODriver()
	reset, err := core.NewGPIOResetLine(gpio, resetPin, false)
	if err != nil {
		log.Error().Err(err).Msg("reset line")
		_ = canvas.ShowStatus("Reset line failure: " + err.Error())
		return
	}
	ready, err := core.NewGPIOReadySignal(gpio, readyPin)
	if err != nil {
		log.Error().Err(err).Msg("ready line")
		_ = canvas.ShowStatus("Ready line failure: " + err.Error())
		return
	}

	node := core.NewDisplayNode(core.DisplayConfig{
		NodeConfig: core.NodeConfig{Logger: &log},
	}, uart, canvas, reset, ready)

	touch := newTouchInput(display)

	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					loopErrors++
					node.Errorf("Internal error #%d", loopErrors)
				}
			}()

			if stroke, ok := touch.poll(); ok {
				if err := node.SendLine(stroke); err != nil && !errors.Is(err, core.ErrPeerNotReady) {
					node.Errorf("Cannot send stroke: %v", err)
				}
			}

			node.Step()
		}()

		// Yield to other goroutines
		time.Sleep(100 * time.Microsecond)
	}
}

func initDisplay() *ili9341.Device {
	machine.SPI0.Configure(machine.SPIConfig{
		Frequency: 40_000_000,
		SCK:       spiSCK,
		SDO:       spiSDO,
		SDI:       spiSDI,
	})
	d := ili9341.NewSPI(machine.SPI0, lcdDC, lcdCS, lcdRST)
	d.Configure(ili9341.Config{})
	d.SetRotation(drivers.Rotation270)
	return d
}
