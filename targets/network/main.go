//go:build rp2040 || rp2350

// Network node firmware. A PC running drawlink-host talks to this board
// over USB with the link framing; the board relays drawing to the
// display node over UART0 and reports touch strokes back over USB.
package main

import (
	"machine"
	"time"

	"github.com/rs/zerolog"

	"drawlink/core"
	"drawlink/protocol"
	"drawlink/targets/rp"
)

// readyPin is read by the display node as READY_TO_DRAW
const readyPin core.GPIOPin = 3

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
	if err := machine.Serial.Configure(machine.UARTConfig{}); err != nil {
		log.Error().Err(err).Msg("usb serial")
		return
	}

	ready, err := core.NewGPIOReadyLine(rp.NewGPIODriver(), readyPin)
	if err != nil {
		log.Error().Err(err).Msg("ready line")
		return
	}

	host := newHostRelay(rp.NewUSBChannel(machine.Serial), log)
	node := core.NewNetworkNode(core.NetworkConfig{
		NodeConfig: core.NodeConfig{Logger: &log},
	}, uart, host, ready)
	host.node = node

	if err := node.SetReady(true); err != nil {
		log.Error().Err(err).Msg("ready line")
	}
	if err := node.SendStatusf("Network node %s ready", protocol.Version); err != nil {
		log.Warn().Err(err).Msg("greeting")
	}

	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					loopErrors++
					host.reset()
					node.Reset()
				}
			}()

			host.poll()
			node.Step()
			host.flush()
		}()

		// Yield to other goroutines
		time.Sleep(100 * time.Microsecond)
	}
}
