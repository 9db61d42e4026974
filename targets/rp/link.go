//go:build rp2040 || rp2350

package rp

import (
	"machine"

	"github.com/rs/zerolog"
)

// Link UART wiring shared by both boards: GP0 TX, GP1 RX, crossed over
const LinkBaud = 115200

// ConfigureLink sets up UART0 as the inter-node serial link
func ConfigureLink() (*machine.UART, error) {
	uart := machine.UART0
	err := uart.Configure(machine.UARTConfig{
		BaudRate: LinkBaud,
		TX:       machine.GPIO0,
		RX:       machine.GPIO1,
	})
	return uart, err
}

// DebugLogger logs to UART1 on GP4 (TX) / GP5 (RX) at 115200 baud.
// If the UART cannot be configured the logger discards everything.
func DebugLogger(level zerolog.Level) zerolog.Logger {
	uart := machine.UART1
	err := uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GPIO4,
		RX:       machine.GPIO5,
	})
	if err != nil {
		return zerolog.Nop()
	}
	return zerolog.New(uart).Level(level)
}
