package serial

import (
	"errors"
	"io"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (github.com/tarm/serial or go.bug.st/serial)
// - Mock serial (for testing)
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Backend names a serial library
type Backend string

const (
	BackendTarm  Backend = "tarm"
	BackendBugst Backend = "bugst"
)

var (
	ErrNilConfig      = errors.New("config cannot be nil")
	ErrUnknownBackend = errors.New("unknown serial backend")
)

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate of the inter-node link
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int

	// Backend selects the serial library; empty means tarm
	Backend Backend
}

// DefaultConfig returns the link's default configuration
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 50,
		Backend:     BackendTarm,
	}
}
