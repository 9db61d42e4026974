//go:build !wasm

package serial

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
	bugst "go.bug.st/serial"
)

// Open opens a native serial port with the configured backend
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	switch cfg.Backend {
	case "", BackendTarm:
		return openTarm(cfg)
	case BackendBugst:
		return openBugst(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// ListPorts returns the serial devices present on this machine
func ListPorts() ([]string, error) {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}

// NativePort wraps the tarm/serial implementation
type NativePort struct {
	port *serial.Port
	cfg  *Config
}

func openTarm(cfg *Config) (Port, error) {
	serialConfig := &serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	}

	port, err := serial.OpenPort(serialConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	return &NativePort{
		port: port,
		cfg:  cfg,
	}, nil
}

// Read reads data from the serial port. A read that times out with no
// data is reported as (0, nil) rather than io.EOF.
func (p *NativePort) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	return timeoutAsEmpty(n, err, p.cfg.ReadTimeout > 0)
}

// Write writes data to the serial port
func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close closes the serial port
func (p *NativePort) Close() error {
	if p.port != nil {
		return p.port.Close()
	}
	return nil
}

// Flush discards data received but not yet read
func (p *NativePort) Flush() error {
	return p.port.Flush()
}

func timeoutAsEmpty(n int, err error, hasTimeout bool) (int, error) {
	if hasTimeout && n == 0 && errors.Is(err, io.EOF) {
		return 0, nil
	}
	return n, err
}

// BugstPort wraps the go.bug.st/serial implementation
type BugstPort struct {
	port bugst.Port
}

func openBugst(cfg *Config) (Port, error) {
	port, err := bugst.Open(cfg.Device, &bugst.Mode{BaudRate: cfg.Baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	timeout := bugst.NoTimeout
	if cfg.ReadTimeout > 0 {
		timeout = time.Duration(cfg.ReadTimeout) * time.Millisecond
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", cfg.Device, err)
	}

	return &BugstPort{port: port}, nil
}

func (p *BugstPort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

func (p *BugstPort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

func (p *BugstPort) Close() error {
	return p.port.Close()
}

// Flush discards data received but not yet read
func (p *BugstPort) Flush() error {
	return p.port.ResetInputBuffer()
}
