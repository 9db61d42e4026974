package core

import "drawlink/protocol"

// ByteChannel is the serial link as the node loop sees it. Buffered and
// Read must not block; TinyGo's machine.UART and protocol.HostChannel
// both fit.
type ByteChannel interface {
	Buffered() int
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// ResetLine drives the peer's reset circuit
type ResetLine interface {
	Assert() error
	Release() error
}

// ReadySignal reports whether the network node accepts drawing data
type ReadySignal interface {
	Ready() bool
}

// ReadyLine is the network node's side of the ready-to-draw signal
type ReadyLine interface {
	SetReady(ready bool) error
}

// StatusSink accepts finished status text
type StatusSink interface {
	Status(msg string)
}

// StatusFunc adapts a function to StatusSink
type StatusFunc func(msg string)

func (f StatusFunc) Status(msg string) { f(msg) }

// Renderer is the display side collaborator that draws what arrives
type Renderer interface {
	// DrawLine renders one segment; an unknown color index is reported here
	DrawLine(l protocol.Line) error
	Clear() error
	ShowStatus(text string) error
}

// LineSink receives touch strokes on the network node
type LineSink interface {
	HandleLine(l protocol.Line) error
}

// LineSinkFunc adapts a function to LineSink
type LineSinkFunc func(l protocol.Line) error

func (f LineSinkFunc) HandleLine(l protocol.Line) error { return f(l) }
