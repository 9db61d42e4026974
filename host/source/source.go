package source

import (
	"context"

	"drawlink/protocol"
)

// Source delivers drawing commands from a remote service and publishes
// touch strokes back to it. HandleLine lets a Source act as the network
// node's core.LineSink.
type Source interface {
	// Run connects and sends commands to out until ctx is done
	Run(ctx context.Context, out chan<- Command) error
	HandleLine(l protocol.Line) error
}

func deliver(ctx context.Context, out chan<- Command, cmd Command) bool {
	select {
	case out <- cmd:
		return true
	case <-ctx.Done():
		return false
	}
}
