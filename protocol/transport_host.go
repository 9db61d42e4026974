package protocol

import (
	"errors"
	"io"
	"sync"
	"time"
)

// HostChannelBufferSize is the receive FIFO capacity of a HostChannel
const HostChannelBufferSize = 512

// HostChannel turns a blocking io.ReadWriteCloser (a host serial port or
// a pipe) into the non-blocking byte channel the node loops poll.
// A background reader fills a FIFO; Buffered and Read never block.
type HostChannel struct {
	port io.ReadWriteCloser

	mu        sync.Mutex
	fifo      *FifoBuffer
	overflows uint32
	readErr   error

	writeMutex sync.Mutex

	stopChan  chan struct{}
	doneChan  chan struct{}
	closeOnce sync.Once
}

// ErrChannelClosed is returned by Write after Close
var ErrChannelClosed = errors.New("channel closed")

// NewHostChannel creates a HostChannel and starts its reader
func NewHostChannel(port io.ReadWriteCloser) *HostChannel {
	c := &HostChannel{
		port:     port,
		fifo:     NewFifoBuffer(HostChannelBufferSize),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}

	go c.readLoop()

	return c
}

// Buffered returns the number of received bytes waiting to be read
func (c *HostChannel) Buffered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fifo.Available()
}

// Read copies already received bytes into b without waiting for more
func (c *HostChannel) Read(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.fifo.Read(b)
	if n == 0 && c.readErr != nil {
		return 0, c.readErr
	}
	return n, nil
}

// Write sends b to the port
func (c *HostChannel) Write(b []byte) (int, error) {
	select {
	case <-c.stopChan:
		return 0, ErrChannelClosed
	default:
	}

	c.writeMutex.Lock()
	defer c.writeMutex.Unlock()

	return c.port.Write(b)
}

// Overflows returns how many received bytes were dropped because the
// FIFO was full
func (c *HostChannel) Overflows() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overflows
}

// Close stops the reader and closes the port
func (c *HostChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.stopChan)
		// Closing the port unblocks a pending Read
		err = c.port.Close()
		<-c.doneChan
	})
	return err
}

// readLoop continuously reads from the port into the FIFO
func (c *HostChannel) readLoop() {
	defer close(c.doneChan)

	buffer := make([]byte, 256)

	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		n, err := c.port.Read(buffer)
		if n > 0 {
			c.mu.Lock()
			written := c.fifo.Write(buffer[:n])
			c.overflows += uint32(n - written)
			c.mu.Unlock()
		}

		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				c.mu.Lock()
				c.readErr = io.EOF
				c.mu.Unlock()
				return
			}
			// Transient error; back off briefly
			select {
			case <-c.stopChan:
				return
			case <-time.After(10 * time.Millisecond):
			}
		}
	}
}
