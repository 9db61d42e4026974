package bridge

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"drawlink/core"
	"drawlink/host/source"
	"drawlink/protocol"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	commands []source.Command
	runErr   error

	mu      sync.Mutex
	touches []protocol.Line
}

func (s *fakeSource) Run(ctx context.Context, out chan<- source.Command) error {
	if s.runErr != nil {
		return s.runErr
	}
	for _, c := range s.commands {
		select {
		case out <- c:
		case <-ctx.Done():
			return nil
		}
	}
	<-ctx.Done()
	return nil
}

func (s *fakeSource) HandleLine(l protocol.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touches = append(s.touches, l)
	return nil
}

func (s *fakeSource) touchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.touches)
}

// displayEnd reads frames the bridge sends over the pipe
func displayEnd(conn net.Conn) <-chan protocol.Packet {
	packets := make(chan protocol.Packet, 64)
	go func() {
		defer close(packets)
		var frame protocol.Frame
		for {
			if _, err := io.ReadFull(conn, frame[:]); err != nil {
				return
			}
			p, err := protocol.Decode(frame[:], protocol.ToDisplay)
			if err != nil {
				return
			}
			packets <- p
		}
	}()
	return packets
}

func nextNonAlive(t *testing.T, packets <-chan protocol.Packet) protocol.Packet {
	t.Helper()
	for {
		select {
		case p, ok := <-packets:
			require.True(t, ok, "pipe closed")
			if p.Opcode() != protocol.OpAlive {
				return p
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for a frame")
		}
	}
}

func TestBridgeForwardsSourceCommands(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()

	line := protocol.Line{X0: 1, Y0: 2, X1: 3, Y1: 4, Color: 2}
	src := &fakeSource{commands: []source.Command{
		{Kind: source.CommandClear},
		{Kind: source.CommandLine, Line: line},
		{Kind: source.CommandStatus, Text: "hi"},
	}}
	b := New(Config{StepInterval: time.Millisecond}, src)
	b.Attach(local)
	packets := displayEnd(remote)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	require.Equal(t, protocol.ClearPacket{}, nextNonAlive(t, packets))
	require.Equal(t, protocol.LinePacket{Line: line}, nextNonAlive(t, packets))
	status, ok := nextNonAlive(t, packets).(protocol.StatusPacket)
	require.True(t, ok)
	require.Equal(t, uint8(0), status.Chunk.Offset)
	require.Equal(t, "hi\x00", string(status.Chunk.Part[:3]))

	cancel()
	require.NoError(t, <-done)
	require.NoError(t, b.Close())
}

func TestBridgeForwardsTouches(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()

	src := &fakeSource{}
	var mu sync.Mutex
	var seen []protocol.Line
	b := New(Config{
		StepInterval: time.Millisecond,
		OnTouch: func(l protocol.Line) {
			mu.Lock()
			seen = append(seen, l)
			mu.Unlock()
		},
	}, src)
	b.Attach(local)
	packets := displayEnd(remote)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	stroke := protocol.Line{X0: 9, Y0: 8, X1: 7, Y1: 6, Color: 1}
	frame, err := protocol.Encode(protocol.LinePacket{Line: stroke})
	require.NoError(t, err)
	_, err = remote.Write(frame[:])
	require.NoError(t, err)

	require.Eventually(t, func() bool { return src.touchCount() == 1 }, 5*time.Second, time.Millisecond)
	mu.Lock()
	require.Equal(t, []protocol.Line{stroke}, seen)
	mu.Unlock()
	require.Equal(t, uint32(1), b.Stats().FramesReceived)

	cancel()
	require.NoError(t, <-done)
	require.NoError(t, b.Close())
	for range packets {
	}
}

func TestBridgeSourceFailureStopsRun(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()
	packets := displayEnd(remote)

	b := New(Config{}, &fakeSource{runErr: errors.New("dial refused")})
	b.Attach(local)

	require.ErrorContains(t, b.Run(context.Background()), "dial refused")
	require.NoError(t, b.Close())
	for range packets {
	}
}

func TestBridgeNotConnected(t *testing.T) {
	b := New(Config{Network: core.NetworkConfig{AliveInterval: time.Second}}, nil)

	require.ErrorIs(t, b.Run(context.Background()), ErrNotConnected)
	require.ErrorIs(t, b.SendLine(protocol.Line{}), ErrNotConnected)
	require.ErrorIs(t, b.SendAlive(), ErrNotConnected)
	require.NoError(t, b.Close())
	require.Equal(t, protocol.Stats{}, b.Stats())
}
