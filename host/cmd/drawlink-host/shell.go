package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"drawlink/protocol"
)

// link is what the shell drives; *bridge.Bridge implements it
type link interface {
	SendLine(l protocol.Line) error
	SendClear() error
	SendStatus(text string) error
	SendAlive() error
	SetHeartbeat(enabled bool) error
	Stats() protocol.Stats
	PeerAlive() time.Time
}

var errUsage = errors.New("usage")

type shell struct {
	link  link
	out   io.Writer
	ports func() ([]string, error)
}

// execute runs one command line and reports whether the shell should exit
func (s *shell) execute(parts []string) (bool, error) {
	if len(parts) == 0 {
		return false, nil
	}

	switch cmd, args := parts[0], parts[1:]; cmd {
	case "quit", "exit", "q":
		return true, nil

	case "help", "?":
		printHelp(s.out)

	case "line":
		l, err := parseLine(args)
		if err != nil {
			return false, err
		}
		return false, s.link.SendLine(l)

	case "clear":
		return false, s.link.SendClear()

	case "status":
		return false, s.link.SendStatus(strings.Join(args, " "))

	case "alive":
		return false, s.link.SendAlive()

	case "heartbeat":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return false, fmt.Errorf("%w: heartbeat on|off", errUsage)
		}
		return false, s.link.SetHeartbeat(args[0] == "on")

	case "stats":
		printStats(s.out, s.link.Stats(), s.link.PeerAlive())

	case "ports":
		return false, printPorts(s.out, s.ports)

	case "version":
		fmt.Fprintf(s.out, "drawlink %s\n", protocol.Version)

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for available commands)\n", cmd)
	}
	return false, nil
}

func parseLine(args []string) (protocol.Line, error) {
	if len(args) != 4 && len(args) != 5 {
		return protocol.Line{}, fmt.Errorf("%w: line x0 y0 x1 y1 [color]", errUsage)
	}

	var v [5]int64
	for i, a := range args {
		lo, hi := int64(math.MinInt16), int64(math.MaxInt16)
		if i == 4 {
			lo, hi = 0, math.MaxUint8
		}
		n, err := strconv.ParseInt(a, 10, 64)
		if err != nil || n < lo || n > hi {
			return protocol.Line{}, fmt.Errorf("%w: bad number %q", errUsage, a)
		}
		v[i] = n
	}
	return protocol.Line{
		X0:    int16(v[0]),
		Y0:    int16(v[1]),
		X1:    int16(v[2]),
		Y1:    int16(v[3]),
		Color: uint8(v[4]),
	}, nil
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "\nAvailable commands:")
	fmt.Fprintln(w, "  help                      - Show this help message")
	fmt.Fprintln(w, "  line x0 y0 x1 y1 [color]  - Draw a line on the display")
	fmt.Fprintln(w, "  clear                     - Clear the drawing")
	fmt.Fprintln(w, "  status <text>             - Show text on the status bar")
	fmt.Fprintln(w, "  alive                     - Send one heartbeat")
	fmt.Fprintln(w, "  heartbeat on|off          - Toggle automatic heartbeats")
	fmt.Fprintln(w, "  stats                     - Print link counters")
	fmt.Fprintln(w, "  ports                     - List serial ports")
	fmt.Fprintln(w, "  version                   - Print protocol version")
	fmt.Fprintln(w, "  quit/exit/q               - Exit the program")
	fmt.Fprintln(w)
}

func printStats(w io.Writer, st protocol.Stats, peerAlive time.Time) {
	fmt.Fprintf(w, "frames received:  %d\n", st.FramesReceived)
	fmt.Fprintf(w, "frames sent:      %d\n", st.FramesSent)
	fmt.Fprintf(w, "dropped bytes:    %d\n", st.DroppedBytes)
	fmt.Fprintf(w, "unknown opcodes:  %d\n", st.UnknownOpcodes)
	fmt.Fprintf(w, "direction errors: %d\n", st.DirectionErrors)
	fmt.Fprintf(w, "handler errors:   %d\n", st.HandlerErrors)
	fmt.Fprintf(w, "output overflows: %d\n", st.OutputOverflows)
	if peerAlive.IsZero() {
		fmt.Fprintln(w, "display alive:    never")
	} else {
		fmt.Fprintf(w, "display alive:    %s ago\n", time.Since(peerAlive).Round(time.Millisecond))
	}
}

func printPorts(w io.Writer, list func() ([]string, error)) error {
	ports, err := list()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Fprintln(w, "No serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Fprintln(w, p)
	}
	return nil
}
