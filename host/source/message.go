// Package source connects the network node to a remote drawing service
package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"drawlink/protocol"
)

// Message types on the wire
const (
	TypeDraw   = "draw"
	TypeClear  = "clear"
	TypeStatus = "status"
)

var (
	ErrUnknownType  = errors.New("unknown message type")
	ErrNotConnected = errors.New("source not connected")
)

// Message is the envelope for everything exchanged with the service
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Stroke is one line segment in screen coordinates. Color is a palette
// index.
type Stroke struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Color uint8   `json:"color"`
}

// StatusText carries text for the display's status bar
type StatusText struct {
	Text string `json:"text"`
}

// CommandKind says what a Command asks the network node to do
type CommandKind int

const (
	CommandLine CommandKind = iota
	CommandClear
	CommandStatus
)

func (k CommandKind) String() string {
	switch k {
	case CommandLine:
		return "line"
	case CommandClear:
		return "clear"
	case CommandStatus:
		return "status"
	default:
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}
}

// Command is one decoded instruction for the display
type Command struct {
	Kind CommandKind
	Line protocol.Line
	Text string
}

// DecodeCommand parses one service message
func DecodeCommand(data []byte) (Command, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Command{}, fmt.Errorf("decode message: %w", err)
	}

	switch msg.Type {
	case TypeDraw:
		var s Stroke
		if err := json.Unmarshal(msg.Data, &s); err != nil {
			return Command{}, fmt.Errorf("decode stroke: %w", err)
		}
		return Command{Kind: CommandLine, Line: s.Line()}, nil
	case TypeClear:
		return Command{Kind: CommandClear}, nil
	case TypeStatus:
		var st StatusText
		if err := json.Unmarshal(msg.Data, &st); err != nil {
			return Command{}, fmt.Errorf("decode status: %w", err)
		}
		return Command{Kind: CommandStatus, Text: st.Text}, nil
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}
}

// EncodeLine builds the draw message published for a touch stroke
func EncodeLine(l protocol.Line) ([]byte, error) {
	data, err := json.Marshal(StrokeFromLine(l))
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: TypeDraw, Data: data})
}

// Line converts the stroke to link coordinates, rounding and clamping to
// the int16 range
func (s Stroke) Line() protocol.Line {
	return protocol.Line{
		X0:    toCoord(s.X1),
		Y0:    toCoord(s.Y1),
		X1:    toCoord(s.X2),
		Y1:    toCoord(s.Y2),
		Color: s.Color,
	}
}

func StrokeFromLine(l protocol.Line) Stroke {
	return Stroke{
		X1:    float64(l.X0),
		Y1:    float64(l.Y0),
		X2:    float64(l.X1),
		Y2:    float64(l.Y1),
		Color: l.Color,
	}
}

func toCoord(v float64) int16 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Round(v)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
