package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"drawlink/protocol"
)

const wsWriteTimeout = 2 * time.Second

// WebSocket is a Source backed by a websocket drawing service
type WebSocket struct {
	url    string
	dialer *websocket.Dialer
	log    zerolog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewWebSocket(url string, log zerolog.Logger) *WebSocket {
	return &WebSocket{
		url:    url,
		dialer: websocket.DefaultDialer,
		log:    log.With().Str("source", "websocket").Logger(),
	}
}

// Run dials the service and forwards its messages. It returns nil when
// ctx is cancelled and an error when the connection fails.
func (s *WebSocket) Run(ctx context.Context, out chan<- Command) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.url, err)
	}
	s.setConn(conn)
	defer s.setConn(nil)
	s.log.Info().Str("url", s.url).Msg("connected")

	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(wsWriteTimeout))
		conn.Close()
	})
	defer stop()
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read %s: %w", s.url, err)
		}

		cmd, err := DecodeCommand(data)
		if err != nil {
			s.log.Warn().Err(err).Msg("ignoring message")
			continue
		}
		if !deliver(ctx, out, cmd) {
			return nil
		}
	}
}

// HandleLine publishes a touch stroke
func (s *WebSocket) HandleLine(l protocol.Line) error {
	data, err := EncodeLine(l)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrNotConnected
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *WebSocket) setConn(conn *websocket.Conn) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
}
