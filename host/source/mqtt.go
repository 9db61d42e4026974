package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"drawlink/protocol"
)

const (
	mqttConnectTimeout = 5 * time.Second
	mqttQuiesceMS      = 250
	// TouchSuffix is appended to the topic for published touch strokes
	TouchSuffix = "/touch"
)

var ErrConnectTimeout = errors.New("mqtt connect timeout")

// ClientFactory creates the MQTT client; tests substitute a mock
type ClientFactory func(opts *mqtt.ClientOptions) mqtt.Client

func DefaultClientFactory(opts *mqtt.ClientOptions) mqtt.Client {
	return mqtt.NewClient(opts)
}

// MQTT is a Source subscribed to one broker topic. Touch strokes are
// published on the same topic with TouchSuffix.
type MQTT struct {
	broker   string
	topic    string
	clientID string
	factory  ClientFactory
	log      zerolog.Logger

	mu     sync.Mutex
	client mqtt.Client
}

func NewMQTT(broker, topic, clientID string, log zerolog.Logger) *MQTT {
	if clientID == "" {
		clientID = fmt.Sprintf("drawlink-%d", time.Now().UnixNano())
	}
	return &MQTT{
		broker:   broker,
		topic:    topic,
		clientID: clientID,
		factory:  DefaultClientFactory,
		log:      log.With().Str("source", "mqtt").Logger(),
	}
}

// SetClientFactory replaces the client constructor, before Run
func (s *MQTT) SetClientFactory(f ClientFactory) {
	s.factory = f
}

// Run connects, subscribes and forwards messages until ctx is done
func (s *MQTT) Run(ctx context.Context, out chan<- Command) error {
	opts := mqtt.NewClientOptions().
		AddBroker(s.broker).
		SetClientID(s.clientID).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			s.log.Warn().Err(err).Msg("connection lost")
		})

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		cmd, err := DecodeCommand(msg.Payload())
		if err != nil {
			s.log.Warn().Err(err).Str("topic", msg.Topic()).Msg("ignoring message")
			return
		}
		deliver(ctx, out, cmd)
	}
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		token := c.Subscribe(s.topic, 1, handler)
		if token.Wait() && token.Error() != nil {
			s.log.Error().Err(token.Error()).Str("topic", s.topic).Msg("subscribe failed")
			return
		}
		s.log.Info().Str("topic", s.topic).Msg("subscribed")
	})

	client := s.factory(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		client.Disconnect(0)
		return ErrConnectTimeout
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return fmt.Errorf("connect %s: %w", s.broker, err)
	}
	s.setClient(client)
	s.log.Info().Str("broker", s.broker).Msg("connected")

	<-ctx.Done()
	s.setClient(nil)
	client.Disconnect(mqttQuiesceMS)
	return nil
}

// HandleLine publishes a touch stroke
func (s *MQTT) HandleLine(l protocol.Line) error {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()
	if client == nil || !client.IsConnected() {
		return ErrNotConnected
	}
	data, err := EncodeLine(l)
	if err != nil {
		return err
	}
	token := client.Publish(s.topic+TouchSuffix, 0, false, data)
	if token.WaitTimeout(mqttConnectTimeout) {
		return token.Error()
	}
	return nil
}

func (s *MQTT) setClient(c mqtt.Client) {
	s.mu.Lock()
	s.client = c
	s.mu.Unlock()
}
