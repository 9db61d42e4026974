// Package config loads the host tools' TOML configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"drawlink/core"
)

const (
	BackendTarm   = "tarm"
	BackendBugst  = "bugst"
	SourceNone    = ""
	SourceWS      = "websocket"
	SourceMQTT    = "mqtt"
	DefaultBaud   = 115200
	DefaultTopic  = "drawlink/lines"
	DefaultLevel  = "info"
	defaultReadMS = 50
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Serial   Serial   `toml:"serial"`
	Watchdog Watchdog `toml:"watchdog"`
	Network  Network  `toml:"network"`
	Source   Source   `toml:"source"`
	Log      Log      `toml:"log"`
}

type Serial struct {
	Device        string `toml:"device"`
	Baud          int    `toml:"baud"`
	ReadTimeoutMS int    `toml:"read_timeout_ms"`
	Backend       string `toml:"backend"`
}

type Watchdog struct {
	IntervalMS     int  `toml:"interval_ms"`
	ResetPulseMS   int  `toml:"reset_pulse_ms"`
	ResetActiveLow bool `toml:"reset_active_low"`
}

type Network struct {
	AliveIntervalMS int `toml:"alive_interval_ms"`
}

// Source selects where the network node gets its drawing from
type Source struct {
	Kind     string `toml:"kind"`
	URL      string `toml:"url"`
	Topic    string `toml:"topic"`
	ClientID string `toml:"client_id"`
}

type Log struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses a TOML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML, fills in defaults and validates the result
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in missing configuration values
func applyDefaults(cfg *Config) {
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = DefaultBaud
	}
	if cfg.Serial.ReadTimeoutMS == 0 {
		cfg.Serial.ReadTimeoutMS = defaultReadMS
	}
	if cfg.Serial.Backend == "" {
		cfg.Serial.Backend = BackendTarm
	}

	if cfg.Watchdog.IntervalMS == 0 {
		cfg.Watchdog.IntervalMS = int(core.DefaultWatchdogInterval / time.Millisecond)
	}
	if cfg.Watchdog.ResetPulseMS == 0 {
		cfg.Watchdog.ResetPulseMS = int(core.DefaultResetPulse / time.Millisecond)
	}

	if cfg.Network.AliveIntervalMS == 0 {
		cfg.Network.AliveIntervalMS = int(core.DefaultAliveInterval / time.Millisecond)
	}

	if cfg.Source.Kind == SourceMQTT && cfg.Source.Topic == "" {
		cfg.Source.Topic = DefaultTopic
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLevel
	}
}

// Validate reports the first setting that cannot be used
func (c *Config) Validate() error {
	switch c.Serial.Backend {
	case BackendTarm, BackendBugst:
	default:
		return fmt.Errorf("%w: serial backend %q", ErrInvalid, c.Serial.Backend)
	}
	if c.Serial.Baud < 0 || c.Serial.ReadTimeoutMS < 0 {
		return fmt.Errorf("%w: negative serial setting", ErrInvalid)
	}
	if c.Watchdog.IntervalMS < 0 || c.Watchdog.ResetPulseMS < 0 || c.Network.AliveIntervalMS < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalid)
	}
	if c.Watchdog.ResetPulseMS >= c.Watchdog.IntervalMS {
		return fmt.Errorf("%w: reset pulse %dms must be shorter than watchdog interval %dms",
			ErrInvalid, c.Watchdog.ResetPulseMS, c.Watchdog.IntervalMS)
	}
	if c.Network.AliveIntervalMS >= c.Watchdog.IntervalMS {
		return fmt.Errorf("%w: alive interval %dms must be shorter than watchdog interval %dms",
			ErrInvalid, c.Network.AliveIntervalMS, c.Watchdog.IntervalMS)
	}

	switch c.Source.Kind {
	case SourceNone:
	case SourceWS, SourceMQTT:
		if c.Source.URL == "" {
			return fmt.Errorf("%w: %s source needs a url", ErrInvalid, c.Source.Kind)
		}
	default:
		return fmt.Errorf("%w: source kind %q", ErrInvalid, c.Source.Kind)
	}

	if _, err := c.Log.ZerologLevel(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// WatchdogConfig converts the section for core.NewWatchdog
func (w Watchdog) WatchdogConfig() core.WatchdogConfig {
	return core.WatchdogConfig{
		Interval:   time.Duration(w.IntervalMS) * time.Millisecond,
		ResetPulse: time.Duration(w.ResetPulseMS) * time.Millisecond,
	}
}

func (n Network) AliveInterval() time.Duration {
	return time.Duration(n.AliveIntervalMS) * time.Millisecond
}

func (s Serial) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMS) * time.Millisecond
}

func (l Log) ZerologLevel() (zerolog.Level, error) {
	return zerolog.ParseLevel(strings.ToLower(l.Level))
}
