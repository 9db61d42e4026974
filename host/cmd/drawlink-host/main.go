package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"drawlink/config"
	"drawlink/core"
	"drawlink/host/bridge"
	"drawlink/host/serial"
	"drawlink/host/source"
	"drawlink/protocol"
)

var (
	configPath = flag.String("config", "", "TOML configuration file")
	device     = flag.String("device", "", "Serial device path (overrides config)")
	baud       = flag.Int("baud", 0, "Baud rate (overrides config)")
	backend    = flag.String("backend", "", "Serial backend: tarm or bugst (overrides config)")
	verbose    = flag.Bool("verbose", false, "Enable debug logging")
	listPorts  = flag.Bool("ports", false, "List serial ports and exit")
)

func main() {
	flag.Parse()

	if *listPorts {
		if err := printPorts(os.Stdout, serial.ListPorts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := newLogger(cfg)

	fmt.Printf("drawlink host %s - network node bridge\n", protocol.Version)
	fmt.Println("=========================================")

	b := bridge.New(bridge.Config{
		Network: core.NetworkConfig{
			NodeConfig:    core.NodeConfig{Logger: &log},
			AliveInterval: cfg.Network.AliveInterval(),
		},
		OnTouch: func(l protocol.Line) {
			log.Info().Interface("line", l).Msg("touch stroke")
		},
	}, newSource(cfg, log))

	fmt.Printf("Connecting to display node on %s...\n", cfg.Serial.Device)
	err = b.ConnectWithConfig(&serial.Config{
		Device:      cfg.Serial.Device,
		Baud:        cfg.Serial.Baud,
		ReadTimeout: cfg.Serial.ReadTimeoutMS,
		Backend:     serial.Backend(cfg.Serial.Backend),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer b.Close()
	fmt.Println("Connected successfully!")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runErr := make(chan error, 1)
	go func() { runErr <- b.Run(ctx) }()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	sh := &shell{link: b, out: os.Stdout, ports: serial.ListPorts}
	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	for {
		fmt.Print("> ")
		select {
		case err := <-runErr:
			if err != nil {
				fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
				os.Exit(1)
			}
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			quit, err := sh.execute(strings.Fields(line))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			if quit {
				fmt.Println("Goodbye!")
				return
			}
		}
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, err
		}
	}

	if *device != "" {
		cfg.Serial.Device = *device
	}
	if *baud != 0 {
		cfg.Serial.Baud = *baud
	}
	if *backend != "" {
		cfg.Serial.Backend = *backend
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if cfg.Serial.Device == "" {
		cfg.Serial.Device = "/dev/ttyUSB0"
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := cfg.Log.ZerologLevel()
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()
}

func newSource(cfg *config.Config, log zerolog.Logger) source.Source {
	switch cfg.Source.Kind {
	case config.SourceWS:
		return source.NewWebSocket(cfg.Source.URL, log)
	case config.SourceMQTT:
		return source.NewMQTT(cfg.Source.URL, cfg.Source.Topic, cfg.Source.ClientID, log)
	default:
		return nil
	}
}
