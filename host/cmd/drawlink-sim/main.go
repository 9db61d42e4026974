package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"drawlink/config"
	"drawlink/core"
	"drawlink/host/export"
	"drawlink/host/sim"
	"drawlink/host/source"
	"drawlink/protocol"
	"drawlink/render"
)

var (
	configPath = flag.String("config", "", "TOML configuration file")
	duration   = flag.Duration("duration", 5*time.Second, "How long to run")
	hangAfter  = flag.Duration("hang-after", 0, "Hang the network node after this long (0 = never)")
	pdfPath    = flag.String("pdf", "", "Write the final drawing to this PDF file")
	demo       = flag.Bool("demo", true, "Draw a demo figure when no source is configured")
	verbose    = flag.Bool("verbose", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}

	level, _ := cfg.Log.ZerologLevel()
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()

	s := sim.New(sim.Config{
		Display:       cfg.Watchdog.WatchdogConfig(),
		AliveInterval: cfg.Network.AliveInterval(),
		Logger:        &log,
		OnTouch: func(l protocol.Line) {
			log.Info().Interface("line", l).Msg("touch stroke")
		},
	})
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *duration)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Run(ctx) })

	if src := newSource(cfg, log); src != nil {
		commands := make(chan source.Command, 64)
		g.Go(func() error { return src.Run(ctx, commands) })
		g.Go(func() error { return forward(ctx, s, commands) })
	} else if *demo {
		g.Go(func() error { return drawDemo(ctx, s) })
	}

	if *hangAfter > 0 {
		g.Go(func() error {
			select {
			case <-ctx.Done():
			case <-time.After(*hangAfter):
				log.Warn().Msg("hanging network node")
				s.Hang()
			}
			return nil
		})
	}

	g.Go(func() error { return watch(ctx, s, log) })

	if err := g.Wait(); err != nil {
		return err
	}

	state, resets := s.WatchdogState()
	fmt.Printf("network node: %s after %d reset(s)\n", state, resets)
	fmt.Printf("display rx:   %+v\n", s.DisplayStats())
	fmt.Printf("network rx:   %+v\n", s.NetworkStats())
	fmt.Printf("lines shown:  %d\n", len(s.Lines()))

	if *pdfPath != "" {
		f, err := os.Create(*pdfPath)
		if err != nil {
			return err
		}
		w, h := s.Size()
		if err := export.PDF(f, s.Lines(), render.DefaultPalette, w, h); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("drawing written to %s\n", *pdfPath)
	}
	return nil
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

func forward(ctx context.Context, s *sim.Sim, commands <-chan source.Command) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-commands:
			var err error
			switch cmd.Kind {
			case source.CommandLine:
				err = s.SendLine(cmd.Line)
			case source.CommandClear:
				err = s.SendClear()
			case source.CommandStatus:
				err = s.SendStatus(cmd.Text)
			}
			if err != nil {
				return err
			}
		}
	}
}

// drawDemo traces a star polygon one segment at a time
func drawDemo(ctx context.Context, s *sim.Sim) error {
	if err := s.SendStatus("Demo drawing"); err != nil {
		return err
	}

	w, h := s.Size()
	cx, cy := float64(w)/2, float64(h-8)/2
	r := math.Min(cx, cy) * 0.9
	const points = 7

	vertex := func(i int) (int16, int16) {
		a := float64(i*3%points)*2*math.Pi/points - math.Pi/2
		return int16(cx + r*math.Cos(a)), int16(cy + r*math.Sin(a))
	}

	for i := 0; i < points; i++ {
		x0, y0 := vertex(i)
		x1, y1 := vertex(i + 1)
		l := protocol.Line{X0: x0, Y0: y0, X1: x1, Y1: y1, Color: uint8(1 + i%(len(render.DefaultPalette)-1))}
		if err := s.SendLine(l); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil
}

// watch logs watchdog transitions
func watch(ctx context.Context, s *sim.Sim, log zerolog.Logger) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	lastState, lastResets := core.Healthy, uint32(0)
	lastStatus := ""
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		state, resets := s.WatchdogState()
		if state != lastState || resets != lastResets {
			log.Info().Stringer("state", state).Uint32("resets", resets).Msg("watchdog")
			lastState, lastResets = state, resets
		}
		if st := s.Status(); st != lastStatus {
			log.Info().Str("text", st).Msg("status bar")
			lastStatus = st
		}
	}
}
