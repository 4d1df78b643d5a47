package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rinkworks/puckpulse/pkg/archive"
	"github.com/rinkworks/puckpulse/pkg/config"
	"github.com/rinkworks/puckpulse/pkg/display"
	"github.com/rinkworks/puckpulse/pkg/framebuffer"
	"github.com/rinkworks/puckpulse/pkg/ingress"
	"github.com/rinkworks/puckpulse/pkg/render"
	"github.com/rinkworks/puckpulse/pkg/scoreboard"
	"github.com/rinkworks/puckpulse/pkg/teams"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const previewInterval = 500 * time.Millisecond

func serveCommand(configs []string) error {
	cfg, err := config.Process(configs)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
		log.Fatal().Err(err).Msgf("failed to make data dir: %s", cfg.Data.Dir)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := clockwork.NewRealClock()
	buffer := framebuffer.New(cfg.Surface.Width, cfg.Surface.Height)

	engine := scoreboard.NewEngine(
		clock,
		cfg.Game.PeriodLength.Unwrap(),
		cfg.Game.Celebration.Unwrap(),
	)

	store := archive.New(cfg.Data.Dir)
	if saved, err := store.Load(); err != nil {
		log.Warn().Err(err).Msg("could not read archived game; starting fresh")
	} else if saved != nil {
		engine.Restore(*saved)
		log.Info().Msg("restored archived game state")
	}
	store.Watch(ctx, engine)

	roster, err := teams.NewManager(cfg.Data.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open team roster")
	}

	pipeline := render.New(buffer, clock, cfg.Data.FontsDir)

	// Every enabled output sink runs its own push loop against the front
	// buffer. A sink that cannot be brought up is skipped; with no sinks at
	// all there is nothing to drive, so that is fatal.
	sinks := 0

	if cfg.Panel.Enabled {
		panel, err := display.NewPanel(cfg.Panel.Address, buffer)
		if err != nil {
			log.Error().Err(err).Str("address", cfg.Panel.Address).
				Msg("LED panel unavailable")
		} else {
			defer panel.Close()
			go display.Run(ctx, panel, cfg.Panel.Interval.Unwrap())
			sinks++
		}
	}

	if cfg.Preview.Enabled {
		preview := display.NewPreview(buffer)
		if err := preview.Listen(cfg.Preview.Listen); err != nil {
			log.Error().Err(err).Str("address", cfg.Preview.Listen).
				Msg("preview unavailable")
		} else {
			go func() {
				if err := preview.Serve(ctx); err != nil {
					log.Error().Err(err).Msg("preview server failed")
				}
			}()
			go display.Run(ctx, preview, previewInterval)
			sinks++
		}
	}

	if sinks == 0 {
		return fmt.Errorf("no output sinks available")
	}

	server := ingress.NewServer(engine, roster)

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(ctx, cfg.Ingress.Listen)
	}()

	// The simulation loop: advance the game clock, draw the frame, publish
	// it. Render always works on the back buffer; Swap makes the finished
	// frame visible to the sinks.
	tick := cfg.Game.Tick.Unwrap()
	go func() {
		ticker := clock.NewTicker(tick)
		defer ticker.Stop()

		last := clock.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.Chan():
				engine.Advance(now.Sub(last).Seconds())
				last = now

				pipeline.Render(engine.Snapshot())
				buffer.Swap()
			}
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)

	select {
	case err := <-errc:
		log.Error().Err(err).Msg("failed to serve")
	case sig := <-sigs:
		log.Info().Msgf("terminating: %v", sig)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	// One last write so nothing since the previous rate-limited save is
	// lost.
	if err := store.Save(engine.Snapshot()); err != nil {
		log.Error().Err(err).Msg("failed to archive final game state")
	}

	return nil
}
