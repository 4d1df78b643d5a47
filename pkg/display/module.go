package display

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sink is any consumer of the front buffer. Sinks only ever read the front
// surface; the render cycle owns the back one.
type Sink interface {
	Name() string

	// Output pulls the current front buffer and pushes it to the device.
	// Best-effort: a failed push is this cycle's loss, not a fatal error.
	Output(ctx context.Context) error
}

// Run drives one sink at its own cadence until the context ends. A sink that
// fails a cycle is skipped for that cycle; other sinks are unaffected since
// each has its own Run loop.
func Run(ctx context.Context, sink Sink, interval time.Duration) {
	logger := log.With().Str("sink", sink.Name()).Logger()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sink.Output(ctx); err != nil {
				logger.Error().Err(err).Msg("sink output failed; skipping cycle")
			}
		}
	}
}
