package archive

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rinkworks/puckpulse/pkg/scoreboard"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const saveInterval = 2 * time.Second

// Archive persists the latest game state so a process restart mid-game keeps
// the score, clock and period. Celebration overlays are transient and are
// never written.
type Archive struct {
	path string
}

func New(dataDir string) *Archive {
	return &Archive{
		path: filepath.Join(dataDir, "game.cbor"),
	}
}

func (a *Archive) Save(state scoreboard.State) error {
	state.Goal = nil

	data, err := cbor.Marshal(state)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(a.path), 0755); err != nil {
		return err
	}

	// Write-then-rename so a crash mid-save never truncates the archive.
	tmp := a.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, a.path)
}

// Load returns the archived state, or nil when no archive exists yet.
func (a *Archive) Load() (*scoreboard.State, error) {
	data, err := os.ReadFile(a.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var state scoreboard.State
	if err := cbor.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Watch follows the engine's change feed and saves the newest snapshot, rate
// limited so a running clock does not rewrite the file twenty times a second.
func (a *Archive) Watch(ctx context.Context, engine *scoreboard.Engine) {
	sub := engine.Changes().SubscribeBuffered(128)
	limiter := rate.NewLimiter(rate.Every(saveInterval), 1)

	go func() {
		defer sub.Done()

		for {
			var state scoreboard.State
			select {
			case <-ctx.Done():
				return
			case state = <-sub.Recv():
			}

			// Collapse any backlog down to the newest snapshot.
			for {
				select {
				case state = <-sub.Recv():
					continue
				default:
				}
				break
			}

			if err := limiter.Wait(ctx); err != nil {
				return
			}

			if err := a.Save(state); err != nil {
				log.Error().Err(err).Msg("failed to archive game state")
			}
		}
	}()
}
