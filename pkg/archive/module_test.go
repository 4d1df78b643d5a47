package archive

import (
	"context"
	"testing"
	"time"

	"github.com/rinkworks/puckpulse/pkg/scoreboard"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	a := New(t.TempDir())

	state := scoreboard.State{
		HomeScore:     4,
		AwayScore:     2,
		TimeMinutes:   7,
		TimeSeconds:   42,
		HomeShots:     23,
		AwayShots:     18,
		CurrentPeriod: 3,
		HomeTeamName:  "Sharks",
		AwayTeamName:  "Kings",
		ClockMode:     scoreboard.ModeGame,
		HomePenalties: [scoreboard.NumPenaltySlots]scoreboard.Penalty{
			{SecondsRemaining: 65, PlayerNumber: 4},
		},
	}
	require.NoError(t, a.Save(state))

	loaded, err := a.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, state, *loaded)
}

func TestLoadWithoutArchive(t *testing.T) {
	a := New(t.TempDir())

	loaded, err := a.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestWatchPersistsChanges(t *testing.T) {
	a := New(t.TempDir())
	engine := scoreboard.NewEngine(clockwork.NewFakeClock(), 0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Watch returns immediately; the caller does not wrap it in a
	// goroutine of its own.
	a.Watch(ctx, engine)

	engine.SetHomeScore(2)

	require.Eventually(t, func() bool {
		loaded, err := a.Load()
		return err == nil && loaded != nil && loaded.HomeScore == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCelebrationIsNeverArchived(t *testing.T) {
	a := New(t.TempDir())

	state := scoreboard.State{
		HomeScore: 1,
		Goal:      &scoreboard.GoalEvent{PlayerName: "Joe", PlayerNumber: 19},
	}
	require.NoError(t, a.Save(state))

	loaded, err := a.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Nil(t, loaded.Goal)
	assert.Equal(t, 1, loaded.HomeScore)
}
