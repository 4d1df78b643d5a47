package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/rinkworks/puckpulse/pkg/framebuffer"
	"github.com/rinkworks/puckpulse/pkg/scoreboard"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T) (*Pipeline, *framebuffer.Buffer) {
	buffer := framebuffer.New(384, 160)
	// Empty fonts dir: text elements degrade to omission, frames still render.
	return New(buffer, clockwork.NewFakeClock(), t.TempDir()), buffer
}

func TestRenderScoreboardDrawsBorder(t *testing.T) {
	p, buffer := newTestPipeline(t)

	p.Render(scoreboard.State{
		HomeScore:     1,
		AwayScore:     2,
		TimeMinutes:   12,
		TimeSeconds:   34,
		CurrentPeriod: 1,
	})

	r, _, _, a := buffer.Back().At(1, 1).RGBA()
	assert.NotZero(t, a, "border pixel should be painted")
	assert.NotZero(t, r, "border should be red")
}

func TestRenderClearsPreviousFrame(t *testing.T) {
	p, buffer := newTestPipeline(t)

	p.Render(scoreboard.State{})

	// Celebrations replace the scoreboard outright, so the border must be
	// gone on the next frame.
	p.Render(scoreboard.State{
		Goal: &scoreboard.GoalEvent{PlayerName: "Joe", PlayerNumber: 19},
	})

	_, _, _, a := buffer.Back().At(1, 1).RGBA()
	assert.Zero(t, a, "celebration frame must not contain scoreboard pixels")
}

func TestCelebrationBlitsPlayerImage(t *testing.T) {
	p, buffer := newTestPipeline(t)

	src := image.NewRGBA(image.Rect(0, 0, 4, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{0, 255, 0, 255})
		}
	}
	var encoded bytes.Buffer
	require.NoError(t, png.Encode(&encoded, src))

	p.Render(scoreboard.State{
		Goal: &scoreboard.GoalEvent{
			PlayerName:   "Joe",
			PlayerNumber: 19,
			Image:        encoded.Bytes(),
		},
	})

	// 4x8 scaled to the 160px height is 80px wide, centered at x=152..232.
	_, g, _, _ := buffer.Back().At(192, 80).RGBA()
	assert.NotZero(t, g, "player image should cover the surface center")
}

func TestCorruptImageDegradesToEmptyBackdrop(t *testing.T) {
	p, buffer := newTestPipeline(t)

	p.Render(scoreboard.State{
		Goal: &scoreboard.GoalEvent{
			PlayerNumber: 19,
			Image:        []byte("not an image"),
		},
	})

	_, _, _, a := buffer.Back().At(192, 80).RGBA()
	assert.Zero(t, a)
}

func TestRenderNeverMutatesSnapshot(t *testing.T) {
	p, _ := newTestPipeline(t)

	state := scoreboard.State{
		HomeScore:   3,
		TimeMinutes: 5,
		HomePenalties: [scoreboard.NumPenaltySlots]scoreboard.Penalty{
			{SecondsRemaining: 30, PlayerNumber: 12},
		},
	}
	original := state

	p.Render(state)

	assert.Equal(t, original, state)
}
