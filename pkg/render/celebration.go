package render

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rinkworks/puckpulse/pkg/scoreboard"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
)

const blinkPhase = 500 // milliseconds

func (p *Pipeline) renderCelebration(ctx *gg.Context, state scoreboard.State) {
	w := float64(p.buffer.Width())
	h := float64(p.buffer.Height())
	goal := state.Goal

	if len(goal.Image) > 0 {
		if player, _, err := image.Decode(bytes.NewReader(goal.Image)); err == nil {
			p.blitPlayerImage(ctx, player, w, h)
		}
		// An undecodable image just leaves the backdrop empty.
	}

	// "GOAL!" blinks on a fixed wall-clock phase.
	ms := p.clock.Now().UnixMilli()
	if (ms/blinkPhase)%2 == 0 {
		ctx.SetRGB255(255, 0, 0)
		p.drawString(ctx, p.titleFace, "GOAL!", 10, 50)
	}

	if goal.PlayerNumber <= 0 && goal.PlayerName == "" {
		return
	}

	// Jersey number innermost-right, name to its left.
	const padding = 10.0
	const spacing = 10.0
	x := w - padding

	number := fmt.Sprintf("#%d", goal.PlayerNumber)
	ctx.SetRGB255(255, 170, 51)
	x -= p.textWidth(ctx, p.playerFace, number)
	p.drawString(ctx, p.playerFace, number, x, h-10)

	if goal.PlayerName != "" {
		ctx.SetRGB255(255, 255, 255)
		x -= p.textWidth(ctx, p.playerFace, goal.PlayerName) + spacing
		p.drawString(ctx, p.playerFace, goal.PlayerName, x, h-10)
	}
}

// blitPlayerImage scales the player image to the full surface height,
// preserving aspect ratio, horizontally centered.
func (p *Pipeline) blitPlayerImage(ctx *gg.Context, player image.Image, w, h float64) {
	bounds := player.Bounds()
	if bounds.Dy() == 0 {
		return
	}

	scale := h / float64(bounds.Dy())
	targetW := float64(bounds.Dx()) * scale
	x := int((w - targetW) / 2)

	target := image.Rect(x, 0, x+int(targetW), int(h))
	draw.ApproxBiLinear.Scale(ctx.Image().(*image.RGBA), target, player, bounds, draw.Over, nil)
}

func (p *Pipeline) textWidth(ctx *gg.Context, face font.Face, text string) float64 {
	if face == nil || text == "" {
		return 0
	}
	ctx.SetFontFace(face)
	width, _ := ctx.MeasureString(text)
	return width
}
