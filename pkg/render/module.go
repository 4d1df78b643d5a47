package render

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rinkworks/puckpulse/pkg/framebuffer"
	"github.com/rinkworks/puckpulse/pkg/scoreboard"

	"github.com/fogleman/gg"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/font"
)

// Pipeline draws scoreboard snapshots into the back buffer. Rendering is a
// pure function of the snapshot plus the wall clock (blink phase only); it
// never mutates state and never blocks on I/O.
type Pipeline struct {
	buffer *framebuffer.Buffer
	clock  clockwork.Clock

	scoreFace   font.Face
	clockFace   font.Face
	detailFace  font.Face
	penaltyFace font.Face
	titleFace   font.Face
	playerFace  font.Face
}

func New(buffer *framebuffer.Buffer, clock clockwork.Clock, fontsDir string) *Pipeline {
	p := &Pipeline{
		buffer: buffer,
		clock:  clock,
	}

	// A missing font degrades to omitting text, never to a failed frame.
	p.scoreFace = loadFace(fontsDir, 64)
	p.clockFace = loadFace(fontsDir, 44)
	p.detailFace = loadFace(fontsDir, 16)
	p.penaltyFace = loadFace(fontsDir, 18)
	p.titleFace = loadFace(fontsDir, 60)
	p.playerFace = loadFace(fontsDir, 30)

	return p
}

var faceCandidates = []string{
	"digital-7 (mono).ttf",
	"DejaVuSans.ttf",
}

func loadFace(fontsDir string, points float64) font.Face {
	candidates := make([]string, 0, len(faceCandidates)+1)
	for _, name := range faceCandidates {
		candidates = append(candidates, filepath.Join(fontsDir, name))
	}
	candidates = append(candidates, "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf")

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		face, err := gg.LoadFontFace(path, points)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to load font")
			continue
		}
		return face
	}

	log.Warn().Str("dir", fontsDir).Msg("no usable font; text elements will be omitted")
	return nil
}

// Render draws one frame for the snapshot into the back buffer. The caller
// swaps afterwards; Render itself never touches the front buffer.
func (p *Pipeline) Render(state scoreboard.State) {
	back := p.buffer.Back()

	// Start from a fully transparent frame.
	for i := range back.Pix {
		back.Pix[i] = 0
	}

	ctx := gg.NewContextForRGBA(back)

	if state.Celebrating() {
		// The celebration replaces the scoreboard, it never composites
		// over it.
		p.renderCelebration(ctx, state)
	} else {
		p.renderScoreboard(ctx, state)
	}

	framesRendered.Inc()
}

func (p *Pipeline) renderScoreboard(ctx *gg.Context, state scoreboard.State) {
	w := float64(p.buffer.Width())
	h := float64(p.buffer.Height())

	ctx.SetRGB255(255, 0, 0)
	ctx.SetLineWidth(3)
	ctx.DrawRectangle(0, 0, w, h)
	ctx.Stroke()

	ctx.SetRGB255(255, 255, 255)

	p.drawString(ctx, p.detailFace, state.HomeTeamName, 12, 24)
	p.drawStringRight(ctx, p.detailFace, state.AwayTeamName, w-12, 24)

	p.drawString(ctx, p.scoreFace, fmt.Sprintf("%d", state.HomeScore), 20, 95)
	p.drawStringRight(ctx, p.scoreFace, fmt.Sprintf("%d", state.AwayScore), w-20, 95)

	clockText := fmt.Sprintf("%02d:%02d", state.TimeMinutes, state.TimeSeconds)
	p.drawStringCentered(ctx, p.clockFace, clockText, w/2, 80)

	p.drawStringCentered(ctx, p.detailFace, fmt.Sprintf("P%d", state.CurrentPeriod), w/2, 104)

	p.drawString(ctx, p.detailFace, fmt.Sprintf("SOG %d", state.HomeShots), 20, h-12)
	p.drawStringRight(ctx, p.detailFace, fmt.Sprintf("SOG %d", state.AwayShots), w-20, h-12)

	ctx.SetRGB255(255, 170, 51)
	p.drawPenalties(ctx, state.HomePenalties, 118, h)
	p.drawPenalties(ctx, state.AwayPenalties, w-190, h)
}

func (p *Pipeline) drawPenalties(ctx *gg.Context, penalties [scoreboard.NumPenaltySlots]scoreboard.Penalty, x, h float64) {
	y := h - 36.0
	for _, penalty := range penalties {
		if penalty.Empty() {
			continue
		}
		text := fmt.Sprintf(
			"#%d %d:%02d",
			penalty.PlayerNumber,
			penalty.SecondsRemaining/60,
			penalty.SecondsRemaining%60,
		)
		p.drawString(ctx, p.penaltyFace, text, x, y)
		y += 22
	}
}

func (p *Pipeline) drawString(ctx *gg.Context, face font.Face, text string, x, y float64) {
	if face == nil || text == "" {
		return
	}
	ctx.SetFontFace(face)
	ctx.DrawString(text, x, y)
}

func (p *Pipeline) drawStringRight(ctx *gg.Context, face font.Face, text string, right, y float64) {
	if face == nil || text == "" {
		return
	}
	ctx.SetFontFace(face)
	width, _ := ctx.MeasureString(text)
	ctx.DrawString(text, right-width, y)
}

func (p *Pipeline) drawStringCentered(ctx *gg.Context, face font.Face, text string, center, y float64) {
	if face == nil || text == "" {
		return
	}
	ctx.SetFontFace(face)
	width, _ := ctx.MeasureString(text)
	ctx.DrawString(text, center-width/2, y)
}
