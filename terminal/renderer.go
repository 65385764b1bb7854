package terminal

import (
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"cubechase/game"
)

const (
	objectRune = '■'
	pulseRune  = '◆'
	echoRune   = '□'
)

var (
	styleDefault = tcell.StyleDefault
	styleTeam1   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlue).Bold(true)
	styleTeam2   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorRed).Bold(true)
	styleObject  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleEcho    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleStatus  = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
	styleBanner  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Background(tcell.ColorBlack).Bold(true)
)

// Renderer draws the court onto a tcell screen, scaled to whatever size the
// terminal currently has. The bottom row is reserved for the status line.
type Renderer struct {
	mu     sync.Mutex
	screen tcell.Screen
	court  game.Court
	now    func() time.Time
	after  func(time.Duration, func())

	object     game.Vec
	entities   []game.EntityPosition
	timer      int
	timerShown bool
	pulseUntil time.Time
	echoAt     game.Vec
	echoUntil  time.Time
	winner     game.Team
	mode       game.Mode
}

func NewRenderer(screen tcell.Screen, court game.Court) *Renderer {
	return &Renderer{
		screen: screen,
		court:  court,
		now:    time.Now,
		after:  afterFunc,
	}
}

func afterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }

func (r *Renderer) RenderPositions(object game.Vec, entities []game.EntityPosition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.object = object
	r.entities = entities
	r.draw()
}

func (r *Renderer) ShowHoldTimer(remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timer = remaining
	r.timerShown = true
	r.draw()
}

func (r *Renderer) HideHoldTimer() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timerShown = false
	r.draw()
}

func (r *Renderer) PlayTeleportPulse() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pulseUntil = r.now().Add(game.TeleportPulse)
	r.draw()
	r.redrawAfter(game.TeleportPulse)
}

func (r *Renderer) PlayPassEcho(pos game.Vec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.echoAt = pos
	r.echoUntil = r.now().Add(game.PassEchoDuration)
	r.draw()
	r.redrawAfter(game.PassEchoDuration)
}

// redrawAfter clears an expired effect even when no frames are coming,
// e.g. while paused.
func (r *Renderer) redrawAfter(d time.Duration) {
	r.after(d, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.draw()
	})
}

func (r *Renderer) ShowEndScreen(winner game.Team) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.winner = winner
	r.draw()
}

// ModeChanged also resets the end banner when a fresh session begins.
func (r *Renderer) ModeChanged(mode game.Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = mode
	if mode == game.ModeNotStarted {
		r.winner = game.NoTeam
		r.entities = nil
		r.timerShown = false
	}
	r.draw()
}

// cell maps court coordinates onto the drawable area.
func (r *Renderer) cell(p game.Vec, w, h int) (int, int) {
	x := int(p.X / r.court.Width * float64(w))
	y := int(p.Y / r.court.Height * float64(h))
	return clampInt(x, 0, w-1), clampInt(y, 0, h-1)
}

func (r *Renderer) draw() {
	w, h := r.screen.Size()
	if w <= 0 || h <= 1 {
		return
	}
	courtH := h - 1
	r.screen.Clear()
	now := r.now()

	if r.mode != game.ModeNotStarted && len(r.entities) > 0 {
		if now.Before(r.echoUntil) {
			x, y := r.cell(r.echoAt, w, courtH)
			r.screen.SetContent(x, y, echoRune, nil, styleEcho)
		}
		for _, e := range r.entities {
			x, y := r.cell(e.Pos, w, courtH)
			style := styleTeam1
			if e.Team == game.Team2 {
				style = styleTeam2
			}
			r.screen.SetContent(x, y, entityRune(e.ID), nil, style)
		}
		ch := objectRune
		if now.Before(r.pulseUntil) {
			ch = pulseRune
		}
		x, y := r.cell(r.object, w, courtH)
		r.screen.SetContent(x, y, ch, nil, styleObject)
	}

	switch {
	case r.winner != game.NoTeam:
		banner(r.screen, w, courtH/2, fmt.Sprintf(" TEAM %d WINS! ", r.winner), styleBanner)
	case r.mode == game.ModeNotStarted:
		banner(r.screen, w, courtH/2, " CUBE CHASE - press Enter to start ", styleBanner)
	case r.mode == game.ModePaused:
		banner(r.screen, w, courtH/2, " PAUSED ", styleBanner)
	}

	status := fmt.Sprintf(" %s", r.mode)
	if r.timerShown {
		status += fmt.Sprintf("  hold %d", r.timer)
	}
	status += "  | Enter start  Space pause  r reset  Esc quit"
	drawText(r.screen, 0, h-1, w, status, styleStatus)
	r.screen.Show()
}

func entityRune(id game.EntityID) rune {
	if id == 10 {
		return '0'
	}
	return rune('0' + int(id))
}

func banner(s tcell.Screen, w, y int, text string, style tcell.Style) {
	x := (w - len([]rune(text))) / 2
	if x < 0 {
		x = 0
	}
	drawText(s, x, y, w, text, style)
}

func drawText(s tcell.Screen, x, y, w int, text string, style tcell.Style) {
	for _, ch := range text {
		if x >= w {
			return
		}
		s.SetContent(x, y, ch, nil, style)
		x++
	}
	for ; x < w && style != styleDefault; x++ {
		s.SetContent(x, y, ' ', nil, style)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
