package terminal

import (
	"context"

	"github.com/gdamore/tcell/v2"

	"cubechase/game"
	"cubechase/room"
)

// KeyName maps a tcell key event onto the key identifier the game expects.
func KeyName(ev *tcell.EventKey) (string, bool) {
	switch ev.Key() {
	case tcell.KeyUp:
		return game.KeyUp, true
	case tcell.KeyDown:
		return game.KeyDown, true
	case tcell.KeyLeft:
		return game.KeyLeft, true
	case tcell.KeyRight:
		return game.KeyRight, true
	case tcell.KeyRune:
		return string(ev.Rune()), true
	}
	return "", false
}

// Translate turns a key event into a room command. quit is set for Esc and
// Ctrl-C.
func Translate(ev *tcell.EventKey, court game.Court) (cmd any, quit bool) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return nil, true
	case tcell.KeyEnter:
		return room.Start{Width: court.Width, Height: court.Height}, false
	case tcell.KeyRune:
		switch ev.Rune() {
		case ' ':
			return room.TogglePause{}, false
		case 'r':
			return room.Reset{}, false
		}
	}
	if key, ok := KeyName(ev); ok {
		return room.Key{Key: key}, false
	}
	return nil, false
}

// Run polls the screen until the player quits or ctx is done, posting every
// translated command through post.
func Run(ctx context.Context, screen tcell.Screen, court game.Court, post func(any) error) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = screen.PostEvent(tcell.NewEventInterrupt(nil))
		case <-done:
		}
	}()

	for {
		switch ev := screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventInterrupt:
			return ctx.Err()
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventKey:
			cmd, quit := Translate(ev, court)
			if quit {
				return nil
			}
			if cmd == nil {
				continue
			}
			if err := post(cmd); err != nil {
				return err
			}
		}
	}
}
