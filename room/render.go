package room

import (
	"cubechase/game"
	"cubechase/protocol"
)

// ModeListener is implemented by renderers that want session-level
// notifications on top of the per-tick game.Renderer calls.
type ModeListener interface {
	ModeChanged(mode game.Mode)
}

// fanout forwards every call to each renderer in order.
type fanout []game.Renderer

func (f fanout) RenderPositions(object game.Vec, entities []game.EntityPosition) {
	for _, r := range f {
		r.RenderPositions(object, entities)
	}
}

func (f fanout) ShowHoldTimer(remaining int) {
	for _, r := range f {
		r.ShowHoldTimer(remaining)
	}
}

func (f fanout) HideHoldTimer() {
	for _, r := range f {
		r.HideHoldTimer()
	}
}

func (f fanout) PlayTeleportPulse() {
	for _, r := range f {
		r.PlayTeleportPulse()
	}
}

func (f fanout) PlayPassEcho(pos game.Vec) {
	for _, r := range f {
		r.PlayPassEcho(pos)
	}
}

func (f fanout) ShowEndScreen(winner game.Team) {
	for _, r := range f {
		r.ShowEndScreen(winner)
	}
}

func (f fanout) ModeChanged(mode game.Mode) {
	for _, r := range f {
		if l, ok := r.(ModeListener); ok {
			l.ModeChanged(mode)
		}
	}
}

// connRenderer encodes renderer calls as protocol messages for the room's
// attached connection.
type connRenderer struct {
	r *Room
}

func (c connRenderer) RenderPositions(object game.Vec, entities []game.EntityPosition) {
	if c.r.client == nil {
		return
	}
	msg := protocol.Positions{
		Tick:     c.r.state.Tick,
		Object:   protocol.Point{X: object.X, Y: object.Y},
		Entities: make([]protocol.EntitySnapshot, 0, len(entities)),
	}
	for _, e := range entities {
		msg.Entities = append(msg.Entities, protocol.EntitySnapshot{
			ID:   int(e.ID),
			Team: int(e.Team),
			X:    e.Pos.X,
			Y:    e.Pos.Y,
		})
	}
	c.r.send(protocol.MsgPositions, msg)
}

func (c connRenderer) ShowHoldTimer(remaining int) {
	c.r.send(protocol.MsgHoldTimer, protocol.HoldTimer{Remaining: remaining, Visible: true})
}

func (c connRenderer) HideHoldTimer() {
	c.r.send(protocol.MsgHoldTimer, protocol.HoldTimer{Visible: false})
}

func (c connRenderer) PlayTeleportPulse() {
	c.r.send(protocol.MsgTeleportPulse, protocol.TeleportPulse{DurationMs: game.TeleportPulse.Milliseconds()})
}

func (c connRenderer) PlayPassEcho(pos game.Vec) {
	c.r.send(protocol.MsgPassEcho, protocol.PassEcho{X: pos.X, Y: pos.Y, DurationMs: game.PassEchoDuration.Milliseconds()})
}

func (c connRenderer) ShowEndScreen(winner game.Team) {
	c.r.send(protocol.MsgEnd, protocol.End{WinningTeam: int(winner)})
}

func (c connRenderer) ModeChanged(mode game.Mode) {
	c.r.send(protocol.MsgMode, protocol.Mode{Mode: mode.String()})
}
