package game

type EntityPosition struct {
	ID   EntityID
	Team Team
	Pos  Vec
}

// Renderer projects the simulation onto a display. Every call is
// fire-and-forget and must not touch State.
type Renderer interface {
	RenderPositions(object Vec, entities []EntityPosition)
	ShowHoldTimer(remaining int)
	HideHoldTimer()
	PlayTeleportPulse()
	PlayPassEcho(pos Vec)
	ShowEndScreen(winner Team)
}

type NopRenderer struct{}

func (NopRenderer) RenderPositions(Vec, []EntityPosition) {}
func (NopRenderer) ShowHoldTimer(int)                     {}
func (NopRenderer) HideHoldTimer()                        {}
func (NopRenderer) PlayTeleportPulse()                    {}
func (NopRenderer) PlayPassEcho(Vec)                      {}
func (NopRenderer) ShowEndScreen(Team)                    {}

// Positions snapshots every entity in id order.
func (s *State) Positions() []EntityPosition {
	out := make([]EntityPosition, 0, len(s.Entities))
	for _, e := range s.Entities {
		out = append(out, EntityPosition{ID: e.ID, Team: e.Team, Pos: e.Pos})
	}
	return out
}
