package game

import "strconv"

// Key identifiers follow browser KeyboardEvent.key naming.
const (
	KeyUp    = "ArrowUp"
	KeyDown  = "ArrowDown"
	KeyLeft  = "ArrowLeft"
	KeyRight = "ArrowRight"
)

type controls struct {
	up, down, left, right, grab string
}

var teamControls = map[Team]controls{
	Team1: {up: "w", down: "s", left: "a", right: "d", grab: "c"},
	Team2: {up: KeyUp, down: KeyDown, left: KeyLeft, right: KeyRight, grab: "m"},
}

// KeyResult describes what a single key press did.
type KeyResult struct {
	Selected  EntityID
	Moved     bool
	Grabbed   bool // object was loose and the selection took it
	Stolen    bool // possession moved across teams
	Passed    bool // possession moved within a team
	PrevOwner EntityID
}

// Changed reports whether the key had any effect.
func (k KeyResult) Changed() bool {
	return k.Selected != NoEntity || k.Moved || k.Grabbed || k.Stolen || k.Passed
}

// EntityForKey maps a digit key to an entity id. "0" stands for 10.
func EntityForKey(key string) (EntityID, bool) {
	if key == "0" {
		return EntityCount, true
	}
	n, err := strconv.Atoi(key)
	if err != nil || n < 1 || n > EntityCount {
		return NoEntity, false
	}
	return EntityID(n), true
}

// HandleKey routes one key press. Keys are ignored unless the session is
// running.
func HandleKey(s *State, key string, r Renderer) KeyResult {
	var res KeyResult
	if !s.Running() {
		return res
	}
	if r == nil {
		r = NopRenderer{}
	}

	target, isDigit := EntityForKey(key)

	sel := s.Selection()
	if sel == nil {
		if isDigit {
			s.Selected = target
			res.Selected = target
		}
		return res
	}

	c := teamControls[sel.Team]
	switch key {
	case c.up:
		sel.Pos.Y -= MoveStep
		res.Moved = true
	case c.down:
		sel.Pos.Y += MoveStep
		res.Moved = true
	case c.left:
		sel.Pos.X -= MoveStep
		res.Moved = true
	case c.right:
		sel.Pos.X += MoveStep
		res.Moved = true
	case c.grab:
		tryGrab(s, sel, r, &res)
	}

	if isDigit {
		// The holder counts as its own teammate, so re-selecting it is a pass too.
		if holder := s.Holder(); holder != nil {
			if next := s.Entity(target); next != nil && next.Team == holder.Team {
				res.PrevOwner = holder.ID
				s.Object.Holder = target
				s.resetHoldTimer()
				res.Passed = true
				r.PlayPassEcho(s.Object.Pos)
			}
		}
		s.Selected = target
		res.Selected = target
	}
	return res
}

func tryGrab(s *State, sel *Entity, r Renderer, res *KeyResult) {
	if sel.Pos.Dist(s.Object.Pos) >= GrabRadius {
		return
	}
	holder := s.Holder()
	switch {
	case holder == nil:
		s.Object.Holder = sel.ID
		res.Grabbed = true
	case holder.Team != sel.Team:
		res.PrevOwner = holder.ID
		s.Object.Holder = sel.ID
		res.Stolen = true
	default:
		return
	}
	s.resetHoldTimer()
	r.ShowHoldTimer(s.HoldDisplay())
}
