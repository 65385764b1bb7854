package game

import (
	"math/rand"
	"testing"
)

type recorder struct {
	frames   int
	object   Vec
	entities []EntityPosition
	timer    []int
	hidden   int
	pulses   int
	echoes   []Vec
	winner   Team
}

func (r *recorder) RenderPositions(object Vec, entities []EntityPosition) {
	r.frames++
	r.object = object
	r.entities = entities
}
func (r *recorder) ShowHoldTimer(remaining int) { r.timer = append(r.timer, remaining) }
func (r *recorder) HideHoldTimer()              { r.hidden++ }
func (r *recorder) PlayTeleportPulse()          { r.pulses++ }
func (r *recorder) PlayPassEcho(pos Vec)        { r.echoes = append(r.echoes, pos) }
func (r *recorder) ShowEndScreen(winner Team)   { r.winner = winner }

func newRunning(t *testing.T) *State {
	t.Helper()
	s := NewState(Court{Width: 800, Height: 600}, rand.New(rand.NewSource(1)))
	if !s.Start(Court{}) {
		t.Fatalf("start failed")
	}
	return s
}

type snapshot struct {
	object   SharedObject
	entities []Entity
	tenths   int
	selected EntityID
}

func snap(s *State) snapshot {
	ents := make([]Entity, len(s.Entities))
	copy(ents, s.Entities)
	return snapshot{object: s.Object, entities: ents, tenths: s.holdTenths, selected: s.Selected}
}

func (a snapshot) equal(b snapshot) bool {
	if a.object != b.object || a.tenths != b.tenths || a.selected != b.selected {
		return false
	}
	if len(a.entities) != len(b.entities) {
		return false
	}
	for i := range a.entities {
		if a.entities[i] != b.entities[i] {
			return false
		}
	}
	return true
}

// placeNearObject parks an entity right on top of the loose object.
func placeNearObject(s *State, id EntityID) {
	s.Entity(id).Pos = s.Object.Pos
}
