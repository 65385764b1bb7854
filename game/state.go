package game

import (
	"math"
	"math/rand"
)

// Internal truth authoritative game state

type EntityID int

// NoEntity marks an empty selection or an unheld object.
const NoEntity EntityID = 0

type Team int

const (
	NoTeam Team = iota
	Team1
	Team2
)

// Other returns the opposing team.
func (t Team) Other() Team {
	switch t {
	case Team1:
		return Team2
	case Team2:
		return Team1
	}
	return NoTeam
}

type Mode uint8

const (
	ModeNotStarted Mode = iota
	ModeRunning
	ModePaused
	ModeEnded
)

func (m Mode) String() string {
	switch m {
	case ModeNotStarted:
		return "not_started"
	case ModeRunning:
		return "running"
	case ModePaused:
		return "paused"
	case ModeEnded:
		return "ended"
	}
	return "unknown"
}

type Vec struct {
	X, Y float64
}

func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }

func (v Vec) Scale(k float64) Vec { return Vec{v.X * k, v.Y * k} }

func (v Vec) Dist(o Vec) float64 { return math.Hypot(v.X-o.X, v.Y-o.Y) }

type Court struct {
	Width, Height float64
}

// Valid reports whether the court can hold an entity.
func (c Court) Valid() bool {
	return c.Width > EntitySize && c.Height > EntitySize
}

type Wander struct {
	Dir       Vec
	Countdown float64
}

type Entity struct {
	ID     EntityID
	Team   Team
	Pos    Vec
	Wander Wander
}

type SharedObject struct {
	Pos    Vec
	Dir    Vec
	Speed  float64
	Holder EntityID
}

type State struct {
	Tick     int
	Court    Court
	Mode     Mode
	Winner   Team
	Entities []Entity
	Object   SharedObject
	Selected EntityID

	holdTenths int
	rng        *rand.Rand
}

// NewState lays out both teams at their spawn points. A nil rng falls back
// to the package-level source.
func NewState(court Court, rng *rand.Rand) *State {
	if !court.Valid() {
		court = Court{Width: DefaultCourtW, Height: DefaultCourtH}
	}
	s := &State{
		Court:    court,
		Entities: make([]Entity, 0, EntityCount),
		Object: SharedObject{
			Dir:   Vec{1, 1},
			Speed: ObjectStartSpeed,
		},
		holdTenths: HoldTenths,
		rng:        rng,
	}
	for i := 1; i <= TeamSize; i++ {
		s.Entities = append(s.Entities, Entity{
			ID:   EntityID(i),
			Team: Team1,
			Pos:  Vec{Team1SpawnX + float64(i)*SpawnSpacing, SpawnY},
		})
	}
	for i := TeamSize + 1; i <= EntityCount; i++ {
		s.Entities = append(s.Entities, Entity{
			ID:   EntityID(i),
			Team: Team2,
			Pos:  Vec{Team2SpawnX + float64(i-TeamSize)*SpawnSpacing, SpawnY},
		})
	}
	return s
}

// Start centres the object and sets the session running. The court is
// fixed from here on.
func (s *State) Start(court Court) bool {
	if s.Mode != ModeNotStarted {
		return false
	}
	if court.Valid() {
		s.Court = court
	}
	s.Object.Pos = Vec{s.Court.Width/2 - ObjectSize/2, s.Court.Height/2 - ObjectSize/2}
	s.Mode = ModeRunning
	return true
}

// TogglePause flips between running and paused. Selection and holder are
// left untouched.
func (s *State) TogglePause() bool {
	switch s.Mode {
	case ModeRunning:
		s.Mode = ModePaused
	case ModePaused:
		s.Mode = ModeRunning
	default:
		return false
	}
	return true
}

func (s *State) Paused() bool { return s.Mode == ModePaused }

func (s *State) Running() bool { return s.Mode == ModeRunning }

// Entity returns the entity with the given id, or nil.
func (s *State) Entity(id EntityID) *Entity {
	if id < 1 || int(id) > len(s.Entities) {
		return nil
	}
	e := &s.Entities[id-1]
	if e.ID != id {
		return nil
	}
	return e
}

func (s *State) Holder() *Entity { return s.Entity(s.Object.Holder) }

func (s *State) Selection() *Entity { return s.Entity(s.Selected) }

// HoldTimer returns the remaining possession time in seconds.
func (s *State) HoldTimer() float64 { return float64(s.holdTenths) / 10 }

// HoldDisplay is the ceiling of the remaining time, as shown to players.
func (s *State) HoldDisplay() int {
	if s.holdTenths <= 0 {
		return 0
	}
	return (s.holdTenths + 9) / 10
}

func (s *State) resetHoldTimer() { s.holdTenths = HoldTenths }

// ClampToCourt keeps an entity fully inside the court.
func (s *State) ClampToCourt(e *Entity) {
	e.Pos.X = clamp(e.Pos.X, 0, s.Court.Width-EntitySize)
	e.Pos.Y = clamp(e.Pos.Y, 0, s.Court.Height-EntitySize)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
