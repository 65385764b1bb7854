package room

import "cubechase/game"

type Conn interface {
	Send([]byte) error
	Close() error
}

// Join: issued once after hello parsed
type Join struct {
	Conn  Conn
	Name  string
	Reply chan<- JoinResult
}

type JoinResult struct {
	SessionID string
	Err       error
}

// Leave: issued on disconnect
type Leave struct {
	SessionID string
}

// Start: viewport size reported by the front end; zero falls back to the
// room's default court.
type Start struct {
	Width, Height float64
}

type TogglePause struct{}

type Reset struct{}

// Key: one raw key press from the input source
type Key struct {
	Key string
}

// Inspect asks the room for a copy of its current status.
type Inspect struct {
	Reply chan<- Status
}

type Status struct {
	Code      string
	Mode      game.Mode
	Winner    game.Team
	Tick      int
	Court     game.Court
	Object    game.SharedObject
	Selected  game.EntityID
	HoldTimer float64
	Entities  []game.EntityPosition
	Tasks     []string
	Clients   int
}
