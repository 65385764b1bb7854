package protocol

type Welcome struct {
	SessionID string  `json:"sessionId"`
	Room      string  `json:"room"`
	TickHz    int     `json:"tickHz"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Positions struct {
	Tick     int              `json:"tick"`
	Object   Point            `json:"object"`
	Entities []EntitySnapshot `json:"entities"`
}

type EntitySnapshot struct {
	ID   int     `json:"id"`
	Team int     `json:"team"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type HoldTimer struct {
	Remaining int  `json:"remaining"`
	Visible   bool `json:"visible"`
}

type PassEcho struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	DurationMs int64   `json:"durationMs"`
}

type TeleportPulse struct {
	DurationMs int64 `json:"durationMs"`
}

type End struct {
	WinningTeam int `json:"winningTeam"`
}

type Mode struct {
	Mode string `json:"mode"`
}

type Error struct {
	Message string `json:"message"`
}
