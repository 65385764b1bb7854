package protocol

import (
	"encoding/json"
)

// client -> server
const (
	MsgHello = "hello"
	MsgStart = "start"
	MsgPause = "pause"
	MsgReset = "reset"
	MsgKey   = "key"
)

// server -> client
const (
	MsgWelcome       = "welcome"
	MsgPositions     = "positions"
	MsgHoldTimer     = "holdTimer"
	MsgTeleportPulse = "teleportPulse"
	MsgPassEcho      = "passEcho"
	MsgEnd           = "end"
	MsgMode          = "mode"
	MsgError         = "error"
)

const (
	SimTickHz       = 60 // main loop runs every 16ms
	CountdownHz     = 10
	TeleportSeconds = 6
	Version         = 1
)

type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p,omitempty"` // raw payload bytes
}
