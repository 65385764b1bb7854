package protocol

//input structs coming in from the client.

type Hello struct {
	V    int    `json:"v"`              // version
	Name string `json:"name,omitempty"` // optional name
}

// Start carries the viewport size the court is fixed to for the session.
type Start struct {
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// Key uses KeyboardEvent.key names: "w", "ArrowUp", "7".
type Key struct {
	Key string `json:"key"`
}
