package game

// Teleport drops the loose object at a random point with a fresh heading.
// It is a no-op while paused, before start, after the end, or while held.
func Teleport(s *State, r Renderer) bool {
	if !s.Running() || s.Object.Holder != NoEntity {
		return false
	}
	s.Object.Pos = Vec{
		X: s.randomFloat() * (s.Court.Width - ObjectSize),
		Y: s.randomFloat() * (s.Court.Height - ObjectSize),
	}
	s.Object.Dir = s.randomDir()
	s.Object.Speed = s.randomSpeed()
	if r != nil {
		r.PlayTeleportPulse()
	}
	return true
}
