package game

// CountdownTick runs one 100ms tick of the possession timer. It returns true
// once the timer has run out and the session has ended; the caller is then
// expected to cancel every periodic task.
func CountdownTick(s *State, r Renderer) bool {
	if !s.Running() {
		return false
	}
	holder := s.Holder()
	if holder == nil {
		return false
	}
	if r == nil {
		r = NopRenderer{}
	}

	s.holdTenths--
	r.ShowHoldTimer(s.HoldDisplay())
	if s.holdTenths > 0 {
		return false
	}

	// The holding team loses.
	s.Mode = ModeEnded
	s.Winner = holder.Team.Other()
	r.HideHoldTimer()
	r.ShowEndScreen(s.Winner)
	return true
}
