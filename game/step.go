package game

// Step advances the simulation by one main-loop tick. Object movement runs
// before wandering, wandering before clamping, clamping before rendering.
// It reports false when the session is not running.
func Step(s *State, r Renderer) bool {
	if !s.Running() {
		return false
	}
	s.Tick++

	if holder := s.Holder(); holder == nil {
		s.moveObject()
	} else {
		s.Object.Pos = holder.Pos.Add(Vec{HoldOffset, HoldOffset})
	}

	s.wander()

	for i := range s.Entities {
		s.ClampToCourt(&s.Entities[i])
	}

	if r != nil {
		r.RenderPositions(s.Object.Pos, s.Positions())
	}
	return true
}

func (s *State) moveObject() {
	o := &s.Object
	o.Pos = o.Pos.Add(o.Dir.Scale(o.Speed))

	maxX := s.Court.Width - ObjectSize
	maxY := s.Court.Height - ObjectSize

	// Only reflect while the component still points into the wall, so a
	// slower redraw can't flip it back on the next tick.
	if (o.Pos.X <= 0 && o.Dir.X < 0) || (o.Pos.X >= maxX && o.Dir.X > 0) {
		o.Dir.X = -o.Dir.X
		o.Speed = s.randomSpeed()
	}
	if (o.Pos.Y <= 0 && o.Dir.Y < 0) || (o.Pos.Y >= maxY && o.Dir.Y > 0) {
		o.Dir.Y = -o.Dir.Y
		o.Speed = s.randomSpeed()
	}
}

func (s *State) wander() {
	for i := range s.Entities {
		e := &s.Entities[i]
		if e.ID == s.Selected {
			continue
		}
		if e.Wander.Countdown <= 0 {
			e.Wander.Dir = s.randomDir()
			e.Wander.Countdown = s.randomCountdown()
		}
		// Compared against the holder, not the selection: a holder left behind
		// when selection switches to the other team wanders at double speed.
		speed := WanderSpeed
		if e.ID == s.Object.Holder {
			speed = HolderWander
		}
		e.Pos = e.Pos.Add(e.Wander.Dir.Scale(speed))
		e.Wander.Countdown--
	}
}
