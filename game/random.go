package game

import "math/rand"

func (s *State) randomFloat() float64 {
	if s != nil && s.rng != nil {
		return s.rng.Float64()
	}
	return rand.Float64()
}

// randomDir returns a vector with each axis in [-1, 1).
func (s *State) randomDir() Vec {
	return Vec{
		X: (s.randomFloat() - 0.5) * 2,
		Y: (s.randomFloat() - 0.5) * 2,
	}
}

func (s *State) randomSpeed() float64 {
	return ObjectMinSpeed + s.randomFloat()*ObjectSpeedSpan
}

func (s *State) randomCountdown() float64 {
	return WanderMinTick + s.randomFloat()*WanderSpan
}
