package game

import "time"

const (
	EntityCount = 10
	TeamSize    = 5

	EntitySize = 40.0 // entities are clamped to court - EntitySize
	ObjectSize = 30.0 // bounce walls sit at court - ObjectSize
	HoldOffset = 5.0  // object trails its holder by this much on both axes
	GrabRadius = 50.0
	MoveStep   = 5.0

	WanderSpeed   = 1.0
	HolderWander  = 2.0
	WanderMinTick = 30.0
	WanderSpan    = 60.0 // countdown is drawn from [WanderMinTick, WanderMinTick+WanderSpan)

	ObjectStartSpeed = 5.0
	ObjectMinSpeed   = 3.0
	ObjectSpeedSpan  = 4.0 // speed is drawn from [ObjectMinSpeed, ObjectMinSpeed+ObjectSpeedSpan)

	// The hold timer is counted in tenths so that 150 countdown ticks land on zero exactly.
	HoldTenths = 150

	SpawnY        = 200.0
	Team1SpawnX   = 100.0
	Team2SpawnX   = 500.0
	SpawnSpacing  = 60.0
	DefaultCourtW = 800.0
	DefaultCourtH = 600.0
)

const (
	MainInterval      = 16 * time.Millisecond
	TeleportInterval  = 6 * time.Second
	CountdownInterval = 100 * time.Millisecond
	TeleportPulse     = 200 * time.Millisecond
	PassEchoDuration  = 300 * time.Millisecond
)
