package sim

import "run-and-gun/server/internal/phys"

// Spawn anchors sit in open space away from the perimeter; each attempt
// jitters around one of them so simultaneous respawns do not stack.
var spawnAnchors = [8][2]float32{
	{-5, -5},
	{5, -5},
	{-5, 5},
	{5, 5},
	{0, -6},
	{0, 6},
	{-8, 0},
	{8, 0},
}

const (
	spawnAnchorAttempts  = 12
	spawnScatterAttempts = 20
	spawnJitter          = 1.2
	spawnMargin          = 1.5
	spawnDropHeight      = 10 // spawn high and fall onto whatever is below
)

// respawn places an entity at a clear location and restores its combat
// state. Placement never fails: anchors first, then a wide scatter,
// then the arena origin as the last resort.
func (e *Engine) respawn(ent *Entity) {
	x, z := e.findSpawn()
	_, known := e.byID[ent.ID]

	ent.Body = phys.Body{
		X:     x,
		Y:     spawnDropHeight,
		Z:     z,
		Yaw:   ent.Body.Yaw,
		Pitch: ent.Body.Pitch,
	}
	ent.Health = maxHealth
	ent.Active = true
	ent.LastFireTick = 0
	ent.LastInputTick = e.tick
	ent.Weapon = 0

	if known {
		e.emit(Event{Tick: e.tick, Kind: EventRespawn, Actor: ent.ID})
	}
}

// findSpawn searches for a position whose collision footprint clears all
// static walls.
func (e *Engine) findSpawn() (float32, float32) {
	for attempt := 0; attempt < spawnAnchorAttempts; attempt++ {
		anchor := spawnAnchors[e.rng.Intn(len(spawnAnchors))]
		x := anchor[0] + e.jitter(spawnJitter)
		z := anchor[1] + e.jitter(spawnJitter)
		if e.spawnClear(x, z) {
			return x, z
		}
	}
	h := e.cfg.Arena.HalfExtent - spawnMargin
	for attempt := 0; attempt < spawnScatterAttempts; attempt++ {
		x := e.uniform(-h, h)
		z := e.uniform(-h, h)
		if e.spawnClear(x, z) {
			return x, z
		}
	}
	return 0, 0
}

func (e *Engine) spawnClear(x, z float32) bool {
	for _, w := range e.cfg.Arena.Walls {
		if phys.OverlapsWall(x, z, phys.BodyRadius, w) {
			return false
		}
	}
	return true
}

func (e *Engine) jitter(span float32) float32 {
	return e.uniform(-span, span)
}

func (e *Engine) uniform(lo, hi float32) float32 {
	return lo + e.rng.Float32()*(hi-lo)
}
