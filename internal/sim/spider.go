package sim

import (
	"math"

	"run-and-gun/server/internal/phys"
)

// Spiders are melee harassers that live outside the player entity table:
// they never appear in the snapshot's player records and take no input
// commands. They chase the nearest active entity and bite on a cooldown.
const (
	spiderRadius       = 0.4
	spiderHeight       = 0.3
	spiderHealth       = 80
	spiderAggroRange   = 18.0
	spiderAttackRange  = 1.5
	spiderAttackDamage = 8
	spiderAttackTicks  = 30 // 0.5 s at 60 Hz
	spiderMoveSpeed    = 5.0
)

// Spider is the flat record for one melee NPC.
type Spider struct {
	ID             EntityID
	X, Y, Z        float32
	VX, VZ         float32
	Yaw            float32
	Health         int32
	Active         bool
	TargetID       EntityID
	LastAttackTick uint32
}

// spawnSpiders scatters the configured spider population once at match
// start. Spiders do not respawn.
func (e *Engine) spawnSpiders() {
	for i := 0; i < e.cfg.SpiderCount; i++ {
		x, z := e.findSpawn()
		e.spiders = append(e.spiders, &Spider{
			ID:     SpiderIDBase + EntityID(i),
			X:      x,
			Y:      spiderHeight,
			Z:      z,
			Health: spiderHealth,
			Active: true,
		})
	}
}

// Spiders returns the live spider list for diagnostics; callers must
// treat it as read-only and stay on the simulation goroutine.
func (e *Engine) Spiders() []*Spider {
	return e.spiders
}

func (e *Engine) stepSpiders() {
	for _, sp := range e.spiders {
		if !sp.Active {
			continue
		}
		target := e.nearestSpiderTarget(sp)
		if target == nil {
			sp.TargetID = 0
			sp.VX = 0
			sp.VZ = 0
			continue
		}

		sp.TargetID = target.ID
		dx := target.Body.X - sp.X
		dz := target.Body.Z - sp.Z
		dist := float32(math.Sqrt(float64(dx*dx + dz*dz)))

		if dist > spiderAttackRange {
			sp.Yaw = float32(math.Atan2(float64(-dx), float64(-dz)))
			sp.VX = dx / dist * spiderMoveSpeed
			sp.VZ = dz / dist * spiderMoveSpeed
			sp.X += sp.VX * phys.Dt
			sp.Z += sp.VZ * phys.Dt

			h := e.cfg.Arena.HalfExtent
			sp.X = clampf(sp.X, -h, h)
			sp.Z = clampf(sp.Z, -h, h)
			e.resolveSpiderWalls(sp)
		} else {
			sp.VX = 0
			sp.VZ = 0
			if e.tick-sp.LastAttackTick >= spiderAttackTicks {
				sp.LastAttackTick = e.tick
				e.biteTarget(sp, target)
			}
		}
		sp.Y = spiderHeight
	}
}

func (e *Engine) nearestSpiderTarget(sp *Spider) *Entity {
	var target *Entity
	bestDist2 := float32(spiderAggroRange * spiderAggroRange)
	for _, ent := range e.entities {
		if !ent.Active || ent.Health <= 0 {
			continue
		}
		dx := ent.Body.X - sp.X
		dz := ent.Body.Z - sp.Z
		d2 := dx*dx + dz*dz
		if d2 < bestDist2 {
			bestDist2 = d2
			target = ent
		}
	}
	return target
}

func (e *Engine) biteTarget(sp *Spider, target *Entity) {
	target.Health -= spiderAttackDamage
	if target.Health < 0 {
		target.Health = 0
	}
	e.emit(Event{Tick: e.tick, Kind: EventSpiderBite, Actor: sp.ID, Target: target.ID, Amount: spiderAttackDamage})
	if target.Health == 0 && target.Active {
		target.Active = false
		target.RespawnTick = e.tick + e.cfg.RespawnDelayTicks
		e.emit(Event{Tick: e.tick, Kind: EventKill, Actor: sp.ID, Target: target.ID})
	}
}

// resolveSpiderWalls uses the simpler two-axis push used for NPCs: exit
// along the shallower of the X/Z overlaps, away from the wall center.
func (e *Engine) resolveSpiderWalls(sp *Spider) {
	const r = spiderRadius
	for _, w := range e.cfg.Arena.Walls {
		if !(sp.X+r > w.MinX && sp.X-r < w.MaxX && sp.Z+r > w.MinZ && sp.Z-r < w.MaxZ) {
			continue
		}
		overlapX := minf(sp.X+r-w.MinX, w.MaxX-(sp.X-r))
		overlapZ := minf(sp.Z+r-w.MinZ, w.MaxZ-(sp.Z-r))
		if overlapX < overlapZ {
			if sp.X < (w.MinX+w.MaxX)/2 {
				sp.X = w.MinX - r - 0.01
			} else {
				sp.X = w.MaxX + r + 0.01
			}
		} else {
			if sp.Z < (w.MinZ+w.MaxZ)/2 {
				sp.Z = w.MinZ - r - 0.01
			} else {
				sp.Z = w.MaxZ + r + 0.01
			}
		}
	}
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
