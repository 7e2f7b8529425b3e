package sim

import (
	"math"

	"run-and-gun/server/internal/phys"
)

// pitchSpreadScale narrows vertical jitter relative to horizontal.
const pitchSpreadScale = 0.6

// resolveFire resolves one fire command into hitscan damage. The
// cooldown gate runs first; LastFireTick advances exactly once per
// accepted shot regardless of how many pellets connect.
func (e *Engine) resolveFire(shooter *Entity) {
	gun := e.cfg.Weapons[shooter.Weapon]
	if shooter.LastFireTick != 0 && e.tick-(shooter.LastFireTick-1) < gun.CooldownTicks {
		return
	}
	shooter.LastFireTick = e.tick + 1 // stored as tick+1 so zero means "never fired"

	e.damage = resize(e.damage, len(e.entities))
	e.spiderDamage = resize(e.spiderDamage, len(e.spiders))

	pelletMax := gun.MaxDamage / float32(gun.Pellets)
	pelletMin := gun.MinDamage / float32(gun.Pellets)

	for pellet := 0; pellet < gun.Pellets; pellet++ {
		yaw := shooter.Body.Yaw + e.uniform(-gun.Spread, gun.Spread)
		pitch := shooter.Body.Pitch + e.uniform(-gun.Spread, gun.Spread)*pitchSpreadScale
		dx, dy, dz := phys.AimDirection(yaw, pitch)

		for i, target := range e.entities {
			if target == shooter || !target.Active || target.Health <= 0 {
				continue
			}
			dist, ok := phys.RaySphere(
				shooter.Body.X, shooter.Body.Y, shooter.Body.Z,
				dx, dy, dz,
				target.Body.X, target.Body.Y, target.Body.Z,
				phys.HitRadius, gun.Range,
			)
			if !ok {
				continue
			}
			t := clampUnit(1 - dist/gun.Range)
			e.damage[i] += pelletMin + t*(pelletMax-pelletMin)
		}

		for i, sp := range e.spiders {
			if !sp.Active {
				continue
			}
			dist, ok := phys.RaySphere(
				shooter.Body.X, shooter.Body.Y, shooter.Body.Z,
				dx, dy, dz,
				sp.X, sp.Y, sp.Z,
				spiderRadius, gun.Range,
			)
			if !ok {
				continue
			}
			t := clampUnit(1 - dist/gun.Range)
			e.spiderDamage[i] += pelletMin + t*(pelletMax-pelletMin)
		}
	}

	for i, dmg := range e.damage {
		if dmg > 0 {
			e.applyDamage(shooter, e.entities[i], dmg)
		}
	}
	for i, dmg := range e.spiderDamage {
		if dmg > 0 {
			e.applySpiderDamage(shooter, e.spiders[i], dmg)
		}
	}
}

// applyDamage subtracts rounded accumulated damage, clamping health at
// zero. Death deactivates the victim and schedules its respawn tick.
func (e *Engine) applyDamage(shooter, target *Entity, dmg float32) {
	amount := int32(math.Round(float64(dmg)))
	if amount <= 0 {
		return
	}
	target.Health -= amount
	if target.Health < 0 {
		target.Health = 0
	}
	e.emit(Event{Tick: e.tick, Kind: EventHit, Actor: shooter.ID, Target: target.ID, Amount: amount})
	if target.Health == 0 && target.Active {
		target.Active = false
		target.RespawnTick = e.tick + e.cfg.RespawnDelayTicks
		e.emit(Event{Tick: e.tick, Kind: EventKill, Actor: shooter.ID, Target: target.ID})
	}
}

func (e *Engine) applySpiderDamage(shooter *Entity, sp *Spider, dmg float32) {
	amount := int32(math.Round(float64(dmg)))
	if amount <= 0 {
		return
	}
	sp.Health -= amount
	if sp.Health <= 0 && sp.Active {
		sp.Health = 0
		sp.Active = false
		e.emit(Event{Tick: e.tick, Kind: EventSpiderDown, Actor: shooter.ID, Target: sp.ID})
	}
}

func clampUnit(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func resize(buf []float32, n int) []float32 {
	if cap(buf) < n {
		buf = make([]float32, n)
	}
	buf = buf[:n]
	for i := range buf {
		buf[i] = 0
	}
	return buf
}
