package sim

import "math"

const (
	botAggroRange    = 18.0
	botCloseDistance = 2.5
	botStrafeBias    = 0.5
	botStrafePeriod  = 60 // ticks per strafe direction
	botFireRangeFrac = 0.9
)

// stepBots manufactures one InputCommand per bot and feeds it through
// applyCommand, the same path human input takes. Bots get no special
// physics or combat treatment.
func (e *Engine) stepBots() {
	for i := 0; i < e.cfg.BotCount; i++ {
		botID := BotIDBase + EntityID(i)
		bot := e.ensureBot(botID)
		if bot == nil {
			continue
		}
		if !bot.Active && e.tick < bot.RespawnTick {
			continue
		}
		e.applyCommand(e.botCommand(bot))
	}
}

// ensureBot lazily creates the bot entity, subject to the table cap.
func (e *Engine) ensureBot(id EntityID) *Entity {
	if bot, ok := e.byID[id]; ok {
		return bot
	}
	return e.createEntity(id, true, 0, 0)
}

// botCommand is the nearest-target heuristic: face the closest active
// human, close distance while alternating a strafe bias, and fire once
// inside a fraction of the weapon's range.
func (e *Engine) botCommand(bot *Entity) Command {
	cmd := Command{
		EntityID: bot.ID,
		Seq:      e.tick,
		Weapon:   bot.Weapon,
	}

	var target *Entity
	bestDist2 := float32(botAggroRange * botAggroRange)
	for _, ent := range e.entities {
		if ent.IsBot || !ent.Active || ent.Health <= 0 {
			continue
		}
		dx := ent.Body.X - bot.Body.X
		dz := ent.Body.Z - bot.Body.Z
		d2 := dx*dx + dz*dz
		if d2 < bestDist2 {
			bestDist2 = d2
			target = ent
		}
	}

	if target == nil {
		cmd.Yaw = bot.Body.Yaw
		cmd.Pitch = bot.Body.Pitch
		return cmd
	}

	dx := target.Body.X - bot.Body.X
	dz := target.Body.Z - bot.Body.Z
	cmd.Yaw = float32(math.Atan2(float64(-dx), float64(-dz)))
	dist := float32(math.Sqrt(float64(bestDist2)))
	if dist > botCloseDistance {
		cmd.MoveZ = 1
	}
	if (e.tick/botStrafePeriod)%2 == 0 {
		cmd.MoveX = botStrafeBias
	} else {
		cmd.MoveX = -botStrafeBias
	}
	gun := e.cfg.Weapons[bot.Weapon]
	cmd.Fire = dist < gun.Range*botFireRangeFrac
	return cmd
}
