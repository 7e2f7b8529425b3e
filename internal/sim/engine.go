package sim

import (
	"math/rand"
	"time"

	"run-and-gun/server/internal/config"
	"run-and-gun/server/internal/phys"
	"run-and-gun/server/internal/proto"
	"run-and-gun/server/internal/telemetry"
)

const (
	tickMetricKey          = "sim_tick_total"
	tickDurationMetricKey  = "sim_tick_ns_total"
	snapshotBytesMetricKey = "sim_snapshot_bytes"
	entityRejectMetricKey  = "sim_entity_table_full_total"
)

// Deps carries the injected collaborators for an Engine. All fields are
// optional; a zero Deps yields a silent engine.
type Deps struct {
	Logger  telemetry.Logger
	Metrics telemetry.Metrics
	// OnEvent is called synchronously from the tick goroutine and must
	// not block.
	OnEvent func(Event)
}

// EngineConfig fixes the per-match parameters. Immutable once the loop
// starts.
type EngineConfig struct {
	Arena             *phys.Arena
	MaxPlayers        int
	BotCount          int
	SpiderCount       int
	IdleTimeoutTicks  uint32
	RespawnDelayTicks uint32
	Weapons           []config.Weapon
	Seed              int64
}

// Engine owns all authoritative world state and advances it one fixed
// tick at a time. Exactly one goroutine calls Advance; every other
// goroutine interacts only through the command buffer and the snapshot
// publisher.
type Engine struct {
	cfg  EngineConfig
	deps Deps

	tick      uint32
	entities  []*Entity // snapshot emission order: insertion order
	byID      map[EntityID]*Entity
	spiders   []*Spider
	rng       *rand.Rand
	publisher *Publisher

	touched      map[EntityID]bool
	records      []proto.PlayerRecord
	damage       []float32
	spiderDamage []float32
}

// NewEngine constructs an engine with the given match parameters.
func NewEngine(cfg EngineConfig, deps Deps) *Engine {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.RespawnDelayTicks == 0 {
		cfg.RespawnDelayTicks = 180
	}
	if cfg.IdleTimeoutTicks == 0 {
		cfg.IdleTimeoutTicks = 600
	}
	e := &Engine{
		cfg:       cfg,
		deps:      deps,
		byID:      make(map[EntityID]*Entity),
		rng:       rand.New(rand.NewSource(seed)),
		publisher: NewPublisher(),
		touched:   make(map[EntityID]bool),
	}
	e.spawnSpiders()
	return e
}

// Publisher exposes the latest-snapshot slot for transport readers.
func (e *Engine) Publisher() *Publisher {
	return e.publisher
}

// Tick reports the current tick counter.
func (e *Engine) Tick() uint32 {
	return e.tick
}

// Lookup returns a copy of an entity's state, for tests and diagnostics
// running on the simulation goroutine.
func (e *Engine) Lookup(id EntityID) (Entity, bool) {
	ent, ok := e.byID[id]
	if !ok {
		return Entity{}, false
	}
	return *ent, true
}

// Advance executes exactly one simulation tick: apply every staged
// command, advance bots and idle entities, run spider AI, then publish
// the snapshot. Commands never span ticks.
func (e *Engine) Advance(commands []Command) {
	for id := range e.touched {
		delete(e.touched, id)
	}

	for _, cmd := range commands {
		e.applyCommand(cmd)
	}

	e.stepBots()

	for _, ent := range e.entities {
		if !ent.Active {
			if ent.RespawnTick > respawnNow && e.tick >= ent.RespawnTick {
				e.respawn(ent)
			}
			continue
		}
		if !e.touched[ent.ID] {
			idle := Command{
				EntityID: ent.ID,
				Yaw:      ent.Body.Yaw,
				Pitch:    ent.Body.Pitch,
				Weapon:   ent.Weapon,
			}
			phys.Step(&ent.Body, idle.Motion(), phys.Dt, e.cfg.Arena)
		}
		if !ent.IsBot && e.tick-ent.LastInputTick > e.cfg.IdleTimeoutTicks {
			ent.Active = false
			ent.RespawnTick = respawnNow // reactivate on next command
			e.emit(Event{Tick: e.tick, Kind: EventIdleTimeout, Actor: ent.ID})
		}
	}

	e.stepSpiders()

	e.tick++
	e.publishSnapshot()

	if e.deps.Metrics != nil {
		e.deps.Metrics.Add(tickMetricKey, 1)
	}
}

// applyCommand integrates one staged command, creating the entity on
// first contact. Commands for unknown ids are ignored when the table is
// at capacity.
func (e *Engine) applyCommand(cmd Command) {
	ent, ok := e.byID[cmd.EntityID]
	if !ok {
		ent = e.createEntity(cmd.EntityID, false, cmd.Yaw, cmd.Pitch)
		if ent == nil {
			return
		}
	}

	if !ent.Active && (ent.RespawnTick == respawnNow || e.tick >= ent.RespawnTick) {
		e.respawn(ent)
	}
	if !ent.Active {
		// Dead and waiting: acknowledge the command so the client can
		// prune its prediction buffer, but do not move the body.
		ent.LastSeq = cmd.Seq
		ent.LastInputTick = e.tick
		return
	}

	ent.Weapon = e.weaponSlot(cmd.Weapon)
	phys.Step(&ent.Body, cmd.Motion(), phys.Dt, e.cfg.Arena)
	ent.LastSeq = cmd.Seq
	ent.LastInputTick = e.tick
	e.touched[ent.ID] = true

	if cmd.Fire {
		e.resolveFire(ent)
	}
}

// createEntity registers a new record, enforcing the table cap.
func (e *Engine) createEntity(id EntityID, isBot bool, yaw, pitch float32) *Entity {
	if len(e.entities) >= e.cfg.MaxPlayers {
		if e.deps.Metrics != nil {
			e.deps.Metrics.Add(entityRejectMetricKey, 1)
		}
		return nil
	}
	ent := &Entity{
		ID:            id,
		Health:        maxHealth,
		Active:        true,
		IsBot:         isBot,
		LastInputTick: e.tick,
	}
	ent.Body.Yaw = yaw
	ent.Body.Pitch = pitch
	e.respawn(ent)
	e.entities = append(e.entities, ent)
	e.byID[id] = ent
	e.emit(Event{Tick: e.tick, Kind: EventJoin, Actor: id})
	if e.deps.Logger != nil {
		e.deps.Logger.Printf("entity %d joined (bot=%v, %d/%d slots)",
			id, isBot, len(e.entities), e.cfg.MaxPlayers)
	}
	return ent
}

// weaponSlot clamps a requested slot to the configured table.
func (e *Engine) weaponSlot(slot uint8) uint8 {
	if int(slot) >= len(e.cfg.Weapons) {
		return 0
	}
	return slot
}

func (e *Engine) publishSnapshot() {
	e.records = e.records[:0]
	for _, ent := range e.entities {
		e.records = append(e.records, ent.Record())
	}
	buf := proto.AppendSnapshot(nil, e.tick, e.records)
	e.publisher.Publish(e.tick, buf)
	if e.deps.Metrics != nil {
		e.deps.Metrics.Store(snapshotBytesMetricKey, uint64(len(buf)))
	}
}

func (e *Engine) emit(ev Event) {
	if e.deps.OnEvent != nil {
		e.deps.OnEvent(ev)
	}
}
