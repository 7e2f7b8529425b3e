package sim

// EventKind labels a match event emitted by the engine.
type EventKind string

const (
	EventJoin        EventKind = "join"
	EventHit         EventKind = "hit"
	EventKill        EventKind = "kill"
	EventRespawn     EventKind = "respawn"
	EventIdleTimeout EventKind = "idle_timeout"
	EventSpiderBite  EventKind = "spider_bite"
	EventSpiderDown  EventKind = "spider_down"
)

// Event is a non-authoritative notification about something that
// happened during a tick. Consumers (match log, diagnostics) must never
// block the simulation; the engine calls the hook synchronously and
// relies on the consumer to buffer.
type Event struct {
	Tick   uint32
	Kind   EventKind
	Actor  EntityID
	Target EntityID
	Amount int32
}
