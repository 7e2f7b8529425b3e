package main

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"run-and-gun/server/internal/config"
	"run-and-gun/server/internal/net/ws"
	"run-and-gun/server/internal/proto"
	"run-and-gun/server/internal/replay"
	"run-and-gun/server/internal/sim"
	"run-and-gun/server/internal/telemetry"
)

// Hub binds the websocket sessions to the simulation loop: it assigns
// entity ids at handshake, forwards decoded input frames to the command
// queue, and fans the per-tick snapshot out to every connected client.
type Hub struct {
	cfg     config.Config
	logger  *zap.SugaredLogger
	metrics telemetry.Metrics

	engine   *sim.Engine
	loop     *sim.Loop
	recorder *replay.Recorder

	mu       sync.Mutex
	sessions map[sim.EntityID]*ws.Session
	nextID   sim.EntityID

	welcomeWalls     []proto.WallRect
	welcomePlatforms []proto.PlatformRect
}

func newHub(cfg config.Config, engine *sim.Engine, logger *zap.SugaredLogger, metrics telemetry.Metrics, recorder *replay.Recorder) *Hub {
	h := &Hub{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		engine:   engine,
		recorder: recorder,
		sessions: make(map[sim.EntityID]*ws.Session),
	}

	// The handshake geometry never changes; build it once.
	arena := cfg.Arena()
	for _, w := range arena.Walls {
		h.welcomeWalls = append(h.welcomeWalls, proto.WallRect{
			MinX: w.MinX, MaxX: w.MaxX, MinZ: w.MinZ, MaxZ: w.MaxZ,
		})
	}
	for _, p := range arena.Platforms {
		h.welcomePlatforms = append(h.welcomePlatforms, proto.PlatformRect{
			WallRect: proto.WallRect{MinX: p.MinX, MaxX: p.MaxX, MinZ: p.MinZ, MaxZ: p.MaxZ},
			Height:   p.Height,
		})
	}
	return h
}

// setLoop wires the command intake once the loop exists; the loop needs
// the engine first, and the hub needs the loop, so construction is
// two-phase.
func (h *Hub) setLoop(loop *sim.Loop) {
	h.loop = loop
}

// humanSlots is how many concurrent sessions the hub admits: the entity
// table minus the slots reserved for bots.
func (h *Hub) humanSlots() int {
	slots := h.cfg.MaxPlayers - h.cfg.BotCount
	if slots < 0 {
		return 0
	}
	return slots
}

// Join implements ws.Hub: admit the session and hand it the handshake
// payload. The entity itself is created lazily by the engine when the
// first input frame arrives.
func (h *Hub) Join(s *ws.Session) (proto.Welcome, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.sessions) >= h.humanSlots() {
		return proto.Welcome{}, false
	}
	h.nextID++
	s.ID = h.nextID
	h.sessions[s.ID] = s

	return proto.Welcome{
		Type:            proto.WelcomeType,
		ID:              uint32(s.ID),
		Token:           s.Token,
		TickRate:        h.cfg.TickRate,
		WorldHalfExtent: h.cfg.WorldHalfExtent,
		Walls:           h.welcomeWalls,
		Platforms:       h.welcomePlatforms,
	}, true
}

// Leave implements ws.Hub. The entity stays in the table and times out
// on its own; only the transport state is released.
func (h *Hub) Leave(s *ws.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.sessions[s.ID]; ok && existing == s {
		delete(h.sessions, s.ID)
	}
}

// PushInput implements ws.Hub: stage one decoded frame for the next
// tick.
func (h *Hub) PushInput(id sim.EntityID, frame proto.InputFrame) bool {
	if h.loop == nil {
		return false
	}
	return h.loop.Enqueue(sim.CommandFromFrame(id, frame))
}

// afterStep runs on the simulation goroutine at the end of every tick:
// broadcast the freshly published snapshot and append it to the replay.
func (h *Hub) afterStep(tick uint32, elapsed time.Duration) {
	_, snapshot := h.engine.Publisher().Latest()
	if snapshot == nil {
		return
	}

	if h.recorder != nil {
		if err := h.recorder.Write(tick, snapshot); err != nil {
			h.logger.Warnw("replay write failed", "tick", tick, "err", err)
		}
	}

	h.mu.Lock()
	sessions := make([]*ws.Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		s.Send(snapshot)
	}
}

// SessionCount reports the number of connected clients.
func (h *Hub) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}
