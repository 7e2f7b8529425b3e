package sim

import "time"

const (
	inputAcceptedMetricKey = "sim_inputs_accepted_total"
	inputDroppedMetricKey  = "sim_inputs_dropped_total"
	tickOverrunMetricKey   = "sim_tick_overrun_total"
)

// LoopConfig tunes the tick loop and its command intake.
type LoopConfig struct {
	TickRate        int
	CommandCapacity int
}

// LoopHooks lets the transport layer observe tick completion without
// the sim importing it.
type LoopHooks struct {
	AfterStep func(tick uint32, duration time.Duration)
}

// Loop wraps an Engine with the MPSC command intake and the
// fixed-cadence scheduler. Exactly one goroutine runs Run; Enqueue is
// safe from any goroutine.
type Loop struct {
	engine *Engine
	buffer *CommandBuffer
	cfg    LoopConfig
	hooks  LoopHooks
}

// NewLoop wires the engine to a fresh command buffer.
func NewLoop(engine *Engine, cfg LoopConfig, hooks LoopHooks) *Loop {
	if engine == nil {
		return nil
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = 60
	}
	if cfg.CommandCapacity <= 0 {
		cfg.CommandCapacity = 4096
	}
	return &Loop{
		engine: engine,
		buffer: NewCommandBuffer(cfg.CommandCapacity, engine.deps.Metrics),
		cfg:    cfg,
		hooks:  hooks,
	}
}

// Enqueue stages a command for the next tick. Returns false when the
// queue is full; the command is dropped, never blocked on. Dropping is
// tolerable because commands carry absolute intent, not deltas.
func (l *Loop) Enqueue(cmd Command) bool {
	if l == nil {
		return false
	}
	ok := l.buffer.Push(cmd)
	if m := l.engine.deps.Metrics; m != nil {
		if ok {
			m.Add(inputAcceptedMetricKey, 1)
		} else {
			m.Add(inputDroppedMetricKey, 1)
		}
	}
	return ok
}

// Pending reports the number of staged commands.
func (l *Loop) Pending() int {
	if l == nil {
		return 0
	}
	return l.buffer.Len()
}

// Run drives the engine at the fixed cadence until stop closes. The
// next deadline advances by the fixed step from the previous deadline,
// not from "now", so scheduling jitter cannot accumulate into drift.
// The stop channel is checked once per tick boundary; a tick always
// runs to completion.
func (l *Loop) Run(stop <-chan struct{}) {
	if l == nil {
		return
	}
	step := time.Second / time.Duration(l.cfg.TickRate)
	next := time.Now().Add(step)
	timer := time.NewTimer(step)
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		case <-timer.C:
		}

		start := time.Now()
		l.engine.Advance(l.buffer.Drain())
		elapsed := time.Since(start)

		if m := l.engine.deps.Metrics; m != nil {
			m.Add(tickDurationMetricKey, uint64(elapsed.Nanoseconds()))
		}
		if l.hooks.AfterStep != nil {
			l.hooks.AfterStep(l.engine.tick, elapsed)
		}

		next = next.Add(step)
		wait := time.Until(next)
		if wait < 0 {
			// Fell behind a full step: re-anchor rather than spiral.
			if m := l.engine.deps.Metrics; m != nil {
				m.Add(tickOverrunMetricKey, 1)
			}
			next = time.Now().Add(step)
			wait = 0
		}
		timer.Reset(wait)
	}
}
