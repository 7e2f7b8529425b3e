// Package predict implements client-side prediction against the
// authoritative snapshot stream. The client simulates its own body with
// the shared movement kernel as soon as input is sampled, then
// reconciles whenever a snapshot acknowledges part of its command
// history: adopt the server state, drop acknowledged commands, and
// replay the rest.
package predict

import (
	"math"

	"run-and-gun/server/internal/phys"
	"run-and-gun/server/internal/proto"
)

const (
	// maxPending bounds the unacknowledged command history. On overflow
	// the oldest entries are discarded; the next reconciliation then
	// snaps instead of replaying through the gap.
	maxPending = 256

	// hardSnapDistance is the reconciliation error beyond which the
	// predictor gives up on smoothing and teleports to the replayed
	// position.
	hardSnapDistance = 4.0

	// errorBlend is the per-reconciliation fraction of small positional
	// error folded into the rendered body.
	errorBlend = 0.35
)

type pendingCommand struct {
	seq uint32
	cmd phys.Command
}

// Predictor tracks the local player's speculative body. Not safe for
// concurrent use; the client drives it from a single loop.
type Predictor struct {
	arena *phys.Arena
	body  phys.Body

	// render carries the smoothed body shown on screen; body is the raw
	// replayed state reconciliation converges on.
	render phys.Body

	nextSeq uint32
	pending []pendingCommand

	lastDivergence float32
	hardSnaps      uint64
}

// New returns a predictor simulating against the given static geometry.
func New(arena *phys.Arena) *Predictor {
	return &Predictor{arena: arena, nextSeq: 1}
}

// Sample assigns the next sequence number to cmd, advances the
// speculative body by one tick, and stores the command for replay.
// The returned seq is what the client puts in the wire frame.
func (p *Predictor) Sample(cmd phys.Command) uint32 {
	seq := p.nextSeq
	p.nextSeq++

	phys.Step(&p.body, cmd, phys.Dt, p.arena)
	phys.Step(&p.render, cmd, phys.Dt, p.arena)

	if len(p.pending) >= maxPending {
		p.pending = p.pending[1:]
	}
	p.pending = append(p.pending, pendingCommand{seq: seq, cmd: cmd})
	return seq
}

// OnSnapshot reconciles against the authoritative record for the local
// player: adopt the server body, discard commands the server has
// consumed, and replay the remainder so unacknowledged input is not
// lost.
func (p *Predictor) OnSnapshot(rec proto.PlayerRecord) {
	predicted := p.body

	p.body = phys.Body{
		X: rec.X, Y: rec.Y, Z: rec.Z,
		VX: rec.VX, VY: rec.VY, VZ: rec.VZ,
		Yaw: rec.Yaw, Pitch: rec.Pitch,
	}

	// Drop everything the snapshot already accounts for.
	keep := p.pending[:0]
	for _, pc := range p.pending {
		if pc.seq > rec.LastSeq {
			keep = append(keep, pc)
		}
	}
	p.pending = keep

	for _, pc := range p.pending {
		phys.Step(&p.body, pc.cmd, phys.Dt, p.arena)
	}

	dx := p.body.X - predicted.X
	dy := p.body.Y - predicted.Y
	dz := p.body.Z - predicted.Z
	p.lastDivergence = sqrt32(dx*dx + dy*dy + dz*dz)

	if p.lastDivergence > hardSnapDistance {
		p.render = p.body
		p.hardSnaps++
		return
	}
	p.render.X += (p.body.X - p.render.X) * errorBlend
	p.render.Y += (p.body.Y - p.render.Y) * errorBlend
	p.render.Z += (p.body.Z - p.render.Z) * errorBlend
	p.render.VX = p.body.VX
	p.render.VY = p.body.VY
	p.render.VZ = p.body.VZ
	p.render.Yaw = p.body.Yaw
	p.render.Pitch = p.body.Pitch
	p.render.Grounded = p.body.Grounded
}

// Body returns the raw predicted state reconciliation converges on.
func (p *Predictor) Body() phys.Body {
	return p.body
}

// RenderBody returns the smoothed body for presentation.
func (p *Predictor) RenderBody() phys.Body {
	return p.render
}

// Pending reports how many commands await acknowledgement.
func (p *Predictor) Pending() int {
	return len(p.pending)
}

// LastDivergence reports the positional error observed at the most
// recent reconciliation.
func (p *Predictor) LastDivergence() float32 {
	return p.lastDivergence
}

// HardSnaps counts reconciliations that exceeded the snap threshold.
func (p *Predictor) HardSnaps() uint64 {
	return p.hardSnaps
}

func sqrt32(v float32) float32 {
	if v <= 0 {
		return 0
	}
	return float32(math.Sqrt(float64(v)))
}
