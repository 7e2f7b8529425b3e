package predict

import (
	"testing"

	"run-and-gun/server/internal/phys"
	"run-and-gun/server/internal/proto"
)

func testArena() *phys.Arena {
	return &phys.Arena{HalfExtent: 24}
}

func recordFor(body phys.Body, lastSeq uint32) proto.PlayerRecord {
	return proto.PlayerRecord{
		X: body.X, Y: body.Y, Z: body.Z,
		VX: body.VX, VY: body.VY, VZ: body.VZ,
		Yaw: body.Yaw, Pitch: body.Pitch,
		LastSeq: lastSeq,
	}
}

func testCommands(n int) []phys.Command {
	cmds := make([]phys.Command, n)
	for i := range cmds {
		cmds[i] = phys.Command{
			MoveZ: 1,
			MoveX: float32(i%3) - 1,
			Yaw:   float32(i) * 0.05,
			Jump:  i == 4,
		}
	}
	return cmds
}

// Reconciliation must be exact: adopting the authoritative state after M
// commands and replaying the unacknowledged tail must land on the same
// body as running all N commands straight through.
func TestReconciliationConverges(t *testing.T) {
	const total = 20
	const acked = 12
	arena := testArena()
	cmds := testCommands(total)

	var server phys.Body
	for _, cmd := range cmds[:acked] {
		phys.Step(&server, cmd, phys.Dt, arena)
	}
	var reference phys.Body
	for _, cmd := range cmds {
		phys.Step(&reference, cmd, phys.Dt, arena)
	}

	p := New(arena)
	for i, cmd := range cmds {
		if seq := p.Sample(cmd); seq != uint32(i+1) {
			t.Fatalf("expected seq %d, got %d", i+1, seq)
		}
	}

	p.OnSnapshot(recordFor(server, acked))

	if p.Pending() != total-acked {
		t.Fatalf("expected %d pending commands after ack, got %d", total-acked, p.Pending())
	}
	if p.Body() != reference {
		t.Fatalf("replayed body diverged from straight-through simulation:\n got %+v\nwant %+v", p.Body(), reference)
	}
}

// A snapshot that matches the predictor's own simulation acknowledges
// nothing new and must produce zero divergence.
func TestReconciliationIsStableOnAgreement(t *testing.T) {
	arena := testArena()
	p := New(arena)
	for _, cmd := range testCommands(5) {
		p.Sample(cmd)
	}
	before := p.Body()

	p.OnSnapshot(recordFor(phys.Body{}, 0))

	if p.Body() != before {
		t.Fatalf("replay from agreed base changed the body:\n got %+v\nwant %+v", p.Body(), before)
	}
	if p.LastDivergence() != 0 {
		t.Fatalf("expected zero divergence, got %f", p.LastDivergence())
	}
	if p.Pending() != 5 {
		t.Fatalf("expected all 5 commands still pending, got %d", p.Pending())
	}
}

func TestAcknowledgedCommandsArePruned(t *testing.T) {
	arena := testArena()
	p := New(arena)
	for _, cmd := range testCommands(8) {
		p.Sample(cmd)
	}

	p.OnSnapshot(recordFor(p.Body(), 8))
	if p.Pending() != 0 {
		t.Fatalf("expected empty pending buffer after full ack, got %d", p.Pending())
	}
}

func TestLargeErrorHardSnaps(t *testing.T) {
	arena := testArena()
	p := New(arena)
	for _, cmd := range testCommands(3) {
		p.Sample(cmd)
	}

	// Server says we are somewhere else entirely.
	far := phys.Body{X: 15, Y: phys.GroundY, Z: 15}
	p.OnSnapshot(recordFor(far, 3))

	if p.HardSnaps() != 1 {
		t.Fatalf("expected a hard snap, count=%d", p.HardSnaps())
	}
	if p.RenderBody() != p.Body() {
		t.Fatalf("hard snap must teleport the rendered body:\n got %+v\nwant %+v", p.RenderBody(), p.Body())
	}
}

func TestSmallErrorIsSmoothed(t *testing.T) {
	arena := testArena()
	p := New(arena)
	for _, cmd := range testCommands(3) {
		p.Sample(cmd)
	}
	renderBefore := p.RenderBody()

	nudged := p.Body()
	nudged.X += 0.5
	p.OnSnapshot(recordFor(nudged, 3))

	if p.HardSnaps() != 0 {
		t.Fatalf("small error must not hard snap")
	}
	render := p.RenderBody()
	if render.X == renderBefore.X || render.X == p.Body().X {
		t.Fatalf("expected partial correction, render X=%f (was %f, target %f)",
			render.X, renderBefore.X, p.Body().X)
	}
}

func TestPendingBufferIsBounded(t *testing.T) {
	arena := testArena()
	p := New(arena)
	for i := 0; i < maxPending+50; i++ {
		p.Sample(phys.Command{MoveZ: 1})
	}
	if p.Pending() != maxPending {
		t.Fatalf("expected pending capped at %d, got %d", maxPending, p.Pending())
	}
}
