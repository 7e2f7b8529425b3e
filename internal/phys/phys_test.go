package phys

import (
	"math"
	"testing"
)

func testArena(walls []Wall, platforms []Platform) *Arena {
	return &Arena{HalfExtent: 24, Walls: walls, Platforms: platforms}
}

func TestResolveWallsClearsPenetration(t *testing.T) {
	wall := Wall{MinX: 0, MaxX: 2, MinZ: 0, MaxZ: 2}
	body := &Body{X: 0.1, Z: 1, Y: GroundY}
	body.VX = 3

	ResolveWalls(body, BodyRadius, []Wall{wall})

	if OverlapsWall(body.X, body.Z, BodyRadius, wall) {
		t.Fatalf("expected no overlap after resolution, body at (%f, %f)", body.X, body.Z)
	}
	if body.VX != 0 {
		t.Fatalf("expected pushed axis velocity zeroed, got vx=%f", body.VX)
	}
}

func TestResolveWallsTieOrder(t *testing.T) {
	// Body dead-center in a square wall: all four push-outs are equal.
	// The resolver must prefer the left exit (positive X direction).
	wall := Wall{MinX: -1, MaxX: 1, MinZ: -1, MaxZ: 1}
	body := &Body{X: 0, Z: 0, Y: GroundY}

	ResolveWalls(body, BodyRadius, []Wall{wall})

	want := wall.MaxX + BodyRadius
	if body.X != want {
		t.Fatalf("tie should resolve to left axis: x=%f want %f (z=%f)", body.X, want, body.Z)
	}
	if body.Z != 0 {
		t.Fatalf("tie resolution should not move z, got %f", body.Z)
	}
}

func TestStepIdleFrictionDecay(t *testing.T) {
	arena := testArena(nil, nil)
	body := &Body{X: 0, Z: 0, Y: GroundY, VX: 10, Grounded: true}
	idle := Command{}

	prev := math.Hypot(float64(body.VX), float64(body.VZ))
	for i := 0; i < 240; i++ {
		Step(body, idle, Dt, arena)
		speed := math.Hypot(float64(body.VX), float64(body.VZ))
		if speed > prev {
			t.Fatalf("speed increased under idle input at step %d: %f > %f", i, speed, prev)
		}
		prev = speed
	}
	if prev > 0.01 {
		t.Fatalf("expected velocity to decay to rest, still moving at %f", prev)
	}
	if body.Y != GroundY || !body.Grounded {
		t.Fatalf("expected body at rest on ground plane, y=%f grounded=%v", body.Y, body.Grounded)
	}
}

func TestStepMovesAlongViewForward(t *testing.T) {
	arena := testArena(nil, nil)
	body := &Body{Y: GroundY, Grounded: true}
	cmd := Command{MoveZ: 1} // yaw 0: forward is -Z

	for i := 0; i < 30; i++ {
		Step(body, cmd, Dt, arena)
	}
	if body.Z >= 0 {
		t.Fatalf("expected forward motion toward -Z, z=%f", body.Z)
	}
	if body.X != 0 {
		t.Fatalf("expected no lateral drift, x=%f", body.X)
	}
	speed := math.Hypot(float64(body.VX), float64(body.VZ))
	if speed > MaxSpeed+1e-3 {
		t.Fatalf("speed exceeds clamp: %f", speed)
	}
}

func TestStepClampsToArenaBounds(t *testing.T) {
	arena := testArena(nil, nil)
	body := &Body{X: arena.HalfExtent - 0.1, Y: GroundY, VX: 50}

	for i := 0; i < 60; i++ {
		Step(body, Command{MoveX: 1, Yaw: 0}, Dt, arena)
	}
	if body.X > arena.HalfExtent {
		t.Fatalf("body escaped arena: x=%f half=%f", body.X, arena.HalfExtent)
	}
}

func TestStepJumpAndLand(t *testing.T) {
	arena := testArena(nil, nil)
	body := &Body{Y: GroundY, Grounded: true}

	Step(body, Command{Jump: true}, Dt, arena)
	if body.Grounded {
		t.Fatalf("expected airborne after jump")
	}
	if body.VY <= 0 {
		t.Fatalf("expected upward velocity after jump, vy=%f", body.VY)
	}

	peak := body.Y
	landed := false
	for i := 0; i < 300; i++ {
		Step(body, Command{}, Dt, arena)
		if body.Y > peak {
			peak = body.Y
		}
		if body.Grounded {
			landed = true
			break
		}
	}
	if !landed {
		t.Fatalf("body never landed, y=%f vy=%f", body.Y, body.VY)
	}
	if peak <= GroundY+1 {
		t.Fatalf("jump apex suspiciously low: %f", peak)
	}
	if body.Y != GroundY {
		t.Fatalf("expected rest on ground plane, y=%f", body.Y)
	}
}

func TestPlatformLandingAndJumpOff(t *testing.T) {
	platform := Platform{MinX: -2, MaxX: 2, MinZ: -2, MaxZ: 2, Height: 2}
	arena := testArena(nil, []Platform{platform})
	body := &Body{X: 0, Z: 0, Y: 3.5}

	landed := false
	for i := 0; i < 300; i++ {
		Step(body, Command{}, Dt, arena)
		if body.Grounded && body.Y == platform.Height {
			landed = true
			break
		}
		if body.Y < platform.Height-1 {
			t.Fatalf("body fell through platform at step %d, y=%f", i, body.Y)
		}
	}
	if !landed {
		t.Fatalf("body never landed on platform, y=%f vy=%f", body.Y, body.VY)
	}

	// Standing on top must be stable and allow free horizontal movement.
	for i := 0; i < 12; i++ {
		Step(body, Command{MoveX: 1}, Dt, arena)
	}
	if body.Y != platform.Height || !body.Grounded {
		t.Fatalf("expected stable stand on platform, y=%f grounded=%v", body.Y, body.Grounded)
	}
	if body.X <= 0 {
		t.Fatalf("expected free horizontal movement on platform top, x=%f", body.X)
	}

	// Jumping from a platform top must work.
	body = &Body{X: 0, Z: 0, Y: platform.Height, Grounded: true}
	Step(body, Command{Jump: true}, Dt, arena)
	if body.VY <= 0 {
		t.Fatalf("expected jump from platform top, vy=%f", body.VY)
	}
}

func TestPlatformSidePushOutFromBelow(t *testing.T) {
	platform := Platform{MinX: 1, MaxX: 5, MinZ: -2, MaxZ: 2, Height: 4}
	arena := testArena(nil, []Platform{platform})
	// Body on the ground overlapping the platform footprint from the left.
	body := &Body{X: 1.2, Z: 0, Y: GroundY}

	ResolvePlatforms(body, BodyRadius, arena.Platforms)

	if body.X+BodyRadius > platform.MinX {
		t.Fatalf("expected push-out left of platform side, x=%f", body.X)
	}
}

func TestRaySphere(t *testing.T) {
	// Sphere straight ahead along -Z.
	dist, ok := RaySphere(0, 0, 0, 0, 0, -1, 0, 0, -10, 1, 100)
	if !ok {
		t.Fatalf("expected hit")
	}
	if math.Abs(float64(dist)-9) > 1e-3 {
		t.Fatalf("hit distance = %f, want 9", dist)
	}

	if _, ok := RaySphere(0, 0, 0, 0, 0, 1, 0, 0, -10, 1, 100); ok {
		t.Fatalf("expected miss behind the ray origin")
	}
	if _, ok := RaySphere(0, 0, 0, 0, 0, -1, 5, 0, -10, 1, 100); ok {
		t.Fatalf("expected lateral miss")
	}
	if _, ok := RaySphere(0, 0, 0, 0, 0, -1, 0, 0, -10, 1, 5); ok {
		t.Fatalf("expected miss beyond max distance")
	}
}

func TestStepDeterministic(t *testing.T) {
	arena := testArena(
		[]Wall{{MinX: -6, MaxX: -4, MinZ: -6, MaxZ: 6}},
		[]Platform{{MinX: 2, MaxX: 6, MinZ: 2, MaxZ: 6, Height: 1.5}},
	)
	commands := []Command{
		{MoveZ: 1, Yaw: 0.3},
		{MoveZ: 1, MoveX: -1, Yaw: 0.5, Jump: true},
		{MoveX: 1, Yaw: 1.2},
		{},
		{MoveZ: -1, Yaw: 2.4, Pitch: 0.2},
	}

	a := &Body{Y: GroundY, Grounded: true}
	b := &Body{Y: GroundY, Grounded: true}
	for i := 0; i < 600; i++ {
		cmd := commands[i%len(commands)]
		Step(a, cmd, Dt, arena)
		Step(b, cmd, Dt, arena)
		if *a != *b {
			t.Fatalf("states diverged at step %d: %+v vs %+v", i, a, b)
		}
	}
}
