// Package phys is the deterministic movement and collision kernel shared
// by the authoritative server simulation and the client predictor. Both
// sides must run this exact code: any divergence between the two copies
// shows up as visible snapping when the client reconciles.
package phys

import "math"

// Fixed-timestep tuning. All speeds are world units per second.
const (
	Dt         = 1.0 / 60.0
	Accel      = 50.0
	Friction   = 8.0
	MaxSpeed   = 12.0
	Gravity    = 26.0
	JumpSpeed  = 11.0
	GroundY    = 1.2 // body center height when standing on the floor
	groundSnap = 0.05

	// BodyRadius is the XZ collision footprint against static geometry.
	BodyRadius = 0.35
	// HitRadius is the sphere tested by hitscan rays.
	HitRadius = 0.6

	platformLandAbove = 0.2
	platformLandBelow = 0.8
)

// Command is the movement-relevant slice of a player input.
type Command struct {
	MoveX float32
	MoveZ float32
	Yaw   float32
	Pitch float32
	Jump  bool
}

// Body is the kinematic state advanced by Step.
type Body struct {
	X, Y, Z    float32
	VX, VY, VZ float32
	Yaw, Pitch float32
	Grounded   bool
}

// Wall is a full-height axis-aligned rectangle in the XZ plane.
type Wall struct {
	MinX, MaxX float32
	MinZ, MaxZ float32
}

// Platform is a walkable rectangle whose top surface sits at Height.
// Side collision applies only while the body is at or below the top.
type Platform struct {
	MinX, MaxX float32
	MinZ, MaxZ float32
	Height     float32
}

// Arena is the immutable static geometry a match runs in.
type Arena struct {
	HalfExtent float32
	Walls      []Wall
	Platforms  []Platform
}

// Step advances one body by one fixed timestep under the given command,
// resolving collisions against the arena. Pure except for the body
// pointer; both the server and the predictor call it with dt = Dt.
func Step(b *Body, cmd Command, dt float32, arena *Arena) {
	// World-space wish direction from view yaw and movement intent.
	forwardX := -sin32(cmd.Yaw)
	forwardZ := -cos32(cmd.Yaw)
	rightX := cos32(cmd.Yaw)
	rightZ := -sin32(cmd.Yaw)
	dirX := forwardX*cmd.MoveZ + rightX*cmd.MoveX
	dirZ := forwardZ*cmd.MoveZ + rightZ*cmd.MoveX
	if l := sqrt32(dirX*dirX + dirZ*dirZ); l > 1e-4 {
		dirX /= l
		dirZ /= l
	}

	// Accelerate, then friction, then clamp. The order is load-bearing:
	// it sets the equilibrium top speed under continuous input.
	b.VX += dirX * Accel * dt
	b.VZ += dirZ * Accel * dt

	speed := sqrt32(b.VX*b.VX + b.VZ*b.VZ)
	if speed > 0 {
		drop := speed * Friction * dt
		newSpeed := speed - drop
		if newSpeed < 0 {
			newSpeed = 0
		}
		if newSpeed != speed {
			scale := newSpeed / speed
			b.VX *= scale
			b.VZ *= scale
		}
	}

	if speed := sqrt32(b.VX*b.VX + b.VZ*b.VZ); speed > MaxSpeed {
		scale := MaxSpeed / speed
		b.VX *= scale
		b.VZ *= scale
	}

	b.X += b.VX * dt
	b.Z += b.VZ * dt

	// Vertical axis: jump from the ground or a platform top, gravity
	// always, floor clamp. Grounded does not latch: it is re-earned each
	// step by the floor clamp below or by a platform landing.
	canJump := b.Grounded || b.Y <= GroundY+groundSnap
	if cmd.Jump && canJump {
		b.VY = JumpSpeed
	}
	b.VY -= Gravity * dt
	b.Y += b.VY * dt
	onGround := false
	if b.Y < GroundY {
		b.Y = GroundY
		b.VY = 0
		onGround = true
	}
	b.Grounded = onGround

	ResolveWalls(b, BodyRadius, arena.Walls)
	ResolvePlatforms(b, BodyRadius, arena.Platforms)

	h := arena.HalfExtent
	b.X = clamp32(b.X, -h, h)
	b.Z = clamp32(b.Z, -h, h)

	// Orientation is client-authoritative.
	b.Yaw = cmd.Yaw
	b.Pitch = cmd.Pitch
}

// OverlapsWall reports whether a circular footprint at (x,z) overlaps w.
func OverlapsWall(x, z, r float32, w Wall) bool {
	return x+r > w.MinX && x-r < w.MaxX && z+r > w.MinZ && z-r < w.MaxZ
}

// ResolveWalls pushes the body out of every overlapping wall along the
// smallest penetration axis, zeroing that velocity component. Ties
// resolve in left, right, near, far order; tests pin this bias.
func ResolveWalls(b *Body, r float32, walls []Wall) {
	for _, w := range walls {
		if !OverlapsWall(b.X, b.Z, r, w) {
			continue
		}
		penLeft := w.MaxX - (b.X - r)
		penRight := (b.X + r) - w.MinX
		penNear := (b.Z + r) - w.MinZ
		penFar := w.MaxZ - (b.Z - r)
		minPen := penLeft
		axis := 0
		if penRight < minPen {
			minPen = penRight
			axis = 1
		}
		if penNear < minPen {
			minPen = penNear
			axis = 2
		}
		if penFar < minPen {
			axis = 3
		}
		switch axis {
		case 0:
			b.X = w.MaxX + r
			b.VX = 0
		case 1:
			b.X = w.MinX - r
			b.VX = 0
		case 2:
			b.Z = w.MinZ - r
			b.VZ = 0
		case 3:
			b.Z = w.MaxZ + r
			b.VZ = 0
		}
	}
}

// ResolvePlatforms lands the body on a platform top when falling through
// the landing band, and otherwise applies wall-style push-out while the
// body is at or below the top plane. Standing on top moves freely.
func ResolvePlatforms(b *Body, r float32, platforms []Platform) {
	for _, pl := range platforms {
		insideXZ := b.X+r > pl.MinX && b.X-r < pl.MaxX &&
			b.Z+r > pl.MinZ && b.Z-r < pl.MaxZ
		if !insideXZ {
			continue
		}
		top := pl.Height
		if b.VY < 0 && b.Y <= top+platformLandAbove && b.Y >= top-platformLandBelow {
			b.Y = top
			b.VY = 0
			b.Grounded = true
		}
		// On or above the top plane the body moves freely; side push-out
		// only applies from below.
		if b.Y >= top {
			continue
		}
		penLeft := pl.MaxX - (b.X - r)
		penRight := (b.X + r) - pl.MinX
		penNear := (b.Z + r) - pl.MinZ
		penFar := pl.MaxZ - (b.Z - r)
		minPen := penLeft
		axis := 0
		if penRight < minPen {
			minPen = penRight
			axis = 1
		}
		if penNear < minPen {
			minPen = penNear
			axis = 2
		}
		if penFar < minPen {
			axis = 3
		}
		switch axis {
		case 0:
			b.X = pl.MaxX + r
			b.VX = 0
		case 1:
			b.X = pl.MinX - r
			b.VX = 0
		case 2:
			b.Z = pl.MinZ - r
			b.VZ = 0
		case 3:
			b.Z = pl.MaxZ + r
			b.VZ = 0
		}
	}
}

// RaySphere intersects a ray with a sphere and returns the hit distance.
// dir must be normalized. Returns false when the ray misses or the hit
// lies beyond maxDist.
func RaySphere(ox, oy, oz, dx, dy, dz, cx, cy, cz, radius, maxDist float32) (float32, bool) {
	lx := cx - ox
	ly := cy - oy
	lz := cz - oz
	tca := lx*dx + ly*dy + lz*dz
	if tca < 0 {
		return 0, false
	}
	d2 := lx*lx + ly*ly + lz*lz - tca*tca
	r2 := radius * radius
	if d2 > r2 {
		return 0, false
	}
	thc := sqrt32(max32(0, r2-d2))
	t0 := tca - thc
	t1 := tca + thc
	t := t0
	if t < 0 {
		t = t1
	}
	if t < 0 || t > maxDist {
		return 0, false
	}
	return t, true
}

// AimDirection converts yaw/pitch into a normalized view ray.
func AimDirection(yaw, pitch float32) (dx, dy, dz float32) {
	dx = -sin32(yaw) * cos32(pitch)
	dy = sin32(pitch)
	dz = -cos32(yaw) * cos32(pitch)
	l := sqrt32(dx*dx + dy*dy + dz*dz)
	if l < 1e-4 {
		return 0, 0, -1
	}
	return dx / l, dy / l, dz / l
}

func sqrt32(v float32) float32 { return float32(math.Sqrt(float64(v))) }
func sin32(v float32) float32  { return float32(math.Sin(float64(v))) }
func cos32(v float32) float32  { return float32(math.Cos(float64(v))) }

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
