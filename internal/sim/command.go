package sim

import (
	"run-and-gun/server/internal/phys"
	"run-and-gun/server/internal/proto"
)

// EntityID identifies one entity for the lifetime of the process.
// Human ids are assigned by the transport at handshake; bots and spiders
// live in reserved ranges.
type EntityID uint32

const (
	// BotIDBase is the first server-assigned bot id.
	BotIDBase EntityID = 1_000_000
	// SpiderIDBase is the first spider id.
	SpiderIDBase EntityID = 2_000_000
)

// Command is one player input staged for the next tick. Seq is
// monotonically non-decreasing per entity and is the reconciliation key
// echoed back to clients in every snapshot.
type Command struct {
	EntityID EntityID
	Seq      uint32
	MoveX    float32
	MoveZ    float32
	Yaw      float32
	Pitch    float32
	Fire     bool
	Weapon   uint8
	Jump     bool
}

// CommandFromFrame binds a decoded wire frame to its session entity.
func CommandFromFrame(id EntityID, f proto.InputFrame) Command {
	return Command{
		EntityID: id,
		Seq:      f.Seq,
		MoveX:    f.MoveX,
		MoveZ:    f.MoveZ,
		Yaw:      f.Yaw,
		Pitch:    f.Pitch,
		Fire:     f.Fire,
		Weapon:   f.Weapon,
		Jump:     f.Jump,
	}
}

// Motion extracts the movement-relevant slice for the physics kernel.
func (c Command) Motion() phys.Command {
	return phys.Command{
		MoveX: c.MoveX,
		MoveZ: c.MoveZ,
		Yaw:   c.Yaw,
		Pitch: c.Pitch,
		Jump:  c.Jump,
	}
}
