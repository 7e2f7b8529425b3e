package sim

import (
	"run-and-gun/server/internal/phys"
	"run-and-gun/server/internal/proto"
)

const maxHealth = 100

// respawnNow marks an inactive entity eligible to respawn on its next
// command instead of at a scheduled tick (used by the idle timeout).
const respawnNow uint32 = 0

// Entity is the flat authoritative record for one player or bot. There
// is no subtype hierarchy; IsBot is the only role distinction. Entities
// are created lazily and never removed while the process lives, bounded
// by the configured player cap.
type Entity struct {
	ID   EntityID
	Body phys.Body

	Health       int32
	Weapon       uint8
	LastFireTick uint32
	RespawnTick  uint32

	LastSeq       uint32
	LastInputTick uint32
	Active        bool
	IsBot         bool
}

// Record converts the entity into its snapshot wire form.
func (e *Entity) Record() proto.PlayerRecord {
	return proto.PlayerRecord{
		ID:      uint32(e.ID),
		X:       e.Body.X,
		Y:       e.Body.Y,
		Z:       e.Body.Z,
		VX:      e.Body.VX,
		VY:      e.Body.VY,
		VZ:      e.Body.VZ,
		Yaw:     e.Body.Yaw,
		Pitch:   e.Body.Pitch,
		Health:  int16(e.Health),
		Active:  e.Active,
		IsBot:   e.IsBot,
		Weapon:  e.Weapon,
		LastSeq: e.LastSeq,
	}
}
