// Package proto implements the fixed little-endian wire formats: the
// 23-byte input command frame, the per-tick world snapshot, and the
// one-time JSON session handshake. Layouts are byte-exact contracts
// shared with every client; changing them is a protocol break.
package proto

import (
	"encoding/binary"
	"fmt"
	"math"
)

// InputFrameSize is the exact payload size of one input command.
// u32 seq | f32 moveX | f32 moveZ | f32 yaw | f32 pitch |
// u8 fire | u8 weapon | u8 jump
const InputFrameSize = 23

// Snapshot layout: u32 tick | u16 playerCount | playerCount records.
const (
	snapshotHeaderSize = 6
	// PlayerRecordSize is the fixed size of one snapshot entity record.
	PlayerRecordSize = 45
)

// InputFrame is a decoded input command. The sending entity's id is
// carried out-of-band by the transport session, never in the payload.
type InputFrame struct {
	Seq    uint32
	MoveX  float32
	MoveZ  float32
	Yaw    float32
	Pitch  float32
	Fire   bool
	Weapon uint8
	Jump   bool
}

// PlayerRecord is one entity's wire state inside a snapshot.
type PlayerRecord struct {
	ID      uint32
	X, Y, Z float32
	VX, VY  float32
	VZ      float32
	Yaw     float32
	Pitch   float32
	Health  int16
	Active  bool
	IsBot   bool
	Weapon  uint8
	LastSeq uint32
}

// Snapshot is the decoded full world state for one tick.
type Snapshot struct {
	Tick    uint32
	Players []PlayerRecord
}

// DecodeInput parses one input frame. It returns false for undersized
// payloads; trailing bytes beyond the fixed frame are ignored.
func DecodeInput(buf []byte) (InputFrame, bool) {
	if len(buf) < InputFrameSize {
		return InputFrame{}, false
	}
	var f InputFrame
	f.Seq = binary.LittleEndian.Uint32(buf[0:])
	f.MoveX = math.Float32frombits(binary.LittleEndian.Uint32(buf[4:]))
	f.MoveZ = math.Float32frombits(binary.LittleEndian.Uint32(buf[8:]))
	f.Yaw = math.Float32frombits(binary.LittleEndian.Uint32(buf[12:]))
	f.Pitch = math.Float32frombits(binary.LittleEndian.Uint32(buf[16:]))
	f.Fire = buf[20] != 0
	f.Weapon = buf[21]
	f.Jump = buf[22] != 0
	return f, true
}

// AppendInput serializes one input frame, appending to dst.
func AppendInput(dst []byte, f InputFrame) []byte {
	var rec [InputFrameSize]byte
	binary.LittleEndian.PutUint32(rec[0:], f.Seq)
	binary.LittleEndian.PutUint32(rec[4:], math.Float32bits(f.MoveX))
	binary.LittleEndian.PutUint32(rec[8:], math.Float32bits(f.MoveZ))
	binary.LittleEndian.PutUint32(rec[12:], math.Float32bits(f.Yaw))
	binary.LittleEndian.PutUint32(rec[16:], math.Float32bits(f.Pitch))
	rec[20] = boolByte(f.Fire)
	rec[21] = f.Weapon
	rec[22] = boolByte(f.Jump)
	return append(dst, rec[:]...)
}

// AppendSnapshot serializes a full snapshot, appending to dst.
func AppendSnapshot(dst []byte, tick uint32, players []PlayerRecord) []byte {
	var head [snapshotHeaderSize]byte
	binary.LittleEndian.PutUint32(head[0:], tick)
	binary.LittleEndian.PutUint16(head[4:], uint16(len(players)))
	dst = append(dst, head[:]...)
	for i := range players {
		dst = appendPlayerRecord(dst, &players[i])
	}
	return dst
}

func appendPlayerRecord(dst []byte, p *PlayerRecord) []byte {
	var rec [PlayerRecordSize]byte
	binary.LittleEndian.PutUint32(rec[0:], p.ID)
	binary.LittleEndian.PutUint32(rec[4:], math.Float32bits(p.X))
	binary.LittleEndian.PutUint32(rec[8:], math.Float32bits(p.Y))
	binary.LittleEndian.PutUint32(rec[12:], math.Float32bits(p.Z))
	binary.LittleEndian.PutUint32(rec[16:], math.Float32bits(p.VX))
	binary.LittleEndian.PutUint32(rec[20:], math.Float32bits(p.VY))
	binary.LittleEndian.PutUint32(rec[24:], math.Float32bits(p.VZ))
	binary.LittleEndian.PutUint32(rec[28:], math.Float32bits(p.Yaw))
	binary.LittleEndian.PutUint32(rec[32:], math.Float32bits(p.Pitch))
	binary.LittleEndian.PutUint16(rec[36:], uint16(p.Health))
	rec[38] = boolByte(p.Active)
	rec[39] = boolByte(p.IsBot)
	rec[40] = p.Weapon
	binary.LittleEndian.PutUint32(rec[41:], p.LastSeq)
	return append(dst, rec[:]...)
}

// DecodeSnapshot parses a full snapshot buffer.
func DecodeSnapshot(buf []byte) (Snapshot, error) {
	if len(buf) < snapshotHeaderSize {
		return Snapshot{}, fmt.Errorf("snapshot too short: %d bytes", len(buf))
	}
	var s Snapshot
	s.Tick = binary.LittleEndian.Uint32(buf[0:])
	count := int(binary.LittleEndian.Uint16(buf[4:]))
	need := snapshotHeaderSize + count*PlayerRecordSize
	if len(buf) < need {
		return Snapshot{}, fmt.Errorf("snapshot truncated: have %d bytes, need %d for %d players",
			len(buf), need, count)
	}
	s.Players = make([]PlayerRecord, count)
	off := snapshotHeaderSize
	for i := 0; i < count; i++ {
		decodePlayerRecord(buf[off:off+PlayerRecordSize], &s.Players[i])
		off += PlayerRecordSize
	}
	return s, nil
}

func decodePlayerRecord(rec []byte, p *PlayerRecord) {
	p.ID = binary.LittleEndian.Uint32(rec[0:])
	p.X = math.Float32frombits(binary.LittleEndian.Uint32(rec[4:]))
	p.Y = math.Float32frombits(binary.LittleEndian.Uint32(rec[8:]))
	p.Z = math.Float32frombits(binary.LittleEndian.Uint32(rec[12:]))
	p.VX = math.Float32frombits(binary.LittleEndian.Uint32(rec[16:]))
	p.VY = math.Float32frombits(binary.LittleEndian.Uint32(rec[20:]))
	p.VZ = math.Float32frombits(binary.LittleEndian.Uint32(rec[24:]))
	p.Yaw = math.Float32frombits(binary.LittleEndian.Uint32(rec[28:]))
	p.Pitch = math.Float32frombits(binary.LittleEndian.Uint32(rec[32:]))
	p.Health = int16(binary.LittleEndian.Uint16(rec[36:]))
	p.Active = rec[38] != 0
	p.IsBot = rec[39] != 0
	p.Weapon = rec[40]
	p.LastSeq = binary.LittleEndian.Uint32(rec[41:])
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
