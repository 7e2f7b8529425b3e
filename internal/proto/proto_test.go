package proto

import (
	"bytes"
	"testing"
)

func TestInputFrameRoundTrip(t *testing.T) {
	frame := InputFrame{
		Seq:    918273,
		MoveX:  -0.5,
		MoveZ:  1,
		Yaw:    2.7182817,
		Pitch:  -0.25,
		Fire:   true,
		Weapon: 3,
		Jump:   true,
	}
	buf := AppendInput(nil, frame)
	if len(buf) != InputFrameSize {
		t.Fatalf("encoded size = %d, want %d", len(buf), InputFrameSize)
	}
	decoded, ok := DecodeInput(buf)
	if !ok {
		t.Fatalf("decode rejected a well-formed frame")
	}
	if decoded != frame {
		t.Fatalf("round trip mismatch: %+v != %+v", decoded, frame)
	}
}

func TestDecodeInputRejectsShortPayload(t *testing.T) {
	buf := AppendInput(nil, InputFrame{Seq: 1})
	for size := 0; size < InputFrameSize; size++ {
		if _, ok := DecodeInput(buf[:size]); ok {
			t.Fatalf("decode accepted %d-byte payload", size)
		}
	}
}

func TestDecodeInputIgnoresTrailingBytes(t *testing.T) {
	frame := InputFrame{Seq: 7, Yaw: 1.5}
	buf := append(AppendInput(nil, frame), 0xAA, 0xBB)
	decoded, ok := DecodeInput(buf)
	if !ok || decoded != frame {
		t.Fatalf("decode with trailing bytes: ok=%v decoded=%+v", ok, decoded)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	players := []PlayerRecord{
		{
			ID: 1, X: 1.5, Y: 1.2, Z: -3.25,
			VX: 0.125, VY: -9.5, VZ: 4,
			Yaw: 3.1415925, Pitch: -0.5,
			Health: 84, Active: true, IsBot: false, Weapon: 0, LastSeq: 4097,
		},
		{
			ID: 1000000, X: -20, Y: 1.2, Z: 20,
			Health: 0, Active: false, IsBot: true, Weapon: 2, LastSeq: 0,
		},
		{
			ID: 42, Health: 100, Active: true, Weapon: 1, LastSeq: ^uint32(0),
		},
	}
	buf := AppendSnapshot(nil, 123456, players)
	wantLen := 6 + len(players)*PlayerRecordSize
	if len(buf) != wantLen {
		t.Fatalf("encoded size = %d, want %d", len(buf), wantLen)
	}

	snap, err := DecodeSnapshot(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Tick != 123456 {
		t.Fatalf("tick = %d, want 123456", snap.Tick)
	}
	if len(snap.Players) != len(players) {
		t.Fatalf("player count = %d, want %d", len(snap.Players), len(players))
	}
	for i := range players {
		if snap.Players[i] != players[i] {
			t.Fatalf("record %d mismatch: %+v != %+v", i, snap.Players[i], players[i])
		}
	}

	// Re-encoding must reproduce the exact bytes.
	again := AppendSnapshot(nil, snap.Tick, snap.Players)
	if !bytes.Equal(buf, again) {
		t.Fatalf("re-encode produced different bytes")
	}
}

func TestDecodeSnapshotTruncated(t *testing.T) {
	buf := AppendSnapshot(nil, 9, []PlayerRecord{{ID: 1}, {ID: 2}})
	if _, err := DecodeSnapshot(buf[:4]); err == nil {
		t.Fatalf("expected error for truncated header")
	}
	if _, err := DecodeSnapshot(buf[:len(buf)-1]); err == nil {
		t.Fatalf("expected error for truncated record")
	}
}

func TestNegativeHealthSurvivesWire(t *testing.T) {
	buf := AppendSnapshot(nil, 1, []PlayerRecord{{ID: 5, Health: -1}})
	snap, err := DecodeSnapshot(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Players[0].Health != -1 {
		t.Fatalf("health = %d, want -1", snap.Players[0].Health)
	}
}
