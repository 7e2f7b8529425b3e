package replay

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"run-and-gun/server/internal/proto"
)

func TestRecordAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "match.replay")
	recorder, err := NewRecorder(path)
	if err != nil {
		t.Fatalf("creating recorder: %v", err)
	}

	var frames [][]byte
	for tick := uint32(1); tick <= 5; tick++ {
		frame := proto.AppendSnapshot(nil, tick, []proto.PlayerRecord{
			{ID: 1, X: float32(tick), Health: 100, Active: true},
			{ID: 2, Z: -float32(tick), Health: 63, Active: true},
		})
		frames = append(frames, frame)
		if err := recorder.Write(tick, frame); err != nil {
			t.Fatalf("writing frame %d: %v", tick, err)
		}
	}
	if err := recorder.Close(); err != nil {
		t.Fatalf("closing recorder: %v", err)
	}

	reader, err := OpenReader(path)
	if err != nil {
		t.Fatalf("opening reader: %v", err)
	}
	defer reader.Close()

	for i, want := range frames {
		tick, payload, err := reader.Next()
		if err != nil {
			t.Fatalf("reading frame %d: %v", i, err)
		}
		if tick != uint32(i+1) {
			t.Fatalf("expected tick %d, got %d", i+1, tick)
		}
		if !bytes.Equal(payload, want) {
			t.Fatalf("frame %d payload mismatch", i)
		}
		if _, err := proto.DecodeSnapshot(payload); err != nil {
			t.Fatalf("frame %d does not decode: %v", i, err)
		}
	}
	if _, _, err := reader.Next(); err != io.EOF {
		t.Fatalf("expected clean EOF, got %v", err)
	}
}

func TestWriteAfterCloseFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "match.replay")
	recorder, err := NewRecorder(path)
	if err != nil {
		t.Fatalf("creating recorder: %v", err)
	}
	if err := recorder.Close(); err != nil {
		t.Fatalf("closing recorder: %v", err)
	}
	if err := recorder.Write(1, []byte{0}); err == nil {
		t.Fatalf("expected write on closed recorder to fail")
	}
}

func TestEmptyRecordingReadsAsEOF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.replay")
	recorder, err := NewRecorder(path)
	if err != nil {
		t.Fatalf("creating recorder: %v", err)
	}
	if err := recorder.Close(); err != nil {
		t.Fatalf("closing recorder: %v", err)
	}

	reader, err := OpenReader(path)
	if err != nil {
		t.Fatalf("opening reader: %v", err)
	}
	defer reader.Close()
	if _, _, err := reader.Next(); err != io.EOF {
		t.Fatalf("expected EOF from empty recording, got %v", err)
	}
}
