// Package replay records the authoritative snapshot stream to a
// zstd-compressed file for later playback. Frames inside the stream are
// length-prefixed: u32 tick, u32 payload length, payload bytes, all
// little-endian, matching the snapshot wire encoding.
package replay

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
)

const frameHeaderSize = 8

// Recorder appends snapshot frames to a replay file.
type Recorder struct {
	mu     sync.Mutex
	file   *os.File
	enc    *zstd.Encoder
	header [frameHeaderSize]byte
	closed bool
}

// NewRecorder creates the replay file at path, truncating any previous
// recording.
func NewRecorder(path string) (*Recorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &Recorder{file: file, enc: enc}, nil
}

// Write appends one snapshot frame. Safe for concurrent use, though the
// broadcast path is the only expected writer.
func (r *Recorder) Write(tick uint32, snapshot []byte) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("replay recorder closed")
	}

	binary.LittleEndian.PutUint32(r.header[0:4], tick)
	binary.LittleEndian.PutUint32(r.header[4:8], uint32(len(snapshot)))
	if _, err := r.enc.Write(r.header[:]); err != nil {
		return err
	}
	_, err := r.enc.Write(snapshot)
	return err
}

// Close flushes the compressor and closes the file.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	encErr := r.enc.Close()
	fileErr := r.file.Close()
	if encErr != nil {
		return encErr
	}
	return fileErr
}

// Reader iterates a recorded replay file frame by frame.
type Reader struct {
	file *os.File
	dec  *zstd.Decoder
	src  *bufio.Reader
}

// OpenReader opens a replay file for sequential reading.
func OpenReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &Reader{file: file, dec: dec, src: bufio.NewReader(dec)}, nil
}

// Next returns the next frame. io.EOF signals a clean end of stream;
// any other error means the recording is truncated or corrupt.
func (r *Reader) Next() (uint32, []byte, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r.src, header[:]); err != nil {
		if err == io.EOF {
			return 0, nil, io.EOF
		}
		return 0, nil, fmt.Errorf("replay frame header: %w", err)
	}
	tick := binary.LittleEndian.Uint32(header[0:4])
	size := binary.LittleEndian.Uint32(header[4:8])

	payload := make([]byte, size)
	if _, err := io.ReadFull(r.src, payload); err != nil {
		return 0, nil, fmt.Errorf("replay frame at tick %d truncated: %w", tick, err)
	}
	return tick, payload, nil
}

// Close releases the decoder and file.
func (r *Reader) Close() error {
	if r == nil {
		return nil
	}
	r.dec.Close()
	return r.file.Close()
}
