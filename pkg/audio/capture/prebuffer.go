package capture

import (
	"encoding/binary"

	"github.com/smallnest/ringbuffer"
)

// PreBuffer is a bounded circular queue of fixed-size sample chunks. Every
// chunk read while the gate is still closed lands here, so the attack portion
// of speech that precedes the level crossing survives into the recording.
// Once full the oldest chunk is dropped.
//
// Chunks are framed as raw little-endian int16 bytes. Because every frame is
// exactly chunkBytes long, eviction is a single fixed-size read from the
// front of the ring.
type PreBuffer struct {
	chunkSize  int
	chunkBytes int
	capChunks  int
	rb         *ringbuffer.RingBuffer
	scratch    []byte
}

// NewPreBuffer builds a pre-buffer holding at most capChunks chunks of
// chunkSize samples each.
func NewPreBuffer(capChunks, chunkSize int) *PreBuffer {
	chunkBytes := chunkSize * 2
	return &PreBuffer{
		chunkSize:  chunkSize,
		chunkBytes: chunkBytes,
		capChunks:  capChunks,
		rb:         ringbuffer.New(capChunks * chunkBytes).SetBlocking(false),
		scratch:    make([]byte, chunkBytes),
	}
}

// Push appends a chunk, evicting the oldest one first if the buffer is full.
// Short chunks (a truncated final read) are zero-padded to keep framing
// fixed.
func (p *PreBuffer) Push(chunk []int16) {
	if p.capChunks == 0 {
		return
	}
	for p.rb.Free() < p.chunkBytes {
		if _, err := p.rb.Read(p.scratch); err != nil {
			p.rb.Reset()
			break
		}
	}

	frame := p.scratch
	for i := 0; i < p.chunkSize; i++ {
		var s int16
		if i < len(chunk) {
			s = chunk[i]
		}
		binary.LittleEndian.PutUint16(frame[i*2:], uint16(s))
	}
	p.rb.Write(frame)
}

// Len reports the number of buffered chunks.
func (p *PreBuffer) Len() int {
	return p.rb.Length() / p.chunkBytes
}

// Capacity reports the maximum number of chunks retained.
func (p *PreBuffer) Capacity() int {
	return p.capChunks
}

// Drain returns all buffered samples oldest-first and empties the buffer.
// Called exactly once, at gate trigger, to splice the buffered audio onto
// the front of the recording.
func (p *PreBuffer) Drain() []int16 {
	n := p.Len()
	if n == 0 {
		return nil
	}
	out := make([]int16, 0, n*p.chunkSize)
	buf := make([]byte, p.chunkBytes)
	for i := 0; i < n; i++ {
		read, err := p.rb.Read(buf)
		if err != nil || read != p.chunkBytes {
			break
		}
		for j := 0; j < p.chunkSize; j++ {
			out = append(out, int16(binary.LittleEndian.Uint16(buf[j*2:])))
		}
	}
	p.rb.Reset()
	return out
}
