package device

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// InputStream is a started capture stream delivering fixed-size chunks.
// ReadChunk blocks until a full chunk is available.
type InputStream struct {
	stream *portaudio.Stream
	buf    []int16
	closed bool
}

// OpenInput opens and starts a capture stream on the device.
func (c *Catalog) OpenInput(d *Descriptor, cfg StreamConfig) (*InputStream, error) {
	if d == nil || d.info == nil {
		return nil, errors.New("no input device selected")
	}
	return openInput(*d, cfg)
}

func openInput(d Descriptor, cfg StreamConfig) (*InputStream, error) {
	buf := make([]int16, cfg.ChunkSize*cfg.Channels)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   d.info,
			Channels: cfg.Channels,
			Latency:  d.info.DefaultHighInputLatency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: cfg.ChunkSize,
	}
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, fmt.Errorf("open capture stream on %q: %w", d.Name, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("start capture stream on %q: %w", d.Name, err)
	}
	return &InputStream{stream: stream, buf: buf}, nil
}

// ReadChunk blocks for the next chunk and returns a copy of it, so callers
// may retain the slice across subsequent reads.
func (s *InputStream) ReadChunk() ([]int16, error) {
	if s.closed {
		return nil, errors.New("input stream closed")
	}
	if err := s.stream.Read(); err != nil {
		return nil, err
	}
	out := make([]int16, len(s.buf))
	copy(out, s.buf)
	return out, nil
}

// Close stops and releases the stream. Safe to call more than once.
func (s *InputStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.stream.Stop()
	return s.stream.Close()
}

// OutputStream is a started playback stream. Samples written through it are
// chunked into the registered buffer; a short final chunk is zero padded.
type OutputStream struct {
	stream *portaudio.Stream
	buf    []int16
	closed bool
}

// OpenOutput opens and starts a playback stream on the device.
func (c *Catalog) OpenOutput(d *Descriptor, cfg StreamConfig) (*OutputStream, error) {
	if d == nil || d.info == nil {
		return nil, errors.New("no output device selected")
	}
	buf := make([]int16, cfg.ChunkSize*cfg.Channels)
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   d.info,
			Channels: cfg.Channels,
			Latency:  d.info.DefaultHighOutputLatency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: cfg.ChunkSize,
	}
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, fmt.Errorf("open playback stream on %q: %w", d.Name, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("start playback stream on %q: %w", d.Name, err)
	}
	return &OutputStream{stream: stream, buf: buf}, nil
}

// Write plays the samples, blocking until the device has consumed them.
func (s *OutputStream) Write(samples []int16) error {
	if s.closed {
		return errors.New("output stream closed")
	}
	for off := 0; off < len(samples); off += len(s.buf) {
		n := copy(s.buf, samples[off:])
		for i := n; i < len(s.buf); i++ {
			s.buf[i] = 0
		}
		if err := s.stream.Write(); err != nil {
			return err
		}
	}
	return nil
}

// Close stops and releases the stream. Safe to call more than once.
func (s *OutputStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.stream.Stop()
	return s.stream.Close()
}
