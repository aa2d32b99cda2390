// Package playback plays synthesized WAV audio through an output stream. One
// stream is kept open across turns and only reopened when the audio format
// changes, so consecutive replies do not pay the device setup cost.
package playback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xpanvictor/aria/pkg/Logger"
	"github.com/xpanvictor/aria/pkg/audio/wav"
)

// ErrPlaybackTimeout reports a playback that had to be force-stopped because
// the device did not consume the audio in time.
var ErrPlaybackTimeout = errors.New("playback timed out")

// StreamWriter is a started output stream. Implemented by
// device.OutputStream; tests use in-memory writers.
type StreamWriter interface {
	Write(samples []int16) error
	Close() error
}

// OpenFunc opens an output stream for the given format.
type OpenFunc func(sampleRate, channels int) (StreamWriter, error)

// Config bounds a single Play call.
type Config struct {
	// ChunkSize is the number of samples written per stream write.
	ChunkSize int
	// Timeout is the hard ceiling for one playback on top of the audio's own
	// duration. Zero means 30 seconds.
	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.ChunkSize == 0 {
		c.ChunkSize = 1024
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// Player serializes playback onto one lazily-opened output stream.
type Player struct {
	cfg    Config
	open   OpenFunc
	logger *Logger.Logger

	stream  StreamWriter
	format  wav.Format
	hasOpen bool
}

func New(cfg Config, open OpenFunc, logger *Logger.Logger) *Player {
	return &Player{cfg: cfg.withDefaults(), open: open, logger: logger}
}

// Play decodes the WAV payload and blocks until the device has consumed it,
// the context is canceled, or the deadline passes. On timeout or cancel the
// stream is closed to force the device to stop; the next Play reopens it.
func (p *Player) Play(ctx context.Context, wavData []byte) error {
	samples, format, err := wav.Decode(wavData)
	if err != nil {
		return fmt.Errorf("decode reply audio: %w", err)
	}

	if err := p.ensureStream(format); err != nil {
		return err
	}

	duration := time.Duration(wav.Duration(len(samples), format) * float64(time.Second))
	deadline := duration + p.cfg.Timeout

	done := make(chan error, 1)
	go func() {
		for off := 0; off < len(samples); off += p.cfg.ChunkSize * format.Channels {
			end := off + p.cfg.ChunkSize*format.Channels
			if end > len(samples) {
				end = len(samples)
			}
			if err := p.stream.Write(samples[off:end]); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			p.dropStream()
			return fmt.Errorf("write to output device: %w", err)
		}
		return nil
	case <-ctx.Done():
		p.dropStream()
		<-done
		return ctx.Err()
	case <-timer.C:
		p.logger.Warnf("playback exceeded %v, force-stopping output", deadline)
		p.dropStream()
		<-done
		return ErrPlaybackTimeout
	}
}

// Close releases the held stream, if any.
func (p *Player) Close() error {
	if !p.hasOpen {
		return nil
	}
	p.hasOpen = false
	return p.stream.Close()
}

func (p *Player) ensureStream(format wav.Format) error {
	if p.hasOpen && p.format == format {
		return nil
	}
	if p.hasOpen {
		p.logger.Debugf("audio format changed (%d Hz/%d ch -> %d Hz/%d ch), reopening output",
			p.format.SampleRate, p.format.Channels, format.SampleRate, format.Channels)
		p.stream.Close()
		p.hasOpen = false
	}
	stream, err := p.open(format.SampleRate, format.Channels)
	if err != nil {
		return fmt.Errorf("open output stream: %w", err)
	}
	p.stream = stream
	p.format = format
	p.hasOpen = true
	return nil
}

// dropStream closes the held stream so a blocked Write unblocks and the next
// Play starts clean.
func (p *Player) dropStream() {
	if p.hasOpen {
		p.stream.Close()
		p.hasOpen = false
	}
}
