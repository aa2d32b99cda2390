// Package capture turns a live microphone sample stream into a bounded,
// speech-only recording. The gate is energy based: ambient noise is measured
// first, the detection threshold adapts to it, and a rolling pre-buffer
// preserves the speech onset that precedes the level crossing.
package capture

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/looplab/fsm"

	"github.com/xpanvictor/aria/pkg/Logger"
	"github.com/xpanvictor/aria/pkg/audio/wav"
)

// Gate states for one Record invocation.
const (
	StateCalibrating = "calibrating"
	StateListening   = "listening"
	StateActive      = "active"
	StateTrailing    = "trailing"
	StateDone        = "done"
	StateAborted     = "aborted"
)

const (
	evCalibrated = "calibrated"
	evVoice      = "voice"
	evSilence    = "silence"
	evFinish     = "finish"
	evAbort      = "abort"
)

// ChunkReader delivers successive fixed-size sample chunks from a live input
// stream. Implemented by device.InputStream; tests use scripted readers.
type ChunkReader interface {
	ReadChunk() ([]int16, error)
	Close() error
}

// OpenFunc opens a fresh input stream. The recorder opens and closes one
// stream per Record call so the device handle never outlives the invocation.
type OpenFunc func() (ChunkReader, error)

// Config is the immutable parameter set for one recorder. Durations are in
// seconds; thresholds are raw linear RMS units.
type Config struct {
	SampleRate           int
	Channels             int
	ChunkSize            int
	SilenceThreshold     float64
	SilenceDuration      float64
	MinRecordingDuration float64
	MaxRecordingDuration float64
	PreBufferDuration    float64
	SmoothingWindow      int
	CalibrationDuration  float64
}

func (c Config) withDefaults() Config {
	if c.SampleRate == 0 {
		c.SampleRate = 16000
	}
	if c.Channels == 0 {
		c.Channels = 1
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = 1024
	}
	if c.SilenceThreshold == 0 {
		c.SilenceThreshold = 20
	}
	if c.SilenceDuration == 0 {
		c.SilenceDuration = 3.5
	}
	if c.MinRecordingDuration == 0 {
		c.MinRecordingDuration = 1.5
	}
	if c.MaxRecordingDuration == 0 {
		c.MaxRecordingDuration = 30
	}
	if c.PreBufferDuration == 0 {
		c.PreBufferDuration = 2.0
	}
	if c.SmoothingWindow == 0 {
		c.SmoothingWindow = 5
	}
	if c.CalibrationDuration == 0 {
		c.CalibrationDuration = 1.0
	}
	return c
}

// PreBufferChunks is the pre-buffer capacity in chunks for this config.
func (c Config) PreBufferChunks() int {
	return int(math.Ceil(float64(c.SampleRate) / float64(c.ChunkSize) * c.PreBufferDuration))
}

func (c Config) chunkSeconds() float64 {
	return float64(c.ChunkSize) / float64(c.SampleRate)
}

// Recording is one finished speech capture.
type Recording struct {
	Samples    []int16
	SampleRate int
	Channels   int
	Recorded   time.Duration
}

// WAV renders the recording as a canonical PCM WAV container.
func (r *Recording) WAV() []byte {
	return wav.Encode(r.Samples, wav.Format{SampleRate: r.SampleRate, Channels: r.Channels})
}

// Recorder owns one selected input device (by opener, never by handle) and
// produces at most one Recording per Record call.
type Recorder struct {
	cfg    Config
	open   OpenFunc
	logger *Logger.Logger
}

func New(cfg Config, open OpenFunc, logger *Logger.Logger) *Recorder {
	return &Recorder{cfg: cfg.withDefaults(), open: open, logger: logger}
}

func newGate() *fsm.FSM {
	return fsm.NewFSM(
		StateCalibrating,
		fsm.Events{
			{Name: evCalibrated, Src: []string{StateCalibrating}, Dst: StateListening},
			{Name: evVoice, Src: []string{StateListening, StateTrailing}, Dst: StateActive},
			{Name: evSilence, Src: []string{StateActive}, Dst: StateTrailing},
			{Name: evFinish, Src: []string{StateTrailing}, Dst: StateDone},
			{Name: evAbort, Src: []string{StateCalibrating, StateListening, StateActive, StateTrailing}, Dst: StateAborted},
		},
		fsm.Callbacks{},
	)
}

// Record runs one full gate cycle: calibrate, listen, capture, stop. It
// returns (nil, nil) when no usable speech was heard; that is an expected
// outcome, not an error. A stream that fails to open is an error; a stream
// that fails mid-capture degrades to whatever was already recorded.
func (r *Recorder) Record(ctx context.Context) (*Recording, error) {
	stream, err := r.open()
	if err != nil {
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	defer stream.Close()

	gate := newGate()

	threshold := r.calibrate(ctx, stream)
	if err := gate.Event(ctx, evCalibrated); err != nil {
		return nil, fmt.Errorf("gate transition: %w", err)
	}
	r.logger.Debugf("listening: dynamic threshold %.1f", threshold)

	var (
		chunkDur     = r.cfg.chunkSeconds()
		preBuffer    = NewPreBuffer(r.cfg.PreBufferChunks(), r.cfg.ChunkSize)
		smoother     = NewSmoother(r.cfg.SmoothingWindow)
		frames       []int16
		silentChunks int
		totalSecs    float64
	)

	for {
		if ctx.Err() != nil {
			break
		}

		chunk, err := stream.ReadChunk()
		if err != nil {
			r.logger.Warnf("input stream read failed mid-capture: %v", err)
			break
		}

		smoothed := smoother.Push(RMS(chunk))

		if gate.Is(StateListening) {
			preBuffer.Push(chunk)
			if smoothed > threshold {
				// Speech onset: splice the whole pre-buffer (which already
				// holds this chunk) onto the front of the recording.
				if err := gate.Event(ctx, evVoice); err != nil {
					return nil, fmt.Errorf("gate transition: %w", err)
				}
				r.logger.Debug("voice detected, recording active")
				frames = append(frames, preBuffer.Drain()...)
				silentChunks = 0
				totalSecs += chunkDur
			}
			continue
		}

		// Armed: every chunk is kept, voiced or not.
		frames = append(frames, chunk...)
		totalSecs += chunkDur

		if smoothed > threshold {
			silentChunks = 0
			if gate.Is(StateTrailing) {
				if err := gate.Event(ctx, evVoice); err != nil {
					return nil, fmt.Errorf("gate transition: %w", err)
				}
			}
		} else {
			silentChunks++
			if gate.Is(StateActive) {
				if err := gate.Event(ctx, evSilence); err != nil {
					return nil, fmt.Errorf("gate transition: %w", err)
				}
			}
			silenceSecs := float64(silentChunks) * chunkDur
			// Stop only when the pause is long enough AND the take already
			// has a usable length; a short utterance followed by silence
			// must not be truncated below the minimum.
			if silenceSecs >= r.cfg.SilenceDuration && totalSecs >= r.cfg.MinRecordingDuration {
				if err := gate.Event(ctx, evFinish); err != nil {
					return nil, fmt.Errorf("gate transition: %w", err)
				}
				r.logger.Debugf("natural pause detected after %.1fs", totalSecs)
				break
			}
		}

		if totalSecs > r.cfg.MaxRecordingDuration {
			gate.Event(ctx, evAbort)
			r.logger.Warnf("maximum recording duration reached (%.0fs)", r.cfg.MaxRecordingDuration)
			break
		}
	}

	if len(frames) == 0 || totalSecs < r.cfg.MinRecordingDuration {
		if len(frames) > 0 {
			r.logger.Debugf("recording too short (%.1fs < %.1fs), discarding",
				totalSecs, r.cfg.MinRecordingDuration)
		}
		return nil, nil
	}

	return &Recording{
		Samples:    frames,
		SampleRate: r.cfg.SampleRate,
		Channels:   r.cfg.Channels,
		Recorded:   time.Duration(totalSecs * float64(time.Second)),
	}, nil
}

// calibrate reads ambient audio before any gating begins and derives the
// dynamic threshold: max(staticThreshold, ambient*2.5). A read failure ends
// calibration early with whatever was sampled.
func (r *Recorder) calibrate(ctx context.Context, stream ChunkReader) float64 {
	chunks := int(float64(r.cfg.SampleRate) / float64(r.cfg.ChunkSize) * r.cfg.CalibrationDuration)

	var noise []float64
	for i := 0; i < chunks; i++ {
		if ctx.Err() != nil {
			break
		}
		chunk, err := stream.ReadChunk()
		if err != nil {
			break
		}
		noise = append(noise, RMS(chunk))
	}
	if len(noise) == 0 {
		return r.cfg.SilenceThreshold
	}

	var sum float64
	for _, v := range noise {
		sum += v
	}
	ambient := sum / float64(len(noise))
	threshold := DynamicThreshold(r.cfg.SilenceThreshold, ambient)
	r.logger.Debugf("ambient noise %.1f, dynamic threshold %.1f", ambient, threshold)
	return threshold
}

// DynamicThreshold adapts the static gate level to the measured room noise.
// It never drops below the static threshold.
func DynamicThreshold(static, ambient float64) float64 {
	return math.Max(static, ambient*2.5)
}
