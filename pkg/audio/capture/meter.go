package capture

import "math"

// RMS computes root-mean-square amplitude over a chunk, in raw 16-bit PCM
// magnitude units. Thresholds, calibration and smoothing all operate in this
// same linear unit so they compose without conversion.
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Smoother keeps a sliding window of raw RMS values and yields their mean.
// It damps single-chunk spikes (keyboard clicks, pops) that would otherwise
// false-trigger the gate.
type Smoother struct {
	window  int
	history []float64
}

func NewSmoother(window int) *Smoother {
	if window < 1 {
		window = 1
	}
	return &Smoother{window: window, history: make([]float64, 0, window)}
}

// Push records a raw RMS value and returns the smoothed mean of the window.
func (s *Smoother) Push(rms float64) float64 {
	s.history = append(s.history, rms)
	if len(s.history) > s.window {
		s.history = s.history[1:]
	}
	var sum float64
	for _, v := range s.history {
		sum += v
	}
	return sum / float64(len(s.history))
}

// Reset drops the window contents.
func (s *Smoother) Reset() {
	s.history = s.history[:0]
}
