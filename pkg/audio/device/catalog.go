// Package device enumerates the host's audio hardware through PortAudio and
// selects working input and output devices. A device is only considered
// usable after a probe proves it can actually deliver samples; plenty of
// hosts expose virtual or monitor devices that open fine and then never
// produce audio.
package device

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/gordonklaus/portaudio"

	"github.com/xpanvictor/aria/pkg/Logger"
)

// ErrNoUsableInputDevice is fatal: without a microphone there is nothing to
// converse with. The catalog wraps it with per-host diagnostics.
var ErrNoUsableInputDevice = errors.New("no usable audio input device")

// Descriptor is a stable snapshot of one enumerated device. Index is the
// catalog's own position, valid until the next Refresh.
type Descriptor struct {
	Index             int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64

	info *portaudio.DeviceInfo
}

func (d Descriptor) IsInput() bool  { return d.MaxInputChannels > 0 }
func (d Descriptor) IsOutput() bool { return d.MaxOutputChannels > 0 }

func (d Descriptor) String() string {
	var caps []string
	if d.IsInput() {
		caps = append(caps, fmt.Sprintf("in:%d", d.MaxInputChannels))
	}
	if d.IsOutput() {
		caps = append(caps, fmt.Sprintf("out:%d", d.MaxOutputChannels))
	}
	return fmt.Sprintf("[%d] %s (%s, %s, %.0f Hz)",
		d.Index, d.Name, d.HostAPI, strings.Join(caps, "/"), d.DefaultSampleRate)
}

// StreamConfig carries the stream parameters a device must support.
type StreamConfig struct {
	SampleRate int
	Channels   int
	ChunkSize  int
}

// ProbeFunc verifies a device can deliver audio at the given parameters.
// A device that opens but cannot be read from must fail its probe.
type ProbeFunc func(d Descriptor, cfg StreamConfig) error

// Catalog owns the PortAudio session and the device inventory.
type Catalog struct {
	logger *Logger.Logger
	probe  ProbeFunc

	devices       []Descriptor
	defaultInput  int
	defaultOutput int
}

// Open initializes PortAudio and enumerates devices. Callers must Close the
// catalog to release the audio host.
func Open(logger *Logger.Logger) (*Catalog, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize audio host: %w", err)
	}
	c := &Catalog{logger: logger, probe: probeInput}
	if err := c.Refresh(); err != nil {
		portaudio.Terminate()
		return nil, err
	}
	return c, nil
}

// Close releases the PortAudio session.
func (c *Catalog) Close() error {
	return portaudio.Terminate()
}

// Refresh re-enumerates the host's devices.
func (c *Catalog) Refresh() error {
	infos, err := portaudio.Devices()
	if err != nil {
		return fmt.Errorf("enumerate audio devices: %w", err)
	}

	defIn, _ := portaudio.DefaultInputDevice()
	defOut, _ := portaudio.DefaultOutputDevice()

	c.devices = make([]Descriptor, 0, len(infos))
	c.defaultInput = -1
	c.defaultOutput = -1
	for i, info := range infos {
		d := Descriptor{
			Index:             i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
			info:              info,
		}
		if info.HostApi != nil {
			d.HostAPI = info.HostApi.Name
		}
		if info == defIn {
			c.defaultInput = i
		}
		if info == defOut {
			c.defaultOutput = i
		}
		c.devices = append(c.devices, d)
	}
	c.logger.Debugf("audio host: %d devices enumerated", len(c.devices))
	return nil
}

// Devices returns the current inventory.
func (c *Catalog) Devices() []Descriptor {
	out := make([]Descriptor, len(c.devices))
	copy(out, c.devices)
	return out
}

// SelectInput picks a working input device: the host default when it passes
// its probe, otherwise the first enumerated input that does. Every candidate
// is probed with a real open-and-read so devices that enumerate but cannot
// capture are skipped.
func (c *Catalog) SelectInput(cfg StreamConfig) (*Descriptor, error) {
	d, err := chooseInput(c.devices, c.defaultInput, func(cand Descriptor) error {
		if err := c.probe(cand, cfg); err != nil {
			c.logger.Warnf("input device %q failed probe: %v", cand.Name, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, c.noInputError(err)
	}
	c.logger.Infof("selected input device: %s", d)
	return d, nil
}

// chooseInput applies the selection policy over an already-enumerated
// inventory. defaultIdx is -1 when the host reports no default.
func chooseInput(devices []Descriptor, defaultIdx int, probe func(Descriptor) error) (*Descriptor, error) {
	var candidates []Descriptor
	if defaultIdx >= 0 && defaultIdx < len(devices) && devices[defaultIdx].IsInput() {
		candidates = append(candidates, devices[defaultIdx])
	}
	for _, d := range devices {
		if d.IsInput() && d.Index != defaultIdx {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoUsableInputDevice
	}
	var lastErr error
	for _, d := range candidates {
		if err := probe(d); err != nil {
			lastErr = err
			continue
		}
		sel := d
		return &sel, nil
	}
	return nil, fmt.Errorf("%w: all %d input devices failed probing: %v",
		ErrNoUsableInputDevice, len(candidates), lastErr)
}

// SelectOutput picks the host default output, falling back to the first
// device with output channels. Outputs are not probed; a broken speaker
// degrades playback but never blocks the conversation.
func (c *Catalog) SelectOutput() (*Descriptor, error) {
	if c.defaultOutput >= 0 && c.defaultOutput < len(c.devices) && c.devices[c.defaultOutput].IsOutput() {
		d := c.devices[c.defaultOutput]
		return &d, nil
	}
	for _, d := range c.devices {
		if d.IsOutput() {
			sel := d
			return &sel, nil
		}
	}
	return nil, errors.New("no audio output device available")
}

// noInputError decorates the fatal no-input condition with enough context to
// act on: what was found and where to look on this platform.
func (c *Catalog) noInputError(cause error) error {
	inputs := 0
	for _, d := range c.devices {
		if d.IsInput() {
			inputs++
		}
	}
	hint := "check that a microphone is connected and not in use by another application"
	switch runtime.GOOS {
	case "linux":
		hint = "check ALSA/PulseAudio configuration and that the user can access the sound device"
	case "darwin":
		hint = "check System Settings > Privacy & Security > Microphone"
	case "windows":
		hint = "check Sound settings and microphone privacy permissions"
	}
	return fmt.Errorf("%w (%d devices enumerated, %d with input channels; %s)",
		cause, len(c.devices), inputs, hint)
}

// probeInput opens the device, starts it, and reads a single chunk. Only a
// full round trip counts as working.
func probeInput(d Descriptor, cfg StreamConfig) error {
	s, err := openInput(d, cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	if _, err := s.ReadChunk(); err != nil {
		return fmt.Errorf("probe read: %w", err)
	}
	return nil
}
