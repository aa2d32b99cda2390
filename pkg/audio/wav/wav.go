// Package wav encodes and decodes canonical PCM WAV containers: a RIFF
// header, a 16-byte fmt chunk (format 1 = PCM) and a data chunk of raw
// little-endian int16 samples. That is the exact shape the recognizer
// collaborator expects and the synthesizer collaborator returns.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const headerSize = 44

var (
	ErrNotWAV     = errors.New("wav: not a RIFF/WAVE container")
	ErrNoData     = errors.New("wav: missing data chunk")
	ErrFormat     = errors.New("wav: unsupported format (want 16-bit PCM)")
	ErrTruncated  = errors.New("wav: truncated chunk")
	ErrNoFmtChunk = errors.New("wav: missing fmt chunk")
)

// Format describes the PCM layout of a decoded or to-be-encoded buffer.
type Format struct {
	SampleRate int
	Channels   int
}

// Encode wraps raw int16 samples in a canonical WAV container.
func Encode(samples []int16, f Format) []byte {
	dataSize := len(samples) * 2
	byteRate := f.SampleRate * f.Channels * 2
	blockAlign := f.Channels * 2

	out := make([]byte, headerSize+dataSize)

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(headerSize+dataSize-8))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], 16) // bits per sample

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataSize))

	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[headerSize+i*2:], uint16(s))
	}
	return out
}

// Decode walks the RIFF chunk list and extracts the PCM samples. It accepts
// extra chunks (LIST, fact, ...) between fmt and data since TTS engines
// routinely emit them.
func Decode(data []byte) ([]int16, Format, error) {
	var f Format

	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, f, ErrNotWAV
	}

	var (
		haveFmt bool
		pcm     []byte
	)

	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			// Some encoders write a RIFF size before the stream is final;
			// clamp the last chunk instead of refusing the whole file.
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, f, ErrTruncated
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			bits := binary.LittleEndian.Uint16(data[body+14 : body+16])
			if audioFormat != 1 || bits != 16 {
				return nil, f, fmt.Errorf("%w: format=%d bits=%d", ErrFormat, audioFormat, bits)
			}
			f.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			f.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			haveFmt = true
		case "data":
			pcm = data[body : body+size]
		}

		// Chunks are word aligned.
		off = body + size
		if size%2 == 1 {
			off++
		}
		if haveFmt && pcm != nil {
			break
		}
	}

	if !haveFmt {
		return nil, f, ErrNoFmtChunk
	}
	if pcm == nil {
		return nil, f, ErrNoData
	}

	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return samples, f, nil
}

// Duration returns the playback duration in seconds for a sample count.
func Duration(sampleCount int, f Format) float64 {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	return float64(sampleCount) / float64(f.SampleRate*f.Channels)
}
