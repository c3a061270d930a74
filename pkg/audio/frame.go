// Package audio holds the PCM types shared by microphones, the listener and
// recognizer backends, plus WAV encoding and decoding.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Frame is a short block of interleaved 16-bit little-endian PCM.
// len(Data) == SamplesPerChannel * NumChannels * 2.
type Frame struct {
	Data              []byte
	SampleRate        int
	SamplesPerChannel int
	NumChannels       int
}

// NewFrame wraps data in a Frame after checking that it holds whole samples
// for every channel.
func NewFrame(data []byte, sampleRate, numChannels int) (*Frame, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if numChannels <= 0 {
		return nil, fmt.Errorf("invalid channel count %d", numChannels)
	}
	blockAlign := numChannels * 2
	if len(data)%blockAlign != 0 {
		return nil, fmt.Errorf("frame data length mismatch: %d bytes is not a multiple of %d (%d-channel 16-bit)",
			len(data), blockAlign, numChannels)
	}

	return &Frame{
		Data:              data,
		SampleRate:        sampleRate,
		SamplesPerChannel: len(data) / blockAlign,
		NumChannels:       numChannels,
	}, nil
}

// Clone creates a deep copy of the Frame.
func (f *Frame) Clone() *Frame {
	data := make([]byte, len(f.Data))
	copy(data, f.Data)

	return &Frame{
		Data:              data,
		SampleRate:        f.SampleRate,
		SamplesPerChannel: f.SamplesPerChannel,
		NumChannels:       f.NumChannels,
	}
}

// Duration returns the playback time covered by the frame.
func (f Frame) Duration() time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(f.SamplesPerChannel) * time.Second / time.Duration(f.SampleRate)
}

// Energy returns the RMS amplitude of the frame on the int16 scale (0..32768).
func (f Frame) Energy() float64 {
	return RMS(f.Data)
}

// RMS computes the root mean square of 16-bit little-endian samples.
func RMS(data []byte) float64 {
	samples := len(data) / 2
	if samples == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < samples; i++ {
		sample := float64(int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2])))
		sum += sample * sample
	}
	return math.Sqrt(sum / float64(samples))
}

// Clip is one contiguous piece of audio, usually a single utterance.
type Clip struct {
	Data        []byte
	SampleRate  int
	NumChannels int
}

// ClipFromFrames concatenates frames into a clip. All frames must share the
// sample rate and channel count of the first one.
func ClipFromFrames(frames []Frame) (Clip, error) {
	if len(frames) == 0 {
		return Clip{}, fmt.Errorf("no frames to combine")
	}

	sampleRate := frames[0].SampleRate
	channels := frames[0].NumChannels

	totalSize := 0
	for i, frame := range frames {
		if frame.SampleRate != sampleRate || frame.NumChannels != channels {
			return Clip{}, fmt.Errorf("frame %d format %dHz/%dch differs from %dHz/%dch",
				i, frame.SampleRate, frame.NumChannels, sampleRate, channels)
		}
		totalSize += len(frame.Data)
	}

	combined := make([]byte, 0, totalSize)
	for _, frame := range frames {
		combined = append(combined, frame.Data...)
	}

	return Clip{Data: combined, SampleRate: sampleRate, NumChannels: channels}, nil
}

// Duration returns the playback time of the clip.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 || c.NumChannels <= 0 {
		return 0
	}
	samples := len(c.Data) / (2 * c.NumChannels)
	return time.Duration(samples) * time.Second / time.Duration(c.SampleRate)
}

// Empty reports whether the clip holds no samples.
func (c Clip) Empty() bool {
	return len(c.Data) < 2
}

// Append returns a clip with other's samples added after c's. Formats must match.
func (c Clip) Append(other Clip) (Clip, error) {
	if c.Empty() {
		return other, nil
	}
	if c.SampleRate != other.SampleRate || c.NumChannels != other.NumChannels {
		return Clip{}, fmt.Errorf("cannot append %dHz/%dch audio to %dHz/%dch clip",
			other.SampleRate, other.NumChannels, c.SampleRate, c.NumChannels)
	}
	data := make([]byte, 0, len(c.Data)+len(other.Data))
	data = append(data, c.Data...)
	data = append(data, other.Data...)
	return Clip{Data: data, SampleRate: c.SampleRate, NumChannels: c.NumChannels}, nil
}

// Frames splits the clip into frames of the given duration. The last frame is
// zero padded.
func (c Clip) Frames(frameDuration time.Duration) []Frame {
	samplesPerChannel := int(time.Duration(c.SampleRate) * frameDuration / time.Second)
	if samplesPerChannel <= 0 || c.NumChannels <= 0 {
		return nil
	}
	bytesPerFrame := samplesPerChannel * c.NumChannels * 2

	var frames []Frame
	for offset := 0; offset < len(c.Data); offset += bytesPerFrame {
		data := make([]byte, bytesPerFrame)
		copy(data, c.Data[offset:])
		frames = append(frames, Frame{
			Data:              data,
			SampleRate:        c.SampleRate,
			SamplesPerChannel: samplesPerChannel,
			NumChannels:       c.NumChannels,
		})
	}
	return frames
}

// BigEndian returns the samples as 16-bit big-endian PCM (audio/l16).
func (c Clip) BigEndian() []byte {
	out := make([]byte, len(c.Data)&^1)
	for i := 0; i+1 < len(c.Data); i += 2 {
		out[i] = c.Data[i+1]
		out[i+1] = c.Data[i]
	}
	return out
}

// Mono returns the clip downmixed to one channel by averaging each sample
// across channels. Mono clips are returned unchanged.
func (c Clip) Mono() Clip {
	if c.NumChannels <= 1 {
		return c
	}
	stride := 2 * c.NumChannels
	samples := len(c.Data) / stride
	data := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		sum := 0
		for ch := 0; ch < c.NumChannels; ch++ {
			sum += int(int16(binary.LittleEndian.Uint16(c.Data[i*stride+ch*2:])))
		}
		binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(sum/c.NumChannels)))
	}
	return Clip{Data: data, SampleRate: c.SampleRate, NumChannels: 1}
}
