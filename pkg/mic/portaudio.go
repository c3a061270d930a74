//go:build portaudio

package mic

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"
	"sync"

	"github.com/chriscow/wordguess/pkg/audio"
	"github.com/gordonklaus/portaudio"
)

// PortAudioAvailable reports whether the binary was built with capture support.
const PortAudioAvailable = true

// PortAudio captures from a sound card input through PortAudio.
type PortAudio struct {
	device string
	format Format
}

// NewPortAudio returns a microphone for the named input device, or the
// system default input when device is empty.
func NewPortAudio(device string, format Format) (*PortAudio, error) {
	if format.SampleRate <= 0 || format.NumChannels <= 0 {
		return nil, fmt.Errorf("invalid capture format %dHz/%dch", format.SampleRate, format.NumChannels)
	}
	if format.FrameDuration <= 0 {
		format.FrameDuration = DefaultFrameDuration
	}
	return &PortAudio{device: device, format: format}, nil
}

// Open initializes PortAudio and starts an input stream. Close stops the
// stream and terminates the library again.
func (p *PortAudio) Open(ctx context.Context) (Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}

	buf := make([]int16, p.format.SamplesPerFrame()*p.format.NumChannels)
	stream, err := p.openStream(buf)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("start input stream: %w", err)
	}

	return &portAudioSource{stream: stream, buf: buf, format: p.format}, nil
}

func (p *PortAudio) openStream(buf []int16) (*portaudio.Stream, error) {
	if p.device == "" {
		stream, err := portaudio.OpenDefaultStream(p.format.NumChannels, 0,
			float64(p.format.SampleRate), p.format.SamplesPerFrame(), buf)
		if err != nil {
			return nil, fmt.Errorf("open default input: %w", err)
		}
		return stream, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	for _, dev := range devices {
		if dev.MaxInputChannels <= 0 || !strings.EqualFold(dev.Name, p.device) {
			continue
		}
		params := portaudio.HighLatencyParameters(dev, nil)
		params.Input.Channels = p.format.NumChannels
		params.SampleRate = float64(p.format.SampleRate)
		params.FramesPerBuffer = p.format.SamplesPerFrame()
		stream, err := portaudio.OpenStream(params, buf)
		if err != nil {
			return nil, fmt.Errorf("open input %q: %w", dev.Name, err)
		}
		return stream, nil
	}
	return nil, fmt.Errorf("input device %q not found", p.device)
}

type portAudioSource struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	buf    []int16
	format Format
	closed bool
}

func (s *portAudioSource) ReadFrame(ctx context.Context) (audio.Frame, error) {
	if err := ctx.Err(); err != nil {
		return audio.Frame{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return audio.Frame{}, ErrClosed
	}
	if err := s.stream.Read(); err != nil && err != portaudio.InputOverflowed {
		return audio.Frame{}, fmt.Errorf("read input stream: %w", err)
	}

	data := make([]byte, len(s.buf)*2)
	for i, sample := range s.buf {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(sample))
	}
	return audio.Frame{
		Data:              data,
		SampleRate:        s.format.SampleRate,
		SamplesPerChannel: len(s.buf) / s.format.NumChannels,
		NumChannels:       s.format.NumChannels,
	}, nil
}

func (s *portAudioSource) Format() Format {
	return s.format
}

func (s *portAudioSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	stopErr := s.stream.Stop()
	closeErr := s.stream.Close()
	portaudio.Terminate()
	if stopErr != nil {
		return fmt.Errorf("stop input stream: %w", stopErr)
	}
	return closeErr
}
