//go:build !portaudio

package mic

import (
	"context"
	"fmt"
)

// PortAudioAvailable reports whether the binary was built with capture support.
const PortAudioAvailable = false

// PortAudio is a stand-in used when the portaudio build tag is not set.
type PortAudio struct{}

// NewPortAudio validates the format and then fails with ErrNoCapture.
func NewPortAudio(device string, format Format) (*PortAudio, error) {
	if format.SampleRate <= 0 || format.NumChannels <= 0 {
		return nil, fmt.Errorf("invalid capture format %dHz/%dch", format.SampleRate, format.NumChannels)
	}
	return nil, ErrNoCapture
}

// Open always fails with ErrNoCapture.
func (p *PortAudio) Open(ctx context.Context) (Source, error) {
	return nil, ErrNoCapture
}
