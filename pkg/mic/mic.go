// Package mic abstracts audio capture devices. A Microphone hands out a
// Source per capture; the caller must Close it when done.
package mic

import (
	"context"
	"errors"
	"time"

	"github.com/chriscow/wordguess/pkg/audio"
)

// ErrClosed is returned when reading from a closed source.
var ErrClosed = errors.New("audio source is closed")

// ErrNoCapture is returned when the binary was built without sound card
// capture.
var ErrNoCapture = errors.New("microphone capture not available (build with -tags=portaudio)")

// DefaultFrameDuration is the capture block size used when none is configured.
const DefaultFrameDuration = 30 * time.Millisecond

// Format describes the PCM a source produces.
type Format struct {
	SampleRate    int
	NumChannels   int
	FrameDuration time.Duration
}

// DefaultFormat is 16 kHz mono in 30 ms blocks.
func DefaultFormat() Format {
	return Format{SampleRate: 16000, NumChannels: 1, FrameDuration: DefaultFrameDuration}
}

// SamplesPerFrame returns the per-channel sample count of one block.
func (f Format) SamplesPerFrame() int {
	return int(time.Duration(f.SampleRate) * f.FrameDuration / time.Second)
}

// Source is an open capture stream.
type Source interface {
	// ReadFrame blocks until the next block of audio is available.
	// It returns io.EOF once a finite source is exhausted.
	ReadFrame(ctx context.Context) (audio.Frame, error)

	// Format returns the PCM format of produced frames.
	Format() Format

	// Close releases the device. It is safe to call more than once.
	Close() error
}

// Microphone opens capture sources.
type Microphone interface {
	Open(ctx context.Context) (Source, error)
}

// Func adapts a function to the Microphone interface.
type Func func(ctx context.Context) (Source, error)

// Open calls f.
func (f Func) Open(ctx context.Context) (Source, error) {
	return f(ctx)
}
