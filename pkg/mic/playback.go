package mic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/chriscow/wordguess/pkg/audio"
)

// Playback is a Microphone backed by prerecorded clips. Each Open replays the
// next clip, wrapping around after the last one. Frames are returned as fast
// as they are read, without real-time pacing.
type Playback struct {
	mu            sync.Mutex
	clips         []audio.Clip
	next          int
	frameDuration time.Duration
	opens         int
}

// NewPlayback creates a playback microphone. All clips must share a format.
func NewPlayback(frameDuration time.Duration, clips ...audio.Clip) (*Playback, error) {
	if len(clips) == 0 {
		return nil, errors.New("playback needs at least one clip")
	}
	if frameDuration <= 0 {
		frameDuration = DefaultFrameDuration
	}
	for i, c := range clips {
		if c.SampleRate != clips[0].SampleRate || c.NumChannels != clips[0].NumChannels {
			return nil, fmt.Errorf("clip %d format %dHz/%dch differs from %dHz/%dch",
				i, c.SampleRate, c.NumChannels, clips[0].SampleRate, clips[0].NumChannels)
		}
	}
	return &Playback{clips: clips, frameDuration: frameDuration}, nil
}

// Open returns a source over the next clip.
func (p *Playback) Open(ctx context.Context) (Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	clip := p.clips[p.next]
	p.next = (p.next + 1) % len(p.clips)
	p.opens++
	p.mu.Unlock()

	return &playbackSource{
		frames: clip.Frames(p.frameDuration),
		format: Format{
			SampleRate:    clip.SampleRate,
			NumChannels:   clip.NumChannels,
			FrameDuration: p.frameDuration,
		},
	}, nil
}

// Opens returns how many sources have been handed out.
func (p *Playback) Opens() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opens
}

type playbackSource struct {
	mu     sync.Mutex
	frames []audio.Frame
	pos    int
	format Format
	closed bool
}

func (s *playbackSource) ReadFrame(ctx context.Context) (audio.Frame, error) {
	if err := ctx.Err(); err != nil {
		return audio.Frame{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return audio.Frame{}, ErrClosed
	}
	if s.pos >= len(s.frames) {
		return audio.Frame{}, io.EOF
	}
	frame := s.frames[s.pos]
	s.pos++
	return frame, nil
}

func (s *playbackSource) Format() Format {
	return s.format
}

func (s *playbackSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
