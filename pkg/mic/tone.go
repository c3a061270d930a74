package mic

import (
	"time"

	"github.com/chriscow/wordguess/pkg/audio"
)

// ToneConfig shapes the synthetic utterance produced by NewTone.
type ToneConfig struct {
	SampleRate    int
	Frequency     float64
	Amplitude     float64 // fraction of full scale
	LeadSilence   time.Duration
	Burst         time.Duration
	TrailSilence  time.Duration
	FrameDuration time.Duration
}

// DefaultToneConfig leaves enough leading silence for a one second
// ambient-noise calibration and enough trailing silence to end the phrase.
func DefaultToneConfig() ToneConfig {
	return ToneConfig{
		SampleRate:    16000,
		Frequency:     440,
		Amplitude:     0.3,
		LeadSilence:   1500 * time.Millisecond,
		Burst:         700 * time.Millisecond,
		TrailSilence:  1200 * time.Millisecond,
		FrameDuration: DefaultFrameDuration,
	}
}

// NewTone returns a microphone that "hears" silence, a sine burst and silence
// again on every Open. It exists so the game can run without capture hardware.
func NewTone(cfg ToneConfig) (*Playback, error) {
	def := DefaultToneConfig()
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.Frequency <= 0 {
		cfg.Frequency = def.Frequency
	}
	if cfg.Amplitude <= 0 {
		cfg.Amplitude = def.Amplitude
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}

	clip := audio.Silence(cfg.LeadSilence, cfg.SampleRate)
	clip, err := clip.Append(audio.Tone(cfg.Frequency, cfg.Amplitude, cfg.Burst, cfg.SampleRate))
	if err != nil {
		return nil, err
	}
	clip, err = clip.Append(audio.Silence(cfg.TrailSilence, cfg.SampleRate))
	if err != nil {
		return nil, err
	}
	return NewPlayback(cfg.FrameDuration, clip)
}
