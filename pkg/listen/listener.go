// Package listen calibrates to background noise and cuts one utterance out of
// a capture source using a simple energy threshold.
package listen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/chriscow/wordguess/pkg/audio"
	"github.com/chriscow/wordguess/pkg/mic"
)

var (
	// ErrWaitTimeout is returned when no speech starts within Config.Timeout.
	ErrWaitTimeout = errors.New("listening timed out while waiting for phrase to start")

	// ErrNoSpeech is returned when the source ends before any speech is heard.
	ErrNoSpeech = errors.New("audio source ended before any speech")
)

// Config tunes calibration and endpointing. Durations are measured in audio
// time, not wall-clock time.
type Config struct {
	// EnergyThreshold is the starting RMS level (int16 scale) above which a
	// frame counts as speech.
	EnergyThreshold float64 `yaml:"energy_threshold"`
	// DynamicRatio multiplies the ambient level to get the calibrated threshold.
	DynamicRatio float64 `yaml:"dynamic_ratio"`
	// DynamicDamping is the per-second weight kept by the old threshold.
	DynamicDamping float64 `yaml:"dynamic_damping"`
	// CalibrationDuration is how much audio AdjustForAmbientNoise consumes.
	CalibrationDuration time.Duration `yaml:"calibration_duration"`
	// PauseThreshold is the silence that ends a phrase.
	PauseThreshold time.Duration `yaml:"pause_threshold"`
	// PhraseThreshold is the minimum speech length; shorter noises are ignored.
	PhraseThreshold time.Duration `yaml:"phrase_threshold"`
	// NonSpeakingDuration is the silence kept on both sides of a phrase.
	NonSpeakingDuration time.Duration `yaml:"non_speaking_duration"`
	// Timeout bounds the wait for speech to start; zero waits forever.
	Timeout time.Duration `yaml:"timeout"`
	// PhraseTimeLimit bounds the phrase length; zero means unlimited.
	PhraseTimeLimit time.Duration `yaml:"phrase_time_limit"`
}

// DefaultConfig returns the tuning used for spoken single-word guesses.
func DefaultConfig() Config {
	return Config{
		EnergyThreshold:     300,
		DynamicRatio:        1.5,
		DynamicDamping:      0.15,
		CalibrationDuration: time.Second,
		PauseThreshold:      800 * time.Millisecond,
		PhraseThreshold:     300 * time.Millisecond,
		NonSpeakingDuration: 500 * time.Millisecond,
		Timeout:             10 * time.Second,
		PhraseTimeLimit:     10 * time.Second,
	}
}

// Validate checks that the tuning is usable.
func (c Config) Validate() error {
	switch {
	case c.EnergyThreshold < 0:
		return errors.New("energy_threshold must be >= 0")
	case c.DynamicRatio <= 0:
		return errors.New("dynamic_ratio must be positive")
	case c.DynamicDamping < 0 || c.DynamicDamping > 1:
		return errors.New("dynamic_damping must be between 0 and 1")
	case c.PauseThreshold <= 0:
		return errors.New("pause_threshold must be positive")
	case c.NonSpeakingDuration < 0 || c.NonSpeakingDuration > c.PauseThreshold:
		return errors.New("non_speaking_duration must be between 0 and pause_threshold")
	case c.PhraseThreshold < 0, c.Timeout < 0, c.PhraseTimeLimit < 0, c.CalibrationDuration < 0:
		return errors.New("durations must not be negative")
	}
	return nil
}

// Listener holds the energy threshold for one capture session.
type Listener struct {
	cfg       Config
	threshold float64
	logger    *slog.Logger
}

// New creates a Listener starting at cfg.EnergyThreshold.
func New(cfg Config, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{cfg: cfg, threshold: cfg.EnergyThreshold, logger: logger}
}

// Threshold returns the current energy threshold.
func (l *Listener) Threshold() float64 {
	return l.threshold
}

// AdjustForAmbientNoise reads CalibrationDuration of audio and moves the
// threshold towards the ambient level times DynamicRatio. A source that ends
// early simply shortens the calibration.
func (l *Listener) AdjustForAmbientNoise(ctx context.Context, src mic.Source) error {
	var elapsed time.Duration
	for elapsed < l.cfg.CalibrationDuration {
		frame, err := src.ReadFrame(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("calibrate: %w", err)
		}

		seconds := frame.Duration().Seconds()
		elapsed += frame.Duration()
		damping := math.Pow(l.cfg.DynamicDamping, seconds)
		target := frame.Energy() * l.cfg.DynamicRatio
		l.threshold = l.threshold*damping + target*(1-damping)
	}

	l.logger.Debug("Calibrated for ambient noise",
		slog.Float64("energy_threshold", l.threshold),
		slog.Duration("duration", elapsed))
	return nil
}

// Listen blocks until one phrase has been spoken and returns it. Leading and
// trailing silence is kept up to NonSpeakingDuration.
func (l *Listener) Listen(ctx context.Context, src mic.Source) (audio.Clip, error) {
	frameDuration := src.Format().FrameDuration
	if frameDuration <= 0 {
		frameDuration = mic.DefaultFrameDuration
	}
	pauseFrames := framesIn(l.cfg.PauseThreshold, frameDuration)
	phraseFrames := framesIn(l.cfg.PhraseThreshold, frameDuration)
	nonSpeakingFrames := framesIn(l.cfg.NonSpeakingDuration, frameDuration)

	var elapsed time.Duration
	var frames []audio.Frame
	var pauseCount int

	for {
		// wait for the first frame above the threshold, keeping some pre-roll
		var preroll []audio.Frame
		for {
			frame, err := src.ReadFrame(ctx)
			if errors.Is(err, io.EOF) {
				return audio.Clip{}, ErrNoSpeech
			}
			if err != nil {
				return audio.Clip{}, fmt.Errorf("listen: %w", err)
			}

			elapsed += frame.Duration()
			if l.cfg.Timeout > 0 && elapsed > l.cfg.Timeout {
				return audio.Clip{}, ErrWaitTimeout
			}

			preroll = append(preroll, frame)
			if len(preroll) > max(nonSpeakingFrames, 1) {
				preroll = preroll[1:]
			}
			if frame.Energy() > l.threshold {
				break
			}
		}

		// record until enough silence follows the speech
		frames = append([]audio.Frame(nil), preroll...)
		pauseCount = 0
		phraseCount := 0
		phraseStart := elapsed
		ended := false
		for {
			if l.cfg.PhraseTimeLimit > 0 && elapsed-phraseStart > l.cfg.PhraseTimeLimit {
				break
			}
			frame, err := src.ReadFrame(ctx)
			if errors.Is(err, io.EOF) {
				ended = true
				break
			}
			if err != nil {
				return audio.Clip{}, fmt.Errorf("listen: %w", err)
			}

			elapsed += frame.Duration()
			frames = append(frames, frame)
			phraseCount++

			if frame.Energy() > l.threshold {
				pauseCount = 0
			} else {
				pauseCount++
			}
			if pauseCount > pauseFrames {
				break
			}
		}

		phraseCount -= pauseCount
		if phraseCount >= phraseFrames || ended {
			break
		}
		l.logger.Debug("Discarded short noise", slog.Int("frames", phraseCount))
	}

	if trim := pauseCount - nonSpeakingFrames; trim > 0 && trim < len(frames) {
		frames = frames[:len(frames)-trim]
	}

	clip, err := audio.ClipFromFrames(frames)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("listen: %w", err)
	}
	l.logger.Debug("Captured phrase", slog.Duration("duration", clip.Duration()))
	return clip, nil
}

func framesIn(d, frame time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + frame - 1) / frame)
}
