package listen

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/chriscow/wordguess/pkg/audio"
	"github.com/chriscow/wordguess/pkg/mic"
	"github.com/matryer/is"
)

const rate = 16000

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// openClip concatenates parts and opens a playback source over them.
func openClip(t *testing.T, parts ...audio.Clip) mic.Source {
	t.Helper()
	is := is.New(t)

	var clip audio.Clip
	for _, p := range parts {
		var err error
		clip, err = clip.Append(p)
		is.NoErr(err)
	}
	p, err := mic.NewPlayback(30*time.Millisecond, clip)
	is.NoErr(err)
	src, err := p.Open(context.Background())
	is.NoErr(err)
	t.Cleanup(func() { _ = src.Close() })
	return src
}

func silence(d time.Duration) audio.Clip { return audio.Silence(d, rate) }

func tone(d time.Duration, amp float64) audio.Clip { return audio.Tone(300, amp, d, rate) }

func TestAdjustForAmbientNoiseLowersThresholdInQuietRoom(t *testing.T) {
	is := is.New(t)

	l := New(DefaultConfig(), quietLogger())
	src := openClip(t, silence(2*time.Second))

	is.NoErr(l.AdjustForAmbientNoise(context.Background(), src))
	is.True(l.Threshold() < 100) // decays from 300 towards zero
	is.True(l.Threshold() > 0)   // but damping keeps some of the start value
}

func TestAdjustForAmbientNoiseRaisesThresholdWithHum(t *testing.T) {
	is := is.New(t)

	l := New(DefaultConfig(), quietLogger())
	hum := tone(2*time.Second, 0.05) // RMS ~1160
	src := openClip(t, hum)

	is.NoErr(l.AdjustForAmbientNoise(context.Background(), src))
	is.True(l.Threshold() > 1000) // pulled towards 1.5x the hum level
}

func TestAdjustForAmbientNoiseShortSource(t *testing.T) {
	is := is.New(t)

	l := New(DefaultConfig(), quietLogger())
	src := openClip(t, silence(90*time.Millisecond))

	is.NoErr(l.AdjustForAmbientNoise(context.Background(), src)) // EOF just ends calibration
}

func TestListenCapturesPhrase(t *testing.T) {
	is := is.New(t)

	l := New(DefaultConfig(), quietLogger())
	src := openClip(t,
		silence(1*time.Second),
		tone(600*time.Millisecond, 0.3),
		silence(2*time.Second),
	)

	clip, err := l.Listen(context.Background(), src)
	is.NoErr(err)
	is.True(clip.Duration() >= 600*time.Millisecond)  // the whole burst
	is.True(clip.Duration() <= 2100*time.Millisecond) // plus bounded silence
	is.True(audio.RMS(clip.Data) > 1000)              // actually contains the tone
}

func TestListenSkipsShortNoise(t *testing.T) {
	is := is.New(t)

	l := New(DefaultConfig(), quietLogger())
	src := openClip(t,
		silence(300*time.Millisecond),
		tone(60*time.Millisecond, 0.3), // a click, below phrase_threshold
		silence(1200*time.Millisecond),
		tone(900*time.Millisecond, 0.3),
		silence(1500*time.Millisecond),
	)

	clip, err := l.Listen(context.Background(), src)
	is.NoErr(err)
	is.True(clip.Duration() >= 900*time.Millisecond) // the second, real phrase
}

func TestListenTimeout(t *testing.T) {
	is := is.New(t)

	cfg := DefaultConfig()
	cfg.Timeout = 500 * time.Millisecond
	l := New(cfg, quietLogger())
	src := openClip(t, silence(3*time.Second))

	_, err := l.Listen(context.Background(), src)
	is.True(errors.Is(err, ErrWaitTimeout))
}

func TestListenSourceEndsBeforeSpeech(t *testing.T) {
	is := is.New(t)

	cfg := DefaultConfig()
	cfg.Timeout = 0
	l := New(cfg, quietLogger())
	src := openClip(t, silence(300*time.Millisecond))

	_, err := l.Listen(context.Background(), src)
	is.True(errors.Is(err, ErrNoSpeech))
}

func TestListenSourceEndsMidPhrase(t *testing.T) {
	is := is.New(t)

	l := New(DefaultConfig(), quietLogger())
	src := openClip(t, silence(200*time.Millisecond), tone(150*time.Millisecond, 0.3))

	clip, err := l.Listen(context.Background(), src)
	is.NoErr(err) // a truncated phrase is still returned
	is.True(!clip.Empty())
}

func TestListenPhraseTimeLimit(t *testing.T) {
	is := is.New(t)

	cfg := DefaultConfig()
	cfg.PhraseTimeLimit = time.Second
	l := New(cfg, quietLogger())
	src := openClip(t, silence(200*time.Millisecond), tone(5*time.Second, 0.3))

	clip, err := l.Listen(context.Background(), src)
	is.NoErr(err)
	is.True(clip.Duration() < 2*time.Second) // cut off at the limit
}

func TestListenPropagatesSourceErrors(t *testing.T) {
	is := is.New(t)

	l := New(DefaultConfig(), quietLogger())
	src := openClip(t, silence(time.Second))
	is.NoErr(src.Close())

	_, err := l.Listen(context.Background(), src)
	is.True(errors.Is(err, mic.ErrClosed))
}

func TestConfigValidate(t *testing.T) {
	is := is.New(t)

	is.NoErr(DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.DynamicRatio = 0
	is.True(bad.Validate() != nil)

	bad = DefaultConfig()
	bad.NonSpeakingDuration = 2 * time.Second
	is.True(bad.Validate() != nil) // longer than the pause threshold

	bad = DefaultConfig()
	bad.Timeout = -time.Second
	is.True(bad.Validate() != nil)
}

func TestFramesIn(t *testing.T) {
	is := is.New(t)

	is.Equal(framesIn(800*time.Millisecond, 30*time.Millisecond), 27)
	is.Equal(framesIn(300*time.Millisecond, 30*time.Millisecond), 10)
	is.Equal(framesIn(0, 30*time.Millisecond), 0)
}
