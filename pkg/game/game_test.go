package game

import (
	"bytes"
	"context"
	"expvar"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/chriscow/wordguess/pkg/transcribe"
	"github.com/matryer/is"
)

var (
	ambiguous = transcribe.Result{Success: true, Error: transcribe.ErrUnableToRecognize}
	outage    = transcribe.Result{Success: false, Error: transcribe.ErrAPIUnavailable}
)

func said(text string) transcribe.Result {
	return transcribe.Result{Success: true, Transcription: text}
}

// script replays results in order and fails the test if it runs out.
type script struct {
	t       *testing.T
	results []transcribe.Result
	calls   int
}

func (s *script) transcribe(ctx context.Context) transcribe.Result {
	s.t.Helper()
	if s.calls >= len(s.results) {
		s.t.Fatalf("unexpected prompt %d", s.calls+1)
	}
	r := s.results[s.calls]
	s.calls++
	return r
}

func newTestGame(t *testing.T, settings Settings, s *script) (*Game, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	g, err := New(Config{
		Settings:   settings,
		Transcribe: s.transcribe,
		Out:        &out,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Sleep:      func(ctx context.Context, d time.Duration) error { return nil },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g, &out
}

func mangoSettings() Settings {
	s := DefaultSettings()
	s.Words = []string{"mango"}
	return s
}

func transitions(g *Game, key string) int64 {
	v := g.Metrics().PhaseTransitions.Get(key)
	if v == nil {
		return 0
	}
	return v.(*expvar.Int).Value()
}

func TestMatches(t *testing.T) {
	tests := []struct {
		target, transcription string
		want                  bool
	}{
		{"mango", "I said mango", true},
		{"mango", "MANGO", true},
		{"Mango", "mangoes please", true},
		{"mango", "man go", false},
		{"mango", "", false},
		{"", "anything", false},
		{"lemon", "lemonade", true},
	}
	for _, tt := range tests {
		if got := Matches(tt.target, tt.transcription); got != tt.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", tt.target, tt.transcription, got, tt.want)
		}
	}
}

func FuzzMatches(f *testing.F) {
	f.Add("mango", "I said mango")
	f.Add("apple", "")
	f.Add("Grape", "grapefruit")

	f.Fuzz(func(t *testing.T, target, transcription string) {
		if !utf8.ValidString(target) || !utf8.ValidString(transcription) {
			t.Skip()
		}
		if Matches(target, "") {
			t.Fatalf("empty transcription matched %q", target)
		}
		if target != "" && !Matches(target, transcription+target) {
			t.Fatalf("%q not found after appending it to %q", target, transcription)
		}
	})
}

func TestPlayWinsOnThirdRound(t *testing.T) {
	is := is.New(t)

	s := &script{t: t, results: []transcribe.Result{said("apple"), said("lemon"), said("I said mango")}}
	g, out := newTestGame(t, mangoSettings(), s)

	report, err := g.Play(context.Background())
	is.NoErr(err)
	is.Equal(report.Outcome, OutcomeWon)
	is.Equal(report.Target, "mango")
	is.Equal(len(report.Guesses), 3)
	is.True(!report.Guesses[0].Correct)
	is.True(!report.Guesses[1].Correct)
	is.True(report.Guesses[2].Correct)
	is.Equal(report.Guesses[2].Round, 3)
	is.Equal(s.calls, 3)
	is.Equal(g.Phase(), PhaseWon)
	is.Equal(transitions(g, "Evaluating_to_Prompting"), int64(2))

	text := out.String()
	is.Equal(strings.Count(text, "Incorrect. Try again."), 2)
	is.True(strings.Contains(text, "Guess 3. Speak!"))
	is.True(strings.HasSuffix(text, "You said: I said mango\nCorrect! You win!\n"))
}

func TestPlayTrimsConfiguredWords(t *testing.T) {
	is := is.New(t)

	settings := mangoSettings()
	settings.Words = []string{" mango "}
	s := &script{t: t, results: []transcribe.Result{said("I said mango")}}
	g, out := newTestGame(t, settings, s)

	report, err := g.Play(context.Background())
	is.NoErr(err)
	is.Equal(report.Outcome, OutcomeWon)
	is.Equal(report.Target, "mango")
	is.True(strings.Contains(out.String(), "\nmango\n"))
	is.Equal(settings.Words[0], " mango ") // caller's slice untouched
}

func TestPlayFatalFirstAttemptStops(t *testing.T) {
	is := is.New(t)

	s := &script{t: t, results: []transcribe.Result{outage}}
	g, out := newTestGame(t, mangoSettings(), s)

	report, err := g.Play(context.Background())
	is.NoErr(err)
	is.Equal(report.Outcome, OutcomeAborted)
	is.Equal(report.Error, transcribe.ErrAPIUnavailable)
	is.Equal(s.calls, 1) // no further prompts
	is.Equal(g.Phase(), PhaseAborted)
	is.Equal(transitions(g, "Evaluating_to_Aborted"), int64(1))

	text := out.String()
	is.True(strings.Contains(text, "ERROR: API unavailable"))
	is.True(!strings.Contains(text, "You said"))
	is.Equal(strings.Count(text, "Speak!"), 1)
}

func TestPlayFatalAfterAmbiguousAttempts(t *testing.T) {
	is := is.New(t)

	s := &script{t: t, results: []transcribe.Result{ambiguous, ambiguous, outage}}
	g, _ := newTestGame(t, mangoSettings(), s)

	report, err := g.Play(context.Background())
	is.NoErr(err)
	is.Equal(report.Outcome, OutcomeAborted)
	is.Equal(report.Guesses[0].Attempts, 3)
	is.Equal(s.calls, 3)
}

func TestPlayExhaustedPromptsCountAsIncorrect(t *testing.T) {
	is := is.New(t)

	settings := mangoSettings()
	settings.Rounds = 1
	results := slices.Repeat([]transcribe.Result{ambiguous}, 5)
	s := &script{t: t, results: results}
	g, out := newTestGame(t, settings, s)

	report, err := g.Play(context.Background())
	is.NoErr(err)
	is.Equal(s.calls, 5) // prompt limit
	is.Equal(report.Outcome, OutcomeLost)
	is.Equal(len(report.Guesses), 1)

	guess := report.Guesses[0]
	is.Equal(guess.Attempts, 5)
	is.Equal(guess.Transcription, "")
	is.Equal(guess.Error, transcribe.ErrUnableToRecognize)
	is.True(!guess.Correct)

	text := out.String()
	is.Equal(strings.Count(text, "I didn't catch that. What did you say?"), 5)
	is.True(strings.Contains(text, "Sorry, you lose!\nI was thinking of 'mango'."))
}

func TestPlayExhaustedPromptsMoveToNextRound(t *testing.T) {
	is := is.New(t)

	settings := mangoSettings()
	settings.PromptLimit = 2
	s := &script{t: t, results: []transcribe.Result{ambiguous, ambiguous, said("mango")}}
	g, _ := newTestGame(t, settings, s)

	report, err := g.Play(context.Background())
	is.NoErr(err)
	is.Equal(report.Outcome, OutcomeWon)
	is.Equal(len(report.Guesses), 2)
	is.Equal(report.Guesses[0].Attempts, 2)
	is.Equal(report.Guesses[1].Attempts, 1)
}

func TestPlayRetriesAmbiguousWithinRound(t *testing.T) {
	is := is.New(t)

	s := &script{t: t, results: []transcribe.Result{ambiguous, ambiguous, said("Mango!")}}
	g, out := newTestGame(t, mangoSettings(), s)

	report, err := g.Play(context.Background())
	is.NoErr(err)
	is.Equal(report.Outcome, OutcomeWon)
	is.Equal(len(report.Guesses), 1)
	is.Equal(report.Guesses[0].Attempts, 3)
	is.Equal(strings.Count(out.String(), "Guess 1. Speak!"), 3)
	is.Equal(g.Metrics().Prompts.Value(), int64(3))
}

func TestPlayLoses(t *testing.T) {
	is := is.New(t)

	s := &script{t: t, results: []transcribe.Result{said("apple"), said("grape"), said("lemon")}}
	g, out := newTestGame(t, mangoSettings(), s)

	report, err := g.Play(context.Background())
	is.NoErr(err)
	is.Equal(report.Outcome, OutcomeLost)
	is.Equal(len(report.Guesses), 3)
	is.Equal(g.Phase(), PhaseLost)
	is.True(strings.HasSuffix(out.String(), "Sorry, you lose!\nI was thinking of 'mango'.\n"))
}

func TestPlayCancelled(t *testing.T) {
	is := is.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer
	g, err := New(Config{
		Settings: mangoSettings(),
		Transcribe: func(ctx context.Context) transcribe.Result {
			cancel()
			return transcribe.Result{Success: false, Error: ctx.Err().Error()}
		},
		Out:   &out,
		Sleep: func(ctx context.Context, d time.Duration) error { return nil },
	})
	is.NoErr(err)

	report, err := g.Play(ctx)
	is.Equal(err, context.Canceled)
	is.Equal(report.Outcome, OutcomeAborted)
	is.True(!strings.Contains(out.String(), "ERROR")) // interruption is not a service failure
}

func TestPlayIntroDelay(t *testing.T) {
	is := is.New(t)

	settings := mangoSettings()
	settings.IntroDelay = 1500 * time.Millisecond

	var slept time.Duration
	g, err := New(Config{
		Settings:   settings,
		Transcribe: func(ctx context.Context) transcribe.Result { return said("mango") },
		Sleep: func(ctx context.Context, d time.Duration) error {
			slept = d
			return nil
		},
	})
	is.NoErr(err)

	_, err = g.Play(context.Background())
	is.NoErr(err)
	is.Equal(slept, 1500*time.Millisecond)
}

func TestPlayInstructionsAndReveal(t *testing.T) {
	is := is.New(t)

	settings := DefaultSettings()
	settings.RevealWord = true
	settings.Seed = 42
	s := &script{t: t, results: []transcribe.Result{said("x"), said("y"), said("z")}}
	g, out := newTestGame(t, settings, s)

	report, err := g.Play(context.Background())
	is.NoErr(err)

	lines := strings.Split(out.String(), "\n")
	is.Equal(lines[0], report.Target) // revealed first
	is.Equal(lines[1], "I'm thinking of one of these words:")
	is.Equal(lines[2], strings.Join(report.Words, ", "))
	is.Equal(lines[3], "You have 3 tries to guess which one.")
}

func TestPickWordIsSeeded(t *testing.T) {
	is := is.New(t)

	settings := DefaultSettings()
	settings.Seed = 7

	pick := func() ([]string, string) {
		g, err := New(Config{Settings: settings, Transcribe: func(context.Context) transcribe.Result { return said("") }})
		is.NoErr(err)
		return g.pickWord()
	}

	words1, target1 := pick()
	words2, target2 := pick()
	is.Equal(words1, words2)
	is.Equal(target1, target2)
	is.True(slices.Contains(words1, target1))

	sorted := slices.Clone(words1)
	slices.Sort(sorted)
	want := slices.Clone(DefaultWords)
	slices.Sort(want)
	is.Equal(sorted, want) // a permutation of the candidates
}

func TestPickWordCoversCandidates(t *testing.T) {
	settings := DefaultSettings()
	settings.Seed = 1
	g, err := New(Config{Settings: settings, Transcribe: func(context.Context) transcribe.Result { return said("") }})
	if err != nil {
		t.Fatal(err)
	}

	seen := map[string]int{}
	for i := 0; i < 600; i++ {
		_, target := g.pickWord()
		seen[target]++
	}
	for _, w := range DefaultWords {
		if seen[w] == 0 {
			t.Errorf("word %q never chosen", w)
		}
	}
}

func TestReportTimestamps(t *testing.T) {
	is := is.New(t)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	g, err := New(Config{
		Settings:   mangoSettings(),
		Transcribe: func(context.Context) transcribe.Result { return said("mango") },
		Sleep:      func(context.Context, time.Duration) error { return nil },
		Now: func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		},
	})
	is.NoErr(err)

	report, err := g.Play(context.Background())
	is.NoErr(err)
	is.Equal(report.StartedAt, base.Add(time.Second))
	is.Equal(report.FinishedAt, base.Add(2*time.Second))
}

func TestNewValidates(t *testing.T) {
	is := is.New(t)

	_, err := New(Config{Settings: DefaultSettings()})
	is.True(err != nil) // missing transcriber

	transcriber := func(context.Context) transcribe.Result { return said("") }

	bad := DefaultSettings()
	bad.Words = nil
	_, err = New(Config{Settings: bad, Transcribe: transcriber})
	is.True(err != nil)

	bad = DefaultSettings()
	bad.Words = []string{"apple", " "}
	_, err = New(Config{Settings: bad, Transcribe: transcriber})
	is.True(err != nil)

	bad = DefaultSettings()
	bad.Rounds = 0
	_, err = New(Config{Settings: bad, Transcribe: transcriber})
	is.True(err != nil)

	bad = DefaultSettings()
	bad.PromptLimit = 0
	_, err = New(Config{Settings: bad, Transcribe: transcriber})
	is.True(err != nil)
}

func TestPhaseString(t *testing.T) {
	is := is.New(t)
	is.Equal(PhasePrompting.String(), "Prompting")
	is.Equal(PhaseAborted.String(), "Aborted")
	is.Equal(Phase(42).String(), "Unknown(42)")
}
