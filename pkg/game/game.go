// Package game implements the spoken word-guessing game with a small state
// machine that moves through Prompting → Evaluating → Won/Lost/Aborted.
package game

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chriscow/wordguess/pkg/transcribe"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/chriscow/wordguess/pkg/game")

// Phase is the current position of a game in its state machine.
type Phase int32

const (
	PhasePrompting Phase = iota
	PhaseEvaluating
	PhaseWon
	PhaseLost
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhasePrompting:
		return "Prompting"
	case PhaseEvaluating:
		return "Evaluating"
	case PhaseWon:
		return "Won"
	case PhaseLost:
		return "Lost"
	case PhaseAborted:
		return "Aborted"
	default:
		return fmt.Sprintf("Unknown(%d)", p)
	}
}

// Outcome is how a finished game ended.
type Outcome string

const (
	OutcomeWon     Outcome = "won"
	OutcomeLost    Outcome = "lost"
	OutcomeAborted Outcome = "aborted"
)

// TranscribeFunc captures and transcribes one spoken attempt.
type TranscribeFunc func(ctx context.Context) transcribe.Result

// State is the mutable state of one session.
type State struct {
	TargetWord      string
	RemainingRounds int
	GuessIndex      int // 1-based round currently being played
}

// Guess records the final attempt of one round.
type Guess struct {
	Round         int
	Attempts      int // prompts used in this round
	Transcription string
	Error         string
	Correct       bool
}

// Report summarizes a finished session.
type Report struct {
	Target     string
	Words      []string // candidate words in the order they were shown
	Outcome    Outcome
	Guesses    []Guess
	Error      string // set when the game was aborted
	StartedAt  time.Time
	FinishedAt time.Time
}

// Metrics holds counters for the game state machine.
type Metrics struct {
	Prompts          *expvar.Int
	PhaseTransitions *expvar.Map
}

// Config holds everything needed to run a Game.
type Config struct {
	Settings   Settings
	Transcribe TranscribeFunc

	// Out receives the game's console text. Defaults to io.Discard.
	Out    io.Writer
	Logger *slog.Logger

	// Sleep waits before the first prompt; tests replace it. Defaults to a
	// context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// Now defaults to time.Now.
	Now func() time.Time
}

// Game runs one session at a time.
type Game struct {
	settings   Settings
	transcribe TranscribeFunc
	out        io.Writer
	logger     *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
	now        func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand

	phase   atomic.Int32
	metrics *Metrics
}

// New validates cfg and creates a Game.
func New(cfg Config) (*Game, error) {
	if cfg.Transcribe == nil {
		return nil, errors.New("transcribe func is required")
	}
	if err := cfg.Settings.Validate(); err != nil {
		return nil, err
	}

	settings := cfg.Settings
	settings.Words = make([]string, len(cfg.Settings.Words))
	for i, w := range cfg.Settings.Words {
		settings.Words[i] = strings.TrimSpace(w)
	}

	g := &Game{
		settings:   settings,
		transcribe: cfg.Transcribe,
		out:        cfg.Out,
		logger:     cfg.Logger,
		sleep:      cfg.Sleep,
		now:        cfg.Now,
		rng:        newRand(cfg.Settings.Seed),
		metrics:    newMetrics(),
	}
	if g.out == nil {
		g.out = io.Discard
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.sleep == nil {
		g.sleep = sleepContext
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g, nil
}

// Phase returns the current phase.
func (g *Game) Phase() Phase {
	return Phase(g.phase.Load())
}

// Metrics returns the game's counters.
func (g *Game) Metrics() *Metrics {
	return g.metrics
}

// Matches reports whether target occurs in transcription, ignoring case.
func Matches(target, transcription string) bool {
	if target == "" {
		return false
	}
	return strings.Contains(strings.ToLower(transcription), strings.ToLower(target))
}

// Play runs one full session. It returns a non-nil error only when ctx is
// cancelled; fatal transcription failures end the game with OutcomeAborted.
func (g *Game) Play(ctx context.Context) (Report, error) {
	ctx, span := tracer.Start(ctx, "game.Play")
	defer span.End()

	words, target := g.pickWord()
	state := State{TargetWord: target, RemainingRounds: g.settings.Rounds}
	report := Report{Target: target, Words: words, StartedAt: g.now()}
	finish := func(outcome Outcome, err error) (Report, error) {
		report.Outcome = outcome
		report.FinishedAt = g.now()
		span.SetAttributes(
			attribute.String("game.outcome", string(outcome)),
			attribute.Int("game.rounds_played", state.GuessIndex),
		)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		g.logger.Info("Game finished",
			slog.String("outcome", string(outcome)),
			slog.Int("rounds", state.GuessIndex))
		return report, err
	}

	g.setPhase(PhasePrompting)
	g.logger.Debug("Game started", slog.Int("words", len(words)), slog.Int("rounds", state.RemainingRounds))

	if g.settings.RevealWord {
		g.printf("%s\n", target)
	}
	g.printf("I'm thinking of one of these words:\n%s\nYou have %d tries to guess which one.\n\n",
		strings.Join(words, ", "), g.settings.Rounds)

	if err := g.sleep(ctx, g.settings.IntroDelay); err != nil {
		g.setPhase(PhaseAborted)
		report.Error = err.Error()
		return finish(OutcomeAborted, err)
	}

	for state.RemainingRounds > 0 {
		state.GuessIndex++

		guess, fatal, err := g.playRound(ctx, state.GuessIndex)
		if err != nil {
			g.setPhase(PhaseAborted)
			report.Error = err.Error()
			return finish(OutcomeAborted, err)
		}

		g.setPhase(PhaseEvaluating)
		if fatal {
			g.printf("ERROR: %s\n", guess.Error)
			report.Guesses = append(report.Guesses, guess)
			report.Error = guess.Error
			g.setPhase(PhaseAborted)
			return finish(OutcomeAborted, nil)
		}

		guess.Correct = Matches(state.TargetWord, guess.Transcription)
		report.Guesses = append(report.Guesses, guess)
		state.RemainingRounds--

		g.printf("You said: %s\n", guess.Transcription)
		switch {
		case guess.Correct:
			g.printf("Correct! You win!\n")
			g.setPhase(PhaseWon)
			return finish(OutcomeWon, nil)
		case state.RemainingRounds > 0:
			g.printf("Incorrect. Try again.\n\n")
			g.setPhase(PhasePrompting)
		default:
			g.printf("Sorry, you lose!\nI was thinking of '%s'.\n", state.TargetWord)
			g.setPhase(PhaseLost)
			return finish(OutcomeLost, nil)
		}
	}

	// Rounds validated to be positive, so the loop always returns.
	return finish(OutcomeLost, nil)
}

// playRound prompts until a transcription arrives, the service fails or the
// prompt budget runs out. The returned Guess is not yet evaluated; fatal is
// set when the transcriber reported an unrecoverable failure.
func (g *Game) playRound(ctx context.Context, round int) (guess Guess, fatal bool, err error) {
	ctx, span := tracer.Start(ctx, "game.round")
	defer span.End()
	span.SetAttributes(attribute.Int("game.round", round))

	guess = Guess{Round: round}
	for guess.Attempts < g.settings.PromptLimit {
		guess.Attempts++
		g.metrics.Prompts.Add(1)
		g.printf("Guess %d. Speak!\n", round)

		res := g.transcribe(ctx)
		if err := ctx.Err(); err != nil {
			return guess, false, err
		}

		guess.Transcription = res.Transcription
		guess.Error = res.Error
		g.logger.Debug("Transcription attempt",
			slog.Int("round", round),
			slog.Int("attempt", guess.Attempts),
			slog.Bool("success", res.Success),
			slog.String("error", res.Error))

		if res.Fatal() {
			if guess.Error == "" {
				guess.Error = "transcription failed"
			}
			span.SetStatus(codes.Error, guess.Error)
			return guess, true, nil
		}
		if res.Transcription != "" {
			break
		}
		g.printf("I didn't catch that. What did you say?\n\n")
	}

	span.SetAttributes(attribute.Int("game.attempts", guess.Attempts))
	return guess, false, nil
}

func (g *Game) pickWord() ([]string, string) {
	g.rngMu.Lock()
	defer g.rngMu.Unlock()

	words := slices.Clone(g.settings.Words)
	g.rng.Shuffle(len(words), func(i, j int) { words[i], words[j] = words[j], words[i] })
	return words, words[g.rng.IntN(len(words))]
}

// setPhase updates the phase and records the transition.
func (g *Game) setPhase(next Phase) {
	prev := Phase(g.phase.Swap(int32(next)))
	if prev == next {
		return
	}
	key := fmt.Sprintf("%s_to_%s", prev, next)
	if counter := g.metrics.PhaseTransitions.Get(key); counter != nil {
		counter.(*expvar.Int).Add(1)
		return
	}
	counter := &expvar.Int{}
	counter.Set(1)
	g.metrics.PhaseTransitions.Set(key, counter)
}

func (g *Game) printf(format string, args ...any) {
	fmt.Fprintf(g.out, format, args...)
}

func newMetrics() *Metrics {
	// unpublished vars so several games can coexist
	transitions := &expvar.Map{}
	transitions.Init()
	return &Metrics{
		Prompts:          &expvar.Int{},
		PhaseTransitions: transitions,
	}
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
