package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/chriscow/wordguess/pkg/audio"
	"github.com/chriscow/wordguess/pkg/mic"
)

// writeGameConfig writes a config that plays offline with the fake recognizer
// and the synthetic tone microphone.
func writeGameConfig(t *testing.T, words, script string) (cfgPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "history.db")
	cfgPath = filepath.Join(dir, "wordguess.yaml")
	body := fmt.Sprintf(`
log:
  level: error
game:
  words: %s
  rounds: 3
  prompt_limit: 2
  intro_delay: 0s
  seed: 7
recognizer:
  name: fake
  options:
    script: %s
microphone:
  name: tone
history:
  path: %s
`, words, script, dbPath)
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath, dbPath
}

func run(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	args = append(args, "--env-file", "")
	code = execute(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestPlayWin(t *testing.T) {
	is := is.New(t)
	cfg, _ := writeGameConfig(t, "[mango]", `["I said mango"]`)

	code, out, _ := run(t, "play", "-c", cfg)
	is.Equal(code, exitWon)
	is.True(strings.Contains(out, "I'm thinking of one of these words:\nmango\n"))
	is.True(strings.Contains(out, "Guess 1. Speak!"))
	is.True(strings.Contains(out, "You said: I said mango"))
	is.True(strings.Contains(out, "Correct! You win!"))
}

func TestPlayIsDefaultCommand(t *testing.T) {
	is := is.New(t)
	cfg, _ := writeGameConfig(t, "[mango]", `[mango]`)

	code, out, _ := run(t, "-c", cfg, "--reveal")
	is.Equal(code, exitWon)
	is.True(strings.HasPrefix(out, "mango\n"))
}

func TestPlayLose(t *testing.T) {
	is := is.New(t)
	cfg, _ := writeGameConfig(t, "[apple]", `[banana]`)

	code, out, _ := run(t, "play", "-c", cfg)
	is.Equal(code, exitLost)
	is.Equal(strings.Count(out, "You said: banana"), 3)
	is.True(strings.Contains(out, "Sorry, you lose!\nI was thinking of 'apple'."))
}

func TestPlayAborted(t *testing.T) {
	is := is.New(t)
	cfg, _ := writeGameConfig(t, "[apple]", `["!unrecognized", "!unavailable"]`)

	code, out, _ := run(t, "play", "-c", cfg)
	is.Equal(code, exitAborted)
	is.True(strings.Contains(out, "I didn't catch that. What did you say?"))
	is.True(strings.Contains(out, "ERROR: API unavailable"))
	is.True(!strings.Contains(out, "Guess 2."))
}

func TestPlayInterrupted(t *testing.T) {
	is := is.New(t)
	cfg, _ := writeGameConfig(t, "[apple]", `[apple]`)
	t.Setenv("WORDGUESS_INTRO_DELAY", "1m")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(200*time.Millisecond, cancel)

	var out, errOut bytes.Buffer
	start := time.Now()
	code := executeContext(ctx, []string{"play", "-c", cfg, "--env-file", ""}, &out, &errOut)
	is.Equal(code, exitInterrupted)
	is.True(time.Since(start) < 30*time.Second) // did not wait out the intro
	is.True(strings.Contains(errOut.String(), "Interrupted."))
	is.True(!strings.Contains(out.String(), "Guess 1."))

	code, history, _ := run(t, "history", "-c", cfg)
	is.Equal(code, 0)
	is.True(strings.Contains(history, "No games recorded yet"))
}

func TestPlayFlagOverrides(t *testing.T) {
	is := is.New(t)
	cfg, dbPath := writeGameConfig(t, "[apple]", `[apple]`)

	code, _, errOut := run(t, "play", "-c", cfg, "--recognizer", "missing", "--no-history")
	is.Equal(code, exitError)
	is.True(strings.Contains(errOut, `unknown recognizer plugin "missing"`))

	code, _, _ = run(t, "play", "-c", cfg, "--no-history")
	is.Equal(code, exitWon)
	_, err := os.Stat(dbPath)
	is.True(os.IsNotExist(err))
}

func TestPlayWithoutCaptureSupportFailsSetup(t *testing.T) {
	if mic.PortAudioAvailable {
		t.Skip("built with capture support")
	}
	is := is.New(t)
	cfg, dbPath := writeGameConfig(t, "[apple]", `[apple]`)

	code, out, errOut := run(t, "play", "-c", cfg, "--microphone", "portaudio")
	is.Equal(code, exitError)
	is.True(strings.Contains(errOut, "microphone capture not available"))
	is.True(!strings.Contains(out, "Guess 1."))
	_, err := os.Stat(dbPath)
	is.True(os.IsNotExist(err))
}

func TestHistoryAfterGames(t *testing.T) {
	is := is.New(t)
	cfg, _ := writeGameConfig(t, "[mango]", `[mango]`)

	code, out, _ := run(t, "history", "-c", cfg)
	is.Equal(code, 0)
	is.True(strings.Contains(out, "No games recorded yet"))

	code, _, _ = run(t, "play", "-c", cfg)
	is.Equal(code, exitWon)

	code, out, _ = run(t, "history", "-c", cfg, "--limit", "5")
	is.Equal(code, 0)
	is.True(strings.Contains(out, "won"))
	is.True(strings.Contains(out, `"mango"`))
}

func TestRecognizeFile(t *testing.T) {
	is := is.New(t)
	cfg, _ := writeGameConfig(t, "[mango]", `[hello there]`)

	wavPath := filepath.Join(t.TempDir(), "clip.wav")
	is.NoErr(audio.WriteWAVFile(wavPath, audio.Tone(440, 0.3, 500*time.Millisecond, 16000)))

	code, out, _ := run(t, "recognize", "-c", cfg, "--file", wavPath)
	is.Equal(code, 0)
	is.True(strings.Contains(out, "success: true"))
	is.True(strings.Contains(out, "transcription: hello there"))

	code, _, _ = run(t, "recognize", "-c", cfg, "--file", wavPath, "--recognizer", "fake")
	is.Equal(code, 0)

	code, _, errOut := run(t, "recognize", "-c", cfg, "--file", filepath.Join(t.TempDir(), "missing.wav"))
	is.Equal(code, exitError)
	is.True(errOut != "")
}

func TestPluginsList(t *testing.T) {
	is := is.New(t)
	cfg, _ := writeGameConfig(t, "[mango]", `[mango]`)

	code, out, _ := run(t, "plugins", "-c", cfg)
	is.Equal(code, 0)
	for _, name := range []string{"google", "openai", "vosk", "exec", "fake", "tone", "wav", "portaudio"} {
		is.True(strings.Contains(out, " "+name+" "))
	}

	code, out, _ = run(t, "plugins", "microphone", "-c", cfg, "-v")
	is.Equal(code, 0)
	is.True(!strings.Contains(out, "openai"))
	is.True(strings.Contains(out, "lead_silence: 1.5s"))
}

func TestVersion(t *testing.T) {
	is := is.New(t)
	code, out, _ := run(t, "version")
	is.Equal(code, 0)
	is.True(strings.HasPrefix(out, "wordguess version "))
}

func TestBadConfig(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	is.NoErr(os.WriteFile(path, []byte("game:\n  rounds: 0\n"), 0o644))

	code, _, errOut := run(t, "play", "-c", path)
	is.Equal(code, exitError)
	is.True(strings.Contains(errOut, "rounds must be positive"))
}
