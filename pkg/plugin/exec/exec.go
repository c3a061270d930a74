// Package exec recognizes speech by running an external program, for
// example a whisper.cpp wrapper. The program receives a WAV file path and
// prints a JSON object with a "text" field.
package exec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	osexec "os/exec"
	"strings"
	"sync"

	"github.com/chriscow/wordguess/pkg/audio"
	"github.com/chriscow/wordguess/pkg/speech"
	"github.com/mattn/go-shellwords"
)

// Config holds configuration for the command recognizer.
type Config struct {
	// Command is a shell-style command line; "--audio <file>" and, when a
	// language is known, "--language <lang>" are appended.
	Command   string
	ModelPath string // passed as --model when set
	Language  string // overrides the request language
	TempDir   string // Default: os.TempDir()
}

type execResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Recognizer implements speech.Recognizer by shelling out.
type Recognizer struct {
	cmd []string
	cfg Config
	mu  sync.Mutex
}

// New parses the command line and creates the recognizer.
func New(cfg Config) (*Recognizer, error) {
	parser := shellwords.NewParser()
	parser.ParseEnv = true
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse recognizer command: %w", err)
	}
	if len(args) == 0 {
		return nil, errors.New("recognizer command is empty")
	}
	return &Recognizer{cmd: args, cfg: cfg}, nil
}

// Recognize writes the clip to a temporary WAV file and runs the command.
func (r *Recognizer) Recognize(ctx context.Context, req speech.Request) (string, error) {
	if req.Clip.Empty() {
		return "", speech.Unrecognized("no audio")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := os.CreateTemp(r.cfg.TempDir, "wordguess_stt_*.wav")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(file.Name())
	defer file.Close()

	if err := audio.EncodeWAV(file, req.Clip); err != nil {
		return "", err
	}

	args := append([]string{}, r.cmd[1:]...)
	args = append(args, "--audio", file.Name())
	if r.cfg.ModelPath != "" {
		args = append(args, "--model", r.cfg.ModelPath)
	}
	language := r.cfg.Language
	if language == "" {
		language = req.Language
	}
	if language != "" {
		args = append(args, "--language", language)
	}

	command := osexec.CommandContext(ctx, r.cmd[0], args...)
	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", speech.Unavailable(fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String())),
			"recognizer command failed")
	}

	var resp execResult
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return "", speech.Unavailable(err, "decode recognizer output")
	}

	text := strings.TrimSpace(resp.Text)
	slog.Debug("Command transcription result",
		slog.String("text", text),
		slog.Float64("confidence", resp.Confidence))
	if text == "" {
		return "", speech.Unrecognized("recognizer command returned no text")
	}
	return text, nil
}

// Capabilities returns the recognizer capabilities.
func (r *Recognizer) Capabilities() speech.Capabilities {
	return speech.Capabilities{Remote: false}
}
