// Package vosk recognizes speech with a Vosk server (vosk-server's
// WebSocket interface), which runs fully offline.
package vosk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chriscow/wordguess/pkg/speech"
)

// DefaultURL is where vosk-server listens out of the box.
const DefaultURL = "ws://localhost:2700"

// Config holds configuration for the Vosk recognizer.
type Config struct {
	URL              string
	ChunkDuration    time.Duration // audio per message. Default: 200ms
	HandshakeTimeout time.Duration // Default: 5s
	Logger           *slog.Logger
}

// Recognizer implements speech.Recognizer against a Vosk server.
type Recognizer struct {
	cfg Config
}

// New creates a Vosk recognizer.
func New(cfg Config) (*Recognizer, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if !strings.HasPrefix(cfg.URL, "ws://") && !strings.HasPrefix(cfg.URL, "wss://") {
		return nil, fmt.Errorf("vosk url must start with ws:// or wss://, got %q", cfg.URL)
	}
	if cfg.ChunkDuration <= 0 {
		cfg.ChunkDuration = 200 * time.Millisecond
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Recognizer{cfg: cfg}, nil
}

// Recognize streams the clip to the server and joins every final text.
func (r *Recognizer) Recognize(ctx context.Context, req speech.Request) (string, error) {
	if req.Clip.Empty() {
		return "", speech.Unrecognized("no audio")
	}
	// vosk-server only accepts mono
	req.Clip = req.Clip.Mono()

	c := newClient(r.cfg.URL, r.cfg.Logger)
	if err := c.Connect(ctx, r.cfg.HandshakeTimeout); err != nil {
		return "", speech.Unavailable(err, "vosk server unreachable")
	}
	defer c.Close()

	// unblock reads and writes when the caller gives up
	conn := c.conn
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	texts, err := r.stream(c, req)
	if err != nil {
		if ctx.Err() != nil {
			return "", errors.Join(ctx.Err(), err)
		}
		return "", speech.Unavailable(err, "vosk recognition failed")
	}

	text := strings.Join(texts, " ")
	if text == "" {
		return "", speech.Unrecognized("vosk returned no text")
	}
	return text, nil
}

func (r *Recognizer) stream(c *client, req speech.Request) ([]string, error) {
	var texts []string
	collect := func(res result) {
		if t := strings.TrimSpace(res.Text); t != "" {
			texts = append(texts, t)
		}
	}

	if err := c.WriteConfig(req.Clip.SampleRate); err != nil {
		return nil, err
	}

	for _, frame := range req.Clip.Frames(r.cfg.ChunkDuration) {
		if err := c.WriteAudio(frame.Data); err != nil {
			return nil, err
		}
		res, err := c.ReadResult()
		if err != nil {
			return nil, err
		}
		collect(res)
	}

	if err := c.WriteEOF(); err != nil {
		return nil, err
	}
	res, err := c.ReadResult()
	if err != nil {
		return nil, err
	}
	collect(res)

	r.cfg.Logger.Debug("Vosk transcription result", slog.Int("segments", len(texts)))
	return texts, nil
}

// Capabilities returns the recognizer capabilities.
func (r *Recognizer) Capabilities() speech.Capabilities {
	return speech.Capabilities{
		Remote:      false,
		SampleRates: []int{8000, 16000},
	}
}
