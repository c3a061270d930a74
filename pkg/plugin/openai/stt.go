// Package openai provides a speech recognizer backed by OpenAI's Whisper
// transcription API or any server that speaks the same protocol.
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chriscow/wordguess/pkg/speech"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAI rejects uploads shorter than this.
const minDuration = 100 * time.Millisecond

// WhisperSTT implements speech.Recognizer using OpenAI's Whisper API.
type WhisperSTT struct {
	client   *openai.Client
	model    string
	language string
}

// Config holds configuration for the Whisper recognizer.
type Config struct {
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url"` // Default: OpenAI's public endpoint
	Model    string `json:"model"`    // Default: whisper-1
	Language string `json:"language"` // Default: taken from each request
}

// NewWhisperSTT creates a new OpenAI Whisper recognizer.
func NewWhisperSTT(cfg Config) (*WhisperSTT, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &WhisperSTT{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    model,
		language: cfg.Language,
	}, nil
}

// Recognize uploads the clip as a WAV file and returns the transcript.
func (w *WhisperSTT) Recognize(ctx context.Context, req speech.Request) (string, error) {
	if req.Clip.Duration() < minDuration {
		return "", speech.Unrecognized("audio shorter than 100ms")
	}

	wavData, err := req.Clip.WAV()
	if err != nil {
		return "", fmt.Errorf("encode wav: %w", err)
	}

	language := w.language
	if language == "" {
		language = req.Language
	}

	response, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		Language: isoLanguage(language),
		Format:   openai.AudioResponseFormatJSON,
		Reader:   bytes.NewReader(wavData),
		FilePath: "audio.wav",
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			slog.Debug("Whisper API error",
				slog.Int("status", apiErr.HTTPStatusCode),
				slog.String("message", apiErr.Message))
		}
		return "", speech.Unavailable(err, "whisper transcription failed")
	}

	text := strings.TrimSpace(response.Text)
	slog.Debug("Whisper transcription result", slog.String("text", text))
	if text == "" {
		return "", speech.Unrecognized("whisper returned no text")
	}
	return text, nil
}

// Capabilities returns the recognizer capabilities.
func (w *WhisperSTT) Capabilities() speech.Capabilities {
	return speech.Capabilities{
		Remote:      true,
		SampleRates: []int{16000, 22050, 44100, 48000},
	}
}

// isoLanguage reduces a BCP-47 tag such as "en-US" to the ISO-639-1 code
// Whisper expects.
func isoLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}
