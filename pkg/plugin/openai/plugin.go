package openai

import (
	"fmt"

	"github.com/chriscow/wordguess/pkg/plugin"
)

// newOpenAISTT is the factory function for the Whisper recognizer.
func newOpenAISTT(cfg map[string]any) (any, error) {
	config := Config{
		APIKey:   plugin.Secret(cfg, "api_key", "OPENAI_API_KEY"),
		BaseURL:  plugin.String(cfg, "base_url", ""),
		Model:    plugin.String(cfg, "model", ""),
		Language: plugin.String(cfg, "language", ""),
	}

	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (set OPENAI_API_KEY environment variable or provide api_key in config)")
	}

	return NewWhisperSTT(config)
}

func init() {
	plugin.RegisterWithMetadata(&plugin.Plugin{
		Kind:        plugin.KindRecognizer,
		Name:        "openai",
		Factory:     newOpenAISTT,
		Description: "OpenAI Whisper speech-to-text service",
		Version:     "1.0.0",
		Config: map[string]any{
			"api_key":  "OpenAI API key (or set OPENAI_API_KEY env var)",
			"base_url": "https://api.openai.com/v1",
			"model":    "whisper-1",
			"language": "taken from the game language unless set",
		},
	})
}
