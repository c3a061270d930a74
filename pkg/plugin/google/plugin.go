package google

import (
	"fmt"

	"github.com/chriscow/wordguess/pkg/plugin"
)

func newGoogle(cfg map[string]any) (any, error) {
	config := Config{
		APIKey:   plugin.Secret(cfg, "api_key", "GOOGLE_SPEECH_API_KEY"),
		Endpoint: plugin.String(cfg, "endpoint", ""),
		Language: plugin.String(cfg, "language", ""),
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("Google Speech API key is required (set GOOGLE_SPEECH_API_KEY environment variable or provide api_key in config)")
	}

	var err error
	if config.MaxRetries, err = plugin.Int(cfg, "max_retries", 0); err != nil {
		return nil, err
	}
	if config.RetryInterval, err = plugin.Duration(cfg, "retry_interval", 0); err != nil {
		return nil, err
	}
	if config.Timeout, err = plugin.Duration(cfg, "timeout", 0); err != nil {
		return nil, err
	}
	if v, ok := cfg["profanity_filter"].(bool); ok {
		config.ProfanityFilter = v
	}

	return New(config)
}

func init() {
	plugin.RegisterWithMetadata(&plugin.Plugin{
		Kind:        plugin.KindRecognizer,
		Name:        "google",
		Factory:     newGoogle,
		Description: "Google Web Speech API (v2)",
		Version:     "1.0.0",
		Config: map[string]any{
			"api_key":          "API key (or set GOOGLE_SPEECH_API_KEY env var)",
			"endpoint":         DefaultEndpoint,
			"language":         "taken from the game language unless set",
			"max_retries":      0,
			"retry_interval":   "250ms",
			"timeout":          "10s",
			"profanity_filter": false,
		},
	})
}
