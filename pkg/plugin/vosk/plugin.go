package vosk

import (
	"github.com/chriscow/wordguess/pkg/plugin"
)

func newVosk(cfg map[string]any) (any, error) {
	chunk, err := plugin.Duration(cfg, "chunk_duration", 0)
	if err != nil {
		return nil, err
	}
	handshake, err := plugin.Duration(cfg, "handshake_timeout", 0)
	if err != nil {
		return nil, err
	}
	return New(Config{
		URL:              plugin.String(cfg, "url", DefaultURL),
		ChunkDuration:    chunk,
		HandshakeTimeout: handshake,
	})
}

func init() {
	plugin.RegisterWithMetadata(&plugin.Plugin{
		Kind:        plugin.KindRecognizer,
		Name:        "vosk",
		Factory:     newVosk,
		Description: "Offline recognition through a Vosk server",
		Version:     "1.0.0",
		Config: map[string]any{
			"url":               DefaultURL,
			"chunk_duration":    "200ms",
			"handshake_timeout": "5s",
		},
	})
}
