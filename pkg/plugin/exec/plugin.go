package exec

import (
	"github.com/chriscow/wordguess/pkg/plugin"
)

func newExec(cfg map[string]any) (any, error) {
	return New(Config{
		Command:   plugin.String(cfg, "command", ""),
		ModelPath: plugin.String(cfg, "model", ""),
		Language:  plugin.String(cfg, "language", ""),
		TempDir:   plugin.String(cfg, "temp_dir", ""),
	})
}

func init() {
	plugin.RegisterWithMetadata(&plugin.Plugin{
		Kind:        plugin.KindRecognizer,
		Name:        "exec",
		Factory:     newExec,
		Description: "Runs a local command that prints {\"text\": ...} for a WAV file",
		Version:     "1.0.0",
		Config: map[string]any{
			"command":  "whisper-cli --json",
			"model":    "passed as --model when set",
			"language": "taken from the game language unless set",
			"temp_dir": "directory for the temporary WAV file",
		},
	})
}
