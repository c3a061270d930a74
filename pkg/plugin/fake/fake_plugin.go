// Package fake registers offline stand-ins for every backend kind: a
// scripted recognizer and a microphone that "hears" a synthetic tone. Together
// they let the game run end to end without hardware or network access.
package fake

import (
	"github.com/chriscow/wordguess/pkg/mic"
	"github.com/chriscow/wordguess/pkg/plugin"
	speechfake "github.com/chriscow/wordguess/pkg/speech/fake"
)

// newFakeRecognizer creates a scripted recognizer from configuration.
func newFakeRecognizer(cfg map[string]any) (any, error) {
	script, err := plugin.Strings(cfg, "script")
	if err != nil {
		return nil, err
	}
	if len(script) == 0 {
		script = []string{"apple"}
	}
	return speechfake.NewRecognizer(script...), nil
}

// newToneMicrophone creates a synthetic microphone from configuration.
func newToneMicrophone(cfg map[string]any) (any, error) {
	tone := mic.DefaultToneConfig()

	var err error
	if tone.SampleRate, err = plugin.Int(cfg, "sample_rate", tone.SampleRate); err != nil {
		return nil, err
	}
	if tone.LeadSilence, err = plugin.Duration(cfg, "lead_silence", tone.LeadSilence); err != nil {
		return nil, err
	}
	if tone.Burst, err = plugin.Duration(cfg, "burst", tone.Burst); err != nil {
		return nil, err
	}
	if tone.TrailSilence, err = plugin.Duration(cfg, "trail_silence", tone.TrailSilence); err != nil {
		return nil, err
	}
	if f, ok := cfg["frequency"].(float64); ok {
		tone.Frequency = f
	}
	if a, ok := cfg["amplitude"].(float64); ok {
		tone.Amplitude = a
	}
	return mic.NewTone(tone)
}

func init() {
	plugin.RegisterWithMetadata(&plugin.Plugin{
		Kind:        plugin.KindRecognizer,
		Name:        "fake",
		Factory:     newFakeRecognizer,
		Description: "Scripted recognizer for testing and offline play",
		Version:     "1.0.0",
		Config: map[string]any{
			"script": []string{"apple", speechfake.Unrecognized, "mango", speechfake.Unavailable},
		},
	})

	plugin.RegisterWithMetadata(&plugin.Plugin{
		Kind:        plugin.KindMicrophone,
		Name:        "tone",
		Factory:     newToneMicrophone,
		Description: "Synthetic microphone: silence, a sine burst, silence",
		Version:     "1.0.0",
		Config: map[string]any{
			"sample_rate":   16000,
			"frequency":     440.0,
			"amplitude":     0.3,
			"lead_silence":  "1.5s",
			"burst":         "700ms",
			"trail_silence": "1.2s",
		},
	})
}
