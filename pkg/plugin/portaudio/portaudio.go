// Package portaudio registers the sound card microphone. Capture needs the
// binary to be built with -tags=portaudio; otherwise creating it fails with
// mic.ErrNoCapture.
package portaudio

import (
	"github.com/chriscow/wordguess/pkg/mic"
	"github.com/chriscow/wordguess/pkg/plugin"
)

func newPortAudio(cfg map[string]any) (any, error) {
	format := mic.DefaultFormat()

	var err error
	if format.SampleRate, err = plugin.Int(cfg, "sample_rate", format.SampleRate); err != nil {
		return nil, err
	}
	if format.NumChannels, err = plugin.Int(cfg, "channels", format.NumChannels); err != nil {
		return nil, err
	}
	if format.FrameDuration, err = plugin.Duration(cfg, "frame_duration", format.FrameDuration); err != nil {
		return nil, err
	}
	return mic.NewPortAudio(plugin.String(cfg, "device", ""), format)
}

func init() {
	description := "Sound card input through PortAudio"
	if !mic.PortAudioAvailable {
		description += " (not compiled in, build with -tags=portaudio)"
	}

	plugin.RegisterWithMetadata(&plugin.Plugin{
		Kind:        plugin.KindMicrophone,
		Name:        "portaudio",
		Factory:     newPortAudio,
		Description: description,
		Version:     "1.0.0",
		Config: map[string]any{
			"device":         "input device name; empty for the system default",
			"sample_rate":    16000,
			"channels":       1,
			"frame_duration": "30ms",
		},
	})
}
