// Package wavfile registers a microphone that replays recorded WAV files,
// one file per capture, cycling through the list.
package wavfile

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/chriscow/wordguess/pkg/audio"
	"github.com/chriscow/wordguess/pkg/mic"
	"github.com/chriscow/wordguess/pkg/plugin"
)

// New loads the files and returns a playback microphone over them.
func New(paths []string, frameDuration time.Duration) (*mic.Playback, error) {
	if len(paths) == 0 {
		return nil, errors.New("at least one wav file is required")
	}

	clips := make([]audio.Clip, 0, len(paths))
	for _, p := range paths {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		if len(matches) == 0 {
			matches = []string{p} // let ReadWAVFile report the missing file
		}
		for _, m := range matches {
			clip, err := audio.ReadWAVFile(m)
			if err != nil {
				return nil, err
			}
			clips = append(clips, clip)
		}
	}
	return mic.NewPlayback(frameDuration, clips...)
}

func newWAVMicrophone(cfg map[string]any) (any, error) {
	files, err := plugin.Strings(cfg, "files")
	if err != nil {
		return nil, err
	}
	frame, err := plugin.Duration(cfg, "frame_duration", mic.DefaultFrameDuration)
	if err != nil {
		return nil, err
	}
	return New(files, frame)
}

func init() {
	plugin.RegisterWithMetadata(&plugin.Plugin{
		Kind:        plugin.KindMicrophone,
		Name:        "wav",
		Factory:     newWAVMicrophone,
		Description: "Replays WAV recordings, one per guess",
		Version:     "1.0.0",
		Config: map[string]any{
			"files":          []string{"guesses/*.wav"},
			"frame_duration": "30ms",
		},
	})
}
