package fake

import (
	"context"
	"testing"

	"github.com/chriscow/wordguess/pkg/plugin"
	"github.com/chriscow/wordguess/pkg/speech"
	"github.com/chriscow/wordguess/pkg/transcribe"
)

func TestFakePluginsPlayTogether(t *testing.T) {
	rec, err := plugin.NewRecognizer("fake", map[string]any{"script": []any{"I said mango", "!unavailable"}})
	if err != nil {
		t.Fatalf("NewRecognizer: %v", err)
	}
	m, err := plugin.NewMicrophone("tone", nil)
	if err != nil {
		t.Fatalf("NewMicrophone: %v", err)
	}

	opts := transcribe.DefaultOptions()
	got := transcribe.FromMicrophone(context.Background(), m, rec, opts)
	if got.Transcription != "I said mango" {
		t.Errorf("first attempt = %+v", got)
	}

	got = transcribe.FromMicrophone(context.Background(), m, rec, opts)
	if got.Success || got.Error != transcribe.ErrAPIUnavailable {
		t.Errorf("second attempt = %+v", got)
	}
}

func TestFakeRecognizerDefaultScript(t *testing.T) {
	rec, err := plugin.NewRecognizer("fake", nil)
	if err != nil {
		t.Fatalf("NewRecognizer: %v", err)
	}
	text, err := rec.Recognize(context.Background(), speech.Request{})
	if err != nil || text != "apple" {
		t.Errorf("got %q, %v", text, err)
	}
}

func TestToneMicrophoneOptions(t *testing.T) {
	m, err := plugin.NewMicrophone("tone", map[string]any{
		"sample_rate":  8000,
		"lead_silence": "100ms",
		"burst":        0.2,
	})
	if err != nil {
		t.Fatalf("NewMicrophone: %v", err)
	}

	src, err := m.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	if got := src.Format().SampleRate; got != 8000 {
		t.Errorf("sample rate = %d", got)
	}

	if _, err := plugin.NewMicrophone("tone", map[string]any{"burst": "soon"}); err == nil {
		t.Error("expected bad duration to fail")
	}
}
