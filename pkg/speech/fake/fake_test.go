package fake

import (
	"context"
	"testing"

	"github.com/chriscow/wordguess/pkg/speech"
)

func TestRecognizerScript(t *testing.T) {
	r := NewRecognizer("hello", Unrecognized, Unavailable, "mango")
	ctx := context.Background()

	text, err := r.Recognize(ctx, speech.Request{})
	if err != nil || text != "hello" {
		t.Fatalf("call 1 = (%q, %v), want (\"hello\", nil)", text, err)
	}

	_, err = r.Recognize(ctx, speech.Request{})
	if !speech.IsUnrecognized(err) {
		t.Errorf("call 2 error = %v, want unrecognized", err)
	}

	_, err = r.Recognize(ctx, speech.Request{})
	if !speech.IsUnavailable(err) {
		t.Errorf("call 3 error = %v, want unavailable", err)
	}

	for i := 0; i < 3; i++ {
		text, err = r.Recognize(ctx, speech.Request{})
		if err != nil || text != "mango" {
			t.Errorf("repeat %d = (%q, %v), want last entry to repeat", i, text, err)
		}
	}

	if r.Calls() != 6 {
		t.Errorf("Calls() = %d, want 6", r.Calls())
	}
}

func TestRecognizerEmptyScript(t *testing.T) {
	r := NewRecognizer()

	_, err := r.Recognize(context.Background(), speech.Request{})
	if !speech.IsUnrecognized(err) {
		t.Errorf("empty script error = %v, want unrecognized", err)
	}
}

func TestRecognizerRecordsRequests(t *testing.T) {
	r := NewRecognizer("ok")

	_, _ = r.Recognize(context.Background(), speech.Request{Language: "en-GB"})

	reqs := r.Requests()
	if len(reqs) != 1 || reqs[0].Language != "en-GB" {
		t.Errorf("Requests() = %+v, want one en-GB request", reqs)
	}
}

func TestRecognizerCancelledContext(t *testing.T) {
	r := NewRecognizer("ok")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Recognize(ctx, speech.Request{}); err == nil {
		t.Error("expected error for cancelled context")
	}
	if r.Calls() != 0 {
		t.Errorf("cancelled call must not consume the script, Calls() = %d", r.Calls())
	}
}
