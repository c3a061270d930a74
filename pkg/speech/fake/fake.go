// Package fake provides a scripted speech.Recognizer for tests and offline play.
package fake

import (
	"context"
	"strings"
	"sync"

	"github.com/chriscow/wordguess/pkg/speech"
)

const (
	// Unavailable, used as a script entry, makes the call fail as if the service were down.
	Unavailable = "!unavailable"
	// Unrecognized, used as a script entry, makes the call report unintelligible speech.
	Unrecognized = "!unrecognized"
)

// Recognizer replays a fixed script of outcomes, one per Recognize call.
// Once the script is exhausted the last entry repeats. An empty script
// behaves like a single Unrecognized entry.
type Recognizer struct {
	mu       sync.Mutex
	script   []string
	calls    int
	requests []speech.Request
}

// NewRecognizer creates a fake recognizer with the given script.
func NewRecognizer(script ...string) *Recognizer {
	return &Recognizer{script: script}
}

// Recognize returns the next scripted outcome.
func (r *Recognizer) Recognize(ctx context.Context, req speech.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests = append(r.requests, req)
	entry := Unrecognized
	if len(r.script) > 0 {
		idx := r.calls
		if idx >= len(r.script) {
			idx = len(r.script) - 1
		}
		entry = r.script[idx]
	}
	r.calls++

	switch strings.TrimSpace(entry) {
	case Unavailable:
		return "", speech.Unavailable(nil, "fake recognizer scripted outage")
	case Unrecognized:
		return "", speech.Unrecognized("fake recognizer scripted silence")
	default:
		return entry, nil
	}
}

// Capabilities returns the fake capabilities.
func (r *Recognizer) Capabilities() speech.Capabilities {
	return speech.Capabilities{
		Remote:      false,
		SampleRates: []int{8000, 16000, 48000},
	}
}

// Calls returns how many times Recognize has been invoked.
func (r *Recognizer) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// Requests returns a copy of every request received so far.
func (r *Recognizer) Requests() []speech.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]speech.Request(nil), r.requests...)
}
