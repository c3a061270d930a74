// Package speech defines the interface implemented by speech-to-text backends
// and the error classes they report.
package speech

import (
	"context"

	"github.com/chriscow/wordguess/pkg/audio"
)

// Request is one utterance to transcribe.
type Request struct {
	Clip     audio.Clip
	Language string // BCP-47 tag such as "en-US"; backends may shorten it
}

// Capabilities describes what a recognizer backend accepts.
type Capabilities struct {
	Remote      bool  // audio leaves the machine
	SampleRates []int // preferred input rates; empty means any
}

// Recognizer turns recorded speech into text.
//
// Implementations return ErrUnavailable-classified errors when the service
// cannot be used and ErrUnrecognized-classified errors when it answered
// without text. A nil error with empty text is treated like ErrUnrecognized
// by callers.
type Recognizer interface {
	// Recognize performs one blocking recognition call.
	Recognize(ctx context.Context, req Request) (string, error)

	// Capabilities returns the backend's capabilities.
	Capabilities() Capabilities
}
