package speech

import (
	"errors"
)

// Error classes every recognizer backend maps its failures onto.
var (
	// ErrUnavailable indicates the recognition service could not be reached or
	// refused the request.
	// Examples: DNS/connection failure, HTTP 5xx, invalid API key, quota exceeded.
	ErrUnavailable = errors.New("speech service unavailable")

	// ErrUnrecognized indicates the service answered but could not map the audio
	// to any text.
	// Examples: silence, mumbling, an empty result list.
	ErrUnrecognized = errors.New("speech not recognized")
)

// IsUnavailable checks if err was classified as a service failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsUnrecognized checks if err was classified as unintelligible speech.
func IsUnrecognized(err error) bool {
	return errors.Is(err, ErrUnrecognized)
}

// Error wraps an underlying backend error with its classification.
type Error struct {
	Underlying error
	Class      error // ErrUnavailable or ErrUnrecognized
	Message    string
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Underlying != nil:
		return e.Message + ": " + e.Underlying.Error()
	case e.Message != "":
		return e.Message
	case e.Underlying != nil:
		return e.Underlying.Error()
	default:
		return e.Class.Error()
	}
}

// Unwrap exposes both the classification and the underlying cause to errors.Is.
func (e *Error) Unwrap() []error {
	if e.Underlying == nil {
		return []error{e.Class}
	}
	return []error{e.Class, e.Underlying}
}

// Unavailable classifies err as a service failure.
func Unavailable(underlying error, message string) error {
	return &Error{
		Underlying: underlying,
		Class:      ErrUnavailable,
		Message:    message,
	}
}

// Unrecognized reports that the service returned no usable text.
func Unrecognized(message string) error {
	return &Error{
		Class:   ErrUnrecognized,
		Message: message,
	}
}
