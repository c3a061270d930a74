package speech

import (
	"errors"
	"fmt"
	"testing"

	"github.com/matryer/is"
)

func TestUnavailable(t *testing.T) {
	is := is.New(t)

	cause := errors.New("dial tcp: connection refused")
	err := Unavailable(cause, "recognition connection failed")

	is.True(IsUnavailable(err))    // classified as unavailable
	is.True(!IsUnrecognized(err))  // and nothing else
	is.True(errors.Is(err, cause)) // cause stays reachable
	is.Equal(err.Error(), "recognition connection failed: dial tcp: connection refused")
}

func TestUnrecognized(t *testing.T) {
	is := is.New(t)

	err := Unrecognized("no transcript in response")
	is.True(IsUnrecognized(err))
	is.True(!IsUnavailable(err))
	is.Equal(err.Error(), "no transcript in response")
}

func TestClassificationSurvivesWrapping(t *testing.T) {
	is := is.New(t)

	err := fmt.Errorf("google: %w", Unavailable(nil, "HTTP 503"))
	is.True(IsUnavailable(err)) // %w wrapping keeps the class

	var se *Error
	is.True(errors.As(err, &se))
	is.Equal(se.Message, "HTTP 503")
}

func TestErrorMessageFallbacks(t *testing.T) {
	is := is.New(t)

	is.Equal((&Error{Class: ErrUnrecognized}).Error(), ErrUnrecognized.Error())
	is.Equal((&Error{Class: ErrUnavailable, Underlying: errors.New("boom")}).Error(), "boom")
}

func TestPlainErrorsAreUnclassified(t *testing.T) {
	is := is.New(t)

	err := errors.New("something else")
	is.True(!IsUnavailable(err))
	is.True(!IsUnrecognized(err))
}
