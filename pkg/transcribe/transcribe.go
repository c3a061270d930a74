// Package transcribe captures one spoken utterance and turns the outcome of
// the speech recognizer into a uniform Result. No error crosses this
// boundary: every failure is reported through the Result fields.
package transcribe

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/chriscow/wordguess/pkg/listen"
	"github.com/chriscow/wordguess/pkg/mic"
	"github.com/chriscow/wordguess/pkg/speech"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Error strings carried in Result.Error.
const (
	ErrAPIUnavailable        = "API unavailable"
	ErrUnableToRecognize     = "Unable to recognize speech"
	ErrMicrophoneUnavailable = "Microphone unavailable"
)

var tracer = otel.Tracer("github.com/chriscow/wordguess/pkg/transcribe")

// Result is the normalized outcome of one recognition attempt.
//
// Success is false only when the attempt cannot be repeated usefully (the
// service or the device is gone); Transcription is then empty. A successful
// attempt with an empty Transcription means the speech was not understood and
// Error says so.
type Result struct {
	Success       bool
	Error         string
	Transcription string
}

// Fatal reports whether the caller should stop retrying.
func (r Result) Fatal() bool {
	return !r.Success
}

// Ambiguous reports whether the attempt produced nothing usable but may be
// retried.
func (r Result) Ambiguous() bool {
	return r.Success && r.Transcription == ""
}

// Options tunes a single capture.
type Options struct {
	Listener listen.Config
	Language string
	Logger   *slog.Logger
}

// DefaultOptions returns the default listener tuning for US English.
func DefaultOptions() Options {
	return Options{
		Listener: listen.DefaultConfig(),
		Language: "en-US",
	}
}

// FromMicrophone opens m for the duration of the call, calibrates for
// background noise, records one phrase and hands it to rec.
func FromMicrophone(ctx context.Context, m mic.Microphone, rec speech.Recognizer, opts Options) Result {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, span := tracer.Start(ctx, "transcribe.FromMicrophone")
	defer span.End()

	result := fromMicrophone(ctx, m, rec, opts, logger)

	span.SetAttributes(
		attribute.Bool("transcribe.success", result.Success),
		attribute.String("transcribe.error", result.Error),
		attribute.Int("transcribe.length", len(result.Transcription)),
	)
	if !result.Success {
		span.SetStatus(codes.Error, result.Error)
	}
	return result
}

func fromMicrophone(ctx context.Context, m mic.Microphone, rec speech.Recognizer, opts Options, logger *slog.Logger) Result {
	src, err := m.Open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return failed(ctx.Err().Error())
		}
		logger.Error("Failed to open microphone", slog.String("error", err.Error()))
		return failed(ErrMicrophoneUnavailable)
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.Warn("Failed to close microphone", slog.String("error", err.Error()))
		}
	}()

	l := listen.New(opts.Listener, logger)
	if err := l.AdjustForAmbientNoise(ctx, src); err != nil {
		return captureFailed(ctx, err, logger)
	}

	clip, err := l.Listen(ctx, src)
	if err != nil {
		if errors.Is(err, listen.ErrWaitTimeout) || errors.Is(err, listen.ErrNoSpeech) {
			logger.Debug("No speech captured", slog.String("reason", err.Error()))
			return unrecognized()
		}
		return captureFailed(ctx, err, logger)
	}

	return Recognize(ctx, rec, speech.Request{Clip: clip, Language: opts.Language}, logger)
}

// Recognize sends an already captured request to rec and normalizes the
// outcome. FromMicrophone uses it after recording; it also serves one-shot
// transcription of audio files.
func Recognize(ctx context.Context, rec speech.Recognizer, req speech.Request, logger *slog.Logger) Result {
	if logger == nil {
		logger = slog.Default()
	}

	text, err := rec.Recognize(ctx, req)
	text = strings.TrimSpace(text)

	switch {
	case err != nil && ctx.Err() != nil:
		return failed(ctx.Err().Error())
	case speech.IsUnrecognized(err):
		logger.Debug("Speech not recognized", slog.String("error", err.Error()))
		return unrecognized()
	case err != nil:
		if !speech.IsUnavailable(err) {
			logger.Warn("Unclassified recognizer error", slog.String("error", err.Error()))
		}
		logger.Error("Speech service unavailable", slog.String("error", err.Error()))
		return failed(ErrAPIUnavailable)
	case text == "":
		return unrecognized()
	}

	logger.Debug("Recognized speech",
		slog.String("transcription", text),
		slog.Duration("audio", req.Clip.Duration()))
	return Result{Success: true, Transcription: text}
}

func captureFailed(ctx context.Context, err error, logger *slog.Logger) Result {
	if ctx.Err() != nil {
		return failed(ctx.Err().Error())
	}
	logger.Error("Failed to capture audio", slog.String("error", err.Error()))
	return failed(ErrMicrophoneUnavailable)
}

func failed(msg string) Result {
	return Result{Success: false, Error: msg}
}

func unrecognized() Result {
	return Result{Success: true, Error: ErrUnableToRecognize}
}
