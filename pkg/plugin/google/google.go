// Package google recognizes speech with the Google Web Speech API (v2), the
// same endpoint the Chromium browser uses for dictation.
package google

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/chriscow/wordguess/pkg/speech"
)

// DefaultEndpoint is the public Web Speech API v2 recognize URL.
const DefaultEndpoint = "https://www.google.com/speech-api/v2/recognize"

// Config holds configuration for the Google recognizer.
type Config struct {
	APIKey   string
	Endpoint string // Default: DefaultEndpoint
	Language string // Default: taken from each request, else en-US

	// MaxRetries is how many times a failed request is repeated. Only
	// transport errors and 5xx responses are retried.
	MaxRetries int
	// RetryInterval is the first backoff delay. Default: 250ms.
	RetryInterval time.Duration
	// Timeout bounds each HTTP request. Default: 10s.
	Timeout time.Duration
	// ProfanityFilter asks Google to mask profanity.
	ProfanityFilter bool
}

// Recognizer implements speech.Recognizer against the Web Speech API.
type Recognizer struct {
	cfg    Config
	client *http.Client
}

// New creates a Google recognizer.
func New(cfg Config) (*Recognizer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("Google Speech API key is required")
	}
	if cfg.MaxRetries < 0 {
		return nil, errors.New("max_retries must not be negative")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 250 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Recognizer{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// response is one line of the newline-delimited JSON the API returns.
type response struct {
	Result []struct {
		Alternative []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternative"`
		Final bool `json:"final"`
	} `json:"result"`
	ResultIndex int `json:"result_index"`
}

// Recognize sends the clip as raw 16-bit PCM and returns the best transcript.
func (r *Recognizer) Recognize(ctx context.Context, req speech.Request) (string, error) {
	if req.Clip.Empty() {
		return "", speech.Unrecognized("no audio")
	}

	language := r.cfg.Language
	if language == "" {
		language = req.Language
	}
	if language == "" {
		language = "en-US"
	}

	endpoint, err := r.requestURL(language)
	if err != nil {
		return "", err
	}
	body := req.Clip.BigEndian()
	contentType := fmt.Sprintf("audio/l16; rate=%d", req.Clip.SampleRate)

	var payload []byte
	attempt := 0
	op := func() error {
		attempt++
		payload, err = r.post(ctx, endpoint, contentType, body)
		if err != nil {
			slog.Debug("Google recognize attempt failed",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
		}
		return err
	}

	if err := backoff.Retry(op, backoff.WithContext(r.retryPolicy(), ctx)); err != nil {
		return "", speech.Unavailable(err, "google recognition request failed")
	}

	return parseTranscript(payload)
}

// retryPolicy bounds retries at MaxRetries. WithMaxRetries treats zero as
// unlimited, so zero retries stops after the first attempt.
func (r *Recognizer) retryPolicy() backoff.BackOff {
	if r.cfg.MaxRetries == 0 {
		return &backoff.StopBackOff{}
	}
	policy := &backoff.ExponentialBackOff{
		InitialInterval:     r.cfg.RetryInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         backoff.DefaultMaxInterval,
		MaxElapsedTime:      backoff.DefaultMaxElapsedTime,
		Clock:               backoff.SystemClock,
	}
	policy.Reset()
	return backoff.WithMaxRetries(policy, uint64(r.cfg.MaxRetries))
}

// Capabilities returns the recognizer capabilities.
func (r *Recognizer) Capabilities() speech.Capabilities {
	return speech.Capabilities{
		Remote:      true,
		SampleRates: []int{8000, 16000, 44100, 48000},
	}
}

func (r *Recognizer) requestURL(language string) (string, error) {
	u, err := url.Parse(r.cfg.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("client", "chromium")
	q.Set("lang", language)
	q.Set("key", r.cfg.APIKey)
	if r.cfg.ProfanityFilter {
		q.Set("pFilter", "1")
	} else {
		q.Set("pFilter", "0")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// post performs one request. Client errors are permanent; transport errors
// and server errors may be retried.
func (r *Recognizer) post(ctx context.Context, endpoint, contentType string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, fmt.Errorf("recognition connection failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("recognition request failed: %s", resp.Status)
	case resp.StatusCode >= 400:
		return nil, backoff.Permanent(fmt.Errorf("recognition request rejected: %s", resp.Status))
	}
	return payload, nil
}

// parseTranscript picks the first non-empty result and returns its top
// alternative.
func parseTranscript(payload []byte) (string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(payload))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var resp response
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			return "", speech.Unavailable(err, "malformed google response")
		}
		if len(resp.Result) == 0 {
			continue
		}

		alternatives := resp.Result[0].Alternative
		if len(alternatives) == 0 {
			return "", speech.Unrecognized("google returned no alternatives")
		}
		text := strings.TrimSpace(alternatives[0].Transcript)
		if text == "" {
			return "", speech.Unrecognized("google returned an empty transcript")
		}
		return text, nil
	}
	if err := scanner.Err(); err != nil {
		return "", speech.Unavailable(err, "read google response")
	}
	return "", speech.Unrecognized("google returned no results")
}
