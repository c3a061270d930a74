package vosk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// client speaks the Vosk server WebSocket protocol for one utterance.
type client struct {
	url    string
	conn   *websocket.Conn
	logger *slog.Logger
}

// result is one server reply. Partial replies carry only Partial.
type result struct {
	Text    string `json:"text"`
	Partial string `json:"partial"`
}

func newClient(serverURL string, logger *slog.Logger) *client {
	return &client{url: serverURL, logger: logger}
}

func (c *client) Connect(ctx context.Context, handshakeTimeout time.Duration) error {
	u, err := url.Parse(c.url)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	c.logger.Debug("Connecting to Vosk server", slog.String("url", u.String()))

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = handshakeTimeout

	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.conn = conn
	return nil
}

// WriteConfig announces the sample rate. The server does not reply.
func (c *client) WriteConfig(sampleRate int) error {
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	cfg := map[string]any{"config": map[string]any{"sample_rate": sampleRate}}
	if err := c.conn.WriteJSON(cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// WriteAudio sends one chunk of 16-bit little-endian PCM.
func (c *client) WriteAudio(chunk []byte) error {
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
		return fmt.Errorf("failed to write audio: %w", err)
	}
	return nil
}

// WriteEOF asks the server to finalize the utterance.
func (c *client) WriteEOF() error {
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(`{"eof" : 1}`)); err != nil {
		return fmt.Errorf("failed to write eof: %w", err)
	}
	return nil
}

func (c *client) ReadResult() (result, error) {
	if c.conn == nil {
		return result{}, fmt.Errorf("not connected")
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return result{}, fmt.Errorf("failed to read result: %w", err)
	}

	var r result
	if err := json.Unmarshal(data, &r); err != nil {
		return result{}, fmt.Errorf("malformed result: %w", err)
	}
	return r, nil
}

func (c *client) Close() error {
	if c.conn == nil {
		return nil
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	err := c.conn.Close()
	c.conn = nil
	return err
}
