// Package notify posts one-line summaries of completed business actions
// (cashback disclosed, warranty registered, catalogue sent) to a team chat
// webhook. Strictly fire-and-forget: failures are logged and swallowed so
// they can never affect the user-facing response.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// DefaultTimeout bounds every webhook post.
const DefaultTimeout = 5 * time.Second

// Notifier is the side-channel contract the dialogue engine uses.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// Opts holds configuration options for the webhook sink.
type Opts struct {
	WebhookURL string
	Timeout    time.Duration
	Client     *http.Client
}

// Option defines a configuration option for the webhook sink.
type Option func(*Opts)

// WithWebhookURL sets the team chat webhook. Empty disables the sink.
func WithWebhookURL(u string) Option {
	return func(o *Opts) { o.WebhookURL = u }
}

// WithTimeout overrides the post timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// WithHTTPClient injects a custom HTTP client (used in tests).
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) { o.Client = c }
}

// Compile-time check that WebhookSink implements Notifier.
var _ Notifier = (*WebhookSink)(nil)

// WebhookSink posts `{"text": ...}` payloads to a chat webhook.
type WebhookSink struct {
	url    string
	client *http.Client
}

// NewWebhookSink creates a sink. With no URL configured every Notify call is
// a silent no-op, so callers never need to branch on configuration.
func NewWebhookSink(opts ...Option) *WebhookSink {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	slog.Debug("notify sink created", "configured", cfg.WebhookURL != "")
	return &WebhookSink{url: cfg.WebhookURL, client: client}
}

// Notify posts the text, swallowing every failure.
func (s *WebhookSink) Notify(ctx context.Context, text string) {
	if s.url == "" {
		return
	}
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		slog.Error("notify marshal failed", "error", err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		slog.Error("notify request build failed", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		slog.Warn("notify post failed", "error", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Warn("notify post returned non-success status", "status", resp.StatusCode)
	}
}
