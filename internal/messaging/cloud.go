package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gajahardware/gajabot/internal/models"
	"github.com/gajahardware/gajabot/internal/util"
)

// DefaultSendTimeout bounds every outbound Cloud API call.
const DefaultSendTimeout = 15 * time.Second

// graphAPIVersion pins the Meta Graph API version all requests use.
const graphAPIVersion = "v20.0"

// Opts holds configuration options for the Cloud API client.
type Opts struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	Timeout       time.Duration
	Client        *http.Client
}

// Option defines a configuration option for the Cloud API client.
type Option func(*Opts)

// WithAccessToken sets the Cloud API bearer token.
func WithAccessToken(token string) Option {
	return func(o *Opts) { o.AccessToken = token }
}

// WithPhoneNumberID sets the sending phone number ID.
func WithPhoneNumberID(id string) Option {
	return func(o *Opts) { o.PhoneNumberID = id }
}

// WithBaseURL overrides the Graph API origin (used in tests).
func WithBaseURL(u string) Option {
	return func(o *Opts) { o.BaseURL = u }
}

// WithSendTimeout overrides the per-request timeout.
func WithSendTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// WithHTTPClient injects a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) { o.Client = c }
}

// Compile-time check that CloudService implements Service.
var _ Service = (*CloudService)(nil)

// CloudService sends messages through the Meta WhatsApp Cloud API.
type CloudService struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewCloudService creates a Cloud API client. Token and phone number ID are
// required; there is no environment fallback here so that main can fail fast
// with a single clear message.
func NewCloudService(opts ...Option) (*CloudService, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccessToken == "" || cfg.PhoneNumberID == "" {
		return nil, fmt.Errorf("access token and phone number ID must be provided")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://graph.facebook.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSendTimeout
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	slog.Debug("Cloud API client created", "phone_number_id", cfg.PhoneNumberID)
	return &CloudService{
		endpoint: fmt.Sprintf("%s/%s/%s/messages", cfg.BaseURL, graphAPIVersion, cfg.PhoneNumberID),
		token:    cfg.AccessToken,
		client:   client,
	}, nil
}

// payload fragments matching the Cloud API message schema.

type textPayload struct {
	Body string `json:"body"`
}

type interactivePayload struct {
	Type   string       `json:"type"`
	Body   textPayload  `json:"body"`
	Action actionObject `json:"action"`
}

type actionObject struct {
	Buttons  []buttonObject `json:"buttons,omitempty"`
	Button   string         `json:"button,omitempty"`
	Sections []sectionObj   `json:"sections,omitempty"`
}

type buttonObject struct {
	Type  string      `json:"type"`
	Reply replyObject `json:"reply"`
}

type replyObject struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type sectionObj struct {
	Title string      `json:"title,omitempty"`
	Rows  []rowObject `json:"rows"`
}

type rowObject struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type mediaObject struct {
	Link     string `json:"link"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// SendText sends a plain text message.
func (s *CloudService) SendText(ctx context.Context, to string, body string) error {
	if to == "" {
		return models.ErrEmptyRecipient
	}
	if body == "" {
		return models.ErrEmptyBody
	}
	return s.post(ctx, to, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              textPayload{Body: body},
	})
}

// SendButtons sends an interactive reply-button message. The Cloud API caps
// reply buttons at three per message.
func (s *CloudService) SendButtons(ctx context.Context, to string, body string, buttons []models.Button) error {
	if to == "" {
		return models.ErrEmptyRecipient
	}
	if len(buttons) == 0 || len(buttons) > models.MaxMenuButtons {
		return models.ErrTooManyButtons
	}
	objs := make([]buttonObject, 0, len(buttons))
	for _, b := range buttons {
		objs = append(objs, buttonObject{
			Type:  "reply",
			Reply: replyObject{ID: b.ID, Title: b.Title},
		})
	}
	return s.post(ctx, to, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "interactive",
		"interactive": interactivePayload{
			Type:   "button",
			Body:   textPayload{Body: body},
			Action: actionObject{Buttons: objs},
		},
	})
}

// SendList sends an interactive list picker.
func (s *CloudService) SendList(ctx context.Context, to string, body string, buttonLabel string, rows []models.ListRow) error {
	if to == "" {
		return models.ErrEmptyRecipient
	}
	if len(rows) == 0 {
		return models.ErrNoListRows
	}
	objs := make([]rowObject, 0, len(rows))
	for _, r := range rows {
		objs = append(objs, rowObject{ID: r.ID, Title: r.Title, Description: r.Description})
	}
	return s.post(ctx, to, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "interactive",
		"interactive": interactivePayload{
			Type: "list",
			Body: textPayload{Body: body},
			Action: actionObject{
				Button:   buttonLabel,
				Sections: []sectionObj{{Rows: objs}},
			},
		},
	})
}

// SendImage sends an image by public URL.
func (s *CloudService) SendImage(ctx context.Context, to string, link string, caption string) error {
	if to == "" {
		return models.ErrEmptyRecipient
	}
	return s.post(ctx, to, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "image",
		"image":             mediaObject{Link: link, Caption: caption},
	})
}

// SendDocument sends a document by public URL with a display filename.
func (s *CloudService) SendDocument(ctx context.Context, to string, link string, filename string, caption string) error {
	if to == "" {
		return models.ErrEmptyRecipient
	}
	return s.post(ctx, to, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "document",
		"document":          mediaObject{Link: link, Filename: filename, Caption: caption},
	})
}

func (s *CloudService) post(ctx context.Context, to string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build message request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Error("Cloud API send failed", "to", util.MaskPhone(to), "error", err)
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Error("Cloud API send rejected", "to", util.MaskPhone(to), "status", resp.StatusCode, "body", string(detail))
		return fmt.Errorf("message send returned status %d", resp.StatusCode)
	}
	slog.Debug("Cloud API message sent", "to", util.MaskPhone(to), "type", payload["type"])
	return nil
}
