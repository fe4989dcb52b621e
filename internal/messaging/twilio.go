package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/gajahardware/gajabot/internal/models"
	"github.com/gajahardware/gajabot/internal/util"
)

// TwilioOpts holds configuration options for the Twilio WhatsApp backend.
type TwilioOpts struct {
	AccountSID string
	AuthToken  string
	FromWhats  string
}

// TwilioOption defines a configuration option for the Twilio WhatsApp backend.
type TwilioOption func(*TwilioOpts)

func WithAccountSID(sid string) TwilioOption {
	return func(o *TwilioOpts) { o.AccountSID = sid }
}

func WithAuthToken(token string) TwilioOption {
	return func(o *TwilioOpts) { o.AuthToken = token }
}

func WithFromWhats(from string) TwilioOption {
	return func(o *TwilioOpts) { o.FromWhats = from }
}

// Compile-time check that TwilioService implements Service.
var _ Service = (*TwilioService)(nil)

// TwilioService delivers messages through the Twilio WhatsApp API. Twilio's
// Go SDK has no interactive message support, so button and list menus are
// degraded to numbered text and media is sent as links.
type TwilioService struct {
	client    *twilio.RestClient
	fromWhats string // WhatsApp number in "whatsapp:+1234567890" format
}

// NewTwilioService creates a Twilio-backed sender, falling back to the
// standard TWILIO_* environment variables for anything not set via options.
func NewTwilioService(opts ...TwilioOption) (*TwilioService, error) {
	var cfg TwilioOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.FromWhats == "" {
		cfg.FromWhats = os.Getenv("TWILIO_FROM_NUMBER")
	}
	slog.Debug("Twilio client config loaded",
		"AccountSID_set", cfg.AccountSID != "",
		"AuthToken_set", cfg.AuthToken != "",
		"FromWhats_set", cfg.FromWhats != "")

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.FromWhats == "" {
		return nil, fmt.Errorf("fromWhats number must be provided")
	}

	client := twilio.NewRestClientWithParams(
		twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		},
	)

	return &TwilioService{
		client:    client,
		fromWhats: cfg.FromWhats,
	}, nil
}

// SendText sends a WhatsApp text message through the Twilio API.
func (s *TwilioService) SendText(ctx context.Context, to string, body string) error {
	if to == "" {
		return models.ErrEmptyRecipient
	}
	if body == "" {
		return models.ErrEmptyBody
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:" + to)
	params.SetFrom(s.fromWhats)
	params.SetBody(body)

	_, err := s.client.Api.CreateMessage(params)
	if err != nil {
		slog.Error("Twilio send failed", "to", util.MaskPhone(to), "error", err)
		return fmt.Errorf("failed to send message to %s: %w", util.MaskPhone(to), err)
	}
	slog.Debug("Twilio message sent", "to", util.MaskPhone(to))
	return nil
}

// SendButtons degrades a button menu to numbered text options.
func (s *TwilioService) SendButtons(ctx context.Context, to string, body string, buttons []models.Button) error {
	if len(buttons) == 0 || len(buttons) > models.MaxMenuButtons {
		return models.ErrTooManyButtons
	}
	var b strings.Builder
	b.WriteString(body)
	for i, btn := range buttons {
		fmt.Fprintf(&b, "\n%d. %s", i+1, btn.Title)
	}
	return s.SendText(ctx, to, b.String())
}

// SendList degrades a list picker to numbered text options.
func (s *TwilioService) SendList(ctx context.Context, to string, body string, buttonLabel string, rows []models.ListRow) error {
	if len(rows) == 0 {
		return models.ErrNoListRows
	}
	var b strings.Builder
	b.WriteString(body)
	for i, row := range rows {
		fmt.Fprintf(&b, "\n%d. %s", i+1, row.Title)
	}
	return s.SendText(ctx, to, b.String())
}

// SendImage sends the image URL as a media message.
func (s *TwilioService) SendImage(ctx context.Context, to string, link string, caption string) error {
	if to == "" {
		return models.ErrEmptyRecipient
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:" + to)
	params.SetFrom(s.fromWhats)
	params.SetBody(caption)
	params.SetMediaUrl([]string{link})

	_, err := s.client.Api.CreateMessage(params)
	if err != nil {
		slog.Error("Twilio media send failed", "to", util.MaskPhone(to), "error", err)
		return fmt.Errorf("failed to send media to %s: %w", util.MaskPhone(to), err)
	}
	return nil
}

// SendDocument sends the document URL as a media message. Twilio derives the
// filename from the URL, so the display name is folded into the caption.
func (s *TwilioService) SendDocument(ctx context.Context, to string, link string, filename string, caption string) error {
	body := caption
	if body == "" {
		body = filename
	}
	return s.SendImage(ctx, to, link, body)
}
