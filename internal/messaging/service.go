// Package messaging defines a pluggable message delivery abstraction and the
// concrete WhatsApp backends (Meta Cloud API, Twilio) behind it.
package messaging

import (
	"context"

	"github.com/gajahardware/gajabot/internal/models"
)

// Service defines a pluggable message delivery abstraction.
// Every method takes the recipient as a bare E.164 number without prefix;
// backends add whatever framing their transport needs.
type Service interface {
	// SendText sends a plain text message.
	SendText(ctx context.Context, to string, body string) error

	// SendButtons sends an interactive message with up to three reply buttons.
	SendButtons(ctx context.Context, to string, body string, buttons []models.Button) error

	// SendList sends an interactive list picker with the given rows.
	SendList(ctx context.Context, to string, body string, buttonLabel string, rows []models.ListRow) error

	// SendImage sends an image by public URL with an optional caption.
	SendImage(ctx context.Context, to string, link string, caption string) error

	// SendDocument sends a document by public URL with a display filename.
	SendDocument(ctx context.Context, to string, link string, filename string, caption string) error
}

// MockService records every send for assertions in tests.
type MockService struct {
	TextMessages     []SentText
	ButtonMessages   []SentButtons
	ListMessages     []SentList
	ImageMessages    []SentMedia
	DocumentMessages []SentMedia

	// Err, when set, is returned by every send.
	Err error
}

type SentText struct {
	To   string
	Body string
}

type SentButtons struct {
	To      string
	Body    string
	Buttons []models.Button
}

type SentList struct {
	To          string
	Body        string
	ButtonLabel string
	Rows        []models.ListRow
}

type SentMedia struct {
	To       string
	Link     string
	Filename string
	Caption  string
}

// Compile-time check that MockService implements Service.
var _ Service = (*MockService)(nil)

func NewMockService() *MockService {
	return &MockService{}
}

func (m *MockService) SendText(ctx context.Context, to string, body string) error {
	if m.Err != nil {
		return m.Err
	}
	m.TextMessages = append(m.TextMessages, SentText{To: to, Body: body})
	return nil
}

func (m *MockService) SendButtons(ctx context.Context, to string, body string, buttons []models.Button) error {
	if m.Err != nil {
		return m.Err
	}
	m.ButtonMessages = append(m.ButtonMessages, SentButtons{To: to, Body: body, Buttons: buttons})
	return nil
}

func (m *MockService) SendList(ctx context.Context, to string, body string, buttonLabel string, rows []models.ListRow) error {
	if m.Err != nil {
		return m.Err
	}
	m.ListMessages = append(m.ListMessages, SentList{To: to, Body: body, ButtonLabel: buttonLabel, Rows: rows})
	return nil
}

func (m *MockService) SendImage(ctx context.Context, to string, link string, caption string) error {
	if m.Err != nil {
		return m.Err
	}
	m.ImageMessages = append(m.ImageMessages, SentMedia{To: to, Link: link, Caption: caption})
	return nil
}

func (m *MockService) SendDocument(ctx context.Context, to string, link string, filename string, caption string) error {
	if m.Err != nil {
		return m.Err
	}
	m.DocumentMessages = append(m.DocumentMessages, SentMedia{To: to, Link: link, Filename: filename, Caption: caption})
	return nil
}

// TotalSends reports how many messages of any kind were recorded.
func (m *MockService) TotalSends() int {
	return len(m.TextMessages) + len(m.ButtonMessages) + len(m.ListMessages) +
		len(m.ImageMessages) + len(m.DocumentMessages)
}
