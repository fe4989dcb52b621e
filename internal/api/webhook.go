package api

import (
	"log/slog"

	"github.com/gajahardware/gajabot/internal/models"
)

// webhookEnvelope mirrors the Cloud API webhook payload, down to the parts
// the bot consumes. Status updates and unsupported message types are ignored.
type webhookEnvelope struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []messagePayload `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type messagePayload struct {
	From        string `json:"from"`
	ID          string `json:"id"`
	Type        string `json:"type"`
	Text        *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
	Interactive *struct {
		Type        string `json:"type"`
		ButtonReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"button_reply,omitempty"`
		ListReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"list_reply,omitempty"`
	} `json:"interactive,omitempty"`
}

// inboundMessages flattens the envelope into normalized messages.
func (e *webhookEnvelope) inboundMessages() []models.InboundMessage {
	var out []models.InboundMessage
	for _, entry := range e.Entry {
		for _, change := range entry.Changes {
			for _, m := range change.Value.Messages {
				norm, ok := normalize(m)
				if !ok {
					slog.Debug("webhook message skipped", "type", m.Type)
					continue
				}
				out = append(out, norm)
			}
		}
	}
	return out
}

func normalize(m messagePayload) (models.InboundMessage, bool) {
	if m.From == "" || m.ID == "" {
		return models.InboundMessage{}, false
	}
	msg := models.InboundMessage{From: m.From, MessageID: m.ID}
	switch m.Type {
	case "text":
		if m.Text == nil {
			return models.InboundMessage{}, false
		}
		msg.Kind = models.KindText
		msg.Text = m.Text.Body
	case "interactive":
		if m.Interactive == nil {
			return models.InboundMessage{}, false
		}
		switch {
		case m.Interactive.ButtonReply != nil:
			msg.Kind = models.KindButtonReply
			msg.ReplyID = m.Interactive.ButtonReply.ID
		case m.Interactive.ListReply != nil:
			msg.Kind = models.KindListReply
			msg.ReplyID = m.Interactive.ListReply.ID
		default:
			return models.InboundMessage{}, false
		}
	default:
		// Media, location, reactions and the rest are not part of any flow.
		return models.InboundMessage{}, false
	}
	return msg, true
}
