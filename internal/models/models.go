// Package models defines the core data structures for gajabot.
//
// It includes the conversation session, the normalized inbound message shape,
// and the outbound menu building blocks shared across modules.
package models

import (
	"errors"
	"time"
)

// Language is the conversation language chosen by the user.
type Language string

const (
	// LanguageUnset means the user has not picked a language yet.
	LanguageUnset Language = ""
	// LanguageEnglish renders all copy in English.
	LanguageEnglish Language = "en"
	// LanguageTamil renders all copy in Tamil.
	LanguageTamil Language = "ta"
)

// State is the position of a conversation in the dialogue state machine.
type State string

const (
	// StateInitial is a brand-new conversation with no language chosen.
	StateInitial State = "INITIAL"
	// StateLanguageSelect means the language chooser has been sent.
	StateLanguageSelect State = "LANGUAGE_SELECT"
	// StateMainMenu means the main menu has been sent.
	StateMainMenu State = "MAIN_MENU"
	// StateCustomerMenu means the customer submenu has been sent.
	StateCustomerMenu State = "CUSTOMER_MENU"
	// StateCarpenterMenu means the carpenter submenu has been sent.
	StateCarpenterMenu State = "CARPENTER_MENU"
	// StateAwaitingCarpenterCode means the bot asked for a carpenter code.
	StateAwaitingCarpenterCode State = "AWAITING_CARPENTER_CODE"
	// StateAwaitingMonthSelection means the month list has been sent.
	StateAwaitingMonthSelection State = "AWAITING_MONTH_SELECTION"
	// StateAwaitingWarrantyBarcode means a warranty token was accepted and the
	// bot is waiting for the 6-digit product barcode.
	StateAwaitingWarrantyBarcode State = "AWAITING_WARRANTY_BARCODE"
)

// IsValidState reports whether s is one of the declared states.
func IsValidState(s State) bool {
	switch s {
	case StateInitial, StateLanguageSelect, StateMainMenu, StateCustomerMenu,
		StateCarpenterMenu, StateAwaitingCarpenterCode,
		StateAwaitingMonthSelection, StateAwaitingWarrantyBarcode:
		return true
	default:
		return false
	}
}

// MaxMonthChoices bounds the month list offered during a cashback lookup.
const MaxMonthChoices = 3

// Session is the per-user conversation state. One record per phone number,
// copied in and out of the store; the dialogue engine never holds a live
// reference shared across requests.
type Session struct {
	Language Language `json:"language"`
	State    State    `json:"state"`

	// Transient flow fields. Populated before entering the state that needs
	// them and cleared when the flow completes or aborts.
	CarpenterCode string   `json:"carpenter_code,omitempty"`
	Months        []string `json:"months,omitempty"`
	WarrantyToken string   `json:"warranty_token,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession returns the default session a never-seen or expired user starts
// with.
func NewSession() Session {
	return Session{Language: LanguageUnset, State: StateInitial}
}

// ClearTransient drops all flow-scoped fields, keeping language and state.
func (s *Session) ClearTransient() {
	s.CarpenterCode = ""
	s.Months = nil
	s.WarrantyToken = ""
}

// MessageKind classifies a normalized inbound message.
type MessageKind string

const (
	// KindText is a free-text message.
	KindText MessageKind = "text"
	// KindButtonReply is a tap on an interactive button.
	KindButtonReply MessageKind = "button_reply"
	// KindListReply is a selection from an interactive list.
	KindListReply MessageKind = "list_reply"
)

// InboundMessage is the normalized shape the dialogue engine consumes. The
// webhook adapter produces it from the transport envelope; it is never stored.
type InboundMessage struct {
	From      string      `json:"from"`       // sender phone number
	MessageID string      `json:"message_id"` // transport message id, used for dedup
	Kind      MessageKind `json:"kind"`
	Text      string      `json:"text,omitempty"`     // body for KindText
	ReplyID   string      `json:"reply_id,omitempty"` // selection id for button/list replies
}

// Button is one option of an interactive button menu. WhatsApp caps button
// menus at three entries.
type Button struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// MaxMenuButtons is the WhatsApp interactive-button limit.
const MaxMenuButtons = 3

// ListRow is one row of an interactive list menu.
type ListRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Validation errors shared by senders.
var (
	ErrEmptyRecipient = errors.New("recipient cannot be empty")
	ErrEmptyBody      = errors.New("message body cannot be empty")
	ErrTooManyButtons = errors.New("button menus support at most three buttons")
	ErrNoListRows     = errors.New("list menus require at least one row")
)
