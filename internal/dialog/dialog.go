// Package dialog implements the conversation state machine.
//
// The engine consumes normalized inbound messages, loads the sender's session,
// applies one transition, sends every reply for that turn through the injected
// messenger, and persists the resulting session. All user-facing copy comes
// from the i18n catalog; all spreadsheet lookups go through the DataService
// contract so tests can run against fakes.
package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gajahardware/gajabot/internal/i18n"
	"github.com/gajahardware/gajabot/internal/messaging"
	"github.com/gajahardware/gajabot/internal/models"
	"github.com/gajahardware/gajabot/internal/sheets"
	"github.com/gajahardware/gajabot/internal/store"
	"github.com/gajahardware/gajabot/internal/util"
)

// Default turn timeouts.
const (
	DefaultLookupTimeout = 10 * time.Second
)

// Button and list row IDs carried inside interactive replies.
const (
	btnLangEnglish  = "lang_en"
	btnLangTamil    = "lang_ta"
	btnCustomer     = "main_customer"
	btnCarpenter    = "main_carpenter"
	btnTalkToUs     = "main_talk"
	btnCatalogue    = "cust_catalog"
	btnBackToMain   = "back_to_main"
	btnCustomerBack = "cust_back"
	btnRegister     = "carp_register"
	btnSchemeInfo   = "carp_scheme"
	btnCashback     = "carp_cashback"
	monthRowPrefix  = "month_"
)

var (
	// A warranty card token is "GAJA" plus an 8-character code, matched on the
	// whole trimmed message regardless of the current state.
	warrantyTokenRe = regexp.MustCompile(`(?i)^GAJA\s+[A-Za-z0-9]{8}$`)
	// Product barcodes are exactly six digits.
	barcodeRe = regexp.MustCompile(`^\d{6}$`)
)

// Text commands recognized in any state.
var (
	menuCommands    = map[string]bool{"0": true, "menu": true, "back": true, "main": true, "home": true}
	restartCommands = map[string]bool{"hi": true, "hello": true, "start": true}
	exitCommands    = map[string]bool{"exit": true, "stop": true, "bye": true, "quit": true, "close": true}
)

// DataService is the spreadsheet lookup contract the engine depends on.
// *sheets.Client satisfies it.
type DataService interface {
	Months(ctx context.Context, n int) ([]string, error)
	Cashback(ctx context.Context, code, month string) (sheets.CashbackResult, error)
	VerifyToken(ctx context.Context, token string) (sheets.TokenStatus, error)
	LookupBarcode(ctx context.Context, code string) (sheets.Product, error)
	RegisterWarranty(ctx context.Context, token, barcode, phone string) (sheets.Registration, error)
}

// Compile-time check that the sheets client satisfies DataService.
var _ DataService = (*sheets.Client)(nil)

// Notifier is the side channel for team notifications.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// Limiter caps how many data lookups a user may trigger per day.
type Limiter interface {
	Allow(userID string) bool
}

// Config holds the business parameters the flows need.
type Config struct {
	SupportPhone string // shown in error and result copy
	ServicePhone string // carpenter registration contact
	CatalogURL   string // public URL of the product catalogue PDF
	CatalogName  string // display filename for the catalogue
	SchemeImages []string

	LookupTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.LookupTimeout <= 0 {
		c.LookupTimeout = DefaultLookupTimeout
	}
}

// Engine drives one conversation turn at a time. Turns for the same phone
// number are serialized; different users proceed concurrently.
type Engine struct {
	sessions store.SessionRepo
	data     DataService
	sender   messaging.Service
	notifier Notifier
	limiter  Limiter
	cfg      Config

	locks sync.Map // phone -> *sync.Mutex
}

// NewEngine wires the engine. Notifier and limiter may be nil; a nil limiter
// means unlimited lookups.
func NewEngine(sessions store.SessionRepo, data DataService, sender messaging.Service, notifier Notifier, limiter Limiter, cfg Config) *Engine {
	cfg.applyDefaults()
	return &Engine{
		sessions: sessions,
		data:     data,
		sender:   sender,
		notifier: notifier,
		limiter:  limiter,
		cfg:      cfg,
	}
}

func (e *Engine) lockFor(phone string) *sync.Mutex {
	v, _ := e.locks.LoadOrStore(phone, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// HandleMessage processes one inbound message end to end: load session, apply
// the transition, send replies, persist. It returns an error only for
// infrastructure failures; user mistakes are answered in-band.
func (e *Engine) HandleMessage(ctx context.Context, msg models.InboundMessage) error {
	if msg.From == "" {
		return fmt.Errorf("inbound message has no sender")
	}
	mu := e.lockFor(msg.From)
	mu.Lock()
	defer mu.Unlock()

	sess, err := e.sessions.GetSession(msg.From)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	slog.Debug("dialog handling message", "from", util.MaskPhone(msg.From), "state", sess.State, "kind", msg.Kind)

	if msg.Kind == models.KindText {
		normalized := strings.ToLower(strings.TrimSpace(msg.Text))
		switch {
		case exitCommands[normalized]:
			e.send(ctx, msg.From, i18n.Text(i18n.KeyGoodbye, sess.Language))
			if err := e.sessions.DeleteSession(msg.From); err != nil {
				return fmt.Errorf("failed to delete session: %w", err)
			}
			return nil
		case restartCommands[normalized]:
			sess = models.NewSession()
			return e.toLanguageSelect(ctx, msg.From, sess)
		case menuCommands[normalized]:
			if sess.Language == models.LanguageUnset {
				return e.toLanguageSelect(ctx, msg.From, sess)
			}
			sess.ClearTransient()
			return e.toMainMenu(ctx, msg.From, sess)
		}
		// Warranty tokens jump the state machine from anywhere.
		if warrantyTokenRe.MatchString(strings.TrimSpace(msg.Text)) {
			return e.startWarranty(ctx, msg.From, sess, strings.ToUpper(strings.TrimSpace(msg.Text)))
		}
	}

	switch sess.State {
	case models.StateInitial:
		return e.toLanguageSelect(ctx, msg.From, sess)
	case models.StateLanguageSelect:
		return e.handleLanguageSelect(ctx, msg.From, sess, msg)
	case models.StateMainMenu:
		return e.handleMainMenu(ctx, msg.From, sess, msg)
	case models.StateCustomerMenu:
		return e.handleCustomerMenu(ctx, msg.From, sess, msg)
	case models.StateCarpenterMenu:
		return e.handleCarpenterMenu(ctx, msg.From, sess, msg)
	case models.StateAwaitingCarpenterCode:
		return e.handleCarpenterCode(ctx, msg.From, sess, msg)
	case models.StateAwaitingMonthSelection:
		return e.handleMonthSelection(ctx, msg.From, sess, msg)
	case models.StateAwaitingWarrantyBarcode:
		return e.handleWarrantyBarcode(ctx, msg.From, sess, msg)
	default:
		slog.Warn("dialog session in unknown state, resetting", "from", util.MaskPhone(msg.From), "state", sess.State)
		sess = models.NewSession()
		return e.toLanguageSelect(ctx, msg.From, sess)
	}
}

// --- state handlers ---

func (e *Engine) handleLanguageSelect(ctx context.Context, from string, sess models.Session, msg models.InboundMessage) error {
	if msg.Kind == models.KindButtonReply {
		switch msg.ReplyID {
		case btnLangEnglish:
			sess.Language = models.LanguageEnglish
			return e.toMainMenu(ctx, from, sess)
		case btnLangTamil:
			sess.Language = models.LanguageTamil
			return e.toMainMenu(ctx, from, sess)
		}
	}
	// Anything else re-offers the chooser.
	return e.toLanguageSelect(ctx, from, sess)
}

func (e *Engine) handleMainMenu(ctx context.Context, from string, sess models.Session, msg models.InboundMessage) error {
	if msg.Kind == models.KindButtonReply {
		switch msg.ReplyID {
		case btnCustomer:
			return e.toCustomerMenu(ctx, from, sess)
		case btnCarpenter:
			return e.toCarpenterMenu(ctx, from, sess)
		case btnTalkToUs:
			e.send(ctx, from, i18n.Text(i18n.KeyTalkToUsAck, sess.Language))
			e.notify(ctx, "TALK_TO_US | "+util.MaskPhone(from))
			return e.toMainMenu(ctx, from, sess)
		default:
			// Stale button from an earlier menu. State is unchanged.
			e.send(ctx, from, i18n.Text(i18n.KeyInvalidSelection, sess.Language))
			return e.saveSession(from, sess)
		}
	}
	return e.fallback(ctx, from, sess)
}

func (e *Engine) handleCustomerMenu(ctx context.Context, from string, sess models.Session, msg models.InboundMessage) error {
	if msg.Kind == models.KindButtonReply {
		switch msg.ReplyID {
		case btnCatalogue:
			return e.sendCatalogue(ctx, from, sess)
		case btnBackToMain, btnCustomerBack:
			return e.toMainMenu(ctx, from, sess)
		default:
			e.send(ctx, from, i18n.Text(i18n.KeyInvalidSelection, sess.Language))
			return e.saveSession(from, sess)
		}
	}
	return e.fallback(ctx, from, sess)
}

func (e *Engine) handleCarpenterMenu(ctx context.Context, from string, sess models.Session, msg models.InboundMessage) error {
	if msg.Kind == models.KindButtonReply {
		switch msg.ReplyID {
		case btnRegister:
			e.send(ctx, from, i18n.Text(i18n.KeyRegisterInfo, sess.Language, e.cfg.ServicePhone))
			return e.toCarpenterMenu(ctx, from, sess)
		case btnSchemeInfo:
			return e.sendSchemeImages(ctx, from, sess)
		case btnCashback:
			sess.State = models.StateAwaitingCarpenterCode
			e.send(ctx, from, i18n.Text(i18n.KeyAskCarpenterCode, sess.Language))
			return e.saveSession(from, sess)
		default:
			e.send(ctx, from, i18n.Text(i18n.KeyInvalidSelection, sess.Language))
			return e.saveSession(from, sess)
		}
	}
	return e.fallback(ctx, from, sess)
}

func (e *Engine) handleCarpenterCode(ctx context.Context, from string, sess models.Session, msg models.InboundMessage) error {
	if msg.Kind != models.KindText {
		e.send(ctx, from, i18n.Text(i18n.KeyAskCarpenterCode, sess.Language))
		return e.saveSession(from, sess)
	}
	code := strings.ToUpper(strings.TrimSpace(msg.Text))
	if code == "" {
		e.send(ctx, from, i18n.Text(i18n.KeyAskCarpenterCode, sess.Language))
		return e.saveSession(from, sess)
	}
	if !e.allowLookup(ctx, from, sess) {
		return e.saveSession(from, sess)
	}

	e.send(ctx, from, i18n.Text(i18n.KeyCheckingMonths, sess.Language))
	lctx, cancel := context.WithTimeout(ctx, e.cfg.LookupTimeout)
	months, err := e.data.Months(lctx, models.MaxMonthChoices)
	cancel()
	if err != nil || len(months) == 0 {
		// Stay in this state so the user can simply try again.
		slog.Warn("months lookup failed", "from", util.MaskPhone(from), "error", err)
		e.send(ctx, from, i18n.Text(i18n.KeyTempIssue, sess.Language, e.cfg.SupportPhone))
		return e.saveSession(from, sess)
	}

	sess.CarpenterCode = code
	sess.Months = months
	sess.State = models.StateAwaitingMonthSelection

	rows := make([]models.ListRow, 0, len(months))
	for i, m := range months {
		rows = append(rows, models.ListRow{
			ID:          monthRowPrefix + strconv.Itoa(i),
			Title:       m,
			Description: i18n.Text(i18n.KeyMonthRowDesc, sess.Language),
		})
	}
	body := i18n.Text(i18n.KeyChooseMonthTitle, sess.Language, code)
	if err := e.sender.SendList(ctx, from, body, i18n.Text(i18n.KeyChooseMonthBtn, sess.Language), rows); err != nil {
		slog.Error("failed to send month list", "from", util.MaskPhone(from), "error", err)
	}
	return e.saveSession(from, sess)
}

func (e *Engine) handleMonthSelection(ctx context.Context, from string, sess models.Session, msg models.InboundMessage) error {
	if msg.Kind != models.KindListReply || !strings.HasPrefix(msg.ReplyID, monthRowPrefix) {
		e.send(ctx, from, i18n.Text(i18n.KeyInvalidSelection, sess.Language))
		return e.saveSession(from, sess)
	}
	idx, err := strconv.Atoi(strings.TrimPrefix(msg.ReplyID, monthRowPrefix))
	if err != nil || idx < 0 || idx >= len(sess.Months) {
		e.send(ctx, from, i18n.Text(i18n.KeyInvalidSelection, sess.Language))
		return e.saveSession(from, sess)
	}
	month := sess.Months[idx]
	code := sess.CarpenterCode

	e.send(ctx, from, i18n.Text(i18n.KeyFetchingCashback, sess.Language))
	lctx, cancel := context.WithTimeout(ctx, e.cfg.LookupTimeout)
	result, err := e.data.Cashback(lctx, code, month)
	cancel()

	switch {
	case err != nil:
		slog.Warn("cashback lookup failed", "from", util.MaskPhone(from), "error", err)
		e.send(ctx, from, i18n.Text(i18n.KeyServerDown, sess.Language, e.cfg.SupportPhone))
	case result.Found:
		amount := result.Amount.String()
		e.send(ctx, from, i18n.Text(i18n.KeyCashbackResult, sess.Language, result.Name, month, amount, e.cfg.SupportPhone))
		e.notify(ctx, fmt.Sprintf("CASHBACK | %s | %s | %s | ₹%s", util.MaskPhone(from), code, month, amount))
	default:
		e.send(ctx, from, i18n.Text(i18n.KeyNoCashback, sess.Language, code, month))
	}

	// The lookup is done either way; drop flow fields and land back on the
	// carpenter menu.
	sess.ClearTransient()
	return e.toCarpenterMenu(ctx, from, sess)
}

// --- warranty flow ---

func (e *Engine) startWarranty(ctx context.Context, from string, sess models.Session, token string) error {
	if !e.allowLookup(ctx, from, sess) {
		return e.saveSession(from, sess)
	}
	lctx, cancel := context.WithTimeout(ctx, e.cfg.LookupTimeout)
	status, err := e.data.VerifyToken(lctx, token)
	cancel()
	if err != nil {
		slog.Warn("warranty token verification failed", "from", util.MaskPhone(from), "error", err)
		return e.endWarranty(ctx, from, i18n.Text(i18n.KeyWarrantyServiceIssue, sess.Language, e.cfg.SupportPhone))
	}
	if !status.Valid {
		return e.endWarranty(ctx, from, i18n.Text(i18n.KeyWarrantyInvalidToken, sess.Language, e.cfg.SupportPhone))
	}
	if !status.Available {
		return e.endWarranty(ctx, from, i18n.Text(i18n.KeyWarrantyTokenUsed, sess.Language, e.cfg.SupportPhone))
	}

	sess.ClearTransient()
	sess.WarrantyToken = token
	sess.State = models.StateAwaitingWarrantyBarcode
	e.send(ctx, from, i18n.Text(i18n.KeyWarrantyAskBarcode, sess.Language))
	return e.saveSession(from, sess)
}

func (e *Engine) handleWarrantyBarcode(ctx context.Context, from string, sess models.Session, msg models.InboundMessage) error {
	if msg.Kind != models.KindText {
		e.send(ctx, from, i18n.Text(i18n.KeyWarrantyBadBarcode, sess.Language))
		return e.saveSession(from, sess)
	}
	barcode := strings.TrimSpace(msg.Text)
	if !barcodeRe.MatchString(barcode) {
		e.send(ctx, from, i18n.Text(i18n.KeyWarrantyBadBarcode, sess.Language))
		return e.saveSession(from, sess)
	}

	lctx, cancel := context.WithTimeout(ctx, e.cfg.LookupTimeout)
	product, err := e.data.LookupBarcode(lctx, barcode)
	cancel()
	if err != nil {
		slog.Warn("barcode lookup failed", "from", util.MaskPhone(from), "error", err)
		return e.endWarranty(ctx, from, i18n.Text(i18n.KeyWarrantyServiceIssue, sess.Language, e.cfg.SupportPhone))
	}
	if !product.Found {
		e.send(ctx, from, i18n.Text(i18n.KeyWarrantyNotFound, sess.Language))
		return e.saveSession(from, sess)
	}

	lctx, cancel = context.WithTimeout(ctx, e.cfg.LookupTimeout)
	reg, err := e.data.RegisterWarranty(lctx, sess.WarrantyToken, barcode, from)
	cancel()
	if err != nil || !reg.Success {
		slog.Warn("warranty registration failed", "from", util.MaskPhone(from), "error", err)
		return e.endWarranty(ctx, from, i18n.Text(i18n.KeyWarrantyServiceIssue, sess.Language, e.cfg.SupportPhone))
	}

	e.notify(ctx, fmt.Sprintf("WARRANTY | %s | %s | %s | %s",
		util.MaskPhone(from), sess.WarrantyToken, barcode, product.Name))
	return e.endWarranty(ctx, from, i18n.Text(i18n.KeyWarrantyConfirm, sess.Language,
		product.Name, strconv.Itoa(reg.WarrantyMonths), reg.ExpiryDate, e.cfg.SupportPhone))
}

// endWarranty closes the warranty flow, success or not. The session is
// removed so the next message starts a fresh conversation.
func (e *Engine) endWarranty(ctx context.Context, from, body string) error {
	e.send(ctx, from, body)
	if err := e.sessions.DeleteSession(from); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// --- menu actions ---

func (e *Engine) sendCatalogue(ctx context.Context, from string, sess models.Session) error {
	e.send(ctx, from, i18n.Text(i18n.KeySendingCatalogue, sess.Language))
	if e.cfg.CatalogURL == "" {
		e.send(ctx, from, i18n.Text(i18n.KeyCatalogueUnavailable, sess.Language, e.cfg.SupportPhone))
		return e.toCustomerMenu(ctx, from, sess)
	}
	caption := i18n.Text(i18n.KeyCatalogueCaption, sess.Language)
	if err := e.sender.SendDocument(ctx, from, e.cfg.CatalogURL, e.cfg.CatalogName, caption); err != nil {
		slog.Error("failed to send catalogue", "from", util.MaskPhone(from), "error", err)
		e.send(ctx, from, i18n.Text(i18n.KeyCatalogueUnavailable, sess.Language, e.cfg.SupportPhone))
		return e.toCustomerMenu(ctx, from, sess)
	}
	e.send(ctx, from, i18n.Text(i18n.KeyCatalogueSent, sess.Language))
	e.notify(ctx, "CATALOG | "+util.MaskPhone(from))
	return e.toCustomerMenu(ctx, from, sess)
}

func (e *Engine) sendSchemeImages(ctx context.Context, from string, sess models.Session) error {
	e.send(ctx, from, i18n.Text(i18n.KeySendingScheme, sess.Language))
	if len(e.cfg.SchemeImages) == 0 {
		e.send(ctx, from, i18n.Text(i18n.KeySchemeUnavailable, sess.Language, e.cfg.SupportPhone))
		return e.toCarpenterMenu(ctx, from, sess)
	}
	var failed bool
	for _, link := range e.cfg.SchemeImages {
		if err := e.sender.SendImage(ctx, from, link, ""); err != nil {
			slog.Error("failed to send scheme image", "from", util.MaskPhone(from), "error", err)
			failed = true
			break
		}
	}
	if failed {
		e.send(ctx, from, i18n.Text(i18n.KeySchemeUnavailable, sess.Language, e.cfg.SupportPhone))
	} else {
		e.send(ctx, from, i18n.Text(i18n.KeySchemeSent, sess.Language))
	}
	return e.toCarpenterMenu(ctx, from, sess)
}

// --- transitions ---

func (e *Engine) toLanguageSelect(ctx context.Context, from string, sess models.Session) error {
	sess.State = models.StateLanguageSelect
	buttons := []models.Button{
		{ID: btnLangEnglish, Title: "English"},
		{ID: btnLangTamil, Title: "தமிழ்"},
	}
	if err := e.sender.SendButtons(ctx, from, i18n.Text(i18n.KeyLanguageChooser, sess.Language), buttons); err != nil {
		slog.Error("failed to send language chooser", "from", util.MaskPhone(from), "error", err)
	}
	return e.saveSession(from, sess)
}

func (e *Engine) toMainMenu(ctx context.Context, from string, sess models.Session) error {
	sess.State = models.StateMainMenu
	buttons := []models.Button{
		{ID: btnCustomer, Title: i18n.Text(i18n.KeyBtnCustomer, sess.Language)},
		{ID: btnCarpenter, Title: i18n.Text(i18n.KeyBtnCarpenter, sess.Language)},
		{ID: btnTalkToUs, Title: i18n.Text(i18n.KeyBtnTalkToUs, sess.Language)},
	}
	if err := e.sender.SendButtons(ctx, from, i18n.Text(i18n.KeyMainMenuBody, sess.Language), buttons); err != nil {
		slog.Error("failed to send main menu", "from", util.MaskPhone(from), "error", err)
	}
	return e.saveSession(from, sess)
}

func (e *Engine) toCustomerMenu(ctx context.Context, from string, sess models.Session) error {
	sess.State = models.StateCustomerMenu
	buttons := []models.Button{
		{ID: btnCatalogue, Title: i18n.Text(i18n.KeyBtnViewCatalogue, sess.Language)},
		{ID: btnBackToMain, Title: i18n.Text(i18n.KeyBtnBackToMain, sess.Language)},
	}
	if err := e.sender.SendButtons(ctx, from, i18n.Text(i18n.KeyCustomerMenuBody, sess.Language), buttons); err != nil {
		slog.Error("failed to send customer menu", "from", util.MaskPhone(from), "error", err)
	}
	return e.saveSession(from, sess)
}

func (e *Engine) toCarpenterMenu(ctx context.Context, from string, sess models.Session) error {
	sess.State = models.StateCarpenterMenu
	buttons := []models.Button{
		{ID: btnRegister, Title: i18n.Text(i18n.KeyBtnRegister, sess.Language)},
		{ID: btnSchemeInfo, Title: i18n.Text(i18n.KeyBtnSchemeInfo, sess.Language)},
		{ID: btnCashback, Title: i18n.Text(i18n.KeyBtnCheckCashback, sess.Language)},
	}
	if err := e.sender.SendButtons(ctx, from, i18n.Text(i18n.KeyCarpenterMenuBody, sess.Language), buttons); err != nil {
		slog.Error("failed to send carpenter menu", "from", util.MaskPhone(from), "error", err)
	}
	return e.saveSession(from, sess)
}

func (e *Engine) fallback(ctx context.Context, from string, sess models.Session) error {
	e.send(ctx, from, i18n.Text(i18n.KeyFallback, sess.Language))
	sess.ClearTransient()
	return e.toMainMenu(ctx, from, sess)
}

// --- helpers ---

// send delivers a plain text reply, logging instead of failing the turn.
func (e *Engine) send(ctx context.Context, to string, body string) {
	if err := e.sender.SendText(ctx, to, body); err != nil {
		slog.Error("failed to send reply", "to", util.MaskPhone(to), "error", err)
	}
}

func (e *Engine) notify(ctx context.Context, text string) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(ctx, text)
}

// allowLookup checks the daily lookup cap, answering the user when it is hit.
func (e *Engine) allowLookup(ctx context.Context, from string, sess models.Session) bool {
	if e.limiter == nil || e.limiter.Allow(from) {
		return true
	}
	slog.Info("daily lookup limit reached", "from", util.MaskPhone(from))
	e.send(ctx, from, i18n.Text(i18n.KeyDailyLimitReached, sess.Language, e.cfg.SupportPhone))
	return false
}

func (e *Engine) saveSession(phone string, sess models.Session) error {
	if err := e.sessions.SaveSession(phone, sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
