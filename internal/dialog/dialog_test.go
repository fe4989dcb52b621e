package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/gajahardware/gajabot/internal/messaging"
	"github.com/gajahardware/gajabot/internal/models"
	"github.com/gajahardware/gajabot/internal/sheets"
	"github.com/gajahardware/gajabot/internal/store"
)

const testPhone = "911234567890"

// fakeData is a scriptable DataService.
type fakeData struct {
	months    []string
	monthsErr error

	cashback    sheets.CashbackResult
	cashbackErr error

	tokenStatus sheets.TokenStatus
	tokenErr    error

	product    sheets.Product
	productErr error

	registration sheets.Registration
	registerErr  error

	// recorded arguments
	cashbackCode  string
	cashbackMonth string
	verifiedToken string
	lookedUpCode  string
	registeredTo  string
}

func (f *fakeData) Months(ctx context.Context, n int) ([]string, error) {
	if f.monthsErr != nil {
		return nil, f.monthsErr
	}
	if len(f.months) > n {
		return f.months[:n], nil
	}
	return f.months, nil
}

func (f *fakeData) Cashback(ctx context.Context, code, month string) (sheets.CashbackResult, error) {
	f.cashbackCode, f.cashbackMonth = code, month
	return f.cashback, f.cashbackErr
}

func (f *fakeData) VerifyToken(ctx context.Context, token string) (sheets.TokenStatus, error) {
	f.verifiedToken = token
	return f.tokenStatus, f.tokenErr
}

func (f *fakeData) LookupBarcode(ctx context.Context, code string) (sheets.Product, error) {
	f.lookedUpCode = code
	return f.product, f.productErr
}

func (f *fakeData) RegisterWarranty(ctx context.Context, token, barcode, phone string) (sheets.Registration, error) {
	f.registeredTo = phone
	return f.registration, f.registerErr
}

type fakeNotifier struct {
	lines []string
}

func (f *fakeNotifier) Notify(ctx context.Context, text string) {
	f.lines = append(f.lines, text)
}

type fixture struct {
	engine   *Engine
	sessions *store.InMemoryStore
	sender   *messaging.MockService
	data     *fakeData
	notifier *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sessions: store.NewInMemoryStore(),
		sender:   messaging.NewMockService(),
		data:     &fakeData{},
		notifier: &fakeNotifier{},
	}
	f.engine = NewEngine(f.sessions, f.data, f.sender, f.notifier, nil, Config{
		SupportPhone: "+919876500000",
		ServicePhone: "+919876511111",
		CatalogURL:   "https://cdn.example.com/catalog.pdf",
		CatalogName:  "GAJA-Catalogue.pdf",
		SchemeImages: []string{"https://cdn.example.com/s1.jpg", "https://cdn.example.com/s2.jpg"},
	})
	return f
}

func (f *fixture) text(t *testing.T, body string) {
	t.Helper()
	err := f.engine.HandleMessage(context.Background(), models.InboundMessage{
		From: testPhone, MessageID: "m", Kind: models.KindText, Text: body,
	})
	if err != nil {
		t.Fatalf("HandleMessage(%q) failed: %v", body, err)
	}
}

func (f *fixture) button(t *testing.T, id string) {
	t.Helper()
	err := f.engine.HandleMessage(context.Background(), models.InboundMessage{
		From: testPhone, MessageID: "m", Kind: models.KindButtonReply, ReplyID: id,
	})
	if err != nil {
		t.Fatalf("HandleMessage(button %q) failed: %v", id, err)
	}
}

func (f *fixture) list(t *testing.T, id string) {
	t.Helper()
	err := f.engine.HandleMessage(context.Background(), models.InboundMessage{
		From: testPhone, MessageID: "m", Kind: models.KindListReply, ReplyID: id,
	})
	if err != nil {
		t.Fatalf("HandleMessage(list %q) failed: %v", id, err)
	}
}

func (f *fixture) state(t *testing.T) models.State {
	t.Helper()
	sess, err := f.sessions.GetSession(testPhone)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	return sess.State
}

func (f *fixture) session(t *testing.T) models.Session {
	t.Helper()
	sess, err := f.sessions.GetSession(testPhone)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	return sess
}

func TestFreshUserGetsLanguageChooser(t *testing.T) {
	f := newFixture(t)
	f.text(t, "hi")

	if got := f.state(t); got != models.StateLanguageSelect {
		t.Errorf("expected LANGUAGE_SELECT, got %s", got)
	}
	if len(f.sender.ButtonMessages) != 1 {
		t.Fatalf("expected 1 button menu, got %d", len(f.sender.ButtonMessages))
	}
	menu := f.sender.ButtonMessages[0]
	if len(menu.Buttons) != 2 || menu.Buttons[0].ID != "lang_en" || menu.Buttons[1].ID != "lang_ta" {
		t.Errorf("unexpected language buttons: %v", menu.Buttons)
	}
}

func TestLanguageSelectionLeadsToMainMenu(t *testing.T) {
	f := newFixture(t)
	f.text(t, "hi")
	f.button(t, "lang_ta")

	sess := f.session(t)
	if sess.State != models.StateMainMenu {
		t.Errorf("expected MAIN_MENU, got %s", sess.State)
	}
	if sess.Language != models.LanguageTamil {
		t.Errorf("expected Tamil, got %q", sess.Language)
	}
	// Main menu copy should be in Tamil now.
	menu := f.sender.ButtonMessages[len(f.sender.ButtonMessages)-1]
	if !strings.Contains(menu.Body, "வணக்கம்") {
		t.Errorf("expected Tamil main menu body, got %q", menu.Body)
	}
}

func TestLanguageSelectIgnoresFreeText(t *testing.T) {
	f := newFixture(t)
	f.text(t, "hi")
	f.text(t, "something else")

	if got := f.state(t); got != models.StateLanguageSelect {
		t.Errorf("expected to remain in LANGUAGE_SELECT, got %s", got)
	}
	if len(f.sender.ButtonMessages) != 2 {
		t.Errorf("chooser should be re-sent, got %d menus", len(f.sender.ButtonMessages))
	}
}

// Scenario: a customer browses to the catalogue and receives the PDF.
func TestCustomerCatalogueFlow(t *testing.T) {
	f := newFixture(t)
	f.text(t, "hi")
	f.button(t, "lang_en")
	f.button(t, "main_customer")

	if got := f.state(t); got != models.StateCustomerMenu {
		t.Fatalf("expected CUSTOMER_MENU, got %s", got)
	}

	f.button(t, "cust_catalog")
	if len(f.sender.DocumentMessages) != 1 {
		t.Fatalf("expected 1 document send, got %d", len(f.sender.DocumentMessages))
	}
	doc := f.sender.DocumentMessages[0]
	if doc.Link != "https://cdn.example.com/catalog.pdf" || doc.Filename != "GAJA-Catalogue.pdf" {
		t.Errorf("unexpected document: %+v", doc)
	}
	if got := f.state(t); got != models.StateCustomerMenu {
		t.Errorf("catalogue send should keep CUSTOMER_MENU, got %s", got)
	}
	// The customer menu comes back after the send so the user can keep going.
	if len(f.sender.ButtonMessages) != 4 {
		t.Fatalf("expected 4 button menus (chooser, main, customer x2), got %d", len(f.sender.ButtonMessages))
	}
	menu := f.sender.ButtonMessages[len(f.sender.ButtonMessages)-1]
	if menu.Buttons[0].ID != "cust_catalog" {
		t.Errorf("expected customer menu re-send, got buttons %v", menu.Buttons)
	}
	if len(f.notifier.lines) != 1 || !strings.HasPrefix(f.notifier.lines[0], "CATALOG | ") {
		t.Errorf("expected CATALOG notification, got %v", f.notifier.lines)
	}
}

func TestCatalogueUnavailableWithoutURL(t *testing.T) {
	f := newFixture(t)
	f.engine.cfg.CatalogURL = ""
	f.text(t, "hi")
	f.button(t, "lang_en")
	f.button(t, "main_customer")
	f.button(t, "cust_catalog")

	if len(f.sender.DocumentMessages) != 0 {
		t.Error("no document should be sent without a URL")
	}
	last := f.sender.TextMessages[len(f.sender.TextMessages)-1]
	if !strings.Contains(last.Body, "temporarily unavailable") {
		t.Errorf("expected unavailable message, got %q", last.Body)
	}
}

// Scenario: a carpenter checks cashback end to end.
func TestCarpenterCashbackFlow(t *testing.T) {
	f := newFixture(t)
	f.data.months = []string{"Jan 2026", "Dec 2025", "Nov 2025"}
	f.data.cashback = sheets.CashbackResult{Found: true, Name: "Murugan", Amount: json.Number("1500")}

	f.text(t, "hi")
	f.button(t, "lang_en")
	f.button(t, "main_carpenter")
	f.button(t, "carp_cashback")

	if got := f.state(t); got != models.StateAwaitingCarpenterCode {
		t.Fatalf("expected AWAITING_CARPENTER_CODE, got %s", got)
	}

	f.text(t, "abc123")
	sess := f.session(t)
	if sess.State != models.StateAwaitingMonthSelection {
		t.Fatalf("expected AWAITING_MONTH_SELECTION, got %s", sess.State)
	}
	if sess.CarpenterCode != "ABC123" {
		t.Errorf("code should be uppercased, got %q", sess.CarpenterCode)
	}
	if len(f.sender.ListMessages) != 1 {
		t.Fatalf("expected 1 month list, got %d", len(f.sender.ListMessages))
	}
	rows := f.sender.ListMessages[0].Rows
	if len(rows) != 3 || rows[0].ID != "month_0" || rows[0].Title != "Jan 2026" {
		t.Errorf("unexpected month rows: %v", rows)
	}

	f.list(t, "month_0")
	if f.data.cashbackCode != "ABC123" || f.data.cashbackMonth != "Jan 2026" {
		t.Errorf("cashback queried with %q/%q", f.data.cashbackCode, f.data.cashbackMonth)
	}
	var resultSent bool
	for _, m := range f.sender.TextMessages {
		if strings.Contains(m.Body, "Murugan") && strings.Contains(m.Body, "₹1500") {
			resultSent = true
		}
	}
	if !resultSent {
		t.Error("cashback result message not sent")
	}

	sess = f.session(t)
	if sess.State != models.StateCarpenterMenu {
		t.Errorf("expected return to CARPENTER_MENU, got %s", sess.State)
	}
	if sess.CarpenterCode != "" || sess.Months != nil {
		t.Errorf("transient fields should be cleared: %+v", sess)
	}

	var notified bool
	for _, line := range f.notifier.lines {
		if strings.HasPrefix(line, "CASHBACK | ") && strings.Contains(line, "ABC123") && strings.Contains(line, "₹1500") {
			notified = true
		}
	}
	if !notified {
		t.Errorf("expected CASHBACK notification, got %v", f.notifier.lines)
	}
}

func TestCashbackNotFound(t *testing.T) {
	f := newFixture(t)
	f.data.months = []string{"Jan 2026"}
	f.data.cashback = sheets.CashbackResult{Found: false}

	f.text(t, "hi")
	f.button(t, "lang_en")
	f.button(t, "main_carpenter")
	f.button(t, "carp_cashback")
	f.text(t, "XYZ999")
	f.list(t, "month_0")

	last := f.sender.TextMessages[len(f.sender.TextMessages)-1]
	if !strings.Contains(last.Body, "No cashback recorded") {
		t.Errorf("expected no-cashback message, got %q", last.Body)
	}
	if len(f.notifier.lines) != 0 {
		t.Errorf("no notification expected on miss, got %v", f.notifier.lines)
	}
}

func TestMonthsFetchFailureKeepsState(t *testing.T) {
	f := newFixture(t)
	f.data.monthsErr = errors.New("boom")

	f.text(t, "hi")
	f.button(t, "lang_en")
	f.button(t, "main_carpenter")
	f.button(t, "carp_cashback")
	f.text(t, "ABC123")

	if got := f.state(t); got != models.StateAwaitingCarpenterCode {
		t.Errorf("expected to remain awaiting code, got %s", got)
	}
	last := f.sender.TextMessages[len(f.sender.TextMessages)-1]
	if !strings.Contains(last.Body, "Temporary issue") {
		t.Errorf("expected temp issue message, got %q", last.Body)
	}
}

func TestCashbackLookupFailureReturnsToCarpenterMenu(t *testing.T) {
	f := newFixture(t)
	f.data.months = []string{"Jan 2026"}
	f.data.cashbackErr = errors.New("boom")

	f.text(t, "hi")
	f.button(t, "lang_en")
	f.button(t, "main_carpenter")
	f.button(t, "carp_cashback")
	f.text(t, "ABC123")
	f.list(t, "month_0")

	if got := f.state(t); got != models.StateCarpenterMenu {
		t.Errorf("expected CARPENTER_MENU after failure, got %s", got)
	}
}

func TestInvalidMonthSelection(t *testing.T) {
	f := newFixture(t)
	f.data.months = []string{"Jan 2026"}

	f.text(t, "hi")
	f.button(t, "lang_en")
	f.button(t, "main_carpenter")
	f.button(t, "carp_cashback")
	f.text(t, "ABC123")
	f.list(t, "month_9")

	if got := f.state(t); got != models.StateAwaitingMonthSelection {
		t.Errorf("out-of-range selection should keep state, got %s", got)
	}
}

// Scenario: a warranty card token arrives mid-menu and is registered.
func TestWarrantyRegistrationFlow(t *testing.T) {
	f := newFixture(t)
	f.data.tokenStatus = sheets.TokenStatus{Valid: true, Available: true}
	f.data.product = sheets.Product{Found: true, Name: "GAJA Door Lock", Model: "DL-200"}
	f.data.registration = sheets.Registration{Success: true, WarrantyMonths: 12, ExpiryDate: "2027-08-30"}

	f.text(t, "hi")
	f.button(t, "lang_en")
	f.text(t, "gaja ab12cd34")

	sess := f.session(t)
	if sess.State != models.StateAwaitingWarrantyBarcode {
		t.Fatalf("expected AWAITING_WARRANTY_BARCODE, got %s", sess.State)
	}
	if sess.WarrantyToken != "GAJA AB12CD34" {
		t.Errorf("token should be uppercased, got %q", sess.WarrantyToken)
	}
	if f.data.verifiedToken != "GAJA AB12CD34" {
		t.Errorf("verification used token %q", f.data.verifiedToken)
	}

	f.text(t, "528941")
	var confirmed bool
	for _, m := range f.sender.TextMessages {
		if strings.Contains(m.Body, "Warranty registered") && strings.Contains(m.Body, "GAJA Door Lock") {
			confirmed = true
		}
	}
	if !confirmed {
		t.Error("confirmation message not sent")
	}
	if f.data.registeredTo != testPhone {
		t.Errorf("registration used phone %q", f.data.registeredTo)
	}

	// The conversation ends: the next contact starts fresh.
	if got := f.state(t); got != models.StateInitial {
		t.Errorf("session should be gone after registration, got %s", got)
	}

	var notified bool
	for _, line := range f.notifier.lines {
		if strings.HasPrefix(line, "WARRANTY | ") && strings.Contains(line, "528941") {
			notified = true
		}
	}
	if !notified {
		t.Errorf("expected WARRANTY notification, got %v", f.notifier.lines)
	}
}

func TestWarrantyTokenRecognition(t *testing.T) {
	cases := []struct {
		text  string
		match bool
	}{
		{"GAJA AB12CD34", true},
		{"gaja ab12cd34", true},
		{"  GAJA AB12CD34  ", true},
		{"GAJA  AB12CD34", true}, // multiple spaces
		{"GAJAAB12CD34", false},  // no separator
		{"GAJA AB12CD3", false},  // 7 chars
		{"GAJA AB12CD345", false},
		{"GAJA AB12-D34", false},
		{"MY GAJA AB12CD34", false}, // not the whole message
	}
	for _, tc := range cases {
		got := warrantyTokenRe.MatchString(strings.TrimSpace(tc.text))
		if got != tc.match {
			t.Errorf("token match %q = %v, want %v", tc.text, got, tc.match)
		}
	}
}

func TestWarrantyInvalidToken(t *testing.T) {
	f := newFixture(t)
	f.data.tokenStatus = sheets.TokenStatus{Valid: false}

	f.text(t, "hi")
	f.button(t, "lang_en")
	f.text(t, "GAJA AB12CD34")

	// A rejected token ends the conversation; the next contact starts fresh.
	if got := f.state(t); got != models.StateInitial {
		t.Errorf("invalid token should clear the session, got %s", got)
	}
	last := f.sender.TextMessages[len(f.sender.TextMessages)-1]
	if !strings.Contains(last.Body, "not valid") {
		t.Errorf("expected invalid-token message, got %q", last.Body)
	}
}

func TestWarrantyTokenAlreadyUsed(t *testing.T) {
	f := newFixture(t)
	f.data.tokenStatus = sheets.TokenStatus{Valid: true, Available: false}

	f.text(t, "hi")
	f.button(t, "lang_en")
	f.text(t, "GAJA AB12CD34")

	last := f.sender.TextMessages[len(f.sender.TextMessages)-1]
	if !strings.Contains(last.Body, "already been used") {
		t.Errorf("expected token-used message, got %q", last.Body)
	}
	if got := f.state(t); got != models.StateInitial {
		t.Errorf("used token should clear the session, got %s", got)
	}
}

func TestWarrantyVerifyFailureEndsSession(t *testing.T) {
	f := newFixture(t)
	f.data.tokenErr = errors.New("boom")

	f.text(t, "hi")
	f.button(t, "lang_en")
	f.text(t, "GAJA AB12CD34")

	if got := f.state(t); got != models.StateInitial {
		t.Errorf("verify failure should clear the session, got %s", got)
	}
	last := f.sender.TextMessages[len(f.sender.TextMessages)-1]
	if !strings.Contains(last.Body, "Warranty service is temporarily unavailable") {
		t.Errorf("expected service-issue message, got %q", last.Body)
	}
}

func TestWarrantyRegistrationFailureEndsSession(t *testing.T) {
	f := newFixture(t)
	f.data.tokenStatus = sheets.TokenStatus{Valid: true, Available: true}
	f.data.product = sheets.Product{Found: true, Name: "GAJA Door Lock"}
	f.data.registration = sheets.Registration{Success: false}

	f.text(t, "hi")
	f.button(t, "lang_en")
	f.text(t, "GAJA AB12CD34")
	f.text(t, "528941")

	if got := f.state(t); got != models.StateInitial {
		t.Errorf("registration failure should clear the session, got %s", got)
	}
	if len(f.notifier.lines) != 0 {
		t.Errorf("no notification expected on failure, got %v", f.notifier.lines)
	}
}

func TestWarrantyBadBarcodeRetries(t *testing.T) {
	f := newFixture(t)
	f.data.tokenStatus = sheets.TokenStatus{Valid: true, Available: true}

	f.text(t, "hi")
	f.button(t, "lang_en")
	f.text(t, "GAJA AB12CD34")
	f.text(t, "12345") // five digits

	if got := f.state(t); got != models.StateAwaitingWarrantyBarcode {
		t.Errorf("bad barcode should keep state, got %s", got)
	}
	last := f.sender.TextMessages[len(f.sender.TextMessages)-1]
	if !strings.Contains(last.Body, "6 digits") {
		t.Errorf("expected barcode format message, got %q", last.Body)
	}
}

func TestWarrantyBarcodeNotFound(t *testing.T) {
	f := newFixture(t)
	f.data.tokenStatus = sheets.TokenStatus{Valid: true, Available: true}
	f.data.product = sheets.Product{Found: false}

	f.text(t, "hi")
	f.button(t, "lang_en")
	f.text(t, "GAJA AB12CD34")
	f.text(t, "528941")

	if got := f.state(t); got != models.StateAwaitingWarrantyBarcode {
		t.Errorf("unknown barcode should keep state, got %s", got)
	}
}

func TestGlobalMenuCommandPreservesLanguage(t *testing.T) {
	f := newFixture(t)
	f.data.months = []string{"Jan 2026"}

	f.text(t, "hi")
	f.button(t, "lang_ta")
	f.button(t, "main_carpenter")
	f.button(t, "carp_cashback")
	f.text(t, "0")

	sess := f.session(t)
	if sess.State != models.StateMainMenu {
		t.Errorf("expected MAIN_MENU, got %s", sess.State)
	}
	if sess.Language != models.LanguageTamil {
		t.Errorf("language should survive the menu command, got %q", sess.Language)
	}
	if sess.CarpenterCode != "" {
		t.Error("transient fields should be cleared by menu command")
	}
}

func TestRestartCommandResetsLanguage(t *testing.T) {
	f := newFixture(t)
	f.text(t, "hi")
	f.button(t, "lang_ta")
	f.text(t, "hello")

	sess := f.session(t)
	if sess.State != models.StateLanguageSelect {
		t.Errorf("expected LANGUAGE_SELECT, got %s", sess.State)
	}
	if sess.Language != models.LanguageUnset {
		t.Errorf("restart should reset language, got %q", sess.Language)
	}
}

func TestExitCommandDeletesSession(t *testing.T) {
	f := newFixture(t)
	f.text(t, "hi")
	f.button(t, "lang_en")
	f.text(t, "bye")

	last := f.sender.TextMessages[len(f.sender.TextMessages)-1]
	if !strings.Contains(last.Body, "Goodbye") {
		t.Errorf("expected goodbye message, got %q", last.Body)
	}
	if got := f.state(t); got != models.StateInitial {
		t.Errorf("session should be deleted, got %s", got)
	}
}

func TestUnrecognizedButtonKeepsState(t *testing.T) {
	f := newFixture(t)
	f.text(t, "hi")
	f.button(t, "lang_en")
	f.button(t, "carp_cashback") // stale button from another menu

	if got := f.state(t); got != models.StateMainMenu {
		t.Errorf("stale button should not change state, got %s", got)
	}
}

func TestFreeTextFallbackFromMainMenu(t *testing.T) {
	f := newFixture(t)
	f.text(t, "hi")
	f.button(t, "lang_en")
	f.text(t, "what are your store hours?")

	if got := f.state(t); got != models.StateMainMenu {
		t.Errorf("fallback should land on MAIN_MENU, got %s", got)
	}
	var apology bool
	for _, m := range f.sender.TextMessages {
		if strings.Contains(m.Body, "didn't understand") {
			apology = true
		}
	}
	if !apology {
		t.Error("fallback message not sent")
	}
}

func TestTalkToUsNotifiesTeam(t *testing.T) {
	f := newFixture(t)
	f.text(t, "hi")
	f.button(t, "lang_en")
	f.button(t, "main_talk")

	if got := f.state(t); got != models.StateMainMenu {
		t.Errorf("talk-to-us should keep MAIN_MENU, got %s", got)
	}
	if len(f.notifier.lines) != 1 || !strings.HasPrefix(f.notifier.lines[0], "TALK_TO_US | ") {
		t.Errorf("expected TALK_TO_US notification, got %v", f.notifier.lines)
	}
	if strings.Contains(f.notifier.lines[0], testPhone) {
		t.Error("notification must not carry the full phone number")
	}
}

func TestSchemeImagesSent(t *testing.T) {
	f := newFixture(t)
	f.text(t, "hi")
	f.button(t, "lang_en")
	f.button(t, "main_carpenter")
	f.button(t, "carp_scheme")

	if len(f.sender.ImageMessages) != 2 {
		t.Errorf("expected 2 scheme images, got %d", len(f.sender.ImageMessages))
	}
	if got := f.state(t); got != models.StateCarpenterMenu {
		t.Errorf("scheme send should keep CARPENTER_MENU, got %s", got)
	}
	menu := f.sender.ButtonMessages[len(f.sender.ButtonMessages)-1]
	if menu.Buttons[0].ID != "carp_register" {
		t.Errorf("expected carpenter menu re-send, got buttons %v", menu.Buttons)
	}
}

func TestRegisterInfoReShowsCarpenterMenu(t *testing.T) {
	f := newFixture(t)
	f.text(t, "hi")
	f.button(t, "lang_en")
	f.button(t, "main_carpenter")
	f.button(t, "carp_register")

	last := f.sender.TextMessages[len(f.sender.TextMessages)-1]
	if !strings.Contains(last.Body, "+919876511111") {
		t.Errorf("expected registration info with service number, got %q", last.Body)
	}
	if got := f.state(t); got != models.StateCarpenterMenu {
		t.Errorf("register info should keep CARPENTER_MENU, got %s", got)
	}
	if len(f.sender.ButtonMessages) != 4 {
		t.Fatalf("expected 4 button menus (chooser, main, carpenter x2), got %d", len(f.sender.ButtonMessages))
	}
	menu := f.sender.ButtonMessages[len(f.sender.ButtonMessages)-1]
	if menu.Buttons[0].ID != "carp_register" {
		t.Errorf("expected carpenter menu re-send, got buttons %v", menu.Buttons)
	}
}

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }

func TestLookupLimitAnswersInBand(t *testing.T) {
	f := newFixture(t)
	f.engine.limiter = denyAllLimiter{}
	f.data.months = []string{"Jan 2026"}

	f.text(t, "hi")
	f.button(t, "lang_en")
	f.button(t, "main_carpenter")
	f.button(t, "carp_cashback")
	f.text(t, "ABC123")

	if got := f.state(t); got != models.StateAwaitingCarpenterCode {
		t.Errorf("limited lookup should keep state, got %s", got)
	}
	last := f.sender.TextMessages[len(f.sender.TextMessages)-1]
	if !strings.Contains(last.Body, "limit reached") {
		t.Errorf("expected limit message, got %q", last.Body)
	}
	if len(f.sender.ListMessages) != 0 {
		t.Error("no month list should be sent when limited")
	}
}
