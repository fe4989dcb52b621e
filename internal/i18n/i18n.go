// Package i18n holds every user-facing string in both supported languages.
//
// Copy is looked up by (message key, language); English is the fallback when a
// session has no language yet. Keeping the catalog here decouples copy from
// the dialogue control flow.
package i18n

import (
	"fmt"
	"log/slog"

	"github.com/gajahardware/gajabot/internal/models"
)

// Key identifies one piece of user-facing copy.
type Key string

// Message keys. Formatting arguments are noted per key.
const (
	// KeyLanguageChooser is intentionally bilingual; it is shown before a
	// language exists.
	KeyLanguageChooser Key = "language_chooser"

	KeyMainMenuBody      Key = "main_menu_body"
	KeyBtnCustomer       Key = "btn_customer"
	KeyBtnCarpenter      Key = "btn_carpenter"
	KeyBtnTalkToUs       Key = "btn_talk_to_us"
	KeyTalkToUsAck       Key = "talk_to_us_ack"
	KeyCustomerMenuBody  Key = "customer_menu_body"
	KeyBtnViewCatalogue  Key = "btn_view_catalogue"
	KeyBtnBackToMain     Key = "btn_back_to_main"
	KeyCarpenterMenuBody Key = "carpenter_menu_body"
	KeyBtnRegister       Key = "btn_register"
	KeyBtnSchemeInfo     Key = "btn_scheme_info"
	KeyBtnCheckCashback  Key = "btn_check_cashback"

	KeySendingCatalogue     Key = "sending_catalogue"
	KeyCatalogueSent        Key = "catalogue_sent"
	KeyCatalogueUnavailable Key = "catalogue_unavailable" // arg: support phone
	KeyCatalogueCaption     Key = "catalogue_caption"

	KeyRegisterInfo      Key = "register_info" // arg: registration contact
	KeySendingScheme     Key = "sending_scheme"
	KeySchemeSent        Key = "scheme_sent"
	KeySchemeUnavailable Key = "scheme_unavailable" // arg: support phone

	KeyAskCarpenterCode Key = "ask_carpenter_code"
	KeyCheckingMonths   Key = "checking_months"
	KeyChooseMonthTitle Key = "choose_month_title" // arg: carpenter code
	KeyChooseMonthBtn   Key = "choose_month_btn"
	KeyMonthRowDesc     Key = "month_row_desc"
	KeyFetchingCashback Key = "fetching_cashback"
	KeyCashbackResult   Key = "cashback_result" // args: name, month, amount, support phone
	KeyNoCashback       Key = "no_cashback"     // args: code, month
	KeyTempIssue        Key = "temp_issue"      // arg: support phone
	KeyServerDown       Key = "server_down"     // arg: support phone

	KeyWarrantyAskBarcode    Key = "warranty_ask_barcode"
	KeyWarrantyInvalidToken  Key = "warranty_invalid_token" // arg: support phone
	KeyWarrantyTokenUsed     Key = "warranty_token_used"    // arg: support phone
	KeyWarrantyBadBarcode    Key = "warranty_bad_barcode"
	KeyWarrantyNotFound      Key = "warranty_not_found"
	KeyWarrantyConfirm       Key = "warranty_confirm" // args: product, months, expiry, support phone
	KeyWarrantyServiceIssue  Key = "warranty_service_issue" // arg: support phone
	KeyInvalidSelection      Key = "invalid_selection"
	KeyFallback              Key = "fallback"
	KeyGoodbye               Key = "goodbye"
	KeyDailyLimitReached     Key = "daily_limit_reached" // arg: support phone
)

var catalog = map[Key]map[models.Language]string{
	KeyLanguageChooser: {
		models.LanguageEnglish: "Welcome to GAJA!\n\nGAJA-விற்கு வரவேற்கிறோம்! உங்கள் மொழியைத் தேர்ந்தெடுக்கவும்.",
	},
	KeyMainMenuBody: {
		models.LanguageEnglish: "Welcome! How can we help you today?",
		models.LanguageTamil:   "வணக்கம்! எப்படி உதவலாம்?",
	},
	KeyBtnCustomer: {
		models.LanguageEnglish: "Customer",
		models.LanguageTamil:   "வாடிக்கையாளர்",
	},
	KeyBtnCarpenter: {
		models.LanguageEnglish: "Carpenter",
		models.LanguageTamil:   "கார்பென்டர்",
	},
	KeyBtnTalkToUs: {
		models.LanguageEnglish: "Talk to Us",
		models.LanguageTamil:   "பேச வேண்டுமா?",
	},
	KeyTalkToUsAck: {
		models.LanguageEnglish: "Thank you! We'll call you soon.",
		models.LanguageTamil:   "நன்றி! விரைவில் அழைக்கிறோம்.",
	},
	KeyCustomerMenuBody: {
		models.LanguageEnglish: "Customer Menu",
		models.LanguageTamil:   "வாடிக்கையாளர் மெனு",
	},
	KeyBtnViewCatalogue: {
		models.LanguageEnglish: "View Catalogue",
		models.LanguageTamil:   "கேட்டலாக் பார்க்க",
	},
	KeyBtnBackToMain: {
		models.LanguageEnglish: "Back to Main",
		models.LanguageTamil:   "முகப்புக்கு",
	},
	KeyCarpenterMenuBody: {
		models.LanguageEnglish: "Carpenter Menu\n\nType 0 or 'menu' anytime to go back",
		models.LanguageTamil:   "கார்பென்டர் மெனு\n\nஎப்போது வேண்டுமானாலும் 0 அல்லது 'menu' என தட்டச்சு செய்து முகப்புக்கு செல்லலாம்",
	},
	KeyBtnRegister: {
		models.LanguageEnglish: "Register",
		models.LanguageTamil:   "பதிவு",
	},
	KeyBtnSchemeInfo: {
		models.LanguageEnglish: "Scheme Info",
		models.LanguageTamil:   "ஸ்கீம்",
	},
	KeyBtnCheckCashback: {
		models.LanguageEnglish: "Check Cashback",
		models.LanguageTamil:   "கேஷ்பேக்",
	},
	KeySendingCatalogue: {
		models.LanguageEnglish: "📄 Sending catalogue...",
		models.LanguageTamil:   "📄 கேட்டலாக் அனுப்பப்படுகிறது...",
	},
	KeyCatalogueSent: {
		models.LanguageEnglish: "✅ Catalogue sent successfully!",
		models.LanguageTamil:   "✅ கேட்டலாக் வெற்றிகரமாக அனுப்பப்பட்டது!",
	},
	KeyCatalogueUnavailable: {
		models.LanguageEnglish: "❌ Catalogue temporarily unavailable.\nPlease call %s",
		models.LanguageTamil:   "❌ கேட்டலாக் தற்காலிகமாக கிடைக்கவில்லை.\nதயவுசெய்து %s அழைக்கவும்",
	},
	KeyCatalogueCaption: {
		models.LanguageEnglish: "Latest GAJA Catalogue",
		models.LanguageTamil:   "புதிய GAJA கேட்டலாக்",
	},
	KeyRegisterInfo: {
		models.LanguageEnglish: "📝 *Carpenter Registration*\n\nTo register as a GAJA Carpenter, please contact:\n\n📞 GAJA Service: %s\n\nOur team will assist you with the registration process!",
		models.LanguageTamil:   "📝 *கார்பென்டர் பதிவு*\n\nGAJA கார்பென்டராக பதிவு செய்ய, தொடர்பு கொள்ளவும்:\n\n📞 GAJA சேவை: %s\n\nஎங்கள் குழு உங்களுக்கு பதிவு செயல்முறையில் உதவும்!",
	},
	KeySendingScheme: {
		models.LanguageEnglish: "📸 Sending scheme details...",
		models.LanguageTamil:   "📸 ஸ்கீம் விவரங்கள் அனுப்பப்படுகிறது...",
	},
	KeySchemeSent: {
		models.LanguageEnglish: "✅ Scheme details sent!",
		models.LanguageTamil:   "✅ ஸ்கீம் விவரங்கள் அனுப்பப்பட்டது!",
	},
	KeySchemeUnavailable: {
		models.LanguageEnglish: "❌ Scheme images unavailable.\nPlease call %s",
		models.LanguageTamil:   "❌ ஸ்கீம் படங்கள் கிடைக்கவில்லை.\nதயவுசெய்து %s அழைக்கவும்",
	},
	KeyAskCarpenterCode: {
		models.LanguageEnglish: "Please enter your Carpenter Code (e.g. ABC123)\n\nType 0 to go back",
		models.LanguageTamil:   "உங்கள் கார்பென்டர் கோடை உள்ளிடவும் (எ.கா. ABC123)\n\nType 0 to go back",
	},
	KeyCheckingMonths: {
		models.LanguageEnglish: "⏳ Checking available months...",
		models.LanguageTamil:   "⏳ மாதங்கள் சரிபார்க்கப்படுகிறது...",
	},
	KeyChooseMonthTitle: {
		models.LanguageEnglish: "Code: %s\nSelect month:",
		models.LanguageTamil:   "கோடு: %s\nமாதம் தேர்வு:",
	},
	KeyChooseMonthBtn: {
		models.LanguageEnglish: "Choose Month",
		models.LanguageTamil:   "மாதம் தேர்வு",
	},
	KeyMonthRowDesc: {
		models.LanguageEnglish: "Tap to check",
		models.LanguageTamil:   "தேர்வு செய்யவும்",
	},
	KeyFetchingCashback: {
		models.LanguageEnglish: "⏳ Fetching your cashback details...",
		models.LanguageTamil:   "⏳ உங்கள் கேஷ்பேக் விவரங்கள் பெறப்படுகிறது...",
	},
	KeyCashbackResult: {
		models.LanguageEnglish: "Hello %s!\n\nCashback for %s: ₹%s\n\nTransferred by month end.\nCall %s for queries.",
		models.LanguageTamil:   "வணக்கம் %s!\n\n%s கேஷ்பேக்: ₹%s\n\nமாத இறுதிக்குள் வரவு வைக்கப்படும்.\n%s அழைக்கவும்.",
	},
	KeyNoCashback: {
		models.LanguageEnglish: "Code: %s\nMonth: %s\n\nNo cashback recorded.",
		models.LanguageTamil:   "கோடு: %s\nமாதம்: %s\n\nகேஷ்பேக் இல்லை.",
	},
	KeyTempIssue: {
		models.LanguageEnglish: "Temporary issue. Please try later or call %s",
		models.LanguageTamil:   "தற்காலிக பிரச்சனை. பின்னர் முயற்சிக்கவும் அல்லது %s அழைக்கவும்",
	},
	KeyServerDown: {
		models.LanguageEnglish: "Server down. Try later or call %s",
		models.LanguageTamil:   "சர்வர் பழுது. பின்னர் முயற்சி அல்லது %s அழைக்கவும்",
	},
	KeyWarrantyAskBarcode: {
		models.LanguageEnglish: "✅ Warranty card accepted!\n\nPlease enter the 6-digit barcode from the product's price sticker.",
		models.LanguageTamil:   "✅ வாரண்டி கார்டு ஏற்கப்பட்டது!\n\nபொருளின் விலை ஸ்டிக்கரில் உள்ள 6 இலக்க பார்கோடை உள்ளிடவும்.",
	},
	KeyWarrantyInvalidToken: {
		models.LanguageEnglish: "❌ This warranty code is not valid.\nPlease check the card or call %s",
		models.LanguageTamil:   "❌ இந்த வாரண்டி கோடு செல்லாது.\nகார்டை சரிபார்க்கவும் அல்லது %s அழைக்கவும்",
	},
	KeyWarrantyTokenUsed: {
		models.LanguageEnglish: "❌ This warranty code has already been used.\nFor help call %s",
		models.LanguageTamil:   "❌ இந்த வாரண்டி கோடு ஏற்கனவே பயன்படுத்தப்பட்டது.\nஉதவிக்கு %s அழைக்கவும்",
	},
	KeyWarrantyBadBarcode: {
		models.LanguageEnglish: "Please enter exactly 6 digits (e.g. 528941).",
		models.LanguageTamil:   "சரியாக 6 இலக்கங்களை உள்ளிடவும் (எ.கா. 528941).",
	},
	KeyWarrantyNotFound: {
		models.LanguageEnglish: "❌ Barcode not found. Please check the price sticker and try again.",
		models.LanguageTamil:   "❌ பார்கோடு கிடைக்கவில்லை. விலை ஸ்டிக்கரை சரிபார்த்து மீண்டும் முயற்சிக்கவும்.",
	},
	KeyWarrantyConfirm: {
		models.LanguageEnglish: "🎉 Warranty registered!\n\nProduct: %s\nWarranty: %s months\nValid till: %s\n\nCall %s for queries.",
		models.LanguageTamil:   "🎉 வாரண்டி பதிவு செய்யப்பட்டது!\n\nபொருள்: %s\nவாரண்டி: %s மாதங்கள்\nசெல்லுபடியாகும் தேதி: %s\n\n%s அழைக்கவும்.",
	},
	KeyWarrantyServiceIssue: {
		models.LanguageEnglish: "Warranty service is temporarily unavailable. Please try later or call %s",
		models.LanguageTamil:   "வாரண்டி சேவை தற்காலிகமாக கிடைக்கவில்லை. பின்னர் முயற்சிக்கவும் அல்லது %s அழைக்கவும்",
	},
	KeyInvalidSelection: {
		models.LanguageEnglish: "Invalid selection.",
		models.LanguageTamil:   "தவறான தேர்வு.",
	},
	KeyFallback: {
		models.LanguageEnglish: "I didn't understand that. 🤔\n\nHere's the main menu:",
		models.LanguageTamil:   "புரியவில்லை. 🤔\n\nஇதோ முகப்பு மெனு:",
	},
	KeyGoodbye: {
		models.LanguageEnglish: "Thank you for contacting GAJA. Goodbye! 👋",
		models.LanguageTamil:   "GAJA-வை தொடர்பு கொண்டதற்கு நன்றி. வணக்கம்! 👋",
	},
	KeyDailyLimitReached: {
		models.LanguageEnglish: "Daily lookup limit reached. Please try again tomorrow or call %s",
		models.LanguageTamil:   "இன்றைய தேடல் வரம்பு முடிந்தது. நாளை மீண்டும் முயற்சிக்கவும் அல்லது %s அழைக்கவும்",
	},
}

// Text returns the copy for key in the given language, formatted with args.
// An unset or unknown language falls back to English.
func Text(key Key, lang models.Language, args ...any) string {
	variants, ok := catalog[key]
	if !ok {
		slog.Error("i18n missing message key", "key", key)
		return string(key)
	}
	s, ok := variants[lang]
	if !ok {
		s = variants[models.LanguageEnglish]
	}
	if len(args) > 0 {
		return fmt.Sprintf(s, args...)
	}
	return s
}

// Keys returns every declared message key, for catalog completeness checks.
func Keys() []Key {
	out := make([]Key, 0, len(catalog))
	for k := range catalog {
		out = append(out, k)
	}
	return out
}
