package i18n

import (
	"strings"
	"testing"

	"github.com/gajahardware/gajabot/internal/models"
)

func TestCatalogComplete(t *testing.T) {
	for _, key := range Keys() {
		variants := catalog[key]
		if _, ok := variants[models.LanguageEnglish]; !ok {
			t.Errorf("key %q has no English variant", key)
		}
		// The language chooser is deliberately a single bilingual string.
		if key == KeyLanguageChooser {
			continue
		}
		if _, ok := variants[models.LanguageTamil]; !ok {
			t.Errorf("key %q has no Tamil variant", key)
		}
	}
}

func TestTextLanguageSelection(t *testing.T) {
	en := Text(KeyMainMenuBody, models.LanguageEnglish)
	ta := Text(KeyMainMenuBody, models.LanguageTamil)
	if en == ta {
		t.Error("English and Tamil main menu copy should differ")
	}
	if got := Text(KeyMainMenuBody, models.LanguageUnset); got != en {
		t.Errorf("unset language should fall back to English, got %q", got)
	}
}

func TestTextFormatting(t *testing.T) {
	got := Text(KeyTempIssue, models.LanguageEnglish, "9144400000")
	if !strings.Contains(got, "9144400000") {
		t.Errorf("support phone not interpolated: %q", got)
	}
	got = Text(KeyCashbackResult, models.LanguageTamil, "Kumar", "Jan 2026", "1500", "9144400000")
	for _, want := range []string{"Kumar", "Jan 2026", "1500", "9144400000"} {
		if !strings.Contains(got, want) {
			t.Errorf("cashback result missing %q: %q", want, got)
		}
	}
}

func TestFormatVerbParity(t *testing.T) {
	// Both language variants of a key must take the same format arguments.
	for _, key := range Keys() {
		en, enOK := catalog[key][models.LanguageEnglish]
		ta, taOK := catalog[key][models.LanguageTamil]
		if !enOK || !taOK {
			continue
		}
		if strings.Count(en, "%s") != strings.Count(ta, "%s") {
			t.Errorf("key %q: format verb count differs between languages", key)
		}
	}
}
