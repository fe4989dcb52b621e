package util

import (
	"testing"
	"time"
)

func TestParseBoolEnv(t *testing.T) {
	t.Setenv("UTIL_TEST_BOOL", "yes")
	if !ParseBoolEnv("UTIL_TEST_BOOL", false) {
		t.Error("expected true for 'yes'")
	}
	t.Setenv("UTIL_TEST_BOOL", "off")
	if ParseBoolEnv("UTIL_TEST_BOOL", true) {
		t.Error("expected false for 'off'")
	}
	t.Setenv("UTIL_TEST_BOOL", "banana")
	if !ParseBoolEnv("UTIL_TEST_BOOL", true) {
		t.Error("expected default for invalid value")
	}
	if ParseBoolEnv("UTIL_TEST_UNSET", false) {
		t.Error("expected default for unset variable")
	}
}

func TestParseIntEnv(t *testing.T) {
	t.Setenv("UTIL_TEST_INT", "42")
	if got := ParseIntEnv("UTIL_TEST_INT", 7); got != 42 {
		t.Errorf("got %d, want 42", got)
	}
	t.Setenv("UTIL_TEST_INT", "-3")
	if got := ParseIntEnv("UTIL_TEST_INT", 7); got != 7 {
		t.Errorf("negative value should fall back to default, got %d", got)
	}
	t.Setenv("UTIL_TEST_INT", "nope")
	if got := ParseIntEnv("UTIL_TEST_INT", 7); got != 7 {
		t.Errorf("invalid value should fall back to default, got %d", got)
	}
}

func TestParseDurationSecondsEnv(t *testing.T) {
	t.Setenv("UTIL_TEST_DUR", "600")
	if got := ParseDurationSecondsEnv("UTIL_TEST_DUR", time.Minute); got != 10*time.Minute {
		t.Errorf("got %v, want 10m", got)
	}
	t.Setenv("UTIL_TEST_DUR", "0")
	if got := ParseDurationSecondsEnv("UTIL_TEST_DUR", time.Minute); got != time.Minute {
		t.Errorf("zero should fall back to default, got %v", got)
	}
}

func TestMaskPhone(t *testing.T) {
	cases := []struct{ in, want string }{
		{"919876543210", "****3210"},
		{"1234", "****"},
		{"", "****"},
		{"98765", "****8765"},
	}
	for _, c := range cases {
		if got := MaskPhone(c.in); got != c.want {
			t.Errorf("MaskPhone(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
