package messaging

import (
	"testing"
)

func TestNewTwilioServiceRequiresCredentials(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("TWILIO_AUTH_TOKEN", "")
	t.Setenv("TWILIO_FROM_NUMBER", "")

	if _, err := NewTwilioService(); err == nil {
		t.Error("expected error without credentials")
	}
	if _, err := NewTwilioService(WithAccountSID("AC123"), WithAuthToken("tok")); err == nil {
		t.Error("expected error without from number")
	}
}

func TestNewTwilioServiceWithOptions(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("TWILIO_AUTH_TOKEN", "")
	t.Setenv("TWILIO_FROM_NUMBER", "")

	svc, err := NewTwilioService(
		WithAccountSID("AC123"),
		WithAuthToken("tok"),
		WithFromWhats("whatsapp:+14155550100"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.fromWhats != "whatsapp:+14155550100" {
		t.Errorf("unexpected from number %q", svc.fromWhats)
	}
}
