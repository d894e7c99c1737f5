package httpapi

import "testing"

func TestValidateManagerPINMatchesConfiguredPIN(t *testing.T) {
	auth := NewAuthManager("test-secret", "471932")

	if !auth.ValidateManagerPIN("471932") {
		t.Error("configured PIN rejected")
	}
	if !auth.ValidateManagerPIN("  471932  ") {
		t.Error("configured PIN with surrounding whitespace rejected")
	}
	if auth.ValidateManagerPIN("471933") {
		t.Error("wrong PIN accepted")
	}
	if auth.ValidateManagerPIN("") {
		t.Error("empty attempt accepted")
	}
}

func TestValidateManagerPINLockedWhenUnset(t *testing.T) {
	auth := NewAuthManager("test-secret", "")

	for _, attempt := range []string{"", "disabled", "471932", "$2a$10$abcdefghijklmnopqrstuv"} {
		if auth.ValidateManagerPIN(attempt) {
			t.Errorf("attempt %q accepted with no PIN configured", attempt)
		}
	}

	if auth := NewAuthManager("test-secret", "   "); auth.ValidateManagerPIN("disabled") {
		t.Error("whitespace-only PIN left the guard open")
	}
}
