package utils

import (
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	token, expires, err := m.Generate("alice")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Error("Expected expiry in the future")
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.Username != "alice" {
		t.Errorf("Expected alice, got %s", claims.Username)
	}
}

func TestJWTRejectsForeignSignature(t *testing.T) {
	token, _, _ := NewJWTManager("one", time.Hour).Generate("alice")
	if _, err := NewJWTManager("two", time.Hour).Validate(token); err == nil {
		t.Error("Expected signature mismatch to fail")
	}
}

func TestJWTRejectsExpired(t *testing.T) {
	m := NewJWTManager("test-secret", -time.Minute)
	token, _, _ := m.Generate("alice")
	if _, err := m.Validate(token); err == nil {
		t.Error("Expected expired token to fail")
	}
}

func TestNewJWTManagerDisabled(t *testing.T) {
	if NewJWTManager("", time.Hour) != nil {
		t.Error("Empty secret should disable bearer tokens")
	}
}
