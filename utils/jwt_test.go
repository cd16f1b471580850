package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
)

func TestExtractCoachIDRoundTrip(t *testing.T) {
	token, err := GenerateToken("coach", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	sub, err := ExtractCoachID(token)
	if err != nil {
		t.Fatalf("ExtractCoachID: %v", err)
	}
	if sub != "coach" {
		t.Errorf("subject = %q, want coach", sub)
	}
}

func TestExtractCoachIDRejectsWrongRole(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":  "someone",
		"role": "client",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretKey())
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}

	if _, err := ExtractCoachID(signed); !errors.Is(err, ErrNotCoach) {
		t.Errorf("err = %v, want ErrNotCoach", err)
	}
}

func TestExtractCoachIDRejectsGarbage(t *testing.T) {
	if _, err := ExtractCoachID("not-a-token"); err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestExtractCoachIDRejectsExpired(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":  "coach",
		"role": "coach",
		"exp":  time.Now().Add(-time.Minute).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretKey())
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}

	if _, err := ExtractCoachID(signed); err == nil {
		t.Error("expected error for expired token")
	}
}
