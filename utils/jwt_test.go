package utils

import (
	"testing"
	"time"
)

const testSecret = "test-secret-key"

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("user-1", "admin", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ValidateJWT(token, testSecret)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if claims.UserID != "user-1" || claims.Username != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestValidateJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT("user-1", "admin", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if _, err := ValidateJWT(token, "other-secret"); err == nil {
		t.Fatal("expected validation failure with wrong secret")
	}
}

func TestValidateJWTExpired(t *testing.T) {
	token, err := GenerateJWT("user-1", "admin", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if _, err := ValidateJWT(token, testSecret); err == nil {
		t.Fatal("expected validation failure for expired token")
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"", ""},
		{"abc123", ""},
		{"Basic abc123", ""},
		{"Bearer", ""},
	}
	for _, tc := range cases {
		if got := ExtractTokenFromHeader(tc.header); got != tc.want {
			t.Fatalf("ExtractTokenFromHeader(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}
