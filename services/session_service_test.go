package services

import (
	"testing"
	"time"

	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/models"
)

const wellFormedID = "7f9c24e5-2e3a-4b5f-9c1d-8a6b4e2f1a3c"

func TestShouldReuseSession(t *testing.T) {
	active := &models.ChatSession{SessionID: wellFormedID, IsActive: true}
	inactive := &models.ChatSession{SessionID: wellFormedID, IsActive: false}

	cases := []struct {
		name      string
		candidate string
		existing  *models.ChatSession
		want      bool
	}{
		{"active session reused", wellFormedID, active, true},
		{"empty candidate", "", active, false},
		{"malformed uuid", "not-a-uuid", active, false},
		{"unknown session", wellFormedID, nil, false},
		{"inactive session", wellFormedID, inactive, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ShouldReuseSession(tc.candidate, tc.existing); got != tc.want {
				t.Fatalf("ShouldReuseSession(%q, %v) = %v, want %v", tc.candidate, tc.existing, got, tc.want)
			}
		})
	}
}

func TestFormatConversationContext(t *testing.T) {
	now := time.Now()
	// Stored newest first, as ConversationHistory returns them.
	newestFirst := []models.ChatMessage{
		{Role: models.RoleAssistant, Message: "m2", CreatedAt: now},
		{Role: models.RoleUser, Message: "m1", CreatedAt: now.Add(-time.Minute)},
	}

	got := FormatConversationContext(newestFirst)
	want := "Pengguna: m1\nAsisten: m2"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatConversationContextEmpty(t *testing.T) {
	if got := FormatConversationContext(nil); got != "" {
		t.Fatalf("expected empty context, got %q", got)
	}
}

func TestFormatConversationContextLabels(t *testing.T) {
	msgs := []models.ChatMessage{
		{Role: models.RoleUser, Message: "hanya satu"},
	}
	if got := FormatConversationContext(msgs); got != "Pengguna: hanya satu" {
		t.Fatalf("got %q", got)
	}
}
