package services

import (
	"strings"
	"testing"

	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/models"
)

func TestBuildPromptEmptyResults(t *testing.T) {
	prompt := BuildPrompt("cara membuat ktp", nil)

	if !strings.Contains(prompt, `Pengguna bertanya: "cara membuat ktp"`) {
		t.Fatalf("missing question in not-found prompt:\n%s", prompt)
	}
	if !strings.Contains(prompt, "tidak ada informasi layanan yang relevan") {
		t.Fatalf("missing not-found instruction:\n%s", prompt)
	}
	if strings.Contains(prompt, "KONTEKS INFORMASI LAYANAN") {
		t.Fatalf("not-found prompt must carry no context block:\n%s", prompt)
	}
}

func TestBuildPromptWithResults(t *testing.T) {
	results := []models.SearchResult{
		{ServiceID: "a", Content: "ktp baru. persyaratan: kk.", Similarity: 0.875},
		{ServiceID: "b", Content: "perpanjangan sim.", Similarity: 0.52},
	}
	prompt := BuildPrompt("cara membuat ktp", results)

	if !strings.Contains(prompt, "=== Layanan 1 (Relevansi: 87.5%) ===") {
		t.Fatalf("missing first snippet header:\n%s", prompt)
	}
	if !strings.Contains(prompt, "=== Layanan 2 (Relevansi: 52.0%) ===") {
		t.Fatalf("missing second snippet header:\n%s", prompt)
	}
	if !strings.Contains(prompt, "ktp baru. persyaratan: kk.") {
		t.Fatalf("missing snippet content:\n%s", prompt)
	}
	if !strings.Contains(prompt, `"cara membuat ktp"`) {
		t.Fatalf("missing user question:\n%s", prompt)
	}
	if strings.Index(prompt, "KONTEKS INFORMASI LAYANAN") > strings.Index(prompt, "PERTANYAAN PENGGUNA") {
		t.Fatalf("context must precede the question:\n%s", prompt)
	}
}

func TestBuildPromptWithHistory(t *testing.T) {
	results := []models.SearchResult{{ServiceID: "a", Content: "ktp baru.", Similarity: 0.9}}
	history := "Pengguna: berapa biayanya\nAsisten: Gratis."

	prompt := BuildPromptWithHistory("berapa lama prosesnya", results, history)

	if !strings.Contains(prompt, "RIWAYAT PERCAKAPAN SEBELUMNYA:") {
		t.Fatalf("missing history section:\n%s", prompt)
	}
	if !strings.Contains(prompt, history) {
		t.Fatalf("missing history content:\n%s", prompt)
	}
	if !strings.Contains(prompt, "PERTANYAAN PENGGUNA SAAT INI:") {
		t.Fatalf("missing current question header:\n%s", prompt)
	}
}

func TestBuildPromptWithHistoryEmptyContext(t *testing.T) {
	prompt := BuildPromptWithHistory("halo", []models.SearchResult{{Content: "x", Similarity: 0.8}}, "")
	if strings.Contains(prompt, "RIWAYAT PERCAKAPAN SEBELUMNYA") {
		t.Fatalf("history section must be absent without prior turns:\n%s", prompt)
	}
}

func TestBuildPromptWithHistoryEmptyResults(t *testing.T) {
	prompt := BuildPromptWithHistory("cara membuat ktp", nil, "Pengguna: halo\nAsisten: Halo!")
	if !strings.Contains(prompt, "tidak ada informasi layanan yang relevan") {
		t.Fatalf("empty retrieval must use the not-found wording:\n%s", prompt)
	}
	if !strings.Contains(prompt, "RIWAYAT PERCAKAPAN SEBELUMNYA:") {
		t.Fatalf("history still accompanies the not-found prompt:\n%s", prompt)
	}
}
