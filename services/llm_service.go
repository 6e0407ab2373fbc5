package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/internal/logger"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/models"
)

// Generator runs one LLM generation request. Implemented by
// internal/ai.Client.
type Generator interface {
	GenerateText(ctx context.Context, apiKey, prompt string, params models.GenerationParams) (string, error)
}

// notFoundTemplate is emitted when retrieval comes back empty; the model is
// never handed fabricated context.
const notFoundTemplate = `Pengguna bertanya: "%s"

Namun tidak ada informasi layanan yang relevan ditemukan di database.
Tolong beri tahu pengguna dengan sopan bahwa informasi yang mereka cari tidak tersedia.`

// BuildPrompt renders the retrieved snippets and the question into one
// generation request. Pure string construction, no side effects.
func BuildPrompt(userQuery string, results []models.SearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf(notFoundTemplate, userQuery)
	}

	context := renderSnippets(results)

	return fmt.Sprintf(`Anda adalah asisten virtual untuk layanan publik Kota Denpasar yang ramah dan membantu.

KONTEKS INFORMASI LAYANAN:
%s

PERTANYAAN PENGGUNA:
"%s"

INSTRUKSI:
1. Jawab pertanyaan pengguna dengan bahasa yang natural, ramah, dan mudah dipahami
2. Gunakan informasi dari layanan yang paling relevan (similarity tertinggi)
3. Berikan informasi yang spesifik dan praktis (persyaratan, prosedur, waktu, tarif, dll)
4. Jika ada beberapa layanan relevan, sebutkan pilihan yang tersedia
5. Sertakan informasi kontak pengaduan jika ada
6. Jangan menyebutkan "similarity score" atau istilah teknis lainnya
7. Akhiri dengan menawarkan bantuan lebih lanjut

JAWABAN:`, context, userQuery)
}

// BuildPromptWithHistory additionally inserts the prior conversation so the
// model can resolve references like "itu" or "tadi". Pure.
func BuildPromptWithHistory(userQuery string, results []models.SearchResult, conversationContext string) string {
	var basePrompt string
	if len(results) == 0 {
		basePrompt = fmt.Sprintf(notFoundTemplate, userQuery)
	} else {
		basePrompt = fmt.Sprintf("KONTEKS INFORMASI LAYANAN:\n%s", renderSnippets(results))
	}

	historySection := ""
	if conversationContext != "" {
		historySection = fmt.Sprintf(`RIWAYAT PERCAKAPAN SEBELUMNYA:
%s

(Gunakan riwayat di atas untuk memahami konteks, jika pertanyaan saat ini merujuk ke percakapan sebelumnya)
`, conversationContext)
	}

	return fmt.Sprintf(`Anda adalah asisten virtual untuk layanan publik Kota Denpasar yang ramah dan membantu.

%s

%s
PERTANYAAN PENGGUNA SAAT INI:
"%s"

INSTRUKSI:
1. Jawab pertanyaan pengguna dengan bahasa yang natural, ramah, dan mudah dipahami
2. Jika ada riwayat percakapan, gunakan untuk memahami konteks (misal: "itu", "tadi", dll)
3. Gunakan informasi dari layanan yang paling relevan
4. Berikan informasi yang spesifik dan praktis (persyaratan, prosedur, waktu, tarif, dll)
5. Jika ada beberapa layanan relevan, sebutkan pilihan yang tersedia
6. Jangan menyebutkan "similarity score" atau istilah teknis lainnya
7. Akhiri dengan menawarkan bantuan lebih lanjut

JAWABAN:`, basePrompt, historySection, userQuery)
}

// renderSnippets labels each snippet with its rank and similarity percentage
// (a ranking cue for the model; the instructions forbid echoing it).
func renderSnippets(results []models.SearchResult) string {
	blocks := make([]string, 0, len(results))
	for i, result := range results {
		blocks = append(blocks, fmt.Sprintf("=== Layanan %d (Relevansi: %.1f%%) ===\n%s",
			i+1, result.Similarity*100, result.Content))
	}
	return strings.Join(blocks, "\n\n")
}

// LLMService composes prompts and calls Gemini with the live generation
// parameters. Generation failures degrade to a polite apology carrying the
// error detail; they never bubble up as a raw error to the end user.
type LLMService struct {
	generator Generator
	configs   *ConfigService
}

func NewLLMService(generator Generator, configs *ConfigService) *LLMService {
	return &LLMService{generator: generator, configs: configs}
}

// GenerateResponse answers without conversation history (admin test chat).
func (s *LLMService) GenerateResponse(ctx context.Context, userQuery string, results []models.SearchResult) string {
	return s.generate(ctx, BuildPrompt(userQuery, results))
}

// GenerateResponseWithHistory answers with prior-conversation grounding
// (user chat).
func (s *LLMService) GenerateResponseWithHistory(ctx context.Context, userQuery string, results []models.SearchResult, conversationContext string) string {
	return s.generate(ctx, BuildPromptWithHistory(userQuery, results, conversationContext))
}

func (s *LLMService) generate(ctx context.Context, prompt string) string {
	params, err := s.configs.ActiveGenerationParams(ctx)
	if err != nil {
		params = models.GenerationParams{Temperature: DefaultTemperature, MaxTokens: DefaultMaxTokens}
	}

	answer, err := s.generator.GenerateText(ctx, s.configs.ActiveGeminiKey(ctx), prompt, params)
	if err != nil {
		logger.Warn("LLM generation failed", "error", err)
		return fmt.Sprintf("Maaf, terjadi kesalahan dalam memproses pertanyaan Anda: %v", err)
	}
	return answer
}
