package services

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/models"
)

// Embedder produces a dense vector for a piece of text. Implemented by
// internal/ai.Client; tests swap in a deterministic fake.
type Embedder interface {
	EmbedText(ctx context.Context, apiKey, text string) ([]float32, error)
}

var (
	strippedChars  = regexp.MustCompile(`[^a-z0-9,.:;()\-\n| ]+`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// PreprocessText is the single normalization function shared by the index
// and query paths; applying it on only one side silently breaks retrieval.
// Lowercases, strips everything outside [a-z0-9,.:;()\-\n| ], collapses
// whitespace, trims. Non-Latin scripts are destroyed by the character strip;
// the corpus is Indonesian so this is accepted (flagged in DESIGN.md).
func PreprocessText(text string) string {
	text = strings.ToLower(text)
	text = strippedChars.ReplaceAllString(text, "")
	text = whitespaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// ComposeServiceContent serializes a service record into one narrative
// string, the unit of retrieval. Fields are rendered in a fixed priority
// order (name and short description first, they carry the most signal);
// absent fields are skipped entirely.
func ComposeServiceContent(record models.ServiceRecord) string {
	var parts []string

	add := func(value *string, format func(string) string) {
		if value != nil && *value != "" {
			parts = append(parts, format(*value))
		}
	}
	plain := func(s string) string { return s }

	add(record.NamaLayanan, plain)
	add(record.DeskripsiSingkat, plain)
	add(record.InstansiPenyelenggara, func(s string) string { return "Diselenggarakan oleh " + s })
	add(record.Persyaratan, func(s string) string { return "Persyaratan yang diperlukan: " + s })
	add(record.WaktuPenyelesaian, func(s string) string { return "Waktu penyelesaian: " + s })
	add(record.TarifPelayanan, func(s string) string { return "Biaya: " + s })
	add(record.Prosedur, func(s string) string { return "Prosedur: " + s })
	add(record.ProdukLayanan, func(s string) string { return "Hasil layanan: " + s })
	add(record.Pengaduan, func(s string) string { return "Informasi pengaduan: " + s })

	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ". ") + "."
}

// NormalizeVector scales the vector to unit length so that dot product
// equals cosine similarity. A zero vector is returned unchanged rather than
// dividing by zero.
func NormalizeVector(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

// CosineSimilarity is a plain dot product; both inputs must already be
// unit-normalized. Mismatched or empty vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// EmbeddingPipeline runs compose -> preprocess -> embed -> normalize for a
// service record and returns the processed content together with its unit
// vector. The content is what gets stored and later retrieved as a snippet.
func EmbeddingPipeline(ctx context.Context, embedder Embedder, apiKey string, record models.ServiceRecord) (string, []float32, error) {
	raw := ComposeServiceContent(record)
	processed := PreprocessText(raw)

	vec, err := embedder.EmbedText(ctx, apiKey, processed)
	if err != nil {
		return "", nil, err
	}
	return processed, NormalizeVector(vec), nil
}

// embedNormalized is the query-side counterpart of EmbeddingPipeline.
func embedNormalized(ctx context.Context, embedder Embedder, apiKey, text string) ([]float32, error) {
	vec, err := embedder.EmbedText(ctx, apiKey, PreprocessText(text))
	if err != nil {
		return nil, err
	}
	return NormalizeVector(vec), nil
}
