package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/models"
)

type fakeEmbedder struct {
	vec  []float32
	err  error
	seen []string
}

func (f *fakeEmbedder) EmbedText(_ context.Context, _ string, text string) ([]float32, error) {
	f.seen = append(f.seen, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func strPtr(s string) *string { return &s }

func TestPreprocessText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "KTP Baru", "ktp baru"},
		{"strips disallowed characters", "biaya: Rp50.000,- *gratis*", "biaya: rp50.000,-"},
		{"collapses whitespace", "satu   dua\t\ttiga", "satu dua tiga"},
		{"keeps allowed punctuation", "a,b.c:d;e(f)-g|h", "a,b.c:d;e(f)-g|h"},
		{"trims", "  halo  ", "halo"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PreprocessText(tc.in); got != tc.want {
				t.Fatalf("PreprocessText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestPreprocessTextIdempotent(t *testing.T) {
	in := "Pembuatan KTP  Baru!! (Dinas Dukcapil)"
	once := PreprocessText(in)
	twice := PreprocessText(once)
	if once != twice {
		t.Fatalf("not idempotent: %q vs %q", once, twice)
	}
}

func TestComposeServiceContent(t *testing.T) {
	record := models.ServiceRecord{
		NamaLayanan: strPtr("KTP Baru"),
		Persyaratan: strPtr("KK, Akta Lahir"),
	}
	got := ComposeServiceContent(record)
	want := "KTP Baru. Persyaratan yang diperlukan: KK, Akta Lahir."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestComposeServiceContentFieldOrder(t *testing.T) {
	record := models.ServiceRecord{
		NamaLayanan:           strPtr("Izin Usaha"),
		DeskripsiSingkat:      strPtr("Penerbitan izin usaha"),
		InstansiPenyelenggara: strPtr("DPMPTSP"),
		TarifPelayanan:        strPtr("Gratis"),
	}
	got := ComposeServiceContent(record)
	want := "Izin Usaha. Penerbitan izin usaha. Diselenggarakan oleh DPMPTSP. Biaya: Gratis."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestComposeServiceContentEmpty(t *testing.T) {
	if got := ComposeServiceContent(models.ServiceRecord{}); got != "" {
		t.Fatalf("expected empty content, got %q", got)
	}
	// Empty strings count as absent, same as nil.
	record := models.ServiceRecord{NamaLayanan: strPtr("")}
	if got := ComposeServiceContent(record); got != "" {
		t.Fatalf("expected empty content for blank fields, got %q", got)
	}
}

func TestNormalizeVector(t *testing.T) {
	vec := NormalizeVector([]float32{3, 4})
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-6 {
		t.Fatalf("expected unit norm, got %f", math.Sqrt(norm))
	}
	if math.Abs(float64(vec[0])-0.6) > 1e-6 || math.Abs(float64(vec[1])-0.8) > 1e-6 {
		t.Fatalf("unexpected normalized vector: %v", vec)
	}
}

func TestNormalizeVectorZero(t *testing.T) {
	zero := []float32{0, 0, 0}
	got := NormalizeVector(zero)
	for i, v := range got {
		if v != 0 {
			t.Fatalf("zero vector changed at %d: %f", i, v)
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := CosineSimilarity([]float32{1, 0}, []float32{1, 0}); math.Abs(got-1) > 1e-9 {
		t.Fatalf("identical vectors: got %f, want 1", got)
	}
	if got := CosineSimilarity([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Fatalf("orthogonal vectors: got %f, want 0", got)
	}
	if got := CosineSimilarity([]float32{1, 0}, []float32{1}); got != 0 {
		t.Fatalf("mismatched lengths: got %f, want 0", got)
	}
	if got := CosineSimilarity(nil, nil); got != 0 {
		t.Fatalf("empty vectors: got %f, want 0", got)
	}
}

func TestEmbeddingPipeline(t *testing.T) {
	embedder := &fakeEmbedder{vec: []float32{3, 4}}
	record := models.ServiceRecord{NamaLayanan: strPtr("KTP Baru")}

	content, vec, err := EmbeddingPipeline(context.Background(), embedder, "key", record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != "ktp baru." {
		t.Fatalf("content = %q, want %q", content, "ktp baru.")
	}
	if len(embedder.seen) != 1 || embedder.seen[0] != "ktp baru." {
		t.Fatalf("embedder saw %v, want the preprocessed content", embedder.seen)
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-6 {
		t.Fatalf("pipeline vector not unit-normalized: %f", math.Sqrt(norm))
	}
}

func TestEmbeddingPipelineError(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("quota exceeded")}
	_, _, err := EmbeddingPipeline(context.Background(), embedder, "key", models.ServiceRecord{NamaLayanan: strPtr("X")})
	if err == nil {
		t.Fatal("expected error from failing embedder")
	}
}
