package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/internal/logger"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/models"
)

// ContextPrecisionThreshold is the minimum answer-snippet similarity for a
// snippet to count as "used" in the context precision ratio.
const ContextPrecisionThreshold = 0.65

// MetricsService scores a finished RAG turn with reference-free quality
// metrics. It is strictly an observer: scoring failures are logged and
// reported as nil metric fields, never surfaced to the chat flow. The
// triple is all or nothing; a partial score would misrepresent the turn.
type MetricsService struct {
	embedder Embedder
	configs  *ConfigService
}

func NewMetricsService(embedder Embedder, configs *ConfigService) *MetricsService {
	return &MetricsService{embedder: embedder, configs: configs}
}

// Score computes faithfulness, relevance and context precision for one turn.
// Any internal failure collapses here, at the one boundary where errors
// become a nil result: the whole triple is dropped and logged, never a
// partial score.
func (s *MetricsService) Score(ctx context.Context, question, answer string, results []models.SearchResult) *models.ChatMetrics {
	metrics, err := s.score(ctx, question, answer, results)
	if err != nil {
		logger.Warn("metrics: scoring failed, dropping all metrics", "error", err)
		return &models.ChatMetrics{}
	}
	return metrics
}

func (s *MetricsService) score(ctx context.Context, question, answer string, results []models.SearchResult) (*models.ChatMetrics, error) {
	apiKey := s.configs.ActiveGeminiKey(ctx)

	answerVec, err := embedNormalized(ctx, s.embedder, apiKey, answer)
	if err != nil {
		return nil, fmt.Errorf("embed answer: %w", err)
	}
	questionVec, err := embedNormalized(ctx, s.embedder, apiKey, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	metrics := &models.ChatMetrics{
		Relevance: boundedScore(CosineSimilarity(answerVec, questionVec)),
	}
	if len(results) == 0 {
		return metrics, nil
	}

	faithfulness, err := s.faithfulness(ctx, apiKey, answerVec, results)
	if err != nil {
		return nil, err
	}
	precision, err := s.contextPrecision(ctx, apiKey, answerVec, results)
	if err != nil {
		return nil, err
	}
	metrics.Faithfulness = faithfulness
	metrics.ContextPrecision = precision
	return metrics, nil
}

// faithfulness compares the answer against the concatenated retrieved
// context.
func (s *MetricsService) faithfulness(ctx context.Context, apiKey string, answerVec []float32, results []models.SearchResult) (*float64, error) {
	contents := make([]string, 0, len(results))
	for _, r := range results {
		contents = append(contents, r.Content)
	}

	contextVec, err := embedNormalized(ctx, s.embedder, apiKey, strings.Join(contents, " "))
	if err != nil {
		return nil, fmt.Errorf("embed context: %w", err)
	}
	return boundedScore(CosineSimilarity(answerVec, contextVec)), nil
}

// contextPrecision is the fraction of retrieved snippets the answer
// actually drew on, judged per snippet against the threshold.
func (s *MetricsService) contextPrecision(ctx context.Context, apiKey string, answerVec []float32, results []models.SearchResult) (*float64, error) {
	used := 0
	for _, r := range results {
		snippetVec, err := embedNormalized(ctx, s.embedder, apiKey, r.Content)
		if err != nil {
			return nil, fmt.Errorf("embed snippet: %w", err)
		}
		if CosineSimilarity(answerVec, snippetVec) >= ContextPrecisionThreshold {
			used++
		}
	}
	return boundedScore(float64(used) / float64(len(results))), nil
}

// boundedScore clips to [0, 1] and rounds to four decimals. Floating point
// can put a cosine of near-identical unit vectors slightly above 1.
func boundedScore(v float64) *float64 {
	v = math.Min(1, math.Max(0, v))
	v = math.Round(v*10000) / 10000
	return &v
}
