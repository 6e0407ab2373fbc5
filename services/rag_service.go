package services

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/internal/database"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/models"
)

// matchQuery calls the nearest-neighbour function defined in the migrations.
// Rows come back ranked by similarity descending; this service preserves
// that order and never re-sorts.
const matchQuery = `SELECT service_id, content, similarity FROM match_service_embeddings($1::vector, $2, $3)`

// RAGService turns a free-text query into ranked grounded snippets.
type RAGService struct {
	db       *sqlx.DB
	embedder Embedder
	configs  *ConfigService
}

func NewRAGService(db *sqlx.DB, embedder Embedder, configs *ConfigService) *RAGService {
	return &RAGService{db: db, embedder: embedder, configs: configs}
}

// DistanceBound converts a minimum similarity into the distance parameter of
// match_service_embeddings. The function's metric is defined as
// 1 - cosine_similarity over unit vectors; this conversion is part of that
// contract and is pinned by tests.
func DistanceBound(similarityThreshold float64) float64 {
	return 1 - similarityThreshold
}

// SearchSimilarServices normalizes and embeds the query, then delegates
// ranking to the database. An empty result set is a successful outcome, not
// an error; only embedding or datastore failures are reported.
func (s *RAGService) SearchSimilarServices(ctx context.Context, query string, topK int, similarityThreshold float64) ([]models.SearchResult, error) {
	queryVec, err := embedNormalized(ctx, s.embedder, s.configs.ActiveGeminiKey(ctx), query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results := make([]models.SearchResult, 0, topK)
	err = s.db.SelectContext(ctx, &results, matchQuery,
		database.VectorLiteral(queryVec), DistanceBound(similarityThreshold), topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	return results, nil
}

// Pipeline wraps the search into the admin search response shape.
func (s *RAGService) Pipeline(ctx context.Context, query string, topK int, similarityThreshold float64) (models.RAGQueryResponse, error) {
	results, err := s.SearchSimilarServices(ctx, query, topK, similarityThreshold)
	if err != nil {
		return models.RAGQueryResponse{}, err
	}
	return models.RAGQueryResponse{
		Query:         query,
		SearchResults: results,
		NumResults:    len(results),
	}, nil
}
