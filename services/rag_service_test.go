package services

import (
	"context"
	"math"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func expectConfigLoad(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT config_key, config_value FROM ai_config`).
		WillReturnRows(sqlmock.NewRows([]string{"config_key", "config_value"}).
			AddRow("gemini_api_key", "stored-key"))
}

func TestDistanceBound(t *testing.T) {
	cases := []struct {
		similarity float64
		want       float64
	}{
		{0, 1},
		{1, 0},
		{0.5, 0.5},
		{0.65, 0.35},
	}
	for _, tc := range cases {
		got := DistanceBound(tc.similarity)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("DistanceBound(%v) = %v, want %v", tc.similarity, got, tc.want)
		}
	}
}

func TestSearchSimilarServices(t *testing.T) {
	db, mock := newMockDB(t)
	embedder := &fakeEmbedder{vec: []float32{3, 4}}
	configs := NewConfigService(db, "fallback-key")
	rag := NewRAGService(db, embedder, configs)

	expectConfigLoad(mock)
	mock.ExpectQuery(matchQuery).
		WithArgs("[0.6,0.8]", 0.5, 5).
		WillReturnRows(sqlmock.NewRows([]string{"service_id", "content", "similarity"}).
			AddRow("svc-1", "ktp baru.", 0.91).
			AddRow("svc-2", "perpanjangan sim.", 0.74))

	results, err := rag.SearchSimilarServices(context.Background(), "cara membuat ktp", 5, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Database rank order is preserved, never re-sorted.
	assert.Equal(t, "svc-1", results[0].ServiceID)
	assert.Equal(t, 0.91, results[0].Similarity)
	assert.Equal(t, "svc-2", results[1].ServiceID)
	assert.Equal(t, "perpanjangan sim.", results[1].Content)

	// Query text is preprocessed before embedding.
	require.Len(t, embedder.seen, 1)
	assert.Equal(t, "cara membuat ktp", embedder.seen[0])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchSimilarServicesEmptyIsNotAnError(t *testing.T) {
	db, mock := newMockDB(t)
	embedder := &fakeEmbedder{vec: []float32{1, 0}}
	configs := NewConfigService(db, "fallback-key")
	rag := NewRAGService(db, embedder, configs)

	expectConfigLoad(mock)
	mock.ExpectQuery(matchQuery).
		WithArgs("[1,0]", DistanceBound(0.9), 3).
		WillReturnRows(sqlmock.NewRows([]string{"service_id", "content", "similarity"}))

	results, err := rag.SearchSimilarServices(context.Background(), "tidak ada", 3, 0.9)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRAGPipelineShape(t *testing.T) {
	db, mock := newMockDB(t)
	embedder := &fakeEmbedder{vec: []float32{1, 0}}
	configs := NewConfigService(db, "fallback-key")
	rag := NewRAGService(db, embedder, configs)

	expectConfigLoad(mock)
	mock.ExpectQuery(matchQuery).
		WithArgs("[1,0]", 0.5, 5).
		WillReturnRows(sqlmock.NewRows([]string{"service_id", "content", "similarity"}).
			AddRow("svc-1", "ktp baru.", 0.8))

	resp, err := rag.Pipeline(context.Background(), "ktp", 5, 0.5)
	require.NoError(t, err)
	assert.Equal(t, "ktp", resp.Query)
	assert.Equal(t, 1, resp.NumResults)
	require.Len(t, resp.SearchResults, 1)
}
