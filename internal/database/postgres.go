package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ConnectPostgres opens the connection pool and verifies it with a ping.
// The database must have the pgvector extension installed (see migrations).
func ConnectPostgres(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open Postgres connection: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %v", err)
	}

	return db, nil
}

// EmbeddingDimension reads the declared dimension of the
// service_embeddings.embedding column. pgvector keeps the dimension in the
// column's type modifier. Callers compare it against the configured encoder
// dimension; a mismatch would otherwise only show up as opaque cast errors
// on the first write.
func EmbeddingDimension(ctx context.Context, db *sqlx.DB) (int, error) {
	var dim int
	err := db.GetContext(ctx, &dim,
		`SELECT atttypmod FROM pg_attribute WHERE attrelid = 'service_embeddings'::regclass AND attname = 'embedding'`)
	if err != nil {
		return 0, fmt.Errorf("failed to read embedding column dimension: %w", err)
	}
	return dim, nil
}

// VectorLiteral encodes a float32 slice as a pgvector text literal,
// e.g. [0.1,0.2,0.3]. lib/pq has no native vector support, so vectors
// cross the wire as text and are cast server-side.
func VectorLiteral(vec []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
