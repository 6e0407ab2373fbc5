package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/models"
)

var serviceColumnNames = []string{
	"id", "jenis_instansi", "nama_layanan", "deskripsi_singkat", "instansi_penyelenggara",
	"persyaratan", "waktu_penyelesaian", "tarif_pelayanan", "prosedur", "produk_layanan",
	"pengaduan", "dasar_hukum", "sarana_prasarana", "komponen_pelaksana", "pengawasan_internal",
	"jumlah_pelaksana", "jaminan_pelayanan", "jaminan_keamanan", "created_at",
}

// newMockDBRegexp uses the default regexp matcher, for queries built from
// the multi-line column list.
func newMockDBRegexp(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

type fakeEnqueuer struct {
	serviceIDs []string
	err        error
}

func (f *fakeEnqueuer) EnqueueEmbeddingRepair(_ context.Context, serviceID string) error {
	f.serviceIDs = append(f.serviceIDs, serviceID)
	return f.err
}

func missingServiceRows(t *testing.T, ids ...string) *sqlmock.Rows {
	t.Helper()
	rows := sqlmock.NewRows(serviceColumnNames)
	now := time.Now()
	for _, id := range ids {
		rows.AddRow(id, nil, "KTP Baru", nil, nil,
			nil, nil, nil, nil, nil,
			nil, nil, nil, nil, nil,
			nil, nil, nil, now)
	}
	return rows
}

func expectConfigLoadRegexp(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT config_key, config_value FROM ai_config`).
		WillReturnRows(sqlmock.NewRows([]string{"config_key", "config_value"}).
			AddRow("gemini_api_key", "stored-key"))
}

func TestDeleteService(t *testing.T) {
	db, mock := newMockDBRegexp(t)
	catalog := NewCatalogService(db, &fakeEmbedder{}, NewConfigService(db, ""), nil)

	mock.ExpectExec(`DELETE FROM services WHERE id = \$1`).
		WithArgs("svc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := catalog.DeleteService(context.Background(), "svc-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeleteServiceNotFound(t *testing.T) {
	db, mock := newMockDBRegexp(t)
	catalog := NewCatalogService(db, &fakeEmbedder{}, NewConfigService(db, ""), nil)

	mock.ExpectExec(`DELETE FROM services WHERE id = \$1`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := catalog.DeleteService(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetServiceNotFound(t *testing.T) {
	db, mock := newMockDBRegexp(t)
	catalog := NewCatalogService(db, &fakeEmbedder{}, NewConfigService(db, ""), nil)

	mock.ExpectQuery(`SELECT (.+) FROM services WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	record, err := catalog.GetService(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestRepairMissingEmbeddings(t *testing.T) {
	db, mock := newMockDBRegexp(t)
	embedder := &fakeEmbedder{vec: []float32{3, 4}}
	catalog := NewCatalogService(db, embedder, NewConfigService(db, "key"), nil)

	mock.ExpectQuery(`SELECT (.+) FROM services s\s+WHERE NOT EXISTS`).
		WillReturnRows(missingServiceRows(t, "svc-1", "svc-2"))
	expectConfigLoadRegexp(mock)
	mock.ExpectExec(`INSERT INTO service_embeddings`).
		WithArgs("svc-1", "ktp baru.", "[0.6,0.8]").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectConfigLoadRegexp(mock)
	mock.ExpectExec(`INSERT INTO service_embeddings`).
		WithArgs("svc-2", "ktp baru.", "[0.6,0.8]").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repaired, failed, err := catalog.RepairMissingEmbeddings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repaired)
	assert.Equal(t, 0, failed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepairMissingEmbeddingsPartialFailure(t *testing.T) {
	db, mock := newMockDBRegexp(t)
	embedder := &fakeEmbedder{err: errors.New("quota exceeded")}
	catalog := NewCatalogService(db, embedder, NewConfigService(db, "key"), nil)

	mock.ExpectQuery(`SELECT (.+) FROM services s\s+WHERE NOT EXISTS`).
		WillReturnRows(missingServiceRows(t, "svc-1"))
	expectConfigLoadRegexp(mock)

	repaired, failed, err := catalog.RepairMissingEmbeddings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, repaired)
	assert.Equal(t, 1, failed)
}

func TestEmbedServiceFailureEnqueuesRepair(t *testing.T) {
	db, mock := newMockDBRegexp(t)
	embedder := &fakeEmbedder{err: errors.New("quota exceeded")}
	enqueuer := &fakeEnqueuer{}
	catalog := NewCatalogService(db, embedder, NewConfigService(db, "key"), enqueuer)

	expectConfigLoadRegexp(mock)
	record := models.ServiceRecord{ID: "svc-1", NamaLayanan: strPtr("KTP Baru")}
	catalog.embedService(context.Background(), record)

	assert.Equal(t, []string{"svc-1"}, enqueuer.serviceIDs)
}
