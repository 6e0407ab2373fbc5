package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/internal/database"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/internal/logger"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/models"
)

const serviceColumns = `id, jenis_instansi, nama_layanan, deskripsi_singkat, instansi_penyelenggara,
	persyaratan, waktu_penyelesaian, tarif_pelayanan, prosedur, produk_layanan, pengaduan,
	dasar_hukum, sarana_prasarana, komponen_pelaksana, pengawasan_internal, jumlah_pelaksana,
	jaminan_pelayanan, jaminan_keamanan, created_at`

const insertServiceQuery = `INSERT INTO services (
	jenis_instansi, nama_layanan, deskripsi_singkat, instansi_penyelenggara,
	persyaratan, waktu_penyelesaian, tarif_pelayanan, prosedur, produk_layanan, pengaduan,
	dasar_hukum, sarana_prasarana, komponen_pelaksana, pengawasan_internal, jumlah_pelaksana,
	jaminan_pelayanan, jaminan_keamanan
) VALUES (
	:jenis_instansi, :nama_layanan, :deskripsi_singkat, :instansi_penyelenggara,
	:persyaratan, :waktu_penyelesaian, :tarif_pelayanan, :prosedur, :produk_layanan, :pengaduan,
	:dasar_hukum, :sarana_prasarana, :komponen_pelaksana, :pengawasan_internal, :jumlah_pelaksana,
	:jaminan_pelayanan, :jaminan_keamanan
) RETURNING ` + serviceColumns

const updateServiceQuery = `UPDATE services SET
	jenis_instansi = :jenis_instansi, nama_layanan = :nama_layanan,
	deskripsi_singkat = :deskripsi_singkat, instansi_penyelenggara = :instansi_penyelenggara,
	persyaratan = :persyaratan, waktu_penyelesaian = :waktu_penyelesaian,
	tarif_pelayanan = :tarif_pelayanan, prosedur = :prosedur, produk_layanan = :produk_layanan,
	pengaduan = :pengaduan, dasar_hukum = :dasar_hukum, sarana_prasarana = :sarana_prasarana,
	komponen_pelaksana = :komponen_pelaksana, pengawasan_internal = :pengawasan_internal,
	jumlah_pelaksana = :jumlah_pelaksana, jaminan_pelayanan = :jaminan_pelayanan,
	jaminan_keamanan = :jaminan_keamanan
WHERE id = :id RETURNING ` + serviceColumns

// upsertEmbeddingQuery keeps one embedding row per service; rewrites replace
// the previous vector in place.
const upsertEmbeddingQuery = `INSERT INTO service_embeddings (service_id, content, embedding)
VALUES ($1, $2, $3::vector)
ON CONFLICT (service_id) DO UPDATE SET content = EXCLUDED.content, embedding = EXCLUDED.embedding`

// RepairEnqueuer schedules a background embedding repair. Implemented by
// internal/queue.Client; nil disables enqueueing (the cron repair still
// catches up).
type RepairEnqueuer interface {
	EnqueueEmbeddingRepair(ctx context.Context, serviceID string) error
}

// CatalogService owns the service catalog and keeps the embedding index in
// step with it. Writes are two-phase: the record insert/update is the
// authoritative operation, the embedding write is best effort and repaired
// asynchronously when it fails. A service without an embedding is valid but
// unfindable until repaired.
type CatalogService struct {
	db       *sqlx.DB
	embedder Embedder
	configs  *ConfigService
	enqueuer RepairEnqueuer
}

func NewCatalogService(db *sqlx.DB, embedder Embedder, configs *ConfigService, enqueuer RepairEnqueuer) *CatalogService {
	return &CatalogService{db: db, embedder: embedder, configs: configs, enqueuer: enqueuer}
}

func (s *CatalogService) CreateService(ctx context.Context, input models.ServiceInput) (models.ServiceRecord, error) {
	record, err := s.insertService(ctx, input)
	if err != nil {
		return models.ServiceRecord{}, fmt.Errorf("failed to create service: %w", err)
	}

	s.embedService(ctx, record)
	return record, nil
}

// CreateServicesBulk inserts each record independently; one bad record does
// not abort the rest. Returns the created records and the count that failed.
func (s *CatalogService) CreateServicesBulk(ctx context.Context, inputs []models.ServiceInput) ([]models.ServiceRecord, int, error) {
	created := make([]models.ServiceRecord, 0, len(inputs))
	failed := 0
	for _, input := range inputs {
		record, err := s.insertService(ctx, input)
		if err != nil {
			logger.Warn("bulk create: service insert failed", "error", err)
			failed++
			continue
		}
		s.embedService(ctx, record)
		created = append(created, record)
	}
	if len(created) == 0 && failed > 0 {
		return nil, failed, fmt.Errorf("all %d service inserts failed", failed)
	}
	return created, failed, nil
}

func (s *CatalogService) ListServices(ctx context.Context, limit, offset int) ([]models.ServiceRecord, error) {
	records := make([]models.ServiceRecord, 0, limit)
	err := s.db.SelectContext(ctx, &records,
		`SELECT `+serviceColumns+` FROM services ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return records, nil
}

// GetService returns nil (without error) when the service does not exist.
func (s *CatalogService) GetService(ctx context.Context, id string) (*models.ServiceRecord, error) {
	var record models.ServiceRecord
	err := s.db.GetContext(ctx, &record,
		`SELECT `+serviceColumns+` FROM services WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *CatalogService) CountServices(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM services`); err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateService rewrites the record and re-embeds it, since any field change
// can alter the composed content. Returns nil when the id does not exist.
func (s *CatalogService) UpdateService(ctx context.Context, id string, input models.ServiceInput) (*models.ServiceRecord, error) {
	args := struct {
		ID string `db:"id"`
		models.ServiceInput
	}{ID: id, ServiceInput: input}

	stmt, err := s.db.PrepareNamedContext(ctx, updateServiceQuery)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var record models.ServiceRecord
	err = stmt.GetContext(ctx, &record, args)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update service: %w", err)
	}

	s.embedService(ctx, record)
	return &record, nil
}

// DeleteService removes the record; the embedding row goes with it via the
// foreign key cascade. Returns false when the id does not exist.
func (s *CatalogService) DeleteService(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete service: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// RepairMissingEmbeddings embeds every service that has no embedding row.
// Idempotent: services already embedded are untouched, so the repair task and
// the cron schedule can overlap safely.
func (s *CatalogService) RepairMissingEmbeddings(ctx context.Context) (repaired, failed int, err error) {
	var missing []models.ServiceRecord
	err = s.db.SelectContext(ctx, &missing,
		`SELECT `+serviceColumns+` FROM services s
		 WHERE NOT EXISTS (SELECT 1 FROM service_embeddings e WHERE e.service_id = s.id)`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to find services missing embeddings: %w", err)
	}

	for _, record := range missing {
		if err := s.writeEmbedding(ctx, record); err != nil {
			logger.Warn("embedding repair failed for service", "service_id", record.ID, "error", err)
			failed++
			continue
		}
		repaired++
	}
	if repaired > 0 || failed > 0 {
		logger.Info("embedding repair pass finished", "repaired", repaired, "failed", failed)
	}
	return repaired, failed, nil
}

func (s *CatalogService) insertService(ctx context.Context, input models.ServiceInput) (models.ServiceRecord, error) {
	stmt, err := s.db.PrepareNamedContext(ctx, insertServiceQuery)
	if err != nil {
		return models.ServiceRecord{}, err
	}
	defer stmt.Close()

	var record models.ServiceRecord
	if err := stmt.GetContext(ctx, &record, input); err != nil {
		return models.ServiceRecord{}, err
	}
	return record, nil
}

// embedService is phase two of a catalog write. On failure it logs, enqueues
// a background repair, and returns; the catalog write has already succeeded.
func (s *CatalogService) embedService(ctx context.Context, record models.ServiceRecord) {
	if err := s.writeEmbedding(ctx, record); err != nil {
		logger.Warn("embedding write failed, scheduling repair", "service_id", record.ID, "error", err)
		if s.enqueuer != nil {
			if qErr := s.enqueuer.EnqueueEmbeddingRepair(ctx, record.ID); qErr != nil {
				logger.Error("failed to enqueue embedding repair", "service_id", record.ID, "error", qErr)
			}
		}
	}
}

func (s *CatalogService) writeEmbedding(ctx context.Context, record models.ServiceRecord) error {
	content, vec, err := EmbeddingPipeline(ctx, s.embedder, s.configs.ActiveGeminiKey(ctx), record)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, upsertEmbeddingQuery,
		record.ID, content, database.VectorLiteral(vec))
	return err
}
