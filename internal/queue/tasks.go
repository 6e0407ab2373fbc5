package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/internal/logger"
)

const (
	TaskEmbeddingRepair = "embedding:repair"
)

// EmbeddingRepairPayload names the service whose embedding write failed.
// The handler runs a full repair pass regardless, so the field is
// informational; the pass fixes every missing embedding it finds.
type EmbeddingRepairPayload struct {
	ServiceID string `json:"service_id"`
}

func NewEmbeddingRepairTask(serviceID string) (*asynq.Task, error) {
	payload, err := json.Marshal(EmbeddingRepairPayload{ServiceID: serviceID})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskEmbeddingRepair,
		payload,
		asynq.MaxRetry(5),
		asynq.Timeout(5*time.Minute),
		asynq.Queue("default"),
	), nil
}

// RedisConnOpt builds the asynq Redis connection from the same REDIS_URL
// forms the rate limiter accepts: a full redis:// or rediss:// URL, or a
// plain host:port with separate password and db.
func RedisConnOpt(addr, password string, db int) asynq.RedisConnOpt {
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opt, err := asynq.ParseRedisURI(addr)
		if err == nil {
			return opt
		}
		logger.Warn("failed to parse redis url, using host:port form", "error", err)
	}
	return asynq.RedisClientOpt{Addr: addr, Password: password, DB: db}
}

// Client wraps the asynq client behind the interface the catalog service
// expects.
type Client struct {
	inner *asynq.Client
}

func NewClient(redisAddr, redisPassword string, redisDB int) *Client {
	return &Client{inner: asynq.NewClient(RedisConnOpt(redisAddr, redisPassword, redisDB))}
}

func (c *Client) EnqueueEmbeddingRepair(ctx context.Context, serviceID string) error {
	task, err := NewEmbeddingRepairTask(serviceID)
	if err != nil {
		return err
	}
	info, err := c.inner.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}
	logger.Info("enqueued embedding repair", "task_id", info.ID, "service_id", serviceID)
	return nil
}

func (c *Client) Close() error {
	return c.inner.Close()
}

// EmbeddingRepairer is the piece of the catalog service the worker needs.
type EmbeddingRepairer interface {
	RepairMissingEmbeddings(ctx context.Context) (repaired, failed int, err error)
}

// TaskProcessor holds the handlers registered with the asynq server.
type TaskProcessor struct {
	catalog EmbeddingRepairer
}

func NewTaskProcessor(catalog EmbeddingRepairer) *TaskProcessor {
	return &TaskProcessor{catalog: catalog}
}

// HandleEmbeddingRepair runs one idempotent repair pass. Failed embeds are
// retried on the next run; a malformed payload is dropped.
func (p *TaskProcessor) HandleEmbeddingRepair(ctx context.Context, t *asynq.Task) error {
	var payload EmbeddingRepairPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	logger.Info("running embedding repair", "trigger_service_id", payload.ServiceID)

	repaired, failed, err := p.catalog.RepairMissingEmbeddings(ctx)
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("embedding repair left %d services unembedded (repaired %d)", failed, repaired)
	}
	return nil
}
