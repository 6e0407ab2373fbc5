package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/models"
)

// Documented defaults used whenever a key is missing, unparseable, or
// outside its range.
const (
	DefaultTopK          = 5
	DefaultMinSimilarity = 0.5
	DefaultTemperature   = 0.7
	DefaultMaxTokens     = 1024
)

// Valid ranges for admin updates. Out-of-range values are rejected, never
// coerced.
const (
	MinTopK = 1
	MaxTopK = 20
)

// ConfigService reads and writes the hot-reloadable ai_config table. Every
// RAG/generation call takes a fresh snapshot, so updates apply without a
// restart.
type ConfigService struct {
	db             *sqlx.DB
	fallbackAPIKey string
}

func NewConfigService(db *sqlx.DB, fallbackAPIKey string) *ConfigService {
	return &ConfigService{db: db, fallbackAPIKey: fallbackAPIKey}
}

func (s *ConfigService) GetAll(ctx context.Context) (map[string]string, error) {
	var rows []models.AIConfig
	if err := s.db.SelectContext(ctx, &rows, `SELECT config_key, config_value FROM ai_config`); err != nil {
		return nil, fmt.Errorf("failed to load ai_config: %w", err)
	}

	configs := make(map[string]string, len(rows))
	for _, row := range rows {
		configs[row.ConfigKey] = row.ConfigValue
	}
	return configs, nil
}

func (s *ConfigService) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value,
		`SELECT config_value FROM ai_config WHERE config_key = $1`, key)
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set updates one config key. Returns false when the key does not exist;
// unknown keys are not created implicitly.
func (s *ConfigService) Set(ctx context.Context, key, value string, updatedBy *string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ai_config SET config_value = $1, updated_at = now(), updated_by = COALESCE($2, updated_by) WHERE config_key = $3`,
		value, updatedBy, key)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// UpdateMultiple applies a batch of key updates and reports per-key success.
func (s *ConfigService) UpdateMultiple(ctx context.Context, updates map[string]string, updatedBy *string) (map[string]bool, error) {
	results := make(map[string]bool, len(updates))
	for key, value := range updates {
		ok, err := s.Set(ctx, key, value, updatedBy)
		if err != nil {
			return nil, err
		}
		results[key] = ok
	}
	return results, nil
}

// ActiveGeminiKey returns the stored API key, falling back to the
// environment-provided key when none is configured.
func (s *ConfigService) ActiveGeminiKey(ctx context.Context) string {
	configs, err := s.GetAll(ctx)
	if err != nil {
		return s.fallbackAPIKey
	}
	if key := configs["gemini_api_key"]; key != "" {
		return key
	}
	return s.fallbackAPIKey
}

// ActiveRAGParams returns the retrieval snapshot for one request.
func (s *ConfigService) ActiveRAGParams(ctx context.Context) (models.RAGParams, error) {
	configs, err := s.GetAll(ctx)
	if err != nil {
		return models.RAGParams{}, err
	}
	return models.RAGParams{
		TopK:          parseIntConfig(configs, "top_k", DefaultTopK, MinTopK, MaxTopK),
		MinSimilarity: parseFloatConfig(configs, "min_similarity", DefaultMinSimilarity, 0, 1),
	}, nil
}

// ActiveGenerationParams returns the generation snapshot for one request.
func (s *ConfigService) ActiveGenerationParams(ctx context.Context) (models.GenerationParams, error) {
	configs, err := s.GetAll(ctx)
	if err != nil {
		return models.GenerationParams{}, err
	}
	return models.GenerationParams{
		Temperature: float32(parseFloatConfig(configs, "temperature", DefaultTemperature, 0, 2)),
		MaxTokens:   int32(parseIntConfig(configs, "max_tokens", DefaultMaxTokens, 1, 8192)),
	}, nil
}

// Summary returns the admin view with the API key masked.
func (s *ConfigService) Summary(ctx context.Context) (models.AIConfigSummary, error) {
	configs, err := s.GetAll(ctx)
	if err != nil {
		return models.AIConfigSummary{}, err
	}
	return models.AIConfigSummary{
		GeminiAPIKey:  MaskAPIKey(configs["gemini_api_key"]),
		TopK:          parseIntConfig(configs, "top_k", DefaultTopK, MinTopK, MaxTopK),
		MinSimilarity: parseFloatConfig(configs, "min_similarity", DefaultMinSimilarity, 0, 1),
		Temperature:   parseFloatConfig(configs, "temperature", DefaultTemperature, 0, 2),
		MaxTokens:     parseIntConfig(configs, "max_tokens", DefaultMaxTokens, 1, 8192),
	}, nil
}

// ValidateConfigUpdate checks ranges before anything is written.
func ValidateConfigUpdate(req models.AIConfigUpdateRequest) error {
	if req.TopK != nil && (*req.TopK < MinTopK || *req.TopK > MaxTopK) {
		return fmt.Errorf("top_k must be between %d and %d", MinTopK, MaxTopK)
	}
	if req.MinSimilarity != nil && (*req.MinSimilarity < 0 || *req.MinSimilarity > 1) {
		return fmt.Errorf("min_similarity must be between 0 and 1")
	}
	if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 2) {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if req.MaxTokens != nil && (*req.MaxTokens < 1 || *req.MaxTokens > 8192) {
		return fmt.Errorf("max_tokens must be between 1 and 8192")
	}
	return nil
}

// ConfigUpdatesFromRequest flattens a validated partial update into the
// string form the store keeps.
func ConfigUpdatesFromRequest(req models.AIConfigUpdateRequest) map[string]string {
	updates := make(map[string]string)
	if req.GeminiAPIKey != nil {
		updates["gemini_api_key"] = *req.GeminiAPIKey
	}
	if req.TopK != nil {
		updates["top_k"] = strconv.Itoa(*req.TopK)
	}
	if req.MinSimilarity != nil {
		updates["min_similarity"] = strconv.FormatFloat(*req.MinSimilarity, 'f', -1, 64)
	}
	if req.Temperature != nil {
		updates["temperature"] = strconv.FormatFloat(*req.Temperature, 'f', -1, 64)
	}
	if req.MaxTokens != nil {
		updates["max_tokens"] = strconv.Itoa(*req.MaxTokens)
	}
	return updates
}

// MaskAPIKey keeps only the last four characters visible.
func MaskAPIKey(key string) string {
	if len(key) > 4 {
		return "***" + key[len(key)-4:]
	}
	return "Not Set"
}

// The parse helpers guard against values written to the table outside the
// admin API: anything unparseable or out of range falls back to the default.

func parseIntConfig(configs map[string]string, key string, defaultValue, min, max int) int {
	if raw, ok := configs[key]; ok {
		if v, err := strconv.Atoi(raw); err == nil && v >= min && v <= max {
			return v
		}
	}
	return defaultValue
}

func parseFloatConfig(configs map[string]string, key string, defaultValue, min, max float64) float64 {
	if raw, ok := configs[key]; ok {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v >= min && v <= max {
			return v
		}
	}
	return defaultValue
}
