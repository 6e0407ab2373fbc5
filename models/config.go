package models

import "time"

// AIConfig is one row of the hot-reloadable key/value AI configuration.
type AIConfig struct {
	ConfigKey   string     `db:"config_key" json:"config_key"`
	ConfigValue string     `db:"config_value" json:"config_value"`
	Description *string    `db:"description" json:"description,omitempty"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
	UpdatedBy   *string    `db:"updated_by" json:"updated_by,omitempty"`
}

// RAGParams is the retrieval snapshot read from ai_config for a single
// request. Handlers pass it down explicitly instead of services reaching
// into a global.
type RAGParams struct {
	TopK          int     `json:"top_k"`
	MinSimilarity float64 `json:"min_similarity"`
}

// GenerationParams is the generation snapshot read from ai_config.
type GenerationParams struct {
	Temperature float32 `json:"temperature"`
	MaxTokens   int32   `json:"max_tokens"`
}

// AIConfigSummary is the admin view of the configuration; the API key is
// masked to its last four characters.
type AIConfigSummary struct {
	GeminiAPIKey  string  `json:"gemini_api_key"`
	TopK          int     `json:"top_k"`
	MinSimilarity float64 `json:"min_similarity"`
	Temperature   float64 `json:"temperature"`
	MaxTokens     int     `json:"max_tokens"`
}

// AIConfigUpdateRequest carries a partial update; only non-nil fields are
// written.
type AIConfigUpdateRequest struct {
	GeminiAPIKey  *string  `json:"gemini_api_key,omitempty"`
	TopK          *int     `json:"top_k,omitempty"`
	MinSimilarity *float64 `json:"min_similarity,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	MaxTokens     *int     `json:"max_tokens,omitempty"`
}
