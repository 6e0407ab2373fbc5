package models

import "time"

type CategoryCount struct {
	Category   string  `json:"category"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type KnowledgeBaseStats struct {
	TotalServices     int             `json:"total_services"`
	TotalEmbedded     int             `json:"total_embedded"`
	EmbeddingCoverage float64         `json:"embedding_coverage"`
	TopCategories     []CategoryCount `json:"top_categories"`
	LastUpdated       *time.Time      `json:"last_updated,omitempty"`
}

type AIConfigStatus struct {
	GeminiAPIConfigured bool    `json:"gemini_api_configured"`
	TopK                int     `json:"top_k"`
	MinSimilarity       float64 `json:"min_similarity"`
	Temperature         float64 `json:"temperature"`
	MaxTokens           int     `json:"max_tokens"`
}

type ChatAnalytics struct {
	TotalSessions         int     `db:"total_sessions" json:"total_sessions"`
	ActiveSessions        int     `db:"active_sessions" json:"active_sessions"`
	TotalMessages         int     `db:"total_messages" json:"total_messages"`
	UserMessages          int     `db:"user_messages" json:"user_messages"`
	AssistantMessages     int     `db:"assistant_messages" json:"assistant_messages"`
	AvgMessagesPerSession float64 `db:"-" json:"avg_messages_per_session"`
	SessionsToday         int     `db:"sessions_today" json:"sessions_today"`
	MessagesToday         int     `db:"messages_today" json:"messages_today"`
}

type DatabaseHealth struct {
	Status         string   `json:"status"`
	ResponseTimeMs *float64 `json:"response_time_ms,omitempty"`
	Error          *string  `json:"error,omitempty"`
}

type LLMHealth struct {
	Status           string  `json:"status"`
	APIKeyConfigured bool    `json:"api_key_configured"`
	ModelName        string  `json:"model_name"`
	Error            *string `json:"error,omitempty"`
}

type SystemHealth struct {
	OverallStatus string         `json:"overall_status"`
	Database      DatabaseHealth `json:"database"`
	LLM           LLMHealth      `json:"llm"`
}

type AdminDashboard struct {
	KnowledgeBase KnowledgeBaseStats `json:"knowledge_base"`
	AIConfig      AIConfigStatus     `json:"ai_config"`
	ChatAnalytics ChatAnalytics      `json:"chat_analytics"`
	SystemHealth  SystemHealth       `json:"system_health"`
	GeneratedAt   time.Time          `json:"generated_at"`
}
