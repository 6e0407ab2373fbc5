package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/models"
)

// DashboardService aggregates read-only operational views for the admin UI.
// Every section degrades independently; a failing query zeroes its own
// section instead of failing the whole dashboard.
type DashboardService struct {
	db          *sqlx.DB
	configs     *ConfigService
	geminiModel string
}

func NewDashboardService(db *sqlx.DB, configs *ConfigService, geminiModel string) *DashboardService {
	return &DashboardService{db: db, configs: configs, geminiModel: geminiModel}
}

func (s *DashboardService) KnowledgeBaseStats(ctx context.Context) (models.KnowledgeBaseStats, error) {
	stats := models.KnowledgeBaseStats{TopCategories: []models.CategoryCount{}}

	err := s.db.GetContext(ctx, &stats.TotalServices, `SELECT COUNT(*) FROM services`)
	if err != nil {
		return stats, err
	}
	err = s.db.GetContext(ctx, &stats.TotalEmbedded, `SELECT COUNT(*) FROM service_embeddings`)
	if err != nil {
		return stats, err
	}
	if stats.TotalServices > 0 {
		stats.EmbeddingCoverage = roundPercent(float64(stats.TotalEmbedded) / float64(stats.TotalServices) * 100)
	}

	var lastUpdated sql.NullTime
	if err := s.db.GetContext(ctx, &lastUpdated, `SELECT MAX(created_at) FROM services`); err == nil && lastUpdated.Valid {
		stats.LastUpdated = &lastUpdated.Time
	}

	type categoryRow struct {
		Category string `db:"category"`
		Count    int    `db:"count"`
	}
	var rows []categoryRow
	err = s.db.SelectContext(ctx, &rows,
		`SELECT COALESCE(jenis_instansi, 'Lainnya') AS category, COUNT(*) AS count
		 FROM services GROUP BY 1 ORDER BY count DESC LIMIT 10`)
	if err != nil {
		return stats, err
	}
	for _, row := range rows {
		percentage := 0.0
		if stats.TotalServices > 0 {
			percentage = roundPercent(float64(row.Count) / float64(stats.TotalServices) * 100)
		}
		stats.TopCategories = append(stats.TopCategories, models.CategoryCount{
			Category:   row.Category,
			Count:      row.Count,
			Percentage: percentage,
		})
	}
	return stats, nil
}

func (s *DashboardService) ChatAnalytics(ctx context.Context) (models.ChatAnalytics, error) {
	var analytics models.ChatAnalytics

	err := s.db.GetContext(ctx, &analytics, `SELECT
		(SELECT COUNT(*) FROM chat_sessions) AS total_sessions,
		(SELECT COUNT(*) FROM chat_sessions WHERE is_active) AS active_sessions,
		(SELECT COUNT(*) FROM chat_history) AS total_messages,
		(SELECT COUNT(*) FROM chat_history WHERE role = 'user') AS user_messages,
		(SELECT COUNT(*) FROM chat_history WHERE role = 'assistant') AS assistant_messages,
		(SELECT COUNT(*) FROM chat_sessions WHERE created_at >= CURRENT_DATE) AS sessions_today,
		(SELECT COUNT(*) FROM chat_history WHERE created_at >= CURRENT_DATE) AS messages_today`)
	if err != nil {
		return models.ChatAnalytics{}, err
	}

	if analytics.TotalSessions > 0 {
		analytics.AvgMessagesPerSession = roundPercent(float64(analytics.TotalMessages) / float64(analytics.TotalSessions))
	}
	return analytics, nil
}

func (s *DashboardService) AIConfigStatus(ctx context.Context) (models.AIConfigStatus, error) {
	summary, err := s.configs.Summary(ctx)
	if err != nil {
		return models.AIConfigStatus{}, err
	}
	return models.AIConfigStatus{
		GeminiAPIConfigured: s.configs.ActiveGeminiKey(ctx) != "",
		TopK:                summary.TopK,
		MinSimilarity:       summary.MinSimilarity,
		Temperature:         summary.Temperature,
		MaxTokens:           summary.MaxTokens,
	}, nil
}

func (s *DashboardService) DatabaseHealth(ctx context.Context) models.DatabaseHealth {
	start := time.Now()
	var one int
	if err := s.db.GetContext(ctx, &one, `SELECT 1`); err != nil {
		msg := err.Error()
		return models.DatabaseHealth{Status: "unhealthy", Error: &msg}
	}
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	return models.DatabaseHealth{Status: "healthy", ResponseTimeMs: &elapsed}
}

func (s *DashboardService) LLMHealth(ctx context.Context) models.LLMHealth {
	configured := s.configs.ActiveGeminiKey(ctx) != ""
	status := "healthy"
	if !configured {
		status = "not_configured"
	}
	return models.LLMHealth{
		Status:           status,
		APIKeyConfigured: configured,
		ModelName:        s.geminiModel,
	}
}

func (s *DashboardService) SystemHealth(ctx context.Context) models.SystemHealth {
	db := s.DatabaseHealth(ctx)
	llm := s.LLMHealth(ctx)

	overall := "healthy"
	if db.Status != "healthy" {
		overall = "unhealthy"
	} else if llm.Status != "healthy" {
		overall = "degraded"
	}
	return models.SystemHealth{OverallStatus: overall, Database: db, LLM: llm}
}

// Dashboard assembles the full admin snapshot. Section query failures leave
// that section zeroed rather than failing the response.
func (s *DashboardService) Dashboard(ctx context.Context) models.AdminDashboard {
	kb, _ := s.KnowledgeBaseStats(ctx)
	aiCfg, _ := s.AIConfigStatus(ctx)
	analytics, _ := s.ChatAnalytics(ctx)

	return models.AdminDashboard{
		KnowledgeBase: kb,
		AIConfig:      aiCfg,
		ChatAnalytics: analytics,
		SystemHealth:  s.SystemHealth(ctx),
		GeneratedAt:   time.Now().UTC(),
	}
}

func roundPercent(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
