package routes

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/middleware"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/models"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/services"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/utils"
)

const (
	adminTimeout = 30 * time.Second
	// Excel pulls the full tables, give it more room.
	exportTimeout = 2 * time.Minute

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// AdminDeps bundles the back-office services.
type AdminDeps struct {
	Catalog   *services.CatalogService
	Configs   *services.ConfigService
	RAG       *services.RAGService
	LLM       *services.LLMService
	Metrics   *services.MetricsService
	Dashboard *services.DashboardService
	Export    *services.ExportService
}

// SetupAdminRoutes registers the authenticated back-office API: catalog
// management, AI tuning, quality testing and reporting.
func SetupAdminRoutes(router *gin.Engine, deps AdminDeps, authMW *middleware.AuthMiddleware) {
	admin := router.Group("/admin")
	admin.Use(authMW.RequireAuth())

	// --- Service catalog ---

	admin.POST("/services", func(c *gin.Context) {
		var input models.ServiceInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), adminTimeout)
		defer cancel()

		record, err := deps.Catalog.CreateService(ctx, input)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to create service", nil)
			return
		}
		c.JSON(http.StatusCreated, record)
	})

	admin.POST("/services/bulk", func(c *gin.Context) {
		var inputs []models.ServiceInput
		if err := c.ShouldBindJSON(&inputs); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}
		if len(inputs) == 0 {
			utils.RespondWithBadRequest(c, "At least one service is required", nil)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), exportTimeout)
		defer cancel()

		created, failed, err := deps.Catalog.CreateServicesBulk(ctx, inputs)
		if err != nil {
			utils.RespondWithInternalError(c, "Bulk create failed", gin.H{"failed": failed})
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"created": created,
			"total":   len(created),
			"failed":  failed,
		})
	})

	admin.GET("/services", func(c *gin.Context) {
		limit := parseQueryInt(c, "limit", 50, 1, 200)
		offset := parseQueryInt(c, "offset", 0, 0, 1_000_000)

		ctx, cancel := context.WithTimeout(c.Request.Context(), adminTimeout)
		defer cancel()

		records, err := deps.Catalog.ListServices(ctx, limit, offset)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list services", nil)
			return
		}
		total, err := deps.Catalog.CountServices(ctx)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to count services", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"services": records,
			"total":    total,
			"limit":    limit,
			"offset":   offset,
		})
	})

	admin.GET("/services/:id", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), adminTimeout)
		defer cancel()

		record, err := deps.Catalog.GetService(ctx, c.Param("id"))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load service", nil)
			return
		}
		if record == nil {
			utils.RespondWithNotFound(c, "Service not found")
			return
		}
		c.JSON(http.StatusOK, record)
	})

	admin.PUT("/services/:id", func(c *gin.Context) {
		var input models.ServiceInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), adminTimeout)
		defer cancel()

		record, err := deps.Catalog.UpdateService(ctx, c.Param("id"), input)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to update service", nil)
			return
		}
		if record == nil {
			utils.RespondWithNotFound(c, "Service not found")
			return
		}
		c.JSON(http.StatusOK, record)
	})

	admin.DELETE("/services/:id", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), adminTimeout)
		defer cancel()

		ok, err := deps.Catalog.DeleteService(ctx, c.Param("id"))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to delete service", nil)
			return
		}
		if !ok {
			utils.RespondWithNotFound(c, "Service not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Service deleted"})
	})

	admin.POST("/services/repair-embeddings", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), exportTimeout)
		defer cancel()

		repaired, failed, err := deps.Catalog.RepairMissingEmbeddings(ctx)
		if err != nil {
			utils.RespondWithInternalError(c, "Repair failed", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"repaired": repaired, "failed": failed})
	})

	// --- AI configuration ---

	admin.GET("/ai-config", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), adminTimeout)
		defer cancel()

		summary, err := deps.Configs.Summary(ctx)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load configuration", nil)
			return
		}
		c.JSON(http.StatusOK, summary)
	})

	admin.PUT("/ai-config", func(c *gin.Context) {
		var req models.AIConfigUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}
		if err := services.ValidateConfigUpdate(req); err != nil {
			utils.RespondWithBadRequest(c, err.Error(), nil)
			return
		}

		updates := services.ConfigUpdatesFromRequest(req)
		if len(updates) == 0 {
			utils.RespondWithBadRequest(c, "No configuration values provided", nil)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), adminTimeout)
		defer cancel()

		username := middleware.GetUsername(c)
		results, err := deps.Configs.UpdateMultiple(ctx, updates, &username)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to update configuration", nil)
			return
		}

		summary, err := deps.Configs.Summary(ctx)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to reload configuration", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": results, "config": summary})
	})

	// Test chat runs the full pipeline without touching any session and
	// returns the retrieval internals plus quality metrics.
	admin.POST("/ai-config/test-chat", func(c *gin.Context) {
		var req models.TestChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), exportTimeout)
		defer cancel()

		ragParams, err := deps.Configs.ActiveRAGParams(ctx)
		if err != nil {
			ragParams = models.RAGParams{TopK: services.DefaultTopK, MinSimilarity: services.DefaultMinSimilarity}
		}

		results, err := deps.RAG.SearchSimilarServices(ctx, req.Query, ragParams.TopK, ragParams.MinSimilarity)
		if err != nil {
			utils.RespondWithInternalError(c, "Retrieval failed", nil)
			return
		}

		answer := deps.LLM.GenerateResponse(ctx, req.Query, results)
		metrics := deps.Metrics.Score(ctx, req.Query, answer, results)

		c.JSON(http.StatusOK, models.TestChatResponse{
			Query:      req.Query,
			Response:   answer,
			NumSources: len(results),
			Sources:    results,
			Metrics:    metrics,
		})
	})

	// --- Retrieval inspection ---

	admin.POST("/rag/search", func(c *gin.Context) {
		var req models.RAGQueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}
		if req.TopK < 1 || req.TopK > services.MaxTopK {
			req.TopK = services.DefaultTopK
		}
		if req.SimilarityThreshold < 0 || req.SimilarityThreshold > 1 {
			req.SimilarityThreshold = services.DefaultMinSimilarity
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), adminTimeout)
		defer cancel()

		resp, err := deps.RAG.Pipeline(ctx, req.Query, req.TopK, req.SimilarityThreshold)
		if err != nil {
			utils.RespondWithInternalError(c, "Search failed", nil)
			return
		}
		c.JSON(http.StatusOK, resp)
	})

	// --- Dashboard ---

	admin.GET("/dashboard", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), adminTimeout)
		defer cancel()

		c.JSON(http.StatusOK, deps.Dashboard.Dashboard(ctx))
	})

	admin.GET("/dashboard/knowledge-base", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), adminTimeout)
		defer cancel()

		stats, err := deps.Dashboard.KnowledgeBaseStats(ctx)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load knowledge base stats", nil)
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	admin.GET("/dashboard/chat-analytics", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), adminTimeout)
		defer cancel()

		analytics, err := deps.Dashboard.ChatAnalytics(ctx)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load chat analytics", nil)
			return
		}
		c.JSON(http.StatusOK, analytics)
	})

	admin.GET("/dashboard/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), adminTimeout)
		defer cancel()

		c.JSON(http.StatusOK, deps.Dashboard.SystemHealth(ctx))
	})

	// --- Exports ---

	admin.GET("/export/services", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), exportTimeout)
		defer cancel()

		data, count, err := deps.Export.ExportServicesExcel(ctx)
		if err != nil {
			utils.RespondWithInternalError(c, "Export failed", nil)
			return
		}

		c.Header("Content-Disposition", "attachment; filename=layanan_publik.xlsx")
		c.Header("X-Record-Count", strconv.Itoa(count))
		c.Data(http.StatusOK, xlsxContentType, data)
	})

	admin.GET("/export/chats", func(c *gin.Context) {
		from := parseQueryTime(c, "from")
		to := parseQueryTime(c, "to")

		ctx, cancel := context.WithTimeout(c.Request.Context(), exportTimeout)
		defer cancel()

		data, count, err := deps.Export.ExportChatHistoryExcel(ctx, from, to)
		if err != nil {
			utils.RespondWithInternalError(c, "Export failed", nil)
			return
		}

		c.Header("Content-Disposition", "attachment; filename=chat_history.xlsx")
		c.Header("X-Record-Count", strconv.Itoa(count))
		c.Data(http.StatusOK, xlsxContentType, data)
	})
}

func parseQueryInt(c *gin.Context, name string, def, min, max int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		return def
	}
	return v
}

func parseQueryTime(c *gin.Context, name string) time.Time {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t
	}
	return time.Time{}
}
