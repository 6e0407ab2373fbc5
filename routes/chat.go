package routes

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/internal/config"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/internal/logger"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/models"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/services"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/utils"
)

const (
	sessionCookieName   = "session_id"
	sessionCookieMaxAge = 24 * 60 * 60

	// recentContextMessages bounds how much history feeds back into the
	// prompt per turn.
	recentContextMessages = 5

	chatTimeout = 30 * time.Second
)

// ChatDeps bundles everything the public chat endpoints need.
type ChatDeps struct {
	Config   *config.Config
	Sessions *services.SessionService
	Configs  *services.ConfigService
	RAG      *services.RAGService
	LLM      *services.LLMService
}

// SetupChatRoutes registers the anonymous end-user endpoints. No auth; the
// session cookie is the only identity.
func SetupChatRoutes(router *gin.Engine, deps ChatDeps) {
	chat := router.Group("/chat")

	setSessionCookie := func(c *gin.Context, sessionID string) {
		secure := deps.Config.GinMode == "release"
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookieName, sessionID, sessionCookieMaxAge, "/", "", secure, true)
	}

	chat.POST("", func(c *gin.Context) {
		var req models.UserChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), chatTimeout)
		defer cancel()

		candidate, _ := c.Cookie(sessionCookieName)
		sessionID, isNew, err := deps.Sessions.ResolveOrCreate(ctx, candidate)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to resolve session", nil)
			return
		}
		setSessionCookie(c, sessionID)

		// Context comes from turns before this one; the new question is not
		// persisted yet.
		conversationContext := ""
		if !isNew {
			conversationContext, err = deps.Sessions.RecentContext(ctx, sessionID, recentContextMessages)
			if err != nil {
				logger.Warn("failed to load conversation context", "session_id", sessionID, "error", err)
			}
		}

		ragParams, err := deps.Configs.ActiveRAGParams(ctx)
		if err != nil {
			ragParams = models.RAGParams{TopK: services.DefaultTopK, MinSimilarity: services.DefaultMinSimilarity}
		}

		results, err := deps.RAG.SearchSimilarServices(ctx, req.Query, ragParams.TopK, ragParams.MinSimilarity)
		if err != nil {
			logger.Error("retrieval failed", "session_id", sessionID, "error", err)
			utils.RespondWithInternalError(c, "Failed to process your question", nil)
			return
		}

		answer := deps.LLM.GenerateResponseWithHistory(ctx, req.Query, results, conversationContext)

		// Persist the turn after generation so the context window never
		// contains the turn in flight.
		if err := deps.Sessions.AddMessage(ctx, sessionID, models.RoleUser, req.Query); err != nil {
			logger.Warn("failed to persist user message", "session_id", sessionID, "error", err)
		}
		if err := deps.Sessions.AddMessage(ctx, sessionID, models.RoleAssistant, answer); err != nil {
			logger.Warn("failed to persist assistant message", "session_id", sessionID, "error", err)
		}

		c.JSON(http.StatusOK, models.UserChatResponse{
			Question: req.Query,
			Answer:   answer,
		})
	})

	chat.GET("/history", func(c *gin.Context) {
		sessionID, ok := sessionCookieValue(c)
		if !ok {
			utils.RespondWithNotFound(c, "No active session")
			return
		}

		limit := 50
		if raw := c.Query("limit"); raw != "" {
			if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 200 {
				limit = v
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), chatTimeout)
		defer cancel()

		session, err := deps.Sessions.GetSession(ctx, sessionID)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load session", nil)
			return
		}
		if session == nil {
			utils.RespondWithNotFound(c, "Session not found")
			return
		}

		history, err := deps.Sessions.ConversationHistory(ctx, sessionID, limit)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load history", nil)
			return
		}

		info, err := deps.Sessions.SessionInfo(ctx, sessionID)
		if err != nil || info == nil {
			utils.RespondWithInternalError(c, "Failed to load session info", nil)
			return
		}

		c.JSON(http.StatusOK, models.ConversationHistoryResponse{
			SessionID:     sessionID,
			History:       history,
			TotalMessages: info.TotalMessages,
		})
	})

	chat.POST("/new-session", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), chatTimeout)
		defer cancel()

		// End the old session first so it cannot be resumed by a stale
		// cookie copy.
		if old, ok := sessionCookieValue(c); ok {
			if _, err := deps.Sessions.DeactivateSession(ctx, old); err != nil {
				logger.Warn("failed to deactivate previous session", "session_id", old, "error", err)
			}
		}

		session, err := deps.Sessions.CreateSession(ctx)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to create session", nil)
			return
		}
		setSessionCookie(c, session.SessionID)

		c.JSON(http.StatusOK, models.NewSessionResponse{
			SessionID: session.SessionID,
			Message:   "Sesi percakapan baru telah dibuat",
		})
	})

	chat.DELETE("/session", func(c *gin.Context) {
		sessionID, ok := sessionCookieValue(c)
		if !ok {
			utils.RespondWithNotFound(c, "No active session")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), chatTimeout)
		defer cancel()

		ok, err := deps.Sessions.DeactivateSession(ctx, sessionID)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to end session", nil)
			return
		}
		if !ok {
			utils.RespondWithNotFound(c, "Session not found")
			return
		}

		secure := deps.Config.GinMode == "release"
		c.SetCookie(sessionCookieName, "", -1, "/", "", secure, true)
		c.JSON(http.StatusOK, gin.H{"message": "Sesi percakapan telah diakhiri"})
	})

	chat.GET("/session-info", func(c *gin.Context) {
		sessionID, ok := sessionCookieValue(c)
		if !ok {
			utils.RespondWithNotFound(c, "No active session")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), chatTimeout)
		defer cancel()

		info, err := deps.Sessions.SessionInfo(ctx, sessionID)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load session info", nil)
			return
		}
		if info == nil {
			utils.RespondWithNotFound(c, "Session not found")
			return
		}

		c.JSON(http.StatusOK, info)
	})

	chat.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "chat",
		})
	})
}

// sessionCookieValue returns the session cookie only when it holds a
// well-formed UUID. The session_id column is UUID-typed; anything else must
// be treated as no session, not forwarded to the store.
func sessionCookieValue(c *gin.Context) (string, bool) {
	sessionID, err := c.Cookie(sessionCookieName)
	if err != nil || sessionID == "" {
		return "", false
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return "", false
	}
	return sessionID, true
}
