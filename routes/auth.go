package routes

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/middleware"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/models"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/services"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/utils"
)

const authTimeout = 10 * time.Second

// SetupAuthRoutes registers admin authentication endpoints. Registration is
// itself guarded: only an existing admin can create another.
func SetupAuthRoutes(router *gin.Engine, auth *services.AuthService, authMW *middleware.AuthMiddleware) {
	group := router.Group("/auth")

	group.POST("/login", func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), authTimeout)
		defer cancel()

		resp, err := auth.Login(ctx, req)
		if err != nil {
			if errors.Is(err, services.ErrInvalidCredentials) {
				utils.RespondWithUnauthorized(c, "Invalid username or password")
				return
			}
			utils.RespondWithInternalError(c, "Login failed", nil)
			return
		}

		c.JSON(http.StatusOK, resp)
	})

	protected := group.Group("")
	protected.Use(authMW.RequireAuth())

	protected.POST("/register", func(c *gin.Context) {
		var req models.RegisterAdminRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), authTimeout)
		defer cancel()

		admin, err := auth.Register(ctx, req)
		if err != nil {
			if strings.Contains(err.Error(), "duplicate key") {
				utils.RespondWithConflict(c, "Username or email already exists")
				return
			}
			utils.RespondWithInternalError(c, "Failed to create admin", nil)
			return
		}

		c.JSON(http.StatusCreated, admin)
	})

	protected.POST("/change-password", func(c *gin.Context) {
		var req models.ChangePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), authTimeout)
		defer cancel()

		err := auth.ChangePassword(ctx, middleware.GetUserID(c), req)
		if err != nil {
			if errors.Is(err, services.ErrInvalidCredentials) {
				utils.RespondWithUnauthorized(c, "Current password is incorrect")
				return
			}
			utils.RespondWithInternalError(c, "Failed to change password", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
	})

	protected.GET("/me", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), authTimeout)
		defer cancel()

		admin, err := auth.GetByID(ctx, middleware.GetUserID(c))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load account", nil)
			return
		}
		if admin == nil {
			utils.RespondWithNotFound(c, "Account not found")
			return
		}

		c.JSON(http.StatusOK, admin)
	})
}
