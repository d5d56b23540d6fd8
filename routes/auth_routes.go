package routes

import (
	"github.com/KOLIFAST/backend/internal/handlers"
	"github.com/KOLIFAST/backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes wires the OTP login flow
func SetupAuthRoutes(r *gin.RouterGroup, authHandler *handlers.AuthHandler, jwtSecret string) {
	auth := r.Group("/auth")
	{
		auth.POST("/otp/send", authHandler.SendOTP)
		auth.POST("/otp/verify", authHandler.VerifyOTP)
		auth.POST("/refresh", authHandler.RefreshToken)
	}

	protected := r.Group("/auth")
	protected.Use(middleware.AuthRequired(jwtSecret))
	{
		protected.POST("/logout", authHandler.Logout)
	}
}
