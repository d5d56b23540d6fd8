package routes

import (
	"github.com/KOLIFAST/backend/internal/handlers"
	"github.com/KOLIFAST/backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupKYCRoutes wires the driver verification flow
func SetupKYCRoutes(r *gin.RouterGroup, kycHandler *handlers.KYCHandler, jwtSecret string) {
	// Driver-facing routes
	kyc := r.Group("/kyc")
	kyc.Use(middleware.AuthRequired(jwtSecret), middleware.DriverRequired())
	{
		kyc.GET("/status", kycHandler.GetStatus)
		kyc.POST("/documents", kycHandler.SubmitDocument)
		kyc.PUT("/references", kycHandler.SubmitReferences)
		kyc.POST("/submit", kycHandler.SubmitForReview)
	}

	// Review routes
	admin := r.Group("/admin/kyc")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		admin.GET("/drivers/:driver_id", kycHandler.GetDriverStatus)
		admin.GET("/drivers/:driver_id/documents", kycHandler.ListDriverDocuments)
		admin.PUT("/documents/:id/decision", kycHandler.DecideDocument)
		admin.PUT("/references/:id/decision", kycHandler.DecideReference)
	}
}
