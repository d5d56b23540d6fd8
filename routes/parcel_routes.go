package routes

import (
	"github.com/KOLIFAST/backend/internal/handlers"
	"github.com/KOLIFAST/backend/internal/middleware"
	"github.com/KOLIFAST/backend/internal/repositories/interfaces"

	"github.com/gin-gonic/gin"
)

// SetupParcelRoutes wires delivery creation, tracking and the driver flow
func SetupParcelRoutes(r *gin.RouterGroup, parcelHandler *handlers.ParcelHandler, userRepo interfaces.UserRepository, jwtSecret string) {
	// Public tracking
	r.GET("/track/:tracking_number", parcelHandler.TrackParcel)

	parcels := r.Group("/parcels")
	parcels.Use(middleware.AuthRequired(jwtSecret))
	{
		parcels.POST("/estimate", parcelHandler.EstimateCost)
		parcels.POST("/", parcelHandler.CreateParcel)
		parcels.GET("/", parcelHandler.ListParcels)
		parcels.GET("/:id", parcelHandler.GetParcel)
		parcels.PUT("/:id/cancel", parcelHandler.CancelParcel)
	}

	// Delivery work requires a verified driver
	driver := r.Group("/driver/parcels")
	driver.Use(
		middleware.AuthRequired(jwtSecret),
		middleware.DriverRequired(),
		middleware.VerifiedDriverRequired(userRepo),
	)
	{
		driver.PUT("/:id/accept", parcelHandler.AcceptParcel)
		driver.PUT("/:id/status", parcelHandler.UpdateStatus)
	}
}
