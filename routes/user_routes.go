package routes

import (
	"github.com/KOLIFAST/backend/internal/handlers"
	"github.com/KOLIFAST/backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupUserRoutes wires profile management and user administration
func SetupUserRoutes(r *gin.RouterGroup, userHandler *handlers.UserHandler, jwtSecret string) {
	users := r.Group("/users")
	users.Use(middleware.AuthRequired(jwtSecret))
	{
		users.GET("/me", userHandler.GetProfile)
		users.PUT("/me", userHandler.UpdateProfile)
		users.POST("/me/picture", userHandler.UploadProfilePicture)
		users.POST("/me/become-driver", userHandler.BecomeDriver)
		users.DELETE("/me", userHandler.DeleteAccount)
	}

	admin := r.Group("/admin/users")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		admin.GET("/", userHandler.ListUsers)
		admin.PUT("/:id/status", userHandler.SetUserStatus)
	}
}
