package handlers

import (
	"errors"
	"net/http"

	"github.com/KOLIFAST/backend/internal/services"
	"github.com/KOLIFAST/backend/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// handleServiceError translates the service error taxonomy to HTTP responses.
func handleServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		if len(validationErr.Fields) > 0 {
			utils.ErrorResponseWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", validationErr.Message, validationErr.Fields)
		} else {
			utils.BadRequestResponse(c, validationErr.Message)
		}
		return
	}

	var notFoundErr *services.NotFoundError
	if errors.As(err, &notFoundErr) {
		utils.NotFoundResponse(c, notFoundErr.Resource)
		return
	}

	var conflictErr *services.ConflictError
	if errors.As(err, &conflictErr) {
		utils.ConflictResponse(c, conflictErr.Message)
		return
	}

	var storageErr *services.StorageError
	if errors.As(err, &storageErr) && storageErr.Retryable {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "TEMPORARY_FAILURE", "Temporary failure, please retry")
		return
	}

	utils.InternalServerErrorResponse(c)
}

func userIDFromContext(c *gin.Context) (primitive.ObjectID, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		utils.UnauthorizedResponse(c)
		return primitive.NilObjectID, false
	}
	userID, ok := value.(primitive.ObjectID)
	if !ok {
		utils.UnauthorizedResponse(c)
		return primitive.NilObjectID, false
	}
	return userID, true
}

func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}
