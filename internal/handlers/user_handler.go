package handlers

import (
	"github.com/KOLIFAST/backend/internal/models"
	"github.com/KOLIFAST/backend/internal/services"
	"github.com/KOLIFAST/backend/internal/utils"
	"github.com/KOLIFAST/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService   services.UserService
	uploadService services.UploadService
	audit         *logger.AuditLogger
}

func NewUserHandler(userService services.UserService, uploadService services.UploadService, audit *logger.AuditLogger) *UserHandler {
	return &UserHandler{
		userService:   userService,
		uploadService: uploadService,
		audit:         audit,
	}
}

// GetProfile returns the caller's profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Profile retrieved", user)
}

// UpdateProfile updates name and picture
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	var request services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, &request)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Profile updated", user)
}

// UploadProfilePicture stores a new avatar and saves its key on the profile
func (h *UserHandler) UploadProfilePicture(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	header, err := c.FormFile("picture")
	if err != nil {
		utils.BadRequestResponse(c, "Picture file is required")
		return
	}

	result, err := h.uploadService.UploadProfilePicture(c.Request.Context(), userID.Hex(), header)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, &services.UpdateProfileRequest{
		ProfilePicture: result.Key,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Profile picture updated", user)
}

// BecomeDriver switches the account into the driver role
func (h *UserHandler) BecomeDriver(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	user, err := h.userService.BecomeDriver(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Driver role activated", user)
}

// DeleteAccount soft-deletes the caller's account
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteAccount(c.Request.Context(), userID); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.NoContentResponse(c)
}

// ListUsers returns users, optionally filtered by type (admin)
func (h *UserHandler) ListUsers(c *gin.Context) {
	userType := models.UserType(c.Query("user_type"))

	params := utils.GetPaginationParams(c)
	users, total, err := h.userService.ListUsers(c.Request.Context(), userType, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Users retrieved", users, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Total:      total,
		Count:      len(users),
	})
}

// SetUserStatus suspends or reactivates an account (admin)
func (h *UserHandler) SetUserStatus(c *gin.Context) {
	adminID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	userID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var request struct {
		Status models.UserStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.userService.SetUserStatus(c.Request.Context(), userID, request.Status); err != nil {
		handleServiceError(c, err)
		return
	}

	h.audit.LogAction("user_status_change", "user", &adminID, map[string]interface{}{
		"target_user_id": userID.Hex(),
		"status":         string(request.Status),
	})

	utils.SuccessResponse(c, "User status updated", nil)
}
