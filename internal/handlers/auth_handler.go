package handlers

import (
	"github.com/KOLIFAST/backend/internal/services"
	"github.com/KOLIFAST/backend/internal/utils"
	"github.com/KOLIFAST/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
	audit       *logger.AuditLogger
}

func NewAuthHandler(authService services.AuthService, audit *logger.AuditLogger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		audit:       audit,
	}
}

// SendOTP sends a one-time login code to a phone number
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var request services.SendOTPRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	response, err := h.authService.SendOTP(c.Request.Context(), &request)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "OTP sent", response)
}

// VerifyOTP checks the code and logs the user in, creating the account on
// first login
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var request services.VerifyOTPRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	response, err := h.authService.VerifyOTP(c.Request.Context(), &request)
	if err != nil {
		h.audit.LogAuthEvent("otp_verify", nil, c.ClientIP(), c.Request.UserAgent(), false)
		handleServiceError(c, err)
		return
	}

	h.audit.LogAuthEvent("otp_verify", &response.User.ID, c.ClientIP(), c.Request.UserAgent(), true)

	if response.IsNew {
		utils.CreatedResponse(c, "Account created", response)
		return
	}
	utils.SuccessResponse(c, "Login successful", response)
}

// RefreshToken exchanges a refresh token for a new token pair
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var request struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	tokens, err := h.authService.RefreshToken(c.Request.Context(), request.RefreshToken)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Token refreshed", tokens)
}

// Logout revokes the user's refresh tokens
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	if err := h.authService.Logout(c.Request.Context(), userID.Hex()); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Logged out", nil)
}
