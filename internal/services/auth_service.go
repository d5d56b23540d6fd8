package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/KOLIFAST/backend/internal/models"
	"github.com/KOLIFAST/backend/internal/repositories/interfaces"
	"github.com/KOLIFAST/backend/internal/utils"
	"github.com/KOLIFAST/backend/pkg/logger"
	"github.com/KOLIFAST/backend/pkg/sms"
)

// AuthService runs the passwordless login flow. A phone number receives a
// one-time code; verifying it creates the account on first login and returns
// a JWT pair.
type AuthService interface {
	SendOTP(ctx context.Context, request *SendOTPRequest) (*OTPResponse, error)
	VerifyOTP(ctx context.Context, request *VerifyOTPRequest) (*AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*utils.TokenPair, error)
	ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error)
	Logout(ctx context.Context, userID string) error
}

type authService struct {
	userRepo    interfaces.UserRepository
	cache       CacheService
	smsProvider sms.SMSProvider
	jwtSecret   string
	logger      *logger.Logger
}

type SendOTPRequest struct {
	Phone string `json:"phone" validate:"required"`
}

type OTPResponse struct {
	Phone     string `json:"phone"`
	ExpiresIn int64  `json:"expires_in"`
}

type VerifyOTPRequest struct {
	Phone    string          `json:"phone" validate:"required"`
	Code     string          `json:"code" validate:"required"`
	FullName string          `json:"full_name,omitempty"`
	UserType models.UserType `json:"user_type,omitempty"`
}

type AuthResponse struct {
	User   *models.User     `json:"user"`
	Tokens *utils.TokenPair `json:"tokens"`
	IsNew  bool             `json:"is_new"`
}

func NewAuthService(
	userRepo interfaces.UserRepository,
	cache CacheService,
	smsProvider sms.SMSProvider,
	jwtSecret string,
	logger *logger.Logger,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		cache:       cache,
		smsProvider: smsProvider,
		jwtSecret:   jwtSecret,
		logger:      logger,
	}
}

func (s *authService) SendOTP(ctx context.Context, request *SendOTPRequest) (*OTPResponse, error) {
	phone := utils.NormalizePhone(request.Phone)
	if !utils.IsValidPhone(phone) {
		return nil, NewValidationError("invalid phone number", map[string]string{
			"phone": "must be a valid international phone number",
		})
	}

	rateKey := utils.CacheRateLimitPrefix + "otp:" + phone
	count, err := s.cache.Increment(ctx, rateKey)
	if err == nil && count == 1 {
		s.cache.Set(ctx, rateKey, count, utils.OTPExpiry)
	}
	if err == nil && count > utils.OTPRateLimit {
		return nil, NewConflictError("too many otp requests for %s, try again later", utils.MaskPhone(phone))
	}

	code := utils.GenerateOTP()
	if err := s.cache.StoreOTP(ctx, phone, code); err != nil {
		return nil, NewStorageError("store otp", err, false)
	}

	_, err = s.smsProvider.SendSMS(ctx, &sms.SMSRequest{
		To:      phone,
		Message: fmt.Sprintf("Votre code de verification %s est: %s", utils.AppName, code),
		Type:    "otp",
	})
	if err != nil {
		s.logger.WithError(err).WithField("phone", utils.MaskPhone(phone)).Error("Failed to send OTP")
		return nil, fmt.Errorf("failed to send otp: %w", err)
	}

	s.logger.WithField("phone", utils.MaskPhone(phone)).Info("OTP sent")

	return &OTPResponse{
		Phone:     phone,
		ExpiresIn: int64(utils.OTPExpiry.Seconds()),
	}, nil
}

func (s *authService) VerifyOTP(ctx context.Context, request *VerifyOTPRequest) (*AuthResponse, error) {
	phone := utils.NormalizePhone(request.Phone)

	stored, err := s.cache.GetOTP(ctx, phone)
	if err != nil || stored != request.Code {
		return nil, NewValidationError(utils.ErrInvalidOTP, map[string]string{
			"code": "does not match or has expired",
		})
	}
	s.cache.InvalidateOTP(ctx, phone)

	user, isNew, err := s.findOrCreateUser(ctx, phone, request)
	if err != nil {
		return nil, err
	}

	if !user.IsPhoneVerified {
		if err := s.userRepo.UpdatePhoneVerification(ctx, user.ID, true); err != nil {
			return nil, NewStorageError("mark phone verified", err, true)
		}
		user.IsPhoneVerified = true
	}
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.WithError(err).WithUserID(user.ID).Warn("Failed to record last login")
	}

	tokens, err := utils.GenerateTokenPair(user.ID, string(user.UserType), user.Phone, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	event := utils.EventUserLogin
	if isNew {
		event = utils.EventUserRegistered
	}
	s.logger.LogUserAction(user.ID, event, map[string]interface{}{
		"user_type": user.UserType,
	})

	return &AuthResponse{
		User:   user,
		Tokens: tokens,
		IsNew:  isNew,
	}, nil
}

func (s *authService) findOrCreateUser(ctx context.Context, phone string, request *VerifyOTPRequest) (*models.User, bool, error) {
	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, false, NewStorageError("get user by phone", err, false)
	}

	userType := request.UserType
	switch userType {
	case models.UserTypeClient, models.UserTypeDriver:
	case "":
		userType = models.UserTypeClient
	default:
		return nil, false, NewValidationError("invalid user type", map[string]string{
			"user_type": "must be client or driver",
		})
	}

	user = &models.User{
		Phone:    phone,
		FullName: request.FullName,
		UserType: userType,
		Status:   models.UserStatusActive,
		IsDriver: userType == models.UserTypeDriver,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, false, NewStorageError("create user", err, false)
	}

	return user, true, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*utils.TokenPair, error) {
	claims, err := utils.ValidateToken(refreshToken, s.jwtSecret)
	if err != nil {
		return nil, NewValidationError(utils.ErrInvalidToken, nil)
	}

	revoked, err := s.cache.Exists(ctx, utils.CacheSessionPrefix+"revoked:"+claims.UserID.Hex())
	if err == nil && revoked {
		return nil, NewValidationError(utils.ErrTokenExpired, nil)
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, NewNotFoundError("user", claims.UserID.Hex())
		}
		return nil, NewStorageError("get user", err, false)
	}
	if user.Status != models.UserStatusActive {
		return nil, NewConflictError("account is %s", user.Status)
	}

	tokens, err := utils.GenerateTokenPair(user.ID, string(user.UserType), user.Phone, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	return tokens, nil
}

func (s *authService) ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error) {
	claims, err := utils.ValidateToken(token, s.jwtSecret)
	if err != nil {
		return nil, NewValidationError(utils.ErrInvalidToken, nil)
	}
	return claims, nil
}

// Logout marks the user's refresh tokens revoked until they naturally
// expire.
func (s *authService) Logout(ctx context.Context, userID string) error {
	return s.cache.Set(ctx, utils.CacheSessionPrefix+"revoked:"+userID, true, utils.JWTRefreshTokenTTL)
}
