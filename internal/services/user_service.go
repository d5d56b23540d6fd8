package services

import (
	"context"
	"errors"

	"github.com/KOLIFAST/backend/internal/models"
	"github.com/KOLIFAST/backend/internal/repositories/interfaces"
	"github.com/KOLIFAST/backend/internal/utils"
	"github.com/KOLIFAST/backend/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserService interface {
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, request *UpdateProfileRequest) (*models.User, error)
	BecomeDriver(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	DeleteAccount(ctx context.Context, userID primitive.ObjectID) error

	// Admin operations
	ListUsers(ctx context.Context, userType models.UserType, params *utils.PaginationParams) ([]*models.User, int64, error)
	SetUserStatus(ctx context.Context, userID primitive.ObjectID, status models.UserStatus) error
}

type userService struct {
	userRepo interfaces.UserRepository
	logger   *logger.Logger
}

type UpdateProfileRequest struct {
	FullName       string `json:"full_name,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

func NewUserService(userRepo interfaces.UserRepository, logger *logger.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		logger:   logger,
	}
}

func (s *userService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, NewNotFoundError("user", userID.Hex())
		}
		return nil, NewStorageError("get user", err, false)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, request *UpdateProfileRequest) (*models.User, error) {
	updates := make(map[string]interface{})
	if request.FullName != "" {
		updates["full_name"] = request.FullName
	}
	if request.ProfilePicture != "" {
		updates["profile_picture"] = request.ProfilePicture
	}
	if len(updates) == 0 {
		return nil, NewValidationError("nothing to update", nil)
	}

	if err := s.userRepo.Update(ctx, userID, updates); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, NewNotFoundError("user", userID.Hex())
		}
		return nil, NewStorageError("update user", err, false)
	}

	return s.GetProfile(ctx, userID)
}

// BecomeDriver flips the account into the driver role. Verification still
// requires the KYC file to pass review.
func (s *userService) BecomeDriver(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsDriver {
		return user, nil
	}

	updates := map[string]interface{}{
		"is_driver": true,
		"user_type": models.UserTypeDriver,
	}
	if err := s.userRepo.Update(ctx, userID, updates); err != nil {
		return nil, NewStorageError("update user", err, false)
	}

	s.logger.LogUserAction(userID, "became_driver", nil)

	return s.GetProfile(ctx, userID)
}

func (s *userService) DeleteAccount(ctx context.Context, userID primitive.ObjectID) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return NewNotFoundError("user", userID.Hex())
		}
		return NewStorageError("delete user", err, false)
	}

	s.logger.LogUserAction(userID, "account_deleted", nil)
	return nil
}

func (s *userService) ListUsers(ctx context.Context, userType models.UserType, params *utils.PaginationParams) ([]*models.User, int64, error) {
	var (
		users []*models.User
		total int64
		err   error
	)
	if userType == "" {
		users, total, err = s.userRepo.List(ctx, params)
	} else {
		users, total, err = s.userRepo.GetByType(ctx, userType, params)
	}
	if err != nil {
		return nil, 0, NewStorageError("list users", err, false)
	}
	return users, total, nil
}

func (s *userService) SetUserStatus(ctx context.Context, userID primitive.ObjectID, status models.UserStatus) error {
	switch status {
	case models.UserStatusActive, models.UserStatusInactive, models.UserStatusSuspended:
	default:
		return NewValidationError("invalid status", map[string]string{
			"status": "must be active, inactive or suspended",
		})
	}

	if err := s.userRepo.Update(ctx, userID, map[string]interface{}{"status": status}); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return NewNotFoundError("user", userID.Hex())
		}
		return NewStorageError("update user", err, false)
	}
	return nil
}
