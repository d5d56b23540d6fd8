package interfaces

import (
	"context"

	"github.com/KOLIFAST/backend/internal/models"
	"github.com/KOLIFAST/backend/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// Authentication operations
	UpdateLastLogin(ctx context.Context, id primitive.ObjectID) error
	UpdatePhoneVerification(ctx context.Context, id primitive.ObjectID, verified bool) error

	// Capability flag
	SetDriverVerified(ctx context.Context, id primitive.ObjectID, verified bool) error

	// Listing
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.User, int64, error)
	GetByType(ctx context.Context, userType models.UserType, params *utils.PaginationParams) ([]*models.User, int64, error)
}
