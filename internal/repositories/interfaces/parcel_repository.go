package interfaces

import (
	"context"

	"github.com/KOLIFAST/backend/internal/models"
	"github.com/KOLIFAST/backend/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ParcelFilters struct {
	Status models.ParcelStatus
	Flow   models.ParcelFlow
}

type ParcelRepository interface {
	Create(ctx context.Context, parcel *models.Parcel, addresses []*models.ParcelAddress) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Parcel, error)
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Parcel, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, filters *ParcelFilters, params *utils.PaginationParams) ([]*models.Parcel, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	GetAddresses(ctx context.Context, parcelID primitive.ObjectID) ([]*models.ParcelAddress, error)

	AppendTimeline(ctx context.Context, entry *models.ParcelTimelineEntry) error
	GetTimeline(ctx context.Context, parcelID primitive.ObjectID) ([]*models.ParcelTimelineEntry, error)
}
