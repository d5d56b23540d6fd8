package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/KOLIFAST/backend/internal/models"
	"github.com/KOLIFAST/backend/internal/repositories/interfaces"
	"github.com/KOLIFAST/backend/internal/utils"
	"github.com/KOLIFAST/backend/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type parcelRepository struct {
	parcels   *mongo.Collection
	addresses *mongo.Collection
	timeline  *mongo.Collection
	db        *database.MongoDB
}

func NewParcelRepository(db *database.MongoDB) interfaces.ParcelRepository {
	return &parcelRepository{
		parcels:   db.Collection("parcels"),
		addresses: db.Collection("parcel_addresses"),
		timeline:  db.Collection("parcel_timeline"),
		db:        db,
	}
}

// Create inserts the parcel and its stops in one transaction.
func (r *parcelRepository) Create(ctx context.Context, parcel *models.Parcel, addresses []*models.ParcelAddress) error {
	now := time.Now()
	parcel.ID = primitive.NewObjectID()
	parcel.Status = models.ParcelStatusPending
	parcel.CreatedAt = now
	parcel.UpdatedAt = now

	for i, address := range addresses {
		address.ID = primitive.NewObjectID()
		address.ParcelID = parcel.ID
		address.Position = i
		address.CreatedAt = now
	}

	_, err := r.db.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if _, err := r.parcels.InsertOne(sessCtx, parcel); err != nil {
			return nil, fmt.Errorf("failed to insert parcel: %w", err)
		}

		if len(addresses) > 0 {
			docs := make([]interface{}, len(addresses))
			for i, address := range addresses {
				docs[i] = address
			}
			if _, err := r.addresses.InsertMany(sessCtx, docs); err != nil {
				return nil, fmt.Errorf("failed to insert parcel addresses: %w", err)
			}
		}

		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to create parcel: %w", err)
	}

	return nil
}

func (r *parcelRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Parcel, error) {
	var parcel models.Parcel
	err := r.parcels.FindOne(ctx, bson.M{"_id": id}).Decode(&parcel)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("parcel %s: %w", id.Hex(), interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get parcel: %w", err)
	}

	return &parcel, nil
}

func (r *parcelRepository) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Parcel, error) {
	var parcel models.Parcel
	err := r.parcels.FindOne(ctx, bson.M{"tracking_number": trackingNumber}).Decode(&parcel)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("parcel with tracking number %s: %w", trackingNumber, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get parcel by tracking number: %w", err)
	}

	return &parcel, nil
}

func (r *parcelRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, filters *interfaces.ParcelFilters, params *utils.PaginationParams) ([]*models.Parcel, int64, error) {
	filter := bson.M{"user_id": userID}
	if filters != nil {
		if filters.Status != "" {
			filter["status"] = filters.Status
		}
		if filters.Flow != "" {
			filter["type"] = filters.Flow
		}
	}

	total, err := r.parcels.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count parcels: %w", err)
	}

	cursor, err := r.parcels.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list parcels: %w", err)
	}
	defer cursor.Close(ctx)

	var parcels []*models.Parcel
	for cursor.Next(ctx) {
		var parcel models.Parcel
		if err := cursor.Decode(&parcel); err != nil {
			return nil, 0, fmt.Errorf("failed to decode parcel: %w", err)
		}
		parcels = append(parcels, &parcel)
	}

	return parcels, total, nil
}

func (r *parcelRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.parcels.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update parcel: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("parcel %s: %w", id.Hex(), interfaces.ErrNotFound)
	}

	return nil
}

func (r *parcelRepository) GetAddresses(ctx context.Context, parcelID primitive.ObjectID) ([]*models.ParcelAddress, error) {
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})

	cursor, err := r.addresses.Find(ctx, bson.M{"parcel_id": parcelID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get parcel addresses: %w", err)
	}
	defer cursor.Close(ctx)

	var addresses []*models.ParcelAddress
	for cursor.Next(ctx) {
		var address models.ParcelAddress
		if err := cursor.Decode(&address); err != nil {
			return nil, fmt.Errorf("failed to decode parcel address: %w", err)
		}
		addresses = append(addresses, &address)
	}

	return addresses, nil
}

func (r *parcelRepository) AppendTimeline(ctx context.Context, entry *models.ParcelTimelineEntry) error {
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now()

	_, err := r.timeline.InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to append parcel timeline: %w", err)
	}

	return nil
}

func (r *parcelRepository) GetTimeline(ctx context.Context, parcelID primitive.ObjectID) ([]*models.ParcelTimelineEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.timeline.Find(ctx, bson.M{"parcel_id": parcelID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get parcel timeline: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*models.ParcelTimelineEntry
	for cursor.Next(ctx) {
		var entry models.ParcelTimelineEntry
		if err := cursor.Decode(&entry); err != nil {
			return nil, fmt.Errorf("failed to decode timeline entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	return entries, nil
}
