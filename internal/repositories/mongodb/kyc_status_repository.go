package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/KOLIFAST/backend/internal/models"
	"github.com/KOLIFAST/backend/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type kycStatusRepository struct {
	collection *mongo.Collection
}

func NewKYCStatusRepository(db *mongo.Database) interfaces.KYCStatusRepository {
	return &kycStatusRepository{
		collection: db.Collection("kyc_status"),
	}
}

// GetOrCreate upserts the aggregate row keyed by driver id. $setOnInsert
// keeps the operation idempotent under concurrent first touches.
func (r *kycStatusRepository) GetOrCreate(ctx context.Context, driverID primitive.ObjectID) (*models.KYCStatus, error) {
	now := time.Now()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var status models.KYCStatus
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": driverID},
		bson.M{"$setOnInsert": bson.M{
			"identity_status":       models.CategoryStatusNotSubmitted,
			"address_status":        models.CategoryStatusNotSubmitted,
			"selfie_status":         models.CategoryStatusNotSubmitted,
			"references_status":     models.CategoryStatusNotSubmitted,
			"overall_status":        models.OverallStatusNotStarted,
			"completion_percentage": 0,
			"can_resubmit":          false,
			"started_at":            now,
			"updated_at":            now,
		}},
		opts,
	).Decode(&status)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create kyc status: %w", err)
	}

	return &status, nil
}

func (r *kycStatusRepository) Get(ctx context.Context, driverID primitive.ObjectID) (*models.KYCStatus, error) {
	var status models.KYCStatus
	err := r.collection.FindOne(ctx, bson.M{"_id": driverID}).Decode(&status)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("kyc status for driver %s: %w", driverID.Hex(), interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get kyc status: %w", err)
	}

	return &status, nil
}

func (r *kycStatusRepository) Update(ctx context.Context, driverID primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": driverID},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update kyc status: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("kyc status for driver %s: %w", driverID.Hex(), interfaces.ErrNotFound)
	}

	return nil
}
