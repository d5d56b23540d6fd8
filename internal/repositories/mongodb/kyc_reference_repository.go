package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/KOLIFAST/backend/internal/models"
	"github.com/KOLIFAST/backend/internal/repositories/interfaces"
	"github.com/KOLIFAST/backend/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type kycReferenceRepository struct {
	collection *mongo.Collection
	db         *database.MongoDB
}

func NewKYCReferenceRepository(db *database.MongoDB) interfaces.KYCReferenceRepository {
	return &kycReferenceRepository{
		collection: db.Collection("kyc_references"),
		db:         db,
	}
}

// ReplaceAll swaps the driver's reference set in one transaction so readers
// never observe the old and new sets mixed.
func (r *kycReferenceRepository) ReplaceAll(ctx context.Context, driverID primitive.ObjectID, references []*models.KYCReference) error {
	now := time.Now()
	for _, reference := range references {
		reference.ID = primitive.NewObjectID()
		reference.DriverID = driverID
		reference.Status = models.ReferenceStatusNotContacted
		reference.CreatedAt = now
	}

	_, err := r.db.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if _, err := r.collection.DeleteMany(sessCtx, bson.M{"driver_id": driverID}); err != nil {
			return nil, fmt.Errorf("failed to delete old references: %w", err)
		}

		if len(references) == 0 {
			return nil, nil
		}

		docs := make([]interface{}, len(references))
		for i, reference := range references {
			docs[i] = reference
		}
		if _, err := r.collection.InsertMany(sessCtx, docs); err != nil {
			return nil, fmt.Errorf("failed to insert references: %w", err)
		}

		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace references: %w", err)
	}

	return nil
}

func (r *kycReferenceRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.KYCReference, error) {
	var reference models.KYCReference
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&reference)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("kyc reference %s: %w", id.Hex(), interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get kyc reference: %w", err)
	}

	return &reference, nil
}

// ListByDriver returns references in insertion order.
func (r *kycReferenceRepository) ListByDriver(ctx context.Context, driverID primitive.ObjectID) ([]*models.KYCReference, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"driver_id": driverID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list kyc references: %w", err)
	}
	defer cursor.Close(ctx)

	var references []*models.KYCReference
	for cursor.Next(ctx) {
		var reference models.KYCReference
		if err := cursor.Decode(&reference); err != nil {
			return nil, fmt.Errorf("failed to decode kyc reference: %w", err)
		}
		references = append(references, &reference)
	}

	return references, nil
}

func (r *kycReferenceRepository) UpdateDecision(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update kyc reference: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("kyc reference %s: %w", id.Hex(), interfaces.ErrNotFound)
	}

	return nil
}
