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

type kycDocumentRepository struct {
	collection *mongo.Collection
}

func NewKYCDocumentRepository(db *mongo.Database) interfaces.KYCDocumentRepository {
	return &kycDocumentRepository{
		collection: db.Collection("kyc_documents"),
	}
}

func (r *kycDocumentRepository) Create(ctx context.Context, document *models.KYCDocument) error {
	document.ID = primitive.NewObjectID()
	document.Status = models.CategoryStatusPending
	document.UploadedAt = time.Now()
	document.UpdatedAt = document.UploadedAt

	_, err := r.collection.InsertOne(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to create kyc document: %w", err)
	}

	return nil
}

func (r *kycDocumentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.KYCDocument, error) {
	var document models.KYCDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&document)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("kyc document %s: %w", id.Hex(), interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get kyc document: %w", err)
	}

	return &document, nil
}

// ListByDriver returns the driver's documents, most recent upload first.
func (r *kycDocumentRepository) ListByDriver(ctx context.Context, driverID primitive.ObjectID) ([]*models.KYCDocument, error) {
	opts := options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"driver_id": driverID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list kyc documents: %w", err)
	}
	defer cursor.Close(ctx)

	var documents []*models.KYCDocument
	for cursor.Next(ctx) {
		var document models.KYCDocument
		if err := cursor.Decode(&document); err != nil {
			return nil, fmt.Errorf("failed to decode kyc document: %w", err)
		}
		documents = append(documents, &document)
	}

	return documents, nil
}

func (r *kycDocumentRepository) LatestByCategory(ctx context.Context, driverID primitive.ObjectID, category models.DocumentCategory) (*models.KYCDocument, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "uploaded_at", Value: -1}})

	var document models.KYCDocument
	err := r.collection.FindOne(ctx, bson.M{
		"driver_id": driverID,
		"category":  category,
	}, opts).Decode(&document)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("kyc document for category %s: %w", category, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get latest kyc document: %w", err)
	}

	return &document, nil
}

func (r *kycDocumentRepository) UpdateDecision(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update kyc document: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("kyc document %s: %w", id.Hex(), interfaces.ErrNotFound)
	}

	return nil
}

// Delete removes a document record for good. Only the resubmission cleanup
// path uses this; decisions never delete.
func (r *kycDocumentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete kyc document: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("kyc document %s: %w", id.Hex(), interfaces.ErrNotFound)
	}

	return nil
}
