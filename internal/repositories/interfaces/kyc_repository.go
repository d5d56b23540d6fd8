package interfaces

import (
	"context"

	"github.com/KOLIFAST/backend/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// KYCDocumentRepository is the append-oriented ledger of uploaded artifacts.
type KYCDocumentRepository interface {
	Create(ctx context.Context, document *models.KYCDocument) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.KYCDocument, error)
	ListByDriver(ctx context.Context, driverID primitive.ObjectID) ([]*models.KYCDocument, error)
	LatestByCategory(ctx context.Context, driverID primitive.ObjectID, category models.DocumentCategory) (*models.KYCDocument, error)
	UpdateDecision(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// KYCReferenceRepository stores personal references. ReplaceAll is atomic:
// the old set and the new set are never observable together.
type KYCReferenceRepository interface {
	ReplaceAll(ctx context.Context, driverID primitive.ObjectID, references []*models.KYCReference) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.KYCReference, error)
	ListByDriver(ctx context.Context, driverID primitive.ObjectID) ([]*models.KYCReference, error)
	UpdateDecision(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
}

// KYCStatusRepository holds the per-driver aggregate row.
type KYCStatusRepository interface {
	// GetOrCreate upserts the aggregate with not-started defaults and returns
	// the current row. Safe to call concurrently for the same driver.
	GetOrCreate(ctx context.Context, driverID primitive.ObjectID) (*models.KYCStatus, error)
	Get(ctx context.Context, driverID primitive.ObjectID) (*models.KYCStatus, error)
	Update(ctx context.Context, driverID primitive.ObjectID, updates map[string]interface{}) error
}
