package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Migration struct {
	Version     int
	Description string
	Up          func(*mongo.Database) error
	Down        func(*mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
}

func NewMigrator(db *mongo.Database) *Migrator {
	return &Migrator{
		db:         db,
		migrations: getMigrations(),
	}
}

func (m *Migrator) Up() error {
	// Create migrations collection if it doesn't exist
	err := m.createMigrationsCollection()
	if err != nil {
		return err
	}

	// Get current version
	currentVersion, err := m.getCurrentVersion()
	if err != nil {
		return err
	}

	// Run migrations
	for _, migration := range m.migrations {
		if migration.Version > currentVersion {
			log.Printf("Running migration %d: %s", migration.Version, migration.Description)

			err := migration.Up(m.db)
			if err != nil {
				return fmt.Errorf("migration %d failed: %w", migration.Version, err)
			}

			err = m.updateVersion(migration.Version)
			if err != nil {
				return fmt.Errorf("failed to update migration version: %w", err)
			}

			log.Printf("Migration %d completed successfully", migration.Version)
		}
	}

	return nil
}

func (m *Migrator) Down(targetVersion int) error {
	currentVersion, err := m.getCurrentVersion()
	if err != nil {
		return err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		migration := m.migrations[i]
		if migration.Version <= currentVersion && migration.Version > targetVersion {
			log.Printf("Reverting migration %d: %s", migration.Version, migration.Description)

			err := migration.Down(m.db)
			if err != nil {
				return fmt.Errorf("migration %d rollback failed: %w", migration.Version, err)
			}

			previousVersion := targetVersion
			if i > 0 {
				previousVersion = m.migrations[i-1].Version
			}

			err = m.updateVersion(previousVersion)
			if err != nil {
				return fmt.Errorf("failed to update migration version: %w", err)
			}

			log.Printf("Migration %d reverted successfully", migration.Version)
		}
	}

	return nil
}

func (m *Migrator) createMigrationsCollection() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collections, err := m.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return err
	}

	for _, name := range collections {
		if name == "migrations" {
			return nil
		}
	}

	return m.db.CreateCollection(ctx, "migrations")
}

func (m *Migrator) getCurrentVersion() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection("migrations").FindOne(ctx, bson.D{}).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, err
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(version int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := m.db.Collection("migrations").ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now()}},
		options.Replace().SetUpsert(true),
	)

	return err
}

func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users collection with indexes",
			Up: func(db *mongo.Database) error {
				return createUsersIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				return db.Collection("users").Drop(context.Background())
			},
		},
		{
			Version:     2,
			Description: "Create kyc_documents collection with indexes",
			Up: func(db *mongo.Database) error {
				return createKYCDocumentsIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				return db.Collection("kyc_documents").Drop(context.Background())
			},
		},
		{
			Version:     3,
			Description: "Create kyc_references collection with indexes",
			Up: func(db *mongo.Database) error {
				return createKYCReferencesIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				return db.Collection("kyc_references").Drop(context.Background())
			},
		},
		{
			Version:     4,
			Description: "Create kyc_status collection",
			Up: func(db *mongo.Database) error {
				return createKYCStatusIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				return db.Collection("kyc_status").Drop(context.Background())
			},
		},
		{
			Version:     5,
			Description: "Create parcels collections with indexes",
			Up: func(db *mongo.Database) error {
				return createParcelsIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				if err := db.Collection("parcel_timeline").Drop(context.Background()); err != nil {
					return err
				}
				if err := db.Collection("parcel_addresses").Drop(context.Background()); err != nil {
					return err
				}
				return db.Collection("parcels").Drop(context.Background())
			},
		},
	}
}

func createUsersIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("users")

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_type", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "driver_verified", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createKYCDocumentsIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("kyc_documents")

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "driver_id", Value: 1}, {Key: "category", Value: 1}, {Key: "uploaded_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "uploaded_at", Value: -1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createKYCReferencesIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("kyc_references")

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "driver_id", Value: 1}, {Key: "created_at", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createKYCStatusIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("kyc_status")

	// _id is the driver id, so only the review queue needs an index.
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "overall_status", Value: 1}, {Key: "submitted_at", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createParcelsIndexes(db *mongo.Database) error {
	ctx := context.Background()

	parcelIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "driver_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "tracking_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := db.Collection("parcels").Indexes().CreateMany(ctx, parcelIndexes); err != nil {
		return err
	}

	addressIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "parcel_id", Value: 1}, {Key: "position", Value: 1}},
		},
	}
	if _, err := db.Collection("parcel_addresses").Indexes().CreateMany(ctx, addressIndexes); err != nil {
		return err
	}

	timelineIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "parcel_id", Value: 1}, {Key: "created_at", Value: 1}},
		},
	}
	_, err := db.Collection("parcel_timeline").Indexes().CreateMany(ctx, timelineIndexes)
	return err
}
