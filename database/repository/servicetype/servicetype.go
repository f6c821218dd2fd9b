package serviceTypeRepo

import (
	"context"
	"fmt"
	"time"

	"petcare/database/repository"
	"petcare/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ServiceTypeRepository interface {
	Create(ctx context.Context, st *models.ServiceType) error
	GetByID(ctx context.Context, id string) (*models.ServiceType, error)
	// ListActive returns active service types, optionally restricted to one category.
	ListActive(ctx context.Context, category string) ([]models.ServiceType, error)
}

type MongoServiceTypeRepo struct {
	coll *mongo.Collection
}

func NewMongoServiceTypeRepo(db *mongo.Database) (*MongoServiceTypeRepo, error) {
	repo := &MongoServiceTypeRepo{coll: db.Collection("service_types")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_id")},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "isActive", Value: 1}}, Options: options.Index().SetName("category_active_idx")},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create service type indexes: %w", err)
	}
	return repo, nil
}

func (r *MongoServiceTypeRepo) Create(ctx context.Context, st *models.ServiceType) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, st); err != nil {
		return fmt.Errorf("failed to create service type: %w", repository.Translate(err))
	}
	return nil
}

func (r *MongoServiceTypeRepo) GetByID(ctx context.Context, id string) (*models.ServiceType, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var st models.ServiceType
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&st); err != nil {
		return nil, fmt.Errorf("error fetching service type %s: %w", id, repository.Translate(err))
	}
	return &st, nil
}

func (r *MongoServiceTypeRepo) ListActive(ctx context.Context, category string) ([]models.ServiceType, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"isActive": true}
	if category != "" {
		filter["category"] = category
	}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error listing service types: %w", err)
	}
	defer cursor.Close(ctx)

	types := []models.ServiceType{}
	if err := cursor.All(ctx, &types); err != nil {
		return nil, fmt.Errorf("error decoding service types: %w", err)
	}
	return types, nil
}
