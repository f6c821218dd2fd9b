package caregiverRepo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"petcare/database/repository"
	"petcare/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCaregiverRepo implements CaregiverRepository using MongoDB.
type MongoCaregiverRepo struct {
	coll *mongo.Collection
}

func NewMongoCaregiverRepo(db *mongo.Database) (*MongoCaregiverRepo, error) {
	repo := &MongoCaregiverRepo{coll: db.Collection("caregivers")}
	if err := repo.EnsureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *MongoCaregiverRepo) Create(ctx context.Context, cg *models.Caregiver) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, cg); err != nil {
		return fmt.Errorf("failed to create caregiver: %w", repository.Translate(err))
	}
	return nil
}

func (r *MongoCaregiverRepo) GetByID(ctx context.Context, id string) (*models.Caregiver, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *MongoCaregiverRepo) GetByUserID(ctx context.Context, userID string) (*models.Caregiver, error) {
	return r.findOne(ctx, bson.M{"userId": userID})
}

func (r *MongoCaregiverRepo) findOne(ctx context.Context, filter bson.M) (*models.Caregiver, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var cg models.Caregiver
	if err := r.coll.FindOne(ctx, filter).Decode(&cg); err != nil {
		return nil, fmt.Errorf("error fetching caregiver %v: %w", filter, repository.Translate(err))
	}
	return &cg, nil
}

func (r *MongoCaregiverRepo) List(ctx context.Context, f CaregiverFilter) ([]models.Caregiver, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{}
	if f.StoreID != "" {
		filter["storeId"] = f.StoreID
	}
	if f.Status != "" {
		filter["availability.status"] = f.Status
	}
	if f.Skill != "" {
		filter["skills"] = f.Skill
	}
	if f.OnlyActive {
		filter["isActive"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "performance.averageRating", Value: -1}, {Key: "name", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing caregivers: %w", err)
	}
	defer cursor.Close(ctx)

	caregivers := []models.Caregiver{}
	if err := cursor.All(ctx, &caregivers); err != nil {
		return nil, fmt.Errorf("error decoding caregivers: %w", err)
	}
	return caregivers, nil
}

// Update uses the same version check as the booking repository so the ledger write
// and the booking write fail together inside one transaction.
func (r *MongoCaregiverRepo) Update(ctx context.Context, cg *models.Caregiver, expectedVersion int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cg.Version = expectedVersion + 1
	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": cg.ID, "version": expectedVersion}, cg)
	if err != nil {
		cg.Version = expectedVersion
		return fmt.Errorf("failed to update caregiver %s: %w", cg.ID, repository.Translate(err))
	}
	if res.MatchedCount == 0 {
		cg.Version = expectedVersion
		return fmt.Errorf("caregiver %s at version %d: %w", cg.ID, expectedVersion, repository.ErrVersionConflict)
	}
	return nil
}

func (r *MongoCaregiverRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete caregiver %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("caregiver %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (r *MongoCaregiverRepo) CountEmployeeIDs(ctx context.Context, prefix string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"employeeId": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}}
	n, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("error counting employee ids: %w", err)
	}
	return n, nil
}
