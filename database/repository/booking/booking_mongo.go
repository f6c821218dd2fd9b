package bookingRepo

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

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo constructs the repository and ensures its indexes.
func NewMongoBookingRepo(db *mongo.Database) (*MongoBookingRepo, error) {
	repo := &MongoBookingRepo{coll: db.Collection("bookings")}
	if err := repo.EnsureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *MongoBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("failed to create booking: %w", repository.Translate(err))
	}
	return nil
}

func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *MongoBookingRepo) GetByNumber(ctx context.Context, number string) (*models.Booking, error) {
	return r.findOne(ctx, bson.M{"bookingNumber": number})
}

func (r *MongoBookingRepo) findOne(ctx context.Context, filter bson.M) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	if err := r.coll.FindOne(ctx, filter).Decode(&booking); err != nil {
		return nil, fmt.Errorf("error fetching booking %v: %w", filter, repository.Translate(err))
	}
	return &booking, nil
}

func (r *MongoBookingRepo) Update(ctx context.Context, booking *models.Booking, expectedVersion int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	booking.Version = expectedVersion + 1
	filter := bson.M{"id": booking.ID, "version": expectedVersion}
	res, err := r.coll.ReplaceOne(ctx, filter, booking)
	if err != nil {
		booking.Version = expectedVersion
		return fmt.Errorf("failed to update booking %s: %w", booking.ID, repository.Translate(err))
	}
	if res.MatchedCount == 0 {
		booking.Version = expectedVersion
		return fmt.Errorf("booking %s at version %d: %w", booking.ID, expectedVersion, repository.ErrVersionConflict)
	}
	return nil
}

func (r *MongoBookingRepo) List(ctx context.Context, f BookingFilter, page repository.Page) ([]models.Booking, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := buildFilter(f)
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting bookings: %w", err)
	}

	page = page.Normalize()
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Size))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, 0, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, total, nil
}

func (r *MongoBookingRepo) FindOverlapping(ctx context.Context, petID string, start, end time.Time, excludeID string) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, overlapFilter(petID, start, end, excludeID))
	if err != nil {
		return nil, fmt.Errorf("error finding overlapping bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var overlapping []models.Booking
	if err := cursor.All(ctx, &overlapping); err != nil {
		return nil, fmt.Errorf("error decoding overlapping bookings: %w", err)
	}
	return overlapping, nil
}

func buildFilter(f BookingFilter) bson.M {
	filter := bson.M{}
	if f.OwnerID != "" {
		filter["ownerId"] = f.OwnerID
	}
	if f.StoreID != "" {
		filter["storeId"] = f.StoreID
	}
	if f.PetID != "" {
		filter["petId"] = f.PetID
	}
	if f.CaregiverID != "" {
		filter["assignedCaregivers.caregiverId"] = f.CaregiverID
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	if f.From != nil || f.To != nil {
		window := bson.M{}
		if f.From != nil {
			window["$gte"] = *f.From
		}
		if f.To != nil {
			window["$lt"] = *f.To
		}
		filter["startDate"] = window
	}
	if f.ActiveUntil != nil {
		window, _ := filter["startDate"].(bson.M)
		if window == nil {
			window = bson.M{}
		}
		if to, ok := window["$lt"].(time.Time); !ok || f.ActiveUntil.Before(to) {
			window["$lt"] = *f.ActiveUntil
		}
		filter["startDate"] = window
	}
	if f.ActiveOn != nil {
		filter["endDate"] = bson.M{"$gt": *f.ActiveOn}
	}
	return filter
}

// overlapFilter matches confirmed or in-progress bookings of the pet intersecting [start, end).
func overlapFilter(petID string, start, end time.Time, excludeID string) bson.M {
	filter := bson.M{
		"petId":     petID,
		"status":    bson.M{"$in": []models.BookingStatus{models.StatusConfirmed, models.StatusInProgress}},
		"startDate": bson.M{"$lt": end},
		"endDate":   bson.M{"$gt": start},
	}
	if excludeID != "" {
		filter["id"] = bson.M{"$ne": excludeID}
	}
	return filter
}
