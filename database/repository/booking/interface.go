package bookingRepo

import (
	"context"
	"time"

	"petcare/database/repository"
	"petcare/models"
)

// BookingFilter narrows List results. Zero values are ignored.
type BookingFilter struct {
	OwnerID     string
	StoreID     string
	CaregiverID string
	PetID       string
	Statuses    []models.BookingStatus
	From        *time.Time // startDate >= From
	To          *time.Time // startDate <  To
	// ActiveOn keeps bookings whose [startDate, endDate) window touches [ActiveOn, ActiveUntil).
	ActiveOn    *time.Time
	ActiveUntil *time.Time
}

type BookingRepository interface {
	// Create inserts a new booking document.
	Create(ctx context.Context, booking *models.Booking) error
	// GetByID retrieves a booking by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// GetByNumber retrieves a booking by its human readable number.
	GetByNumber(ctx context.Context, number string) (*models.Booking, error)
	// Update replaces the booking if its stored version still equals expectedVersion,
	// and bumps the version.
	Update(ctx context.Context, booking *models.Booking, expectedVersion int) error
	// List returns one page of bookings matching the filter, newest first, and the total count.
	List(ctx context.Context, filter BookingFilter, page repository.Page) ([]models.Booking, int64, error)
	// FindOverlapping returns active bookings of the pet whose window intersects [start, end).
	FindOverlapping(ctx context.Context, petID string, start, end time.Time, excludeID string) ([]models.Booking, error)
}
