package models

import "time"

// AvailabilityStatus is the caregiver's single availability flag.
type AvailabilityStatus string

const (
	AvailabilityAvailable AvailabilityStatus = "available"
	AvailabilityBusy      AvailabilityStatus = "busy"
	AvailabilityOnLeave   AvailabilityStatus = "on_leave"
	AvailabilityInactive  AvailabilityStatus = "inactive"
)

func (s AvailabilityStatus) IsValid() bool {
	switch s {
	case AvailabilityAvailable, AvailabilityBusy, AvailabilityOnLeave, AvailabilityInactive:
		return true
	}
	return false
}

// Reservation links a caregiver to the booking that holds them.
type Reservation struct {
	BookingID  string        `bson:"bookingId" json:"bookingId"`
	Role       CaregiverRole `bson:"role" json:"role"`
	ReservedAt time.Time     `bson:"reservedAt" json:"reservedAt"`
}

type Availability struct {
	Status       AvailabilityStatus `bson:"status" json:"status"`
	Reservations []Reservation      `bson:"reservations" json:"reservations"`
}

// Performance holds running counters; AverageRating is an incremental mean over RatingCount ratings.
type Performance struct {
	TotalBookings     int     `bson:"totalBookings" json:"totalBookings"`
	CompletedBookings int     `bson:"completedBookings" json:"completedBookings"`
	CancelledBookings int     `bson:"cancelledBookings" json:"cancelledBookings"`
	AverageRating     float64 `bson:"averageRating" json:"averageRating"`
	RatingCount       int     `bson:"ratingCount" json:"ratingCount"`
}

// Caregiver is a care staff member linked to a user account.
type Caregiver struct {
	ID              string       `bson:"id" json:"id"`
	UserID          string       `bson:"userId" json:"userId"`
	EmployeeID      string       `bson:"employeeId" json:"employeeId"`
	Name            string       `bson:"name" json:"name"`
	Email           string       `bson:"email,omitempty" json:"email,omitempty"`
	Phone           string       `bson:"phone,omitempty" json:"phone,omitempty"`
	StoreID         string       `bson:"storeId,omitempty" json:"storeId,omitempty"`
	Skills          []string     `bson:"skills,omitempty" json:"skills,omitempty"`
	Specializations []string     `bson:"specializations,omitempty" json:"specializations,omitempty"`
	Bio             string       `bson:"bio,omitempty" json:"bio,omitempty"`
	Availability    Availability `bson:"availability" json:"availability"`
	Performance     Performance  `bson:"performance" json:"performance"`
	IsActive        bool         `bson:"isActive" json:"isActive"`
	Version         int          `bson:"version" json:"version"`
	CreatedAt       time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// ReservationFor returns the reservation held for bookingID, if any.
func (c *Caregiver) ReservationFor(bookingID string) (Reservation, bool) {
	for _, r := range c.Availability.Reservations {
		if r.BookingID == bookingID {
			return r, true
		}
	}
	return Reservation{}, false
}

// HoldsPrimary reports whether any reservation makes this caregiver a primary.
func (c *Caregiver) HoldsPrimary() bool {
	for _, r := range c.Availability.Reservations {
		if r.Role == RolePrimary {
			return true
		}
	}
	return false
}
