package booking

import (
	"context"
	"time"

	"petcare/models"
)

// BookingService is the temporary-care booking lifecycle.
type BookingService interface {
	CreateBooking(ctx context.Context, actor models.Actor, in CreateBookingInput) (*models.Booking, error)
	QuotePrice(ctx context.Context, in QuoteInput) (*models.Pricing, error)
	GetBooking(ctx context.Context, actor models.Actor, id string) (*models.Booking, error)
	ListBookings(ctx context.Context, actor models.Actor, in ListBookingsInput) ([]models.Booking, int64, error)
	UpdateStatus(ctx context.Context, actor models.Actor, id, status, notes string) (*models.Booking, error)
	RecordPayment(ctx context.Context, actor models.Actor, id string, in PaymentInput) (*models.Booking, error)
	AssignCaregiver(ctx context.Context, actor models.Actor, id, caregiverID string, role models.CaregiverRole) (*models.Booking, error)
	RemoveCaregiver(ctx context.Context, actor models.Actor, id, caregiverID string) (*models.Booking, error)
	AddActivity(ctx context.Context, actor models.Actor, id string, in ActivityInput) (*models.Booking, error)
	GenerateHandoverOTP(ctx context.Context, actor models.Actor, id string, kind models.HandoverKind) (*OTPIssued, error)
	VerifyHandoverOTP(ctx context.Context, actor models.Actor, id string, kind models.HandoverKind, code, notes string) (*models.Booking, error)
	CancelBooking(ctx context.Context, actor models.Actor, id, reason string) (*models.Booking, error)
	ProcessRefund(ctx context.Context, actor models.Actor, id string, amount *float64) (*models.Booking, error)
	SubmitReview(ctx context.Context, actor models.Actor, id string, in ReviewInput) (*models.Booking, error)
	Timeline(ctx context.Context, actor models.Actor, id string) ([]TimelineEntry, error)
	TodaySchedule(ctx context.Context, actor models.Actor, storeID string) (*DaySchedule, error)
}

type DurationInput struct {
	Value int                 `json:"value" validate:"required,gte=1"`
	Unit  models.DurationUnit `json:"unit" validate:"required,oneof=days hours"`
}

func (d DurationInput) model() models.BookingDuration {
	return models.BookingDuration{Value: d.Value, Unit: d.Unit}
}

func (d DurationInput) span() time.Duration {
	if d.Unit == models.DurationHours {
		return time.Duration(d.Value) * time.Hour
	}
	return time.Duration(d.Value) * 24 * time.Hour
}

type CreateBookingInput struct {
	PetID               string                     `json:"petId" validate:"required"`
	ServiceTypeID       string                     `json:"serviceTypeId" validate:"required"`
	StoreID             string                     `json:"storeId"`
	StartDate           time.Time                  `json:"startDate" validate:"required"`
	Duration            DurationInput              `json:"duration"`
	Location            models.Location            `json:"location"`
	SpecialRequirements models.SpecialRequirements `json:"specialRequirements"`
	DropOffMethod       string                     `json:"dropOffMethod"`
	PickupMethod        string                     `json:"pickupMethod"`
}

type QuoteInput struct {
	ServiceTypeID string        `json:"serviceTypeId" validate:"required"`
	Duration      DurationInput `json:"duration"`
}

type ListBookingsInput struct {
	Statuses    []string
	OwnerID     string
	StoreID     string
	PetID       string
	CaregiverID string
	From        *time.Time
	To          *time.Time
	Page        int
	Limit       int
}

type PaymentInput struct {
	Type      string `json:"type" validate:"required,oneof=advance final"`
	PaymentID string `json:"paymentId" validate:"required"`
	Status    string `json:"status" validate:"omitempty,oneof=completed failed"`
}

type ActivityInput struct {
	Type      models.ActivityType `json:"activityType" validate:"required,oneof=feeding bathing walking medication playtime health_check emergency other"`
	Notes     string              `json:"notes" validate:"max=2000"`
	Timestamp *time.Time          `json:"timestamp"`
	Media     []MediaInput        `json:"media" validate:"omitempty,max=10,dive"`
}

type MediaInput struct {
	URL     string `json:"url" validate:"required,url"`
	Type    string `json:"type" validate:"required,oneof=image video"`
	Caption string `json:"caption"`
}

type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

// OTPIssued is the plain code handed to staff once; only its hash is stored.
type OTPIssued struct {
	OTP       string    `json:"otp"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type TimelineEntry struct {
	At          time.Time `json:"at"`
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	By          string    `json:"by,omitempty"`
}
