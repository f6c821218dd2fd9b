package booking

import (
	"context"
	"time"

	"petcare/database/repository"
	bookingRepo "petcare/database/repository/booking"
	"petcare/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *DefaultBookingService) serviceType(ctx context.Context, id string) (*models.ServiceType, error) {
	st, err := s.ServiceTypes.GetByID(ctx, id)
	if err != nil {
		return nil, FromRepo(err, "service_type", id)
	}
	if !st.IsActive {
		return nil, NotFoundError("service_type_not_found", "service type %s not found", id)
	}
	return st, nil
}

func (s *DefaultBookingService) QuotePrice(ctx context.Context, in QuoteInput) (*models.Pricing, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	st, err := s.serviceType(ctx, in.ServiceTypeID)
	if err != nil {
		return nil, err
	}
	pricing, err := Calculate(QuoteFor(st, in.Duration.model(), s.Settings.TaxPercent))
	if err != nil {
		return nil, err
	}
	return &pricing, nil
}

// CreateBooking prices and stores a new booking in pending_payment.
func (s *DefaultBookingService) CreateBooking(ctx context.Context, actor models.Actor, in CreateBookingInput) (*models.Booking, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	now := s.now()
	if !in.StartDate.After(now) {
		return nil, FieldErrors(map[string]string{"startDate": "startDate must be in the future"})
	}

	st, err := s.serviceType(ctx, in.ServiceTypeID)
	if err != nil {
		return nil, err
	}
	pricing, err := Calculate(QuoteFor(st, in.Duration.model(), s.Settings.TaxPercent))
	if err != nil {
		return nil, err
	}

	end := in.StartDate.Add(in.Duration.span())
	if err := s.ensurePetFree(ctx, in.PetID, in.StartDate, end, ""); err != nil {
		return nil, err
	}

	seq, err := s.Sequence.Next(ctx, sequenceKey(now))
	if err != nil {
		s.log().Error("booking sequence unavailable", zap.Error(err))
		return nil, ServerError(err, "failed to allocate booking number")
	}

	storeID := in.StoreID
	if storeID == "" {
		storeID = st.StoreID
	}
	start := in.StartDate
	b := &models.Booking{
		ID:                  uuid.NewString(),
		BookingNumber:       bookingNumber(now, seq),
		OwnerID:             actor.ID,
		PetID:               in.PetID,
		ServiceTypeID:       st.ID,
		ServiceCategory:     st.Category,
		StoreID:             storeID,
		StartDate:           start,
		EndDate:             end,
		Duration:            in.Duration.model(),
		Location:            in.Location,
		SpecialRequirements: in.SpecialRequirements,
		AssignedCaregivers:  []models.AssignedCaregiver{},
		Pricing:             pricing,
		PaymentStatus: models.PaymentStatus{
			Advance: models.PaymentRecord{Status: models.PaymentPending},
			Final:   models.PaymentRecord{Status: models.PaymentPending},
		},
		Status: models.StatusPendingPayment,
		Handover: models.Handover{
			DropOff: models.HandoverLeg{Method: defaultMethod(in.DropOffMethod), ScheduledTime: &start},
			Pickup:  models.HandoverLeg{Method: defaultMethod(in.PickupMethod), ScheduledTime: &end},
		},
		ActivityLog: []models.ActivityEntry{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if b.Location.Type == "" {
		b.Location.Type = "facility"
	}

	if err := s.Bookings.Create(ctx, b); err != nil {
		return nil, FromRepo(err, "booking", b.ID)
	}

	s.log().Info("booking created",
		zap.String("bookingId", b.ID),
		zap.String("bookingNumber", b.BookingNumber),
		zap.Float64("total", b.Pricing.TotalAmount))
	s.publish(ctx, b, models.EventBookingCreated, "Your booking has been created. Pay the advance to confirm it", map[string]any{
		"advanceAmount": b.Pricing.AdvanceAmount,
	})
	return b, nil
}

// ensurePetFree refuses a window that intersects a confirmed or in_progress booking of the pet.
func (s *DefaultBookingService) ensurePetFree(ctx context.Context, petID string, start, end time.Time, excludeID string) error {
	overlapping, err := s.Bookings.FindOverlapping(ctx, petID, start, end, excludeID)
	if err != nil {
		return FromRepo(err, "booking", petID)
	}
	if len(overlapping) > 0 {
		return ValidationError("pet_already_booked",
			"pet already has booking %s during this period", overlapping[0].BookingNumber)
	}
	return nil
}

func defaultMethod(m string) string {
	if m == "" {
		return "customer"
	}
	return m
}

func (s *DefaultBookingService) GetBooking(ctx context.Context, actor models.Actor, id string) (*models.Booking, error) {
	return s.load(ctx, actor, id)
}

// ListBookings returns the page of bookings visible to the actor.
func (s *DefaultBookingService) ListBookings(ctx context.Context, actor models.Actor, in ListBookingsInput) ([]models.Booking, int64, error) {
	filter := bookingRepo.BookingFilter{
		PetID:       in.PetID,
		CaregiverID: in.CaregiverID,
		From:        in.From,
		To:          in.To,
	}
	for _, raw := range in.Statuses {
		st, err := models.ParseBookingStatus(raw)
		if err != nil {
			return nil, 0, ValidationError("invalid_status", "%s", err.Error())
		}
		filter.Statuses = append(filter.Statuses, st)
	}

	switch actor.Role {
	case models.RoleUser:
		filter.OwnerID = actor.ID
	case models.RoleManager:
		if actor.StoreID == "" {
			return []models.Booking{}, 0, nil
		}
		filter.StoreID = actor.StoreID
		filter.OwnerID = in.OwnerID
	case models.RoleAdmin:
		filter.OwnerID = in.OwnerID
		filter.StoreID = in.StoreID
	default:
		return []models.Booking{}, 0, nil
	}

	page := repository.Page{Number: in.Page, Size: in.Limit}.Normalize()
	bookings, total, err := s.Bookings.List(ctx, filter, page)
	if err != nil {
		return nil, 0, FromRepo(err, "booking", "")
	}
	return bookings, total, nil
}
