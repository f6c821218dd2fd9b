package booking

import (
	"context"
	"errors"
	"time"

	"petcare/database/repository"
	bookingRepo "petcare/database/repository/booking"
	caregiverRepo "petcare/database/repository/caregiver"
	serviceTypeRepo "petcare/database/repository/servicetype"
	"petcare/models"
	"petcare/services/notification"
	"petcare/utils"

	"go.uber.org/zap"
)

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

// Settings are the tunable business constants.
type Settings struct {
	Policy       Policy
	OTP          OTPPolicy
	TaxPercent   float64
	ReminderLead time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		Policy:       DefaultPolicy(),
		OTP:          DefaultOTPPolicy(),
		TaxPercent:   18,
		ReminderLead: 24 * time.Hour,
	}
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Bookings     bookingRepo.BookingRepository
	Caregivers   caregiverRepo.CaregiverRepository
	ServiceTypes serviceTypeRepo.ServiceTypeRepository
	Tx           repository.Transactor
	Sequence     Sequencer
	Publisher    notification.Publisher
	Settings     Settings
	Now          Clock
	Logger       *zap.Logger
}

var _ BookingService = (*DefaultBookingService)(nil)

func (s *DefaultBookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultBookingService) log() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return utils.GetLogger()
}

// authorize hides bookings outside the actor's scope behind NotFound.
func authorize(actor models.Actor, b *models.Booking) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleManager:
		if actor.StoreID != "" && b.StoreID == actor.StoreID {
			return nil
		}
	case models.RoleUser:
		if b.OwnerID == actor.ID {
			return nil
		}
	}
	return NotFoundError("booking_not_found", "booking %s not found", b.ID)
}

func (s *DefaultBookingService) load(ctx context.Context, actor models.Actor, id string) (*models.Booking, error) {
	if id == "" {
		return nil, ValidationError("missing_id", "booking id is required")
	}
	b, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, FromRepo(err, "booking", id)
	}
	if err := authorize(actor, b); err != nil {
		return nil, err
	}
	return b, nil
}

func validateInput(in interface{}) error {
	if err := utils.ValidateStruct(in); err != nil {
		return FieldErrors(utils.FormatValidationErrors(err))
	}
	return nil
}

type trackedCaregiver struct {
	cg      *models.Caregiver
	version int
	dirty   bool
}

// change is one booking mutation plus the caregiver documents it touches.
// Everything in it is written in a single transaction by commit.
type change struct {
	booking    *models.Booking
	version    int
	caregivers map[string]*trackedCaregiver
	order      []string
}

func newChange(b *models.Booking) *change {
	return &change{booking: b, version: b.Version, caregivers: map[string]*trackedCaregiver{}}
}

// caregiver loads a caregiver once per change and marks it for writing.
func (s *DefaultBookingService) caregiver(ctx context.Context, c *change, id string) (*models.Caregiver, error) {
	if t, ok := c.caregivers[id]; ok {
		t.dirty = true
		return t.cg, nil
	}
	cg, err := s.Caregivers.GetByID(ctx, id)
	if err != nil {
		return nil, FromRepo(err, "caregiver", id)
	}
	c.caregivers[id] = &trackedCaregiver{cg: cg, version: cg.Version, dirty: true}
	c.order = append(c.order, id)
	return cg, nil
}

func (s *DefaultBookingService) commit(ctx context.Context, c *change) error {
	now := s.now()
	c.booking.UpdatedAt = now
	err := s.Tx.WithTransaction(ctx, func(tx context.Context) error {
		if err := s.Bookings.Update(tx, c.booking, c.version); err != nil {
			return FromRepo(err, "booking", c.booking.ID)
		}
		for _, id := range c.order {
			t := c.caregivers[id]
			if !t.dirty {
				continue
			}
			if err := s.Caregivers.Update(tx, t.cg, t.version); err != nil {
				return FromRepo(err, "caregiver", id)
			}
		}
		return nil
	})
	if err != nil {
		var typed *Error
		if errors.As(err, &typed) {
			if typed.Kind == KindServer {
				s.log().Error("booking write failed", zap.String("bookingId", c.booking.ID), zap.Error(err))
			}
			return err
		}
		s.log().Error("booking transaction failed", zap.String("bookingId", c.booking.ID), zap.Error(err))
		return ServerError(err, "failed to save booking")
	}
	return nil
}

// applyEffects performs a transition's side effects on the change and moves the status.
func (s *DefaultBookingService) applyEffects(ctx context.Context, c *change, tr Transition, now time.Time) error {
	b := c.booking
	for _, eff := range tr.Effects {
		switch eff {
		case EffectComputeRefund:
			if b.Cancellation == nil {
				continue
			}
			b.Cancellation.RefundAmount = RefundFor(b, now, s.Settings.Policy)
			if b.Cancellation.RefundAmount > 0 {
				b.Cancellation.RefundStatus = models.RefundPending
			}
		case EffectReleaseCaregivers, EffectCountCompletion, EffectCountCancellation:
			for _, ac := range b.AssignedCaregivers {
				cg, err := s.caregiver(ctx, c, ac.CaregiverID)
				if err != nil {
					if KindOf(err) == KindNotFound {
						s.log().Warn("assigned caregiver no longer exists",
							zap.String("bookingId", b.ID), zap.String("caregiverId", ac.CaregiverID))
						continue
					}
					return err
				}
				switch eff {
				case EffectReleaseCaregivers:
					release(cg, b.ID, now)
				case EffectCountCompletion:
					countCompletion(cg)
				case EffectCountCancellation:
					countCancellation(cg)
				}
			}
		}
	}
	b.Status = tr.To
	return nil
}

var statusEvents = map[models.BookingStatus]string{
	models.StatusConfirmed:  models.EventBookingConfirmed,
	models.StatusInProgress: models.EventBookingStarted,
	models.StatusCompleted:  models.EventBookingCompleted,
	models.StatusCancelled:  models.EventBookingCancelled,
	models.StatusRefunded:   models.EventBookingRefunded,
}

var statusMessages = map[models.BookingStatus]string{
	models.StatusConfirmed:  "Your booking is confirmed",
	models.StatusInProgress: "Your pet has been dropped off and is now in care",
	models.StatusCompleted:  "Your pet has been picked up. Thanks for staying with us",
	models.StatusCancelled:  "Your booking has been cancelled",
	models.StatusRefunded:   "Your refund has been processed",
}

// afterTransition runs the post-commit work of a transition. Failures are logged only.
func (s *DefaultBookingService) afterTransition(ctx context.Context, b *models.Booking, tr Transition) {
	var data map[string]any
	if b.Cancellation != nil && tr.To == models.StatusCancelled {
		data = map[string]any{"refundAmount": b.Cancellation.RefundAmount}
	}
	s.publish(ctx, b, statusEvents[tr.To], statusMessages[tr.To], data)

	if tr.Has(EffectScheduleReminder) {
		s.scheduleReminder(ctx, b)
	}
	if tr.Has(EffectCancelReminder) && s.Publisher != nil {
		if err := s.Publisher.CancelReminder(ctx, b.ID); err != nil {
			s.log().Warn("failed to cancel reminder", zap.String("bookingId", b.ID), zap.Error(err))
		}
	}
}

func (s *DefaultBookingService) publish(ctx context.Context, b *models.Booking, eventType, message string, data map[string]any) {
	if s.Publisher == nil {
		return
	}
	event := models.BookingEvent{
		Type:          eventType,
		BookingID:     b.ID,
		BookingNumber: b.BookingNumber,
		OwnerID:       b.OwnerID,
		StoreID:       b.StoreID,
		Status:        b.Status,
		Message:       message,
		Data:          data,
		OccurredAt:    s.now(),
	}
	if err := s.Publisher.Publish(ctx, event); err != nil {
		s.log().Warn("failed to publish booking event",
			zap.String("bookingId", b.ID), zap.String("event", eventType), zap.Error(err))
	}
}

func (s *DefaultBookingService) scheduleReminder(ctx context.Context, b *models.Booking) {
	if s.Publisher == nil {
		return
	}
	fireAt := b.StartDate.Add(-s.Settings.ReminderLead)
	if !fireAt.After(s.now()) {
		return
	}
	payload := models.ReminderPayload{
		BookingID: b.ID,
		OwnerID:   b.OwnerID,
		Title:     "Upcoming pet care booking",
		Body:      "Booking " + b.BookingNumber + " starts " + b.StartDate.Format("Mon 2 Jan 15:04"),
		FireDate:  fireAt.Format(time.RFC3339),
	}
	if err := s.Publisher.ScheduleReminder(ctx, payload, fireAt); err != nil {
		s.log().Warn("failed to schedule reminder", zap.String("bookingId", b.ID), zap.Error(err))
	}
}
