package booking

import (
	"context"
	"strings"

	"petcare/models"

	"go.uber.org/zap"
)

// UpdateStatus is the administrative status change. Drop-off and pickup can only happen
// through handover verification, so targets in_progress and completed are refused here.
func (s *DefaultBookingService) UpdateStatus(ctx context.Context, actor models.Actor, id, status, notes string) (*models.Booking, error) {
	target, err := models.ParseBookingStatus(status)
	if err != nil {
		return nil, ValidationError("invalid_status", "%s", err.Error())
	}
	b, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	ev, ok := EventFor(target)
	if !ok {
		return nil, ConflictError("illegal_transition", "cannot move a booking from %s to %s", b.Status, target)
	}
	switch ev {
	case EventStart:
		return nil, ConflictError("handover_required", "drop-off must be confirmed with the drop-off otp")
	case EventComplete:
		return nil, ConflictError("handover_required", "pickup must be confirmed with the pickup otp")
	case EventCancel:
		return s.cancel(ctx, actor, b, notes)
	case EventRefund:
		return s.refund(ctx, b, nil)
	}

	now := s.now()
	tr, err := Evaluate(b, ev, now, s.Settings.Policy)
	if err != nil {
		return nil, err
	}
	if tr.To == models.StatusConfirmed {
		if err := s.ensurePetFree(ctx, b.PetID, b.StartDate, b.EndDate, b.ID); err != nil {
			return nil, err
		}
	}
	c := newChange(b)
	if err := s.applyEffects(ctx, c, tr, now); err != nil {
		return nil, err
	}
	appendNote(b, notes)
	if err := s.commit(ctx, c); err != nil {
		return nil, err
	}

	s.log().Info("booking status updated",
		zap.String("bookingId", b.ID),
		zap.String("from", string(tr.From)),
		zap.String("to", string(tr.To)),
		zap.String("by", actor.ID))
	s.afterTransition(ctx, b, tr)
	return b, nil
}

func appendNote(b *models.Booking, note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if b.InternalNotes != "" {
		b.InternalNotes += "\n"
	}
	b.InternalNotes += note
}

// CancelBooking cancels on behalf of the owner (or staff) and computes the refund due.
func (s *DefaultBookingService) CancelBooking(ctx context.Context, actor models.Actor, id, reason string) (*models.Booking, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, FieldErrors(map[string]string{"reason": "reason is required"})
	}
	b, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, actor, b, reason)
}

func (s *DefaultBookingService) cancel(ctx context.Context, actor models.Actor, b *models.Booking, reason string) (*models.Booking, error) {
	now := s.now()
	tr, err := Evaluate(b, EventCancel, now, s.Settings.Policy)
	if err != nil {
		return nil, err
	}

	c := newChange(b)
	b.Cancellation = &models.Cancellation{
		CancelledAt: now,
		CancelledBy: actor.ID,
		Reason:      strings.TrimSpace(reason),
	}
	if err := s.applyEffects(ctx, c, tr, now); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, c); err != nil {
		return nil, err
	}

	s.log().Info("booking cancelled",
		zap.String("bookingId", b.ID),
		zap.String("by", actor.ID),
		zap.Float64("refundAmount", b.Cancellation.RefundAmount))
	s.afterTransition(ctx, b, tr)
	return b, nil
}

// ProcessRefund settles the pending refund of a cancelled booking. A non-nil amount overrides
// the computed refund and may not exceed the advance that was paid.
func (s *DefaultBookingService) ProcessRefund(ctx context.Context, actor models.Actor, id string, amount *float64) (*models.Booking, error) {
	b, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.refund(ctx, b, amount)
}

func (s *DefaultBookingService) refund(ctx context.Context, b *models.Booking, amount *float64) (*models.Booking, error) {
	if amount != nil {
		if *amount <= 0 {
			return nil, FieldErrors(map[string]string{"amount": "amount must be greater than 0"})
		}
		if b.PaymentStatus.Advance.Status != models.PaymentCompleted {
			return nil, ConflictError("advance_not_paid", "nothing was paid for this booking")
		}
		if *amount > b.Pricing.AdvanceAmount {
			return nil, FieldErrors(map[string]string{"amount": "amount cannot exceed the advance paid"})
		}
		if b.Status == models.StatusCancelled && b.Cancellation != nil &&
			b.Cancellation.RefundStatus != models.RefundProcessed {
			b.Cancellation.RefundAmount = *amount
			b.Cancellation.RefundStatus = models.RefundPending
		}
	}

	now := s.now()
	tr, err := Evaluate(b, EventRefund, now, s.Settings.Policy)
	if err != nil {
		return nil, err
	}
	c := newChange(b)
	if err := s.applyEffects(ctx, c, tr, now); err != nil {
		return nil, err
	}
	b.Cancellation.RefundStatus = models.RefundProcessed
	b.Cancellation.RefundedAt = &now
	b.PaymentStatus.Advance.Status = models.PaymentRefunded
	if err := s.commit(ctx, c); err != nil {
		return nil, err
	}

	s.log().Info("refund processed",
		zap.String("bookingId", b.ID),
		zap.Float64("amount", b.Cancellation.RefundAmount))
	s.afterTransition(ctx, b, tr)
	return b, nil
}

// RecordPayment records a gateway payment. A completed advance confirms a pending booking.
func (s *DefaultBookingService) RecordPayment(ctx context.Context, actor models.Actor, id string, in PaymentInput) (*models.Booking, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	b, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	state := models.PaymentCompleted
	if in.Status == string(models.PaymentFailed) {
		state = models.PaymentFailed
	}

	var record *models.PaymentRecord
	switch in.Type {
	case "advance":
		if b.Status != models.StatusPendingPayment {
			return nil, ConflictError("payment_not_expected", "advance payment is not expected for a %s booking", b.Status)
		}
		record = &b.PaymentStatus.Advance
	case "final":
		if b.PaymentStatus.Advance.Status != models.PaymentCompleted {
			return nil, ConflictError("advance_payment_pending", "advance payment must be completed first")
		}
		if !b.Status.IsActive() {
			return nil, ConflictError("payment_not_expected", "final payment is not expected for a %s booking", b.Status)
		}
		record = &b.PaymentStatus.Final
	}
	if record.Status == models.PaymentCompleted {
		return nil, ConflictError("payment_already_recorded", "%s payment is already completed", in.Type)
	}

	record.Status = state
	record.PaymentID = in.PaymentID
	if state == models.PaymentCompleted {
		record.PaidAt = &now
	}

	c := newChange(b)
	var tr *Transition
	if in.Type == "advance" && state == models.PaymentCompleted {
		confirm, err := Evaluate(b, EventConfirm, now, s.Settings.Policy)
		if err != nil {
			return nil, err
		}
		if err := s.ensurePetFree(ctx, b.PetID, b.StartDate, b.EndDate, b.ID); err != nil {
			return nil, err
		}
		if err := s.applyEffects(ctx, c, confirm, now); err != nil {
			return nil, err
		}
		tr = &confirm
	}
	if err := s.commit(ctx, c); err != nil {
		return nil, err
	}

	s.log().Info("payment recorded",
		zap.String("bookingId", b.ID),
		zap.String("type", in.Type),
		zap.String("status", string(state)),
		zap.String("by", actor.ID))
	s.publish(ctx, b, models.EventPaymentRecorded, "Payment "+string(state), map[string]any{
		"type": in.Type,
	})
	if tr != nil {
		s.afterTransition(ctx, b, *tr)
	}
	return b, nil
}
