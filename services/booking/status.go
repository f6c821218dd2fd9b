package booking

import (
	"time"

	"petcare/models"
)

// Event is a requested lifecycle step.
type Event string

const (
	EventConfirm  Event = "confirm"
	EventStart    Event = "start"
	EventComplete Event = "complete"
	EventCancel   Event = "cancel"
	EventRefund   Event = "refund"
)

// Effect is work that must happen together with a transition.
type Effect string

const (
	EffectReleaseCaregivers Effect = "release_caregivers"
	EffectCountCompletion   Effect = "count_completion"
	EffectCountCancellation Effect = "count_cancellation"
	EffectComputeRefund     Effect = "compute_refund"
	EffectScheduleReminder  Effect = "schedule_reminder"
	EffectCancelReminder    Effect = "cancel_reminder"
)

// Policy holds the time windows the guard and the refund rule depend on.
type Policy struct {
	CancelWindow         time.Duration
	FullRefundBefore     time.Duration
	PartialRefundPercent float64
}

func DefaultPolicy() Policy {
	return Policy{
		CancelWindow:         24 * time.Hour,
		FullRefundBefore:     48 * time.Hour,
		PartialRefundPercent: 50,
	}
}

type precondition func(b *models.Booking, now time.Time, p Policy) error

type rule struct {
	to      models.BookingStatus
	pre     []precondition
	effects []Effect
}

// transitions is the whole lifecycle. Anything not listed is illegal.
var transitions = map[models.BookingStatus]map[Event]rule{
	models.StatusPendingPayment: {
		EventConfirm: {to: models.StatusConfirmed, effects: []Effect{EffectScheduleReminder}},
		EventCancel: {
			to:      models.StatusCancelled,
			effects: []Effect{EffectComputeRefund, EffectReleaseCaregivers, EffectCountCancellation, EffectCancelReminder},
		},
	},
	models.StatusConfirmed: {
		EventStart: {to: models.StatusInProgress},
		EventCancel: {
			to:      models.StatusCancelled,
			pre:     []precondition{outsideCancelWindow},
			effects: []Effect{EffectComputeRefund, EffectReleaseCaregivers, EffectCountCancellation, EffectCancelReminder},
		},
	},
	models.StatusInProgress: {
		EventComplete: {
			to:      models.StatusCompleted,
			pre:     []precondition{finalPaymentCompleted},
			effects: []Effect{EffectReleaseCaregivers, EffectCountCompletion},
		},
	},
	models.StatusCancelled: {
		EventRefund: {to: models.StatusRefunded, pre: []precondition{refundPending}},
	},
}

// Transition is an approved lifecycle step.
type Transition struct {
	From    models.BookingStatus
	To      models.BookingStatus
	Event   Event
	Effects []Effect
}

func (t Transition) Has(effect Effect) bool {
	for _, e := range t.Effects {
		if e == effect {
			return true
		}
	}
	return false
}

// Evaluate decides whether ev may be applied to b at now. It does not mutate b.
func Evaluate(b *models.Booking, ev Event, now time.Time, p Policy) (Transition, error) {
	r, ok := transitions[b.Status][ev]
	if !ok {
		return Transition{}, ConflictError("illegal_transition",
			"cannot %s a booking that is %s", ev, b.Status)
	}
	for _, check := range r.pre {
		if err := check(b, now, p); err != nil {
			return Transition{}, err
		}
	}
	return Transition{From: b.Status, To: r.to, Event: ev, Effects: r.effects}, nil
}

// EventFor maps a requested target status onto the event that reaches it.
func EventFor(target models.BookingStatus) (Event, bool) {
	switch target {
	case models.StatusConfirmed:
		return EventConfirm, true
	case models.StatusInProgress:
		return EventStart, true
	case models.StatusCompleted:
		return EventComplete, true
	case models.StatusCancelled:
		return EventCancel, true
	case models.StatusRefunded:
		return EventRefund, true
	}
	return "", false
}

// CanCancel reports whether a cancel request would pass the guard at now.
func CanCancel(b *models.Booking, now time.Time, p Policy) bool {
	_, err := Evaluate(b, EventCancel, now, p)
	return err == nil
}

func outsideCancelWindow(b *models.Booking, now time.Time, p Policy) error {
	if b.StartDate.Sub(now) <= p.CancelWindow {
		return ConflictError("cancel_window_closed",
			"bookings can only be cancelled more than %s before the start", formatHours(p.CancelWindow))
	}
	return nil
}

func finalPaymentCompleted(b *models.Booking, _ time.Time, _ Policy) error {
	if b.PaymentStatus.Final.Status != models.PaymentCompleted {
		return ConflictError("final_payment_pending", "final payment must be completed before pickup")
	}
	return nil
}

func refundPending(b *models.Booking, _ time.Time, _ Policy) error {
	c := b.Cancellation
	if c == nil || c.RefundAmount <= 0 {
		return ConflictError("no_refund_due", "booking has no refund due")
	}
	if c.RefundStatus != models.RefundPending {
		return ConflictError("refund_not_pending", "refund is already %s", c.RefundStatus)
	}
	return nil
}
