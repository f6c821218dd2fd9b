package notification

import (
	"context"
	"time"

	"petcare/models"
)

// Publisher delivers booking events to owners and staff. Delivery is best-effort:
// callers log failures and never roll back a committed booking change because of them.
type Publisher interface {
	Publish(ctx context.Context, event models.BookingEvent) error
	ScheduleReminder(ctx context.Context, payload models.ReminderPayload, fireAt time.Time) error
	// CancelReminder withdraws the booking's pending reminder. A missing reminder is not an error.
	CancelReminder(ctx context.Context, bookingID string) error
}
