package booking

import (
	"context"
	"sort"

	"petcare/models"

	"github.com/google/uuid"
)

// AddActivity appends a care log entry.
func (s *DefaultBookingService) AddActivity(ctx context.Context, actor models.Actor, id string, in ActivityInput) (*models.Booking, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	b, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if b.Status.IsTerminal() {
		return nil, ConflictError("booking_closed", "cannot log activities on a %s booking", b.Status)
	}

	now := s.now()
	at := now
	if in.Timestamp != nil {
		at = *in.Timestamp
	}
	entry := models.ActivityEntry{
		ID:          uuid.NewString(),
		Type:        in.Type,
		Timestamp:   at,
		Notes:       in.Notes,
		PerformedBy: actor.ID,
	}
	for _, m := range in.Media {
		entry.Media = append(entry.Media, models.Media{URL: m.URL, Type: m.Type, Caption: m.Caption, UploadedAt: now})
	}
	b.ActivityLog = append(b.ActivityLog, entry)

	if err := s.commit(ctx, newChange(b)); err != nil {
		return nil, err
	}
	s.publish(ctx, b, models.EventActivityAdded, "New update: "+string(in.Type), map[string]any{
		"activityId": entry.ID,
		"type":       entry.Type,
	})
	return b, nil
}

// Timeline merges the booking's dated facts into one chronological list.
func (s *DefaultBookingService) Timeline(ctx context.Context, actor models.Actor, id string) ([]TimelineEntry, error) {
	b, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	entries := []TimelineEntry{{At: b.CreatedAt, Kind: "created", Description: "Booking " + b.BookingNumber + " created", By: b.OwnerID}}
	if p := b.PaymentStatus.Advance.PaidAt; p != nil {
		entries = append(entries, TimelineEntry{At: *p, Kind: "payment", Description: "Advance payment received"})
	}
	for _, ac := range b.AssignedCaregivers {
		entries = append(entries, TimelineEntry{At: ac.AssignedAt, Kind: "caregiver", Description: string(ac.Role) + " caregiver assigned", By: ac.CaregiverID})
	}
	if t := b.Handover.DropOff.ActualTime; t != nil {
		entries = append(entries, TimelineEntry{At: *t, Kind: "dropoff", Description: "Pet dropped off", By: b.Handover.DropOff.CompletedBy})
	}
	for _, a := range b.ActivityLog {
		entries = append(entries, TimelineEntry{At: a.Timestamp, Kind: "activity", Description: string(a.Type) + ": " + a.Notes, By: a.PerformedBy})
	}
	if p := b.PaymentStatus.Final.PaidAt; p != nil {
		entries = append(entries, TimelineEntry{At: *p, Kind: "payment", Description: "Final payment received"})
	}
	if t := b.Handover.Pickup.ActualTime; t != nil {
		entries = append(entries, TimelineEntry{At: *t, Kind: "pickup", Description: "Pet picked up", By: b.Handover.Pickup.CompletedBy})
	}
	if c := b.Cancellation; c != nil {
		entries = append(entries, TimelineEntry{At: c.CancelledAt, Kind: "cancelled", Description: "Booking cancelled: " + c.Reason, By: c.CancelledBy})
		if c.RefundedAt != nil {
			entries = append(entries, TimelineEntry{At: *c.RefundedAt, Kind: "refund", Description: "Refund processed"})
		}
	}
	if r := b.Review; r != nil {
		entries = append(entries, TimelineEntry{At: r.ReviewedAt, Kind: "review", Description: "Review submitted", By: b.OwnerID})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].At.Before(entries[j].At) })
	return entries, nil
}
