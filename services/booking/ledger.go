package booking

import (
	"time"

	"petcare/models"
)

// reserve links cg to bookingID. A primary reservation makes the caregiver busy.
func reserve(cg *models.Caregiver, bookingID string, role models.CaregiverRole, now time.Time) error {
	if _, held := cg.ReservationFor(bookingID); held {
		return ConflictError("caregiver_already_assigned", "caregiver %s is already assigned to this booking", cg.ID)
	}
	if !cg.IsActive || cg.Availability.Status != models.AvailabilityAvailable {
		return ConflictError("caregiver_unavailable", "caregiver %s is not available (%s)", cg.ID, cg.Availability.Status)
	}
	cg.Availability.Reservations = append(cg.Availability.Reservations, models.Reservation{
		BookingID:  bookingID,
		Role:       role,
		ReservedAt: now,
	})
	if role == models.RolePrimary {
		cg.Availability.Status = models.AvailabilityBusy
	}
	cg.Performance.TotalBookings++
	cg.UpdatedAt = now
	return nil
}

// release drops the reservation bookingID holds. The caregiver only becomes available again
// when no other booking still holds them as primary. Reports whether anything changed.
func release(cg *models.Caregiver, bookingID string, now time.Time) bool {
	kept := cg.Availability.Reservations[:0]
	found := false
	for _, r := range cg.Availability.Reservations {
		if r.BookingID == bookingID {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	cg.Availability.Reservations = kept
	if !found {
		return false
	}
	if cg.Availability.Status == models.AvailabilityBusy && !cg.HoldsPrimary() {
		cg.Availability.Status = models.AvailabilityAvailable
	}
	cg.UpdatedAt = now
	return true
}

func countCompletion(cg *models.Caregiver) {
	cg.Performance.CompletedBookings++
}

func countCancellation(cg *models.Caregiver) {
	cg.Performance.CancelledBookings++
}

// recordRating folds rating into the running mean.
func recordRating(cg *models.Caregiver, rating int) {
	p := &cg.Performance
	total := p.AverageRating*float64(p.RatingCount) + float64(rating)
	p.RatingCount++
	p.AverageRating = total / float64(p.RatingCount)
}
