package booking

import (
	"context"
	"strings"

	"petcare/models"
)

// SubmitReview records the owner's single review of a completed booking and
// folds the rating into every assigned caregiver's average.
func (s *DefaultBookingService) SubmitReview(ctx context.Context, actor models.Actor, id string, in ReviewInput) (*models.Booking, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	b, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != actor.ID {
		return nil, NotFoundError("booking_not_found", "booking %s not found", id)
	}
	if b.Status != models.StatusCompleted {
		return nil, ConflictError("booking_not_completed", "only completed bookings can be reviewed")
	}
	if b.Review != nil {
		return nil, ConflictError("already_reviewed", "booking has already been reviewed")
	}

	c := newChange(b)
	b.Review = &models.Review{Rating: in.Rating, Comment: strings.TrimSpace(in.Comment), ReviewedAt: s.now()}
	for _, ac := range b.AssignedCaregivers {
		cg, err := s.caregiver(ctx, c, ac.CaregiverID)
		if err != nil {
			if KindOf(err) == KindNotFound {
				continue
			}
			return nil, err
		}
		recordRating(cg, in.Rating)
	}
	if err := s.commit(ctx, c); err != nil {
		return nil, err
	}
	return b, nil
}
