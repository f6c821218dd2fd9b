package booking

import (
	"context"

	"petcare/models"

	"go.uber.org/zap"
)

// AssignCaregiver reserves the caregiver for the booking. The booking and the
// caregiver's ledger are written together.
func (s *DefaultBookingService) AssignCaregiver(ctx context.Context, actor models.Actor, id, caregiverID string, role models.CaregiverRole) (*models.Booking, error) {
	if caregiverID == "" {
		return nil, FieldErrors(map[string]string{"caregiverId": "caregiverId is required"})
	}
	if !role.IsValid() {
		return nil, FieldErrors(map[string]string{"role": "role must be primary or backup"})
	}
	b, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if b.Status.IsTerminal() {
		return nil, ConflictError("booking_closed", "cannot assign caregivers to a %s booking", b.Status)
	}
	if _, assigned := b.AssignmentOf(caregiverID); assigned {
		return nil, ConflictError("caregiver_already_assigned", "caregiver %s is already assigned to this booking", caregiverID)
	}

	now := s.now()
	c := newChange(b)
	cg, err := s.caregiver(ctx, c, caregiverID)
	if err != nil {
		return nil, err
	}
	if b.StoreID != "" && cg.StoreID != "" && cg.StoreID != b.StoreID {
		return nil, ValidationError("caregiver_wrong_store", "caregiver %s works at another store", caregiverID)
	}
	if err := reserve(cg, b.ID, role, now); err != nil {
		return nil, err
	}
	b.AssignedCaregivers = append(b.AssignedCaregivers, models.AssignedCaregiver{
		CaregiverID: caregiverID,
		Role:        role,
		AssignedAt:  now,
	})
	if err := s.commit(ctx, c); err != nil {
		return nil, err
	}

	s.log().Info("caregiver assigned",
		zap.String("bookingId", b.ID),
		zap.String("caregiverId", caregiverID),
		zap.String("role", string(role)))
	s.publish(ctx, b, models.EventCaregiverAssigned, cg.Name+" will be looking after your pet", map[string]any{
		"caregiverId": caregiverID,
		"role":        role,
	})
	return b, nil
}

// RemoveCaregiver drops an assignment and releases the caregiver's reservation.
func (s *DefaultBookingService) RemoveCaregiver(ctx context.Context, actor models.Actor, id, caregiverID string) (*models.Booking, error) {
	b, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if b.Status.IsTerminal() {
		return nil, ConflictError("booking_closed", "cannot change caregivers of a %s booking", b.Status)
	}
	if _, assigned := b.AssignmentOf(caregiverID); !assigned {
		return nil, NotFoundError("caregiver_not_assigned", "caregiver %s is not assigned to this booking", caregiverID)
	}

	now := s.now()
	c := newChange(b)
	kept := make([]models.AssignedCaregiver, 0, len(b.AssignedCaregivers))
	for _, ac := range b.AssignedCaregivers {
		if ac.CaregiverID != caregiverID {
			kept = append(kept, ac)
		}
	}
	b.AssignedCaregivers = kept

	cg, err := s.caregiver(ctx, c, caregiverID)
	switch {
	case err == nil:
		release(cg, b.ID, now)
	case KindOf(err) == KindNotFound:
		s.log().Warn("removing assignment of missing caregiver", zap.String("caregiverId", caregiverID))
	default:
		return nil, err
	}
	if err := s.commit(ctx, c); err != nil {
		return nil, err
	}

	s.publish(ctx, b, models.EventCaregiverRemoved, "A caregiver was removed from your booking", map[string]any{
		"caregiverId": caregiverID,
	})
	return b, nil
}
