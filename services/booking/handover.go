package booking

import (
	"context"
	"strings"

	"petcare/models"

	"go.uber.org/zap"
)

// GenerateHandoverOTP issues the code staff read back at drop-off or pickup.
// Issuing again replaces an unverified code.
func (s *DefaultBookingService) GenerateHandoverOTP(ctx context.Context, actor models.Actor, id string, kind models.HandoverKind) (*OTPIssued, error) {
	b, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	leg := b.Leg(kind)
	if want := requiredStatus(kind); b.Status != want {
		if leg.OTP != nil && leg.OTP.Verified {
			return nil, ConflictError("otp_already_verified", "%s handover is already verified", kind)
		}
		return nil, ConflictError("illegal_transition", "%s otp can only be generated for %s bookings, booking is %s", kind, want, b.Status)
	}

	now := s.now()
	code, err := issueChallenge(leg, kind, now, s.Settings.OTP)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, newChange(b)); err != nil {
		return nil, err
	}

	s.log().Info("handover otp generated",
		zap.String("bookingId", b.ID),
		zap.String("kind", string(kind)),
		zap.Time("expiresAt", leg.OTP.ExpiresAt))
	s.publish(ctx, b, models.EventHandoverOTP, "A handover code was issued for your booking", map[string]any{
		"kind":      kind,
		"expiresAt": leg.OTP.ExpiresAt,
	})
	return &OTPIssued{OTP: code, ExpiresAt: leg.OTP.ExpiresAt}, nil
}

// VerifyHandoverOTP checks the code and applies the transition it gates. Nothing is written
// unless both the code and the transition are accepted.
func (s *DefaultBookingService) VerifyHandoverOTP(ctx context.Context, actor models.Actor, id string, kind models.HandoverKind, code, notes string) (*models.Booking, error) {
	b, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	leg := b.Leg(kind)
	failedBefore := 0
	if leg.OTP != nil {
		failedBefore = leg.OTP.FailedAttempts
	}
	if err := checkChallenge(leg, kind, strings.TrimSpace(code), now); err != nil {
		if leg.OTP != nil && leg.OTP.FailedAttempts != failedBefore {
			if cerr := s.commit(ctx, newChange(b)); cerr != nil {
				return nil, cerr
			}
			s.log().Warn("wrong handover otp",
				zap.String("bookingId", b.ID),
				zap.String("kind", string(kind)),
				zap.Int("failedAttempts", leg.OTP.FailedAttempts),
				zap.String("by", actor.ID))
		}
		return nil, err
	}
	tr, err := Evaluate(b, handoverEvent(kind), now, s.Settings.Policy)
	if err != nil {
		return nil, err
	}

	c := newChange(b)
	leg.OTP.Verified = true
	leg.OTP.VerifiedAt = &now
	leg.ActualTime = &now
	leg.CompletedBy = actor.ID
	leg.Notes = strings.TrimSpace(notes)
	if err := s.applyEffects(ctx, c, tr, now); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, c); err != nil {
		return nil, err
	}

	s.log().Info("handover verified",
		zap.String("bookingId", b.ID),
		zap.String("kind", string(kind)),
		zap.String("status", string(b.Status)),
		zap.String("by", actor.ID))
	s.afterTransition(ctx, b, tr)
	return b, nil
}
