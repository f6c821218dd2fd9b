package booking

import (
	"time"

	"petcare/models"
	"petcare/utils"
)

const (
	otpLength      = 6
	maxOTPAttempts = 5
)

// OTPPolicy configures handover codes.
type OTPPolicy struct {
	DropOffTTL time.Duration
	PickupTTL  time.Duration
	HashCost   int
}

func DefaultOTPPolicy() OTPPolicy {
	return OTPPolicy{DropOffTTL: 15 * time.Minute, PickupTTL: 30 * time.Minute}
}

func (p OTPPolicy) ttl(kind models.HandoverKind) time.Duration {
	if kind == models.HandoverPickup {
		return p.PickupTTL
	}
	return p.DropOffTTL
}

// handoverEvent is the transition a verified code unlocks.
func handoverEvent(kind models.HandoverKind) Event {
	if kind == models.HandoverPickup {
		return EventComplete
	}
	return EventStart
}

// requiredStatus is the status a code may be issued in.
func requiredStatus(kind models.HandoverKind) models.BookingStatus {
	if kind == models.HandoverPickup {
		return models.StatusInProgress
	}
	return models.StatusConfirmed
}

// issueChallenge creates a fresh challenge for the leg and returns the plain code.
// A verified challenge is never replaced.
func issueChallenge(leg *models.HandoverLeg, kind models.HandoverKind, now time.Time, p OTPPolicy) (string, error) {
	if leg.OTP != nil && leg.OTP.Verified {
		return "", ConflictError("otp_already_verified", "%s handover is already verified", kind)
	}
	code, err := utils.GenerateNumericOTP(otpLength)
	if err != nil {
		return "", ServerError(err, "failed to generate otp")
	}
	hash, err := utils.HashOTP(code, p.HashCost)
	if err != nil {
		return "", ServerError(err, "failed to secure otp")
	}
	leg.OTP = &models.OTPChallenge{
		CodeHash:    hash,
		GeneratedAt: now,
		ExpiresAt:   now.Add(p.ttl(kind)),
	}
	return code, nil
}

// checkChallenge runs the verification checks in their fixed order:
// missing, already used, expired, locked, malformed or wrong.
// A wrong code is counted on the challenge, so callers must persist the leg on failure too.
func checkChallenge(leg *models.HandoverLeg, kind models.HandoverKind, code string, now time.Time) error {
	ch := leg.OTP
	if ch == nil || ch.CodeHash == "" {
		return NotFoundError("otp_not_generated", "no %s otp has been generated", kind)
	}
	if ch.Verified {
		return ConflictError("otp_already_verified", "%s otp has already been used", kind)
	}
	if now.After(ch.ExpiresAt) {
		return ExpiredError("otp_expired", "%s otp expired at %s", kind, ch.ExpiresAt.Format(time.RFC3339))
	}
	if ch.FailedAttempts >= maxOTPAttempts {
		return attemptsExceeded(kind)
	}
	if !wellFormedOTP(code) {
		return ValidationError("otp_malformed", "otp must be %d digits", otpLength)
	}
	if !utils.CompareOTP(ch.CodeHash, code) {
		ch.FailedAttempts++
		if ch.FailedAttempts >= maxOTPAttempts {
			return attemptsExceeded(kind)
		}
		return ValidationError("otp_mismatch", "invalid otp, %d attempt(s) left", maxOTPAttempts-ch.FailedAttempts)
	}
	return nil
}

func attemptsExceeded(kind models.HandoverKind) error {
	return ConflictError("otp_attempts_exceeded", "too many wrong %s codes, generate a new otp", kind)
}

func wellFormedOTP(code string) bool {
	if len(code) != otpLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
