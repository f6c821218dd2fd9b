package models

import (
	"fmt"
	"time"
)

// BookingStatus is the lifecycle state of a care booking.
type BookingStatus string

const (
	StatusPendingPayment BookingStatus = "pending_payment"
	StatusConfirmed      BookingStatus = "confirmed"
	StatusInProgress     BookingStatus = "in_progress"
	StatusCompleted      BookingStatus = "completed"
	StatusCancelled      BookingStatus = "cancelled"
	StatusRefunded       BookingStatus = "refunded"
)

var bookingStatuses = []BookingStatus{
	StatusPendingPayment,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
	StatusRefunded,
}

// IsValid reports whether s is one of the known booking statuses.
func (s BookingStatus) IsValid() bool {
	for _, known := range bookingStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the booking can no longer change (except for its review).
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRefunded
}

// IsActive reports whether the pet is, or is about to be, in care.
func (s BookingStatus) IsActive() bool {
	return s == StatusConfirmed || s == StatusInProgress
}

// ParseBookingStatus converts a raw string into a BookingStatus.
func ParseBookingStatus(raw string) (BookingStatus, error) {
	s := BookingStatus(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid booking status: %q", raw)
	}
	return s, nil
}

type DurationUnit string

const (
	DurationDays  DurationUnit = "days"
	DurationHours DurationUnit = "hours"
)

// BookingDuration is the length of the stay expressed in the unit the owner picked.
type BookingDuration struct {
	Value int          `bson:"value" json:"value"`
	Unit  DurationUnit `bson:"unit" json:"unit"`
}

type ChargeLine struct {
	Name   string  `bson:"name" json:"name"`
	Amount float64 `bson:"amount" json:"amount"`
}

type Discount struct {
	Amount float64 `bson:"amount" json:"amount"`
	Reason string  `bson:"reason,omitempty" json:"reason,omitempty"`
}

type Tax struct {
	Amount     float64 `bson:"amount" json:"amount"`
	Percentage float64 `bson:"percentage" json:"percentage"`
}

// Pricing is the persisted price breakdown.
// total = base + additional - discount + tax, and total = advance + remaining.
type Pricing struct {
	BaseAmount        float64      `bson:"baseAmount" json:"baseAmount"`
	AdditionalCharges []ChargeLine `bson:"additionalCharges" json:"additionalCharges"`
	AdditionalAmount  float64      `bson:"additionalAmount" json:"additionalAmount"`
	Discount          Discount     `bson:"discount" json:"discount"`
	Tax               Tax          `bson:"tax" json:"tax"`
	TotalAmount       float64      `bson:"totalAmount" json:"totalAmount"`
	AdvancePercentage float64      `bson:"advancePercentage" json:"advancePercentage"`
	AdvanceAmount     float64      `bson:"advanceAmount" json:"advanceAmount"`
	RemainingAmount   float64      `bson:"remainingAmount" json:"remainingAmount"`
}

type PaymentState string

const (
	PaymentPending   PaymentState = "pending"
	PaymentCompleted PaymentState = "completed"
	PaymentFailed    PaymentState = "failed"
	PaymentRefunded  PaymentState = "refunded"
)

type PaymentRecord struct {
	Status    PaymentState `bson:"status" json:"status"`
	PaidAt    *time.Time   `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	PaymentID string       `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
}

type PaymentStatus struct {
	Advance PaymentRecord `bson:"advance" json:"advance"`
	Final   PaymentRecord `bson:"final" json:"final"`
}

// HandoverKind names one of the two physical exchanges of the pet.
type HandoverKind string

const (
	HandoverDropOff HandoverKind = "dropOff"
	HandoverPickup  HandoverKind = "pickup"
)

// ParseHandoverKind accepts the wire names used by the API.
func ParseHandoverKind(raw string) (HandoverKind, error) {
	switch raw {
	case string(HandoverDropOff), "dropoff", "drop_off":
		return HandoverDropOff, nil
	case string(HandoverPickup):
		return HandoverPickup, nil
	}
	return "", fmt.Errorf("invalid handover type: %q", raw)
}

// OTPChallenge is a single-use handover code. Only the bcrypt hash of the code is stored.
type OTPChallenge struct {
	CodeHash    string     `bson:"codeHash" json:"-"`
	GeneratedAt time.Time  `bson:"generatedAt" json:"generatedAt"`
	ExpiresAt   time.Time  `bson:"expiresAt" json:"expiresAt"`
	Verified    bool       `bson:"verified" json:"verified"`
	VerifiedAt  *time.Time `bson:"verifiedAt,omitempty" json:"verifiedAt,omitempty"`
	// FailedAttempts counts wrong codes; the challenge is void once it reaches the limit.
	FailedAttempts int `bson:"failedAttempts" json:"failedAttempts"`
}

type HandoverLeg struct {
	Method        string        `bson:"method" json:"method"`
	ScheduledTime *time.Time    `bson:"scheduledTime,omitempty" json:"scheduledTime,omitempty"`
	ActualTime    *time.Time    `bson:"actualTime,omitempty" json:"actualTime,omitempty"`
	CompletedBy   string        `bson:"completedBy,omitempty" json:"completedBy,omitempty"`
	Notes         string        `bson:"notes,omitempty" json:"notes,omitempty"`
	OTP           *OTPChallenge `bson:"otp,omitempty" json:"otp,omitempty"`
}

type Handover struct {
	DropOff HandoverLeg `bson:"dropOff" json:"dropOff"`
	Pickup  HandoverLeg `bson:"pickup" json:"pickup"`
}

type CaregiverRole string

const (
	RolePrimary CaregiverRole = "primary"
	RoleBackup  CaregiverRole = "backup"
)

func (r CaregiverRole) IsValid() bool {
	return r == RolePrimary || r == RoleBackup
}

type AssignedCaregiver struct {
	CaregiverID string        `bson:"caregiverId" json:"caregiverId"`
	Role        CaregiverRole `bson:"role" json:"role"`
	AssignedAt  time.Time     `bson:"assignedAt" json:"assignedAt"`
}

type ActivityType string

const (
	ActivityFeeding     ActivityType = "feeding"
	ActivityBathing     ActivityType = "bathing"
	ActivityWalking     ActivityType = "walking"
	ActivityMedication  ActivityType = "medication"
	ActivityPlaytime    ActivityType = "playtime"
	ActivityHealthCheck ActivityType = "health_check"
	ActivityEmergency   ActivityType = "emergency"
	ActivityOther       ActivityType = "other"
)

func (a ActivityType) IsValid() bool {
	switch a {
	case ActivityFeeding, ActivityBathing, ActivityWalking, ActivityMedication,
		ActivityPlaytime, ActivityHealthCheck, ActivityEmergency, ActivityOther:
		return true
	}
	return false
}

type Media struct {
	URL        string    `bson:"url" json:"url"`
	Type       string    `bson:"type" json:"type"` // "image" or "video"
	Caption    string    `bson:"caption,omitempty" json:"caption,omitempty"`
	UploadedAt time.Time `bson:"uploadedAt" json:"uploadedAt"`
}

type ActivityEntry struct {
	ID          string       `bson:"id" json:"id"`
	Type        ActivityType `bson:"activityType" json:"activityType"`
	Timestamp   time.Time    `bson:"timestamp" json:"timestamp"`
	Notes       string       `bson:"notes" json:"notes"`
	PerformedBy string       `bson:"performedBy" json:"performedBy"`
	Media       []Media      `bson:"media,omitempty" json:"media,omitempty"`
}

type RefundState string

const (
	RefundPending   RefundState = "pending"
	RefundProcessed RefundState = "processed"
	RefundFailed    RefundState = "failed"
)

type Cancellation struct {
	CancelledAt  time.Time   `bson:"cancelledAt" json:"cancelledAt"`
	CancelledBy  string      `bson:"cancelledBy" json:"cancelledBy"`
	Reason       string      `bson:"reason" json:"reason"`
	RefundAmount float64     `bson:"refundAmount" json:"refundAmount"`
	RefundStatus RefundState `bson:"refundStatus,omitempty" json:"refundStatus,omitempty"`
	RefundedAt   *time.Time  `bson:"refundedAt,omitempty" json:"refundedAt,omitempty"`
}

type Review struct {
	Rating     int       `bson:"rating" json:"rating"` // 1..5
	Comment    string    `bson:"comment,omitempty" json:"comment,omitempty"`
	ReviewedAt time.Time `bson:"reviewedAt" json:"reviewedAt"`
}

type Location struct {
	Type       string `bson:"type" json:"type"` // "facility" or "customer_home"
	Address    string `bson:"address,omitempty" json:"address,omitempty"`
	FacilityID string `bson:"facilityId,omitempty" json:"facilityId,omitempty"`
}

type Medication struct {
	Name      string `bson:"name" json:"name"`
	Dosage    string `bson:"dosage,omitempty" json:"dosage,omitempty"`
	Frequency string `bson:"frequency,omitempty" json:"frequency,omitempty"`
}

type Contact struct {
	Name         string `bson:"name,omitempty" json:"name,omitempty"`
	Phone        string `bson:"phone,omitempty" json:"phone,omitempty"`
	Relationship string `bson:"relationship,omitempty" json:"relationship,omitempty"`
}

type SpecialRequirements struct {
	Diet             string       `bson:"diet,omitempty" json:"diet,omitempty"`
	Medication       []Medication `bson:"medication,omitempty" json:"medication,omitempty"`
	Allergies        []string     `bson:"allergies,omitempty" json:"allergies,omitempty"`
	BehaviorNotes    string       `bson:"behaviorNotes,omitempty" json:"behaviorNotes,omitempty"`
	EmergencyContact Contact      `bson:"emergencyContact,omitempty" json:"emergencyContact,omitempty"`
}

// Booking is one temporary-care engagement, persisted as a single document.
type Booking struct {
	ID                  string              `bson:"id" json:"id"`
	BookingNumber       string              `bson:"bookingNumber" json:"bookingNumber"`
	OwnerID             string              `bson:"ownerId" json:"ownerId"`
	PetID               string              `bson:"petId" json:"petId"`
	ServiceTypeID       string              `bson:"serviceTypeId" json:"serviceTypeId"`
	ServiceCategory     string              `bson:"serviceCategory" json:"serviceCategory"`
	StoreID             string              `bson:"storeId,omitempty" json:"storeId,omitempty"`
	StartDate           time.Time           `bson:"startDate" json:"startDate"`
	EndDate             time.Time           `bson:"endDate" json:"endDate"`
	Duration            BookingDuration     `bson:"duration" json:"duration"`
	Location            Location            `bson:"location" json:"location"`
	SpecialRequirements SpecialRequirements `bson:"specialRequirements" json:"specialRequirements"`
	AssignedCaregivers  []AssignedCaregiver `bson:"assignedCaregivers" json:"assignedCaregivers"`
	Pricing             Pricing             `bson:"pricing" json:"pricing"`
	PaymentStatus       PaymentStatus       `bson:"paymentStatus" json:"paymentStatus"`
	Status              BookingStatus       `bson:"status" json:"status"`
	Handover            Handover            `bson:"handover" json:"handover"`
	ActivityLog         []ActivityEntry     `bson:"activityLog" json:"activityLog"`
	Cancellation        *Cancellation       `bson:"cancellation,omitempty" json:"cancellation,omitempty"`
	Review              *Review             `bson:"review,omitempty" json:"review,omitempty"`
	InternalNotes       string              `bson:"internalNotes,omitempty" json:"internalNotes,omitempty"`
	Version             int                 `bson:"version" json:"version"`
	CreatedAt           time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Leg returns the handover sub-record for kind.
func (b *Booking) Leg(kind HandoverKind) *HandoverLeg {
	if kind == HandoverPickup {
		return &b.Handover.Pickup
	}
	return &b.Handover.DropOff
}

// AssignmentOf returns the caregiver's assignment on this booking, if any.
func (b *Booking) AssignmentOf(caregiverID string) (AssignedCaregiver, bool) {
	for _, ac := range b.AssignedCaregivers {
		if ac.CaregiverID == caregiverID {
			return ac, true
		}
	}
	return AssignedCaregiver{}, false
}
