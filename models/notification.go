package models

import "time"

const (
	EventBookingCreated    = "booking_created"
	EventBookingConfirmed  = "booking_confirmed"
	EventBookingStarted    = "booking_started"
	EventBookingCompleted  = "booking_completed"
	EventBookingCancelled  = "booking_cancelled"
	EventBookingRefunded   = "booking_refunded"
	EventCaregiverAssigned = "caregiver_assigned"
	EventCaregiverRemoved  = "caregiver_removed"
	EventActivityAdded     = "activity_added"
	EventHandoverOTP       = "handover_otp_generated"
	EventPaymentRecorded   = "payment_recorded"
)

// BookingEvent is what gets queued and streamed to the owner when a booking changes.
type BookingEvent struct {
	Type          string         `json:"type"`
	BookingID     string         `json:"bookingId"`
	BookingNumber string         `json:"bookingNumber"`
	OwnerID       string         `json:"ownerId"`
	StoreID       string         `json:"storeId,omitempty"`
	Status        BookingStatus  `json:"status"`
	Message       string         `json:"message"`
	Data          map[string]any `json:"data,omitempty"`
	OccurredAt    time.Time      `json:"occurredAt"`
}

// ReminderPayload is the body of a delayed reminder task.
type ReminderPayload struct {
	BookingID string `json:"bookingId"`
	OwnerID   string `json:"ownerId"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	FireDate  string `json:"fireDate"`
}
