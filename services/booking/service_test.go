package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"petcare/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBooking_PricesAndStartsPending(t *testing.T) {
	f := newFixture(t)
	b := f.create(t, 72*time.Hour)

	assert.Equal(t, models.StatusPendingPayment, b.Status)
	assert.Equal(t, fmt.Sprintf("TCB%d0001", f.now.UnixMilli()), b.BookingNumber)
	assert.Equal(t, "store-1", b.StoreID)
	assert.True(t, b.EndDate.Equal(b.StartDate.Add(72*time.Hour)))
	assert.Equal(t, 1500.0, b.Pricing.BaseAmount)
	assert.Equal(t, 270.0, b.Pricing.Tax.Amount)
	assert.Equal(t, 1770.0, b.Pricing.TotalAmount)
	assert.Equal(t, 885.0, b.Pricing.AdvanceAmount)
	assert.Equal(t, 885.0, b.Pricing.RemainingAmount)
	assert.Equal(t, models.PaymentPending, b.PaymentStatus.Advance.Status)
	assert.Equal(t, []string{models.EventBookingCreated}, f.pub.types())

	second := f.create(t, 240*time.Hour)
	assert.Equal(t, fmt.Sprintf("TCB%d0002", f.now.UnixMilli()), second.BookingNumber)
}

func TestCreateBooking_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, owner, CreateBookingInput{
		PetID:         "pet-1",
		ServiceTypeID: boardingID,
		StartDate:     f.now.Add(-time.Hour),
		Duration:      DurationInput{Value: 1, Unit: models.DurationDays},
	})
	requireKind(t, err, KindValidation, "invalid_input")

	_, err = f.svc.CreateBooking(ctx, owner, CreateBookingInput{
		PetID:         "pet-1",
		ServiceTypeID: boardingID,
		StartDate:     f.now.Add(time.Hour),
		Duration:      DurationInput{Value: 2, Unit: "weeks"},
	})
	requireKind(t, err, KindValidation, "invalid_input")

	_, err = f.svc.CreateBooking(ctx, owner, CreateBookingInput{
		PetID:         "pet-1",
		ServiceTypeID: "missing",
		StartDate:     f.now.Add(time.Hour),
		Duration:      DurationInput{Value: 1, Unit: models.DurationDays},
	})
	requireKind(t, err, KindNotFound, "service_type_not_found")
}

func TestCreateBooking_RejectsOverlapForSamePet(t *testing.T) {
	f := newFixture(t)
	f.confirmed(t, 72*time.Hour)

	_, err := f.svc.CreateBooking(context.Background(), owner, CreateBookingInput{
		PetID:         "pet-1",
		ServiceTypeID: boardingID,
		StartDate:     f.now.Add(96 * time.Hour),
		Duration:      DurationInput{Value: 1, Unit: models.DurationDays},
	})
	requireKind(t, err, KindValidation, "pet_already_booked")
}

func TestCreateBooking_SequenceFailureIsServerError(t *testing.T) {
	f := newFixture(t)
	f.seq.err = errors.New("redis down")

	_, err := f.svc.CreateBooking(context.Background(), owner, CreateBookingInput{
		PetID:         "pet-1",
		ServiceTypeID: boardingID,
		StartDate:     f.now.Add(time.Hour),
		Duration:      DurationInput{Value: 1, Unit: models.DurationDays},
	})
	requireKind(t, err, KindServer, "")
}

func TestGetBooking_ScopedByRole(t *testing.T) {
	f := newFixture(t)
	b := f.create(t, 72*time.Hour)
	ctx := context.Background()

	_, err := f.svc.GetBooking(ctx, owner, b.ID)
	require.NoError(t, err)
	_, err = f.svc.GetBooking(ctx, manager, b.ID)
	require.NoError(t, err)
	_, err = f.svc.GetBooking(ctx, admin, b.ID)
	require.NoError(t, err)

	_, err = f.svc.GetBooking(ctx, other, b.ID)
	requireKind(t, err, KindNotFound, "booking_not_found")
	_, err = f.svc.GetBooking(ctx, models.Actor{ID: "m2", Role: models.RoleManager, StoreID: "store-2"}, b.ID)
	requireKind(t, err, KindNotFound, "booking_not_found")
	_, err = f.svc.GetBooking(ctx, admin, "nope")
	requireKind(t, err, KindNotFound, "booking_not_found")
}

func TestListBookings(t *testing.T) {
	f := newFixture(t)
	first := f.create(t, 72*time.Hour)
	f.advance(time.Minute)
	f.confirmed(t, 240*time.Hour)
	ctx := context.Background()

	list, total, err := f.svc.ListBookings(ctx, owner, ListBookingsInput{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)

	list, total, err = f.svc.ListBookings(ctx, owner, ListBookingsInput{Statuses: []string{"pending_payment"}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, first.ID, list[0].ID)

	_, total, err = f.svc.ListBookings(ctx, other, ListBookingsInput{})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)

	_, _, err = f.svc.ListBookings(ctx, owner, ListBookingsInput{Statuses: []string{"done"}})
	requireKind(t, err, KindValidation, "invalid_status")
}

func TestRecordPayment_AdvanceConfirmsAndSchedulesReminder(t *testing.T) {
	f := newFixture(t)
	b := f.create(t, 72*time.Hour)

	b = f.payAdvance(t, b.ID)
	assert.Equal(t, models.StatusConfirmed, b.Status)
	assert.Equal(t, models.PaymentCompleted, b.PaymentStatus.Advance.Status)
	require.NotNil(t, b.PaymentStatus.Advance.PaidAt)
	assert.Equal(t, []string{models.EventBookingCreated, models.EventPaymentRecorded, models.EventBookingConfirmed}, f.pub.types())
	require.Len(t, f.pub.reminders, 1)
	assert.Equal(t, b.ID, f.pub.reminders[0].BookingID)

	_, err := f.svc.RecordPayment(context.Background(), admin, b.ID, PaymentInput{Type: "advance", PaymentID: "again"})
	requireKind(t, err, KindConflict, "payment_not_expected")
}

func TestRecordPayment_FailedAdvanceKeepsPending(t *testing.T) {
	f := newFixture(t)
	b := f.create(t, 72*time.Hour)

	b, err := f.svc.RecordPayment(context.Background(), admin, b.ID, PaymentInput{Type: "advance", PaymentID: "p", Status: "failed"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingPayment, b.Status)
	assert.Equal(t, models.PaymentFailed, b.PaymentStatus.Advance.Status)
}

func TestRecordPayment_FinalRequiresAdvance(t *testing.T) {
	f := newFixture(t)
	b := f.create(t, 72*time.Hour)

	_, err := f.svc.RecordPayment(context.Background(), admin, b.ID, PaymentInput{Type: "final", PaymentID: "p"})
	requireKind(t, err, KindConflict, "advance_payment_pending")

	_, err = f.svc.RecordPayment(context.Background(), admin, b.ID, PaymentInput{Type: "deposit", PaymentID: "p"})
	requireKind(t, err, KindValidation, "invalid_input")
}

func TestUpdateStatus_FailureLeavesStatusUnchanged(t *testing.T) {
	f := newFixture(t)
	b := f.confirmed(t, 72*time.Hour)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, admin, b.ID, "confirmed", "")
	requireKind(t, err, KindConflict, "illegal_transition")
	_, err = f.svc.UpdateStatus(ctx, admin, b.ID, "in_progress", "")
	requireKind(t, err, KindConflict, "handover_required")
	_, err = f.svc.UpdateStatus(ctx, admin, b.ID, "refunded", "")
	requireKind(t, err, KindConflict, "illegal_transition")
	_, err = f.svc.UpdateStatus(ctx, admin, b.ID, "finished", "")
	requireKind(t, err, KindValidation, "invalid_status")

	stored := f.booking(t, b.ID)
	assert.Equal(t, models.StatusConfirmed, stored.Status)
	assert.Equal(t, b.Version, stored.Version)
}

func TestUpdateStatus_ConfirmAppendsNote(t *testing.T) {
	f := newFixture(t)
	b := f.create(t, 72*time.Hour)

	b, err := f.svc.UpdateStatus(context.Background(), admin, b.ID, "confirmed", "paid at the desk")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, b.Status)
	assert.Equal(t, "paid at the desk", f.booking(t, b.ID).InternalNotes)
}

func TestHandover_DropOffStartsBooking(t *testing.T) {
	f := newFixture(t)
	b := f.inCare(t)

	assert.Equal(t, models.StatusInProgress, b.Status)
	stored := f.booking(t, b.ID)
	require.NotNil(t, stored.Handover.DropOff.OTP)
	assert.True(t, stored.Handover.DropOff.OTP.Verified)
	assert.Equal(t, manager.ID, stored.Handover.DropOff.CompletedBy)
	assert.NotEmpty(t, stored.Handover.DropOff.OTP.CodeHash)
	assert.Contains(t, f.pub.types(), models.EventBookingStarted)
}

func TestHandover_SecondVerifyIsConflict(t *testing.T) {
	f := newFixture(t)
	b := f.confirmed(t, 72*time.Hour)
	ctx := context.Background()

	issued, err := f.svc.GenerateHandoverOTP(ctx, manager, b.ID, models.HandoverDropOff)
	require.NoError(t, err)
	_, err = f.svc.VerifyHandoverOTP(ctx, manager, b.ID, models.HandoverDropOff, issued.OTP, "")
	require.NoError(t, err)

	_, err = f.svc.VerifyHandoverOTP(ctx, manager, b.ID, models.HandoverDropOff, issued.OTP, "")
	requireKind(t, err, KindConflict, "otp_already_verified")
	assert.Equal(t, models.StatusInProgress, f.booking(t, b.ID).Status)

	_, err = f.svc.GenerateHandoverOTP(ctx, manager, b.ID, models.HandoverDropOff)
	requireKind(t, err, KindConflict, "otp_already_verified")
}

func TestHandover_ExpiredCode(t *testing.T) {
	f := newFixture(t)
	b := f.confirmed(t, 72*time.Hour)
	ctx := context.Background()

	issued, err := f.svc.GenerateHandoverOTP(ctx, manager, b.ID, models.HandoverDropOff)
	require.NoError(t, err)
	assert.True(t, issued.ExpiresAt.Equal(f.now.Add(15*time.Minute)))

	f.advance(16 * time.Minute)
	_, err = f.svc.VerifyHandoverOTP(ctx, manager, b.ID, models.HandoverDropOff, issued.OTP, "")
	requireKind(t, err, KindExpired, "otp_expired")

	stored := f.booking(t, b.ID)
	assert.Equal(t, models.StatusConfirmed, stored.Status)
	assert.False(t, stored.Handover.DropOff.OTP.Verified)
}

func TestHandover_WrongAndMissingCode(t *testing.T) {
	f := newFixture(t)
	b := f.confirmed(t, 72*time.Hour)
	ctx := context.Background()

	_, err := f.svc.VerifyHandoverOTP(ctx, manager, b.ID, models.HandoverDropOff, "123456", "")
	requireKind(t, err, KindNotFound, "otp_not_generated")

	issued, err := f.svc.GenerateHandoverOTP(ctx, manager, b.ID, models.HandoverDropOff)
	require.NoError(t, err)
	_, err = f.svc.VerifyHandoverOTP(ctx, manager, b.ID, models.HandoverDropOff, wrongCode(issued.OTP), "")
	requireKind(t, err, KindValidation, "otp_mismatch")
	_, err = f.svc.VerifyHandoverOTP(ctx, manager, b.ID, models.HandoverDropOff, "12ab", "")
	requireKind(t, err, KindValidation, "otp_malformed")

	assert.Equal(t, models.StatusConfirmed, f.booking(t, b.ID).Status)
}

func TestHandover_RegenerateReplacesCode(t *testing.T) {
	f := newFixture(t)
	b := f.confirmed(t, 72*time.Hour)
	ctx := context.Background()

	first, err := f.svc.GenerateHandoverOTP(ctx, manager, b.ID, models.HandoverDropOff)
	require.NoError(t, err)
	f.advance(time.Minute)
	second, err := f.svc.GenerateHandoverOTP(ctx, manager, b.ID, models.HandoverDropOff)
	require.NoError(t, err)

	if first.OTP != second.OTP {
		_, err = f.svc.VerifyHandoverOTP(ctx, manager, b.ID, models.HandoverDropOff, first.OTP, "")
		requireKind(t, err, KindValidation, "otp_mismatch")
	}
	_, err = f.svc.VerifyHandoverOTP(ctx, manager, b.ID, models.HandoverDropOff, second.OTP, "")
	require.NoError(t, err)
}

func TestHandover_PickupOnlyWhileInCare(t *testing.T) {
	f := newFixture(t)
	b := f.confirmed(t, 72*time.Hour)

	_, err := f.svc.GenerateHandoverOTP(context.Background(), manager, b.ID, models.HandoverPickup)
	requireKind(t, err, KindConflict, "illegal_transition")
}

func TestHandover_PickupWithFinalPaymentPending(t *testing.T) {
	f := newFixture(t)
	b := f.inCare(t)
	ctx := context.Background()

	issued, err := f.svc.GenerateHandoverOTP(ctx, manager, b.ID, models.HandoverPickup)
	require.NoError(t, err)
	assert.True(t, issued.ExpiresAt.Equal(f.now.Add(30*time.Minute)))

	_, err = f.svc.VerifyHandoverOTP(ctx, manager, b.ID, models.HandoverPickup, issued.OTP, "")
	requireKind(t, err, KindConflict, "final_payment_pending")

	stored := f.booking(t, b.ID)
	assert.Equal(t, models.StatusInProgress, stored.Status)
	assert.False(t, stored.Handover.Pickup.OTP.Verified)

	f.payFinal(t, b.ID)
	done, err := f.svc.VerifyHandoverOTP(ctx, manager, b.ID, models.HandoverPickup, issued.OTP, "collected by owner")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)
	assert.Equal(t, "collected by owner", done.Handover.Pickup.Notes)
}

func TestAssignCaregiver_DuplicateIsConflict(t *testing.T) {
	f := newFixture(t)
	f.addCaregiver(t, "cg-1")
	b := f.confirmed(t, 72*time.Hour)
	ctx := context.Background()

	b, err := f.svc.AssignCaregiver(ctx, manager, b.ID, "cg-1", models.RolePrimary)
	require.NoError(t, err)
	require.Len(t, b.AssignedCaregivers, 1)

	_, err = f.svc.AssignCaregiver(ctx, manager, b.ID, "cg-1", models.RoleBackup)
	requireKind(t, err, KindConflict, "caregiver_already_assigned")
	assert.Len(t, f.booking(t, b.ID).AssignedCaregivers, 1)

	cg := f.caregiver(t, "cg-1")
	assert.Equal(t, models.AvailabilityBusy, cg.Availability.Status)
	assert.Len(t, cg.Availability.Reservations, 1)
	assert.Equal(t, 1, cg.Performance.TotalBookings)
}

func TestAssignCaregiver_BusyPrimaryCannotBeReserved(t *testing.T) {
	f := newFixture(t)
	f.addCaregiver(t, "cg-1")
	first := f.confirmed(t, 72*time.Hour)
	second, err := f.svc.CreateBooking(context.Background(), owner, CreateBookingInput{
		PetID:         "pet-2",
		ServiceTypeID: boardingID,
		StartDate:     f.now.Add(72 * time.Hour),
		Duration:      DurationInput{Value: 1, Unit: models.DurationDays},
	})
	require.NoError(t, err)

	_, err = f.svc.AssignCaregiver(context.Background(), manager, first.ID, "cg-1", models.RolePrimary)
	require.NoError(t, err)
	_, err = f.svc.AssignCaregiver(context.Background(), manager, second.ID, "cg-1", models.RolePrimary)
	requireKind(t, err, KindConflict, "caregiver_unavailable")
	assert.Empty(t, f.booking(t, second.ID).AssignedCaregivers)
}

func TestAssignCaregiver_LedgerWriteFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.addCaregiver(t, "cg-1")
	b := f.confirmed(t, 72*time.Hour)
	f.caregivers.failUpdate = errors.New("write concern timeout")

	_, err := f.svc.AssignCaregiver(context.Background(), manager, b.ID, "cg-1", models.RolePrimary)
	requireKind(t, err, KindServer, "")

	stored := f.booking(t, b.ID)
	assert.Empty(t, stored.AssignedCaregivers)
	assert.Equal(t, b.Version, stored.Version)
	assert.Equal(t, models.AvailabilityAvailable, f.caregiver(t, "cg-1").Availability.Status)
}

func TestAssignCaregiver_Rejections(t *testing.T) {
	f := newFixture(t)
	f.addCaregiver(t, "cg-1")
	b := f.confirmed(t, 72*time.Hour)
	ctx := context.Background()

	_, err := f.svc.AssignCaregiver(ctx, manager, b.ID, "cg-1", "lead")
	requireKind(t, err, KindValidation, "invalid_input")
	_, err = f.svc.AssignCaregiver(ctx, manager, b.ID, "ghost", models.RolePrimary)
	requireKind(t, err, KindNotFound, "caregiver_not_found")

	require.NoError(t, f.caregivers.Create(ctx, &models.Caregiver{
		ID: "cg-far", StoreID: "store-9", IsActive: true,
		Availability: models.Availability{Status: models.AvailabilityAvailable},
	}))
	_, err = f.svc.AssignCaregiver(ctx, manager, b.ID, "cg-far", models.RolePrimary)
	requireKind(t, err, KindValidation, "caregiver_wrong_store")
}

func TestRemoveCaregiver_ReleasesReservation(t *testing.T) {
	f := newFixture(t)
	f.addCaregiver(t, "cg-1")
	b := f.confirmed(t, 72*time.Hour)
	ctx := context.Background()

	_, err := f.svc.AssignCaregiver(ctx, manager, b.ID, "cg-1", models.RolePrimary)
	require.NoError(t, err)
	b, err = f.svc.RemoveCaregiver(ctx, manager, b.ID, "cg-1")
	require.NoError(t, err)
	assert.Empty(t, b.AssignedCaregivers)

	cg := f.caregiver(t, "cg-1")
	assert.Equal(t, models.AvailabilityAvailable, cg.Availability.Status)
	assert.Empty(t, cg.Availability.Reservations)

	_, err = f.svc.RemoveCaregiver(ctx, manager, b.ID, "cg-1")
	requireKind(t, err, KindNotFound, "caregiver_not_assigned")
}

func TestCompletion_ReleasesAndCountsCaregivers(t *testing.T) {
	f := newFixture(t)
	f.addCaregiver(t, "cg-1")
	f.addCaregiver(t, "cg-2")
	b := f.confirmed(t, 72*time.Hour)
	ctx := context.Background()

	_, err := f.svc.AssignCaregiver(ctx, manager, b.ID, "cg-1", models.RolePrimary)
	require.NoError(t, err)
	_, err = f.svc.AssignCaregiver(ctx, manager, b.ID, "cg-2", models.RoleBackup)
	require.NoError(t, err)

	f.advance(72 * time.Hour)
	f.handover(t, b.ID, models.HandoverDropOff)
	f.payFinal(t, b.ID)
	f.advance(72 * time.Hour)
	done := f.handover(t, b.ID, models.HandoverPickup)
	assert.Equal(t, models.StatusCompleted, done.Status)

	for _, id := range []string{"cg-1", "cg-2"} {
		cg := f.caregiver(t, id)
		assert.Equal(t, models.AvailabilityAvailable, cg.Availability.Status, id)
		assert.Empty(t, cg.Availability.Reservations, id)
		assert.Equal(t, 1, cg.Performance.CompletedBookings, id)
	}
}

func TestCancelBooking_RefundTiers(t *testing.T) {
	cases := []struct {
		name   string
		before time.Duration
		refund float64
		state  models.RefundState
	}{
		{name: "more than 48h ahead", before: 72 * time.Hour, refund: 885, state: models.RefundPending},
		{name: "30h ahead", before: 30 * time.Hour, refund: 442.5, state: models.RefundPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			b := f.confirmed(t, 96*time.Hour)
			f.advance(96*time.Hour - tc.before)

			b, err := f.svc.CancelBooking(context.Background(), owner, b.ID, "change of plans")
			require.NoError(t, err)
			assert.Equal(t, models.StatusCancelled, b.Status)
			require.NotNil(t, b.Cancellation)
			assert.Equal(t, tc.refund, b.Cancellation.RefundAmount)
			assert.Equal(t, tc.state, b.Cancellation.RefundStatus)
			assert.Equal(t, owner.ID, b.Cancellation.CancelledBy)
		})
	}
}

func TestCancelBooking_InsideWindowIsConflict(t *testing.T) {
	f := newFixture(t)
	b := f.confirmed(t, 72*time.Hour)
	f.advance(48 * time.Hour)

	_, err := f.svc.CancelBooking(context.Background(), owner, b.ID, "sick")
	requireKind(t, err, KindConflict, "cancel_window_closed")
	assert.Equal(t, models.StatusConfirmed, f.booking(t, b.ID).Status)
}

func TestCancelBooking_PendingPaymentHasNoRefund(t *testing.T) {
	f := newFixture(t)
	b := f.create(t, 2*time.Hour)

	b, err := f.svc.CancelBooking(context.Background(), owner, b.ID, "booked by mistake")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, b.Status)
	assert.Zero(t, b.Cancellation.RefundAmount)

	_, err = f.svc.ProcessRefund(context.Background(), admin, b.ID, nil)
	requireKind(t, err, KindConflict, "no_refund_due")
}

func TestCancelBooking_RequiresReasonAndOpenBooking(t *testing.T) {
	f := newFixture(t)
	b := f.inCare(t)

	_, err := f.svc.CancelBooking(context.Background(), owner, b.ID, " ")
	requireKind(t, err, KindValidation, "invalid_input")
	_, err = f.svc.CancelBooking(context.Background(), owner, b.ID, "too late")
	requireKind(t, err, KindConflict, "illegal_transition")
}

func TestCancelBooking_ReleasesCaregivers(t *testing.T) {
	f := newFixture(t)
	f.addCaregiver(t, "cg-1")
	b := f.confirmed(t, 72*time.Hour)
	_, err := f.svc.AssignCaregiver(context.Background(), manager, b.ID, "cg-1", models.RolePrimary)
	require.NoError(t, err)

	_, err = f.svc.CancelBooking(context.Background(), owner, b.ID, "moving")
	require.NoError(t, err)

	cg := f.caregiver(t, "cg-1")
	assert.Equal(t, models.AvailabilityAvailable, cg.Availability.Status)
	assert.Equal(t, 1, cg.Performance.CancelledBookings)
}

func TestProcessRefund(t *testing.T) {
	f := newFixture(t)
	b := f.confirmed(t, 72*time.Hour)
	ctx := context.Background()
	_, err := f.svc.CancelBooking(ctx, owner, b.ID, "change of plans")
	require.NoError(t, err)

	tooMuch := 2000.0
	_, err = f.svc.ProcessRefund(ctx, admin, b.ID, &tooMuch)
	requireKind(t, err, KindValidation, "invalid_input")

	partial := 500.0
	b, err = f.svc.ProcessRefund(ctx, admin, b.ID, &partial)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRefunded, b.Status)
	assert.Equal(t, 500.0, b.Cancellation.RefundAmount)
	assert.Equal(t, models.RefundProcessed, b.Cancellation.RefundStatus)
	assert.Equal(t, models.PaymentRefunded, b.PaymentStatus.Advance.Status)

	_, err = f.svc.ProcessRefund(ctx, admin, b.ID, nil)
	requireKind(t, err, KindConflict, "illegal_transition")
}

func TestActivitiesAndTimeline(t *testing.T) {
	f := newFixture(t)
	b := f.inCare(t)
	ctx := context.Background()

	f.advance(2 * time.Hour)
	b, err := f.svc.AddActivity(ctx, manager, b.ID, ActivityInput{
		Type:  models.ActivityFeeding,
		Notes: "ate everything",
		Media: []MediaInput{{URL: "https://cdn.example.com/a.jpg", Type: "image"}},
	})
	require.NoError(t, err)
	require.Len(t, b.ActivityLog, 1)
	assert.NotEmpty(t, b.ActivityLog[0].ID)
	assert.Equal(t, manager.ID, b.ActivityLog[0].PerformedBy)

	_, err = f.svc.AddActivity(ctx, manager, b.ID, ActivityInput{Type: "grooming"})
	requireKind(t, err, KindValidation, "invalid_input")

	timeline, err := f.svc.Timeline(ctx, owner, b.ID)
	require.NoError(t, err)
	kinds := make([]string, len(timeline))
	for i, e := range timeline {
		kinds[i] = e.Kind
	}
	assert.Equal(t, []string{"created", "payment", "dropoff", "activity"}, kinds)
}

func TestSubmitReview(t *testing.T) {
	f := newFixture(t)
	f.addCaregiver(t, "cg-1")
	b := f.confirmed(t, 72*time.Hour)
	ctx := context.Background()

	_, err := f.svc.SubmitReview(ctx, owner, b.ID, ReviewInput{Rating: 5})
	requireKind(t, err, KindConflict, "booking_not_completed")

	_, err = f.svc.AssignCaregiver(ctx, manager, b.ID, "cg-1", models.RolePrimary)
	require.NoError(t, err)
	f.advance(72 * time.Hour)
	f.handover(t, b.ID, models.HandoverDropOff)
	f.payFinal(t, b.ID)
	f.handover(t, b.ID, models.HandoverPickup)

	_, err = f.svc.SubmitReview(ctx, owner, b.ID, ReviewInput{Rating: 6})
	requireKind(t, err, KindValidation, "invalid_input")

	b, err = f.svc.SubmitReview(ctx, owner, b.ID, ReviewInput{Rating: 4, Comment: "lovely"})
	require.NoError(t, err)
	require.NotNil(t, b.Review)
	assert.Equal(t, 4, b.Review.Rating)

	cg := f.caregiver(t, "cg-1")
	assert.Equal(t, 4.0, cg.Performance.AverageRating)
	assert.Equal(t, 1, cg.Performance.RatingCount)

	_, err = f.svc.SubmitReview(ctx, owner, b.ID, ReviewInput{Rating: 5})
	requireKind(t, err, KindConflict, "already_reviewed")
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("queue unavailable")

	b := f.create(t, 72*time.Hour)
	b = f.payAdvance(t, b.ID)
	assert.Equal(t, models.StatusConfirmed, b.Status)
}

func TestConfirm_RefusesSecondBookingForSamePet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.create(t, 72*time.Hour)
	second := f.create(t, 72*time.Hour)

	f.payAdvance(t, first.ID)
	_, err := f.svc.RecordPayment(ctx, admin, second.ID, PaymentInput{Type: "advance", PaymentID: "pay-2"})
	requireKind(t, err, KindValidation, "pet_already_booked")

	stored := f.booking(t, second.ID)
	assert.Equal(t, models.StatusPendingPayment, stored.Status)
	assert.Equal(t, models.PaymentPending, stored.PaymentStatus.Advance.Status)

	_, err = f.svc.UpdateStatus(ctx, admin, second.ID, "confirmed", "")
	requireKind(t, err, KindValidation, "pet_already_booked")
	assert.Equal(t, models.StatusPendingPayment, f.booking(t, second.ID).Status)

	// Once the first booking is out of the way the second can be confirmed.
	_, err = f.svc.CancelBooking(ctx, owner, first.ID, "rebooked")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, f.payAdvance(t, second.ID).Status)
}

func TestCancelBooking_WithdrawsReminder(t *testing.T) {
	f := newFixture(t)
	b := f.confirmed(t, 72*time.Hour)
	require.Equal(t, []string{b.ID}, f.pub.pendingReminders())

	_, err := f.svc.CancelBooking(context.Background(), owner, b.ID, "change of plans")
	require.NoError(t, err)
	assert.Empty(t, f.pub.pendingReminders())
	assert.Equal(t, []string{b.ID}, f.pub.withdrawn)
}

func TestHandover_TooManyWrongCodesVoidTheCode(t *testing.T) {
	f := newFixture(t)
	b := f.confirmed(t, 72*time.Hour)
	ctx := context.Background()

	issued, err := f.svc.GenerateHandoverOTP(ctx, manager, b.ID, models.HandoverDropOff)
	require.NoError(t, err)
	for i := 1; i < maxOTPAttempts; i++ {
		_, err = f.svc.VerifyHandoverOTP(ctx, manager, b.ID, models.HandoverDropOff, wrongCode(issued.OTP), "")
		requireKind(t, err, KindValidation, "otp_mismatch")
	}
	_, err = f.svc.VerifyHandoverOTP(ctx, manager, b.ID, models.HandoverDropOff, wrongCode(issued.OTP), "")
	requireKind(t, err, KindConflict, "otp_attempts_exceeded")

	stored := f.booking(t, b.ID)
	assert.Equal(t, maxOTPAttempts, stored.Handover.DropOff.OTP.FailedAttempts)
	assert.Equal(t, models.StatusConfirmed, stored.Status)

	_, err = f.svc.VerifyHandoverOTP(ctx, manager, b.ID, models.HandoverDropOff, issued.OTP, "")
	requireKind(t, err, KindConflict, "otp_attempts_exceeded")

	fresh, err := f.svc.GenerateHandoverOTP(ctx, manager, b.ID, models.HandoverDropOff)
	require.NoError(t, err)
	started, err := f.svc.VerifyHandoverOTP(ctx, manager, b.ID, models.HandoverDropOff, fresh.OTP, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, started.Status)
}

func TestHandover_OwnerVerifiesWithSameGuards(t *testing.T) {
	f := newFixture(t)
	b := f.confirmed(t, 72*time.Hour)
	f.advance(72 * time.Hour)
	ctx := context.Background()

	dropOff, err := f.svc.GenerateHandoverOTP(ctx, manager, b.ID, models.HandoverDropOff)
	require.NoError(t, err)
	_, err = f.svc.VerifyHandoverOTP(ctx, other, b.ID, models.HandoverDropOff, dropOff.OTP, "")
	requireKind(t, err, KindNotFound, "booking_not_found")

	started, err := f.svc.VerifyHandoverOTP(ctx, owner, b.ID, models.HandoverDropOff, dropOff.OTP, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, started.Status)
	assert.Equal(t, owner.ID, started.Handover.DropOff.CompletedBy)

	pickup, err := f.svc.GenerateHandoverOTP(ctx, manager, b.ID, models.HandoverPickup)
	require.NoError(t, err)
	_, err = f.svc.VerifyHandoverOTP(ctx, owner, b.ID, models.HandoverPickup, pickup.OTP, "")
	requireKind(t, err, KindConflict, "final_payment_pending")
	assert.Equal(t, models.StatusInProgress, f.booking(t, b.ID).Status)
}
