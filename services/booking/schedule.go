package booking

import (
	"context"
	"sort"
	"time"

	"petcare/database/repository"
	bookingRepo "petcare/database/repository/booking"
	"petcare/models"
)

// DaySchedule is a store's front desk view of one day.
type DaySchedule struct {
	Date      string           `json:"date"`
	CheckIns  []models.Booking `json:"checkIns"`
	CheckOuts []models.Booking `json:"checkOuts"`
	Ongoing   []models.Booking `json:"ongoing"`
}

// TodaySchedule lists the confirmed and in-progress bookings of a store that touch the
// current day. A stay that starts and ends today is a check-in.
func (s *DefaultBookingService) TodaySchedule(ctx context.Context, actor models.Actor, storeID string) (*DaySchedule, error) {
	switch actor.Role {
	case models.RoleManager:
		storeID = actor.StoreID
	case models.RoleAdmin:
	default:
		return nil, NotFoundError("store_not_found", "store %s not found", storeID)
	}
	if storeID == "" {
		return nil, FieldErrors(map[string]string{"storeId": "storeId is required"})
	}

	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	filter := bookingRepo.BookingFilter{
		StoreID:     storeID,
		Statuses:    []models.BookingStatus{models.StatusConfirmed, models.StatusInProgress},
		ActiveOn:    &dayStart,
		ActiveUntil: &dayEnd,
	}

	var all []models.Booking
	for page := (repository.Page{Number: 1, Size: 100}); ; page.Number++ {
		batch, total, err := s.Bookings.List(ctx, filter, page)
		if err != nil {
			return nil, FromRepo(err, "booking", "")
		}
		all = append(all, batch...)
		if len(batch) == 0 || int64(len(all)) >= total {
			break
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].StartDate.Before(all[j].StartDate) })

	day := &DaySchedule{
		Date:      dayStart.Format("2006-01-02"),
		CheckIns:  []models.Booking{},
		CheckOuts: []models.Booking{},
		Ongoing:   []models.Booking{},
	}
	for _, b := range all {
		switch {
		case !b.StartDate.Before(dayStart):
			day.CheckIns = append(day.CheckIns, b)
		case b.EndDate.Before(dayEnd):
			day.CheckOuts = append(day.CheckOuts, b)
		default:
			day.Ongoing = append(day.Ongoing, b)
		}
	}
	return day, nil
}
