package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"petcare/database/repository"
	bookingRepo "petcare/database/repository/booking"
	caregiverRepo "petcare/database/repository/caregiver"
	"petcare/models"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Documents are kept as bson bytes so every read is a deep copy, as with a real collection.
type docs map[string][]byte

func (d docs) clone() docs {
	out := make(docs, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

func encode(v interface{}) []byte {
	raw, err := bson.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}

func decode(raw []byte, v interface{}) {
	if err := bson.Unmarshal(raw, v); err != nil {
		panic(err)
	}
}

type memBookings struct {
	mu   sync.Mutex
	docs docs
}

func newMemBookings() *memBookings { return &memBookings{docs: docs{}} }

func (m *memBookings) Create(_ context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[b.ID]; ok {
		return repository.ErrDuplicate
	}
	m.docs[b.ID] = encode(b)
	return nil
}

func (m *memBookings) get(id string) (*models.Booking, bool) {
	raw, ok := m.docs[id]
	if !ok {
		return nil, false
	}
	var b models.Booking
	decode(raw, &b)
	return &b, true
}

func (m *memBookings) GetByID(_ context.Context, id string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.get(id)
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, repository.ErrNotFound)
	}
	return b, nil
}

func (m *memBookings) GetByNumber(_ context.Context, number string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.docs {
		b, _ := m.get(id)
		if b.BookingNumber == number {
			return b, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memBookings) Update(_ context.Context, b *models.Booking, expectedVersion int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.get(b.ID)
	if !ok || stored.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	b.Version = expectedVersion + 1
	m.docs[b.ID] = encode(b)
	return nil
}

func (m *memBookings) all() []models.Booking {
	out := make([]models.Booking, 0, len(m.docs))
	for id := range m.docs {
		b, _ := m.get(id)
		out = append(out, *b)
	}
	return out
}

func (m *memBookings) List(_ context.Context, f bookingRepo.BookingFilter, page repository.Page) ([]models.Booking, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []models.Booking
	for _, b := range m.all() {
		if f.OwnerID != "" && b.OwnerID != f.OwnerID {
			continue
		}
		if f.StoreID != "" && b.StoreID != f.StoreID {
			continue
		}
		if f.PetID != "" && b.PetID != f.PetID {
			continue
		}
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, b.Status) {
			continue
		}
		if f.From != nil && b.StartDate.Before(*f.From) {
			continue
		}
		if f.To != nil && !b.StartDate.Before(*f.To) {
			continue
		}
		if f.ActiveUntil != nil && !b.StartDate.Before(*f.ActiveUntil) {
			continue
		}
		if f.ActiveOn != nil && !b.EndDate.After(*f.ActiveOn) {
			continue
		}
		matched = append(matched, b)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	page = page.Normalize()
	total := int64(len(matched))
	start := int(page.Skip())
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func containsStatus(list []models.BookingStatus, s models.BookingStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (m *memBookings) FindOverlapping(_ context.Context, petID string, start, end time.Time, excludeID string) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Booking
	for _, b := range m.all() {
		if b.PetID != petID || b.ID == excludeID || !b.Status.IsActive() {
			continue
		}
		if b.StartDate.Before(end) && b.EndDate.After(start) {
			out = append(out, b)
		}
	}
	return out, nil
}

type memCaregivers struct {
	mu         sync.Mutex
	docs       docs
	failUpdate error
}

func newMemCaregivers() *memCaregivers { return &memCaregivers{docs: docs{}} }

func (m *memCaregivers) get(id string) (*models.Caregiver, bool) {
	raw, ok := m.docs[id]
	if !ok {
		return nil, false
	}
	var cg models.Caregiver
	decode(raw, &cg)
	return &cg, true
}

func (m *memCaregivers) Create(_ context.Context, cg *models.Caregiver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[cg.ID] = encode(cg)
	return nil
}

func (m *memCaregivers) GetByID(_ context.Context, id string) (*models.Caregiver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cg, ok := m.get(id)
	if !ok {
		return nil, fmt.Errorf("caregiver %s: %w", id, repository.ErrNotFound)
	}
	return cg, nil
}

func (m *memCaregivers) GetByUserID(_ context.Context, userID string) (*models.Caregiver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.docs {
		cg, _ := m.get(id)
		if cg.UserID == userID {
			return cg, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memCaregivers) List(_ context.Context, f caregiverRepo.CaregiverFilter) ([]models.Caregiver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Caregiver{}
	for id := range m.docs {
		cg, _ := m.get(id)
		if f.StoreID != "" && cg.StoreID != f.StoreID {
			continue
		}
		if f.Status != "" && cg.Availability.Status != f.Status {
			continue
		}
		if f.OnlyActive && !cg.IsActive {
			continue
		}
		out = append(out, *cg)
	}
	return out, nil
}

func (m *memCaregivers) Update(_ context.Context, cg *models.Caregiver, expectedVersion int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdate != nil {
		return m.failUpdate
	}
	stored, ok := m.get(cg.ID)
	if !ok || stored.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	cg.Version = expectedVersion + 1
	m.docs[cg.ID] = encode(cg)
	return nil
}

func (m *memCaregivers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

func (m *memCaregivers) CountEmployeeIDs(context.Context, string) (int64, error) {
	return int64(len(m.docs)), nil
}

type memServiceTypes struct {
	types map[string]models.ServiceType
}

func (m *memServiceTypes) Create(_ context.Context, st *models.ServiceType) error {
	m.types[st.ID] = *st
	return nil
}

func (m *memServiceTypes) GetByID(_ context.Context, id string) (*models.ServiceType, error) {
	st, ok := m.types[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &st, nil
}

func (m *memServiceTypes) ListActive(context.Context, string) ([]models.ServiceType, error) {
	var out []models.ServiceType
	for _, st := range m.types {
		if st.IsActive {
			out = append(out, st)
		}
	}
	return out, nil
}

// memTx restores both collections when fn fails, like an aborted mongo transaction.
type memTx struct {
	bookings   *memBookings
	caregivers *memCaregivers
}

func (t *memTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.bookings.mu.Lock()
	bookings := t.bookings.docs.clone()
	t.bookings.mu.Unlock()
	t.caregivers.mu.Lock()
	caregivers := t.caregivers.docs.clone()
	t.caregivers.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.bookings.mu.Lock()
		t.bookings.docs = bookings
		t.bookings.mu.Unlock()
		t.caregivers.mu.Lock()
		t.caregivers.docs = caregivers
		t.caregivers.mu.Unlock()
		return err
	}
	return nil
}

type counterSequencer struct {
	mu   sync.Mutex
	next map[string]int64
	err  error
}

func (s *counterSequencer) Next(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.next[key]++
	return s.next[key], nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	events    []models.BookingEvent
	reminders []models.ReminderPayload
	withdrawn []string
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, event models.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) ScheduleReminder(_ context.Context, payload models.ReminderPayload, _ time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reminders = append(p.reminders, payload)
	return p.err
}

func (p *recordingPublisher) CancelReminder(_ context.Context, bookingID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.withdrawn = append(p.withdrawn, bookingID)
	return p.err
}

// pendingReminders returns the bookings whose reminder is still scheduled.
func (p *recordingPublisher) pendingReminders() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	withdrawn := map[string]bool{}
	for _, id := range p.withdrawn {
		withdrawn[id] = true
	}
	var out []string
	for _, r := range p.reminders {
		if !withdrawn[r.BookingID] {
			out = append(out, r.BookingID)
		}
	}
	return out
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

var (
	owner   = models.Actor{ID: "owner-1", Role: models.RoleUser}
	other   = models.Actor{ID: "owner-2", Role: models.RoleUser}
	manager = models.Actor{ID: "manager-1", Role: models.RoleManager, StoreID: "store-1"}
	admin   = models.Actor{ID: "admin-1", Role: models.RoleAdmin}
)

const boardingID = "st-boarding"

type fixture struct {
	svc        *DefaultBookingService
	bookings   *memBookings
	caregivers *memCaregivers
	pub        *recordingPublisher
	seq        *counterSequencer
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		bookings:   newMemBookings(),
		caregivers: newMemCaregivers(),
		pub:        &recordingPublisher{},
		seq:        &counterSequencer{next: map[string]int64{}},
		now:        time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	serviceTypes := &memServiceTypes{types: map[string]models.ServiceType{
		boardingID: {
			ID:       boardingID,
			Name:     "Overnight boarding",
			Category: "boarding",
			StoreID:  "store-1",
			Pricing: models.RateCard{
				BasePrice:         500,
				PriceUnit:         models.PricePerDay,
				AdvancePercentage: 50,
			},
			IsActive: true,
		},
	}}

	settings := DefaultSettings()
	settings.OTP.HashCost = bcrypt.MinCost
	f.svc = &DefaultBookingService{
		Bookings:     f.bookings,
		Caregivers:   f.caregivers,
		ServiceTypes: serviceTypes,
		Tx:           &memTx{bookings: f.bookings, caregivers: f.caregivers},
		Sequence:     f.seq,
		Publisher:    f.pub,
		Settings:     settings,
		Now:          func() time.Time { return f.now },
		Logger:       zap.NewNop(),
	}
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

// create books three days of boarding starting startIn from now.
func (f *fixture) create(t *testing.T, startIn time.Duration) *models.Booking {
	t.Helper()
	b, err := f.svc.CreateBooking(context.Background(), owner, CreateBookingInput{
		PetID:         "pet-1",
		ServiceTypeID: boardingID,
		StartDate:     f.now.Add(startIn),
		Duration:      DurationInput{Value: 3, Unit: models.DurationDays},
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) payAdvance(t *testing.T, id string) *models.Booking {
	t.Helper()
	b, err := f.svc.RecordPayment(context.Background(), admin, id, PaymentInput{Type: "advance", PaymentID: "pay-adv"})
	require.NoError(t, err)
	return b
}

func (f *fixture) payFinal(t *testing.T, id string) *models.Booking {
	t.Helper()
	b, err := f.svc.RecordPayment(context.Background(), admin, id, PaymentInput{Type: "final", PaymentID: "pay-final"})
	require.NoError(t, err)
	return b
}

func (f *fixture) confirmed(t *testing.T, startIn time.Duration) *models.Booking {
	t.Helper()
	b := f.create(t, startIn)
	return f.payAdvance(t, b.ID)
}

// handover issues and immediately verifies the code for kind.
func (f *fixture) handover(t *testing.T, id string, kind models.HandoverKind) *models.Booking {
	t.Helper()
	issued, err := f.svc.GenerateHandoverOTP(context.Background(), manager, id, kind)
	require.NoError(t, err)
	b, err := f.svc.VerifyHandoverOTP(context.Background(), manager, id, kind, issued.OTP, "")
	require.NoError(t, err)
	return b
}

// inCare returns a booking whose pet has been dropped off. The clock ends at the start date.
func (f *fixture) inCare(t *testing.T) *models.Booking {
	t.Helper()
	b := f.confirmed(t, 72*time.Hour)
	f.advance(72 * time.Hour)
	return f.handover(t, b.ID, models.HandoverDropOff)
}

func (f *fixture) addCaregiver(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.caregivers.Create(context.Background(), &models.Caregiver{
		ID:           id,
		UserID:       "user-" + id,
		Name:         "Caregiver " + id,
		StoreID:      "store-1",
		IsActive:     true,
		Availability: models.Availability{Status: models.AvailabilityAvailable, Reservations: []models.Reservation{}},
	}))
}

func (f *fixture) booking(t *testing.T, id string) *models.Booking {
	t.Helper()
	b, err := f.bookings.GetByID(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (f *fixture) caregiver(t *testing.T, id string) *models.Caregiver {
	t.Helper()
	cg, err := f.caregivers.GetByID(context.Background(), id)
	require.NoError(t, err)
	return cg
}

func requireKind(t *testing.T, err error, kind Kind, code string) {
	t.Helper()
	require.Error(t, err)
	var e *Error
	require.True(t, errors.As(err, &e), "expected *booking.Error, got %T: %v", err, err)
	require.Equal(t, kind, e.Kind, "error: %v", err)
	if code != "" {
		require.Equal(t, code, e.Code, "error: %v", err)
	}
}

func wrongCode(code string) string {
	last := code[len(code)-1]
	if last == '9' {
		return code[:len(code)-1] + "0"
	}
	return code[:len(code)-1] + string(last+1)
}
