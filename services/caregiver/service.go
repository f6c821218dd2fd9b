package caregiver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	caregiverRepo "petcare/database/repository/caregiver"
	"petcare/models"
	"petcare/services/booking"
	"petcare/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CaregiverService interface {
	CreateCaregiver(ctx context.Context, actor models.Actor, in CreateCaregiverInput) (*models.Caregiver, error)
	GetCaregiver(ctx context.Context, actor models.Actor, id string) (*models.Caregiver, error)
	ListCaregivers(ctx context.Context, actor models.Actor, in ListCaregiversInput) ([]models.Caregiver, error)
	ListAvailable(ctx context.Context, actor models.Actor, storeID string) ([]models.Caregiver, error)
	UpdateCaregiver(ctx context.Context, actor models.Actor, id string, in UpdateCaregiverInput) (*models.Caregiver, error)
	UpdateAvailability(ctx context.Context, actor models.Actor, id, status string) (*models.Caregiver, error)
	DeleteCaregiver(ctx context.Context, actor models.Actor, id string) error
}

type CreateCaregiverInput struct {
	UserID          string   `json:"userId" validate:"required"`
	Name            string   `json:"name" validate:"required,min=2,max=100"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Phone           string   `json:"phone" validate:"omitempty,min=7,max=20"`
	StoreID         string   `json:"storeId"`
	Skills          []string `json:"skills" validate:"omitempty,max=20"`
	Specializations []string `json:"specializations" validate:"omitempty,max=20"`
	Bio             string   `json:"bio" validate:"max=1000"`
}

// UpdateCaregiverInput edits profile fields. Nil fields are left alone; availability has its own endpoint.
type UpdateCaregiverInput struct {
	Name            *string   `json:"name" validate:"omitempty,min=2,max=100"`
	Email           *string   `json:"email" validate:"omitempty,email"`
	Phone           *string   `json:"phone" validate:"omitempty,min=7,max=20"`
	StoreID         *string   `json:"storeId"`
	Skills          *[]string `json:"skills" validate:"omitempty,max=20"`
	Specializations *[]string `json:"specializations" validate:"omitempty,max=20"`
	Bio             *string   `json:"bio" validate:"omitempty,max=1000"`
}

type ListCaregiversInput struct {
	StoreID string
	Status  string
	Skill   string
}

// DefaultCaregiverService implements CaregiverService.
type DefaultCaregiverService struct {
	Repo   caregiverRepo.CaregiverRepository
	Now    func() time.Time
	Logger *zap.Logger
}

func (s *DefaultCaregiverService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultCaregiverService) log() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return utils.GetLogger()
}

// scopeStore returns the store a manager is pinned to, or the requested one for admins.
func scopeStore(actor models.Actor, requested string) string {
	if actor.Role == models.RoleManager {
		return actor.StoreID
	}
	return requested
}

func visible(actor models.Actor, cg *models.Caregiver) bool {
	return actor.Role == models.RoleAdmin || (actor.Role == models.RoleManager && actor.StoreID != "" && cg.StoreID == actor.StoreID)
}

func (s *DefaultCaregiverService) CreateCaregiver(ctx context.Context, actor models.Actor, in CreateCaregiverInput) (*models.Caregiver, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, booking.FieldErrors(utils.FormatValidationErrors(err))
	}
	if _, err := s.Repo.GetByUserID(ctx, in.UserID); err == nil {
		return nil, booking.ConflictError("caregiver_exists", "user %s already has a caregiver profile", in.UserID)
	} else if booking.KindOf(fromRepo(err, in.UserID)) != booking.KindNotFound {
		return nil, fromRepo(err, in.UserID)
	}

	now := s.now()
	cg := &models.Caregiver{
		ID:              uuid.NewString(),
		UserID:          in.UserID,
		Name:            strings.TrimSpace(in.Name),
		Email:           strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:           in.Phone,
		StoreID:         scopeStore(actor, in.StoreID),
		Skills:          in.Skills,
		Specializations: in.Specializations,
		Bio:             in.Bio,
		Availability: models.Availability{
			Status:       models.AvailabilityAvailable,
			Reservations: []models.Reservation{},
		},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Employee IDs are allocated by counting; a concurrent insert loses on the unique index and retries.
	const maxAttempts = 3
	for attempt := 1; ; attempt++ {
		id, err := s.nextEmployeeID(ctx, now)
		if err != nil {
			return nil, err
		}
		cg.EmployeeID = id
		err = s.Repo.Create(ctx, cg)
		if err == nil {
			break
		}
		typed := fromRepo(err, cg.ID)
		if booking.KindOf(typed) != booking.KindConflict || attempt == maxAttempts {
			return nil, typed
		}
	}

	s.log().Info("caregiver created", zap.String("caregiverId", cg.ID), zap.String("employeeId", cg.EmployeeID))
	return cg, nil
}

// nextEmployeeID formats EMP<yymm><4 digit monthly sequence>.
func (s *DefaultCaregiverService) nextEmployeeID(ctx context.Context, now time.Time) (string, error) {
	prefix := "EMP" + now.Format("0601")
	n, err := s.Repo.CountEmployeeIDs(ctx, prefix)
	if err != nil {
		return "", booking.ServerError(err, "failed to allocate employee id")
	}
	return fmt.Sprintf("%s%04d", prefix, n+1), nil
}

func (s *DefaultCaregiverService) GetCaregiver(ctx context.Context, actor models.Actor, id string) (*models.Caregiver, error) {
	cg, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, id)
	}
	if !visible(actor, cg) {
		return nil, booking.NotFoundError("caregiver_not_found", "caregiver %s not found", id)
	}
	return cg, nil
}

func (s *DefaultCaregiverService) ListCaregivers(ctx context.Context, actor models.Actor, in ListCaregiversInput) ([]models.Caregiver, error) {
	filter := caregiverRepo.CaregiverFilter{StoreID: scopeStore(actor, in.StoreID), Skill: in.Skill}
	if actor.Role == models.RoleManager && actor.StoreID == "" {
		return []models.Caregiver{}, nil
	}
	if in.Status != "" {
		status := models.AvailabilityStatus(in.Status)
		if !status.IsValid() {
			return nil, booking.ValidationError("invalid_status", "invalid availability status %q", in.Status)
		}
		filter.Status = status
	}
	list, err := s.Repo.List(ctx, filter)
	if err != nil {
		return nil, fromRepo(err, "")
	}
	return list, nil
}

func (s *DefaultCaregiverService) ListAvailable(ctx context.Context, actor models.Actor, storeID string) ([]models.Caregiver, error) {
	if actor.Role == models.RoleManager && actor.StoreID == "" {
		return []models.Caregiver{}, nil
	}
	list, err := s.Repo.List(ctx, caregiverRepo.CaregiverFilter{
		StoreID:    scopeStore(actor, storeID),
		Status:     models.AvailabilityAvailable,
		OnlyActive: true,
	})
	if err != nil {
		return nil, fromRepo(err, "")
	}
	return list, nil
}

// UpdateCaregiver edits a caregiver's profile. Only admins move caregivers between stores,
// and never while they hold a booking reservation.
func (s *DefaultCaregiverService) UpdateCaregiver(ctx context.Context, actor models.Actor, id string, in UpdateCaregiverInput) (*models.Caregiver, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, booking.FieldErrors(utils.FormatValidationErrors(err))
	}
	cg, err := s.GetCaregiver(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if in.StoreID != nil && *in.StoreID != cg.StoreID {
		if actor.Role != models.RoleAdmin {
			return nil, booking.FieldErrors(map[string]string{"storeId": "only admins can move caregivers between stores"})
		}
		if n := len(cg.Availability.Reservations); n > 0 {
			return nil, booking.ConflictError("caregiver_reserved",
				"caregiver %s still holds %d booking reservation(s)", id, n)
		}
		cg.StoreID = *in.StoreID
	}
	if in.Name != nil {
		cg.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		cg.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Phone != nil {
		cg.Phone = *in.Phone
	}
	if in.Skills != nil {
		cg.Skills = *in.Skills
	}
	if in.Specializations != nil {
		cg.Specializations = *in.Specializations
	}
	if in.Bio != nil {
		cg.Bio = *in.Bio
	}

	version := cg.Version
	cg.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, cg, version); err != nil {
		return nil, fromRepo(err, id)
	}
	s.log().Info("caregiver updated", zap.String("caregiverId", id), zap.String("by", actor.ID))
	return cg, nil
}

// UpdateAvailability sets a manual status. busy belongs to the reservation ledger and
// cannot be set by hand, and a caregiver holding a primary reservation stays busy.
func (s *DefaultCaregiverService) UpdateAvailability(ctx context.Context, actor models.Actor, id, status string) (*models.Caregiver, error) {
	target := models.AvailabilityStatus(status)
	if !target.IsValid() {
		return nil, booking.ValidationError("invalid_status", "invalid availability status %q", status)
	}
	if target == models.AvailabilityBusy {
		return nil, booking.ValidationError("invalid_status", "busy is set by booking assignments only")
	}
	cg, err := s.GetCaregiver(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if cg.HoldsPrimary() {
		return nil, booking.ConflictError("caregiver_reserved",
			"caregiver %s is the primary caregiver of an active booking", id)
	}

	version := cg.Version
	cg.Availability.Status = target
	cg.IsActive = target != models.AvailabilityInactive
	cg.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, cg, version); err != nil {
		return nil, fromRepo(err, id)
	}
	s.log().Info("caregiver availability updated", zap.String("caregiverId", id), zap.String("status", status))
	return cg, nil
}

func (s *DefaultCaregiverService) DeleteCaregiver(ctx context.Context, actor models.Actor, id string) error {
	cg, err := s.GetCaregiver(ctx, actor, id)
	if err != nil {
		return err
	}
	if n := len(cg.Availability.Reservations); n > 0 {
		return booking.ConflictError("caregiver_reserved", "caregiver %s still holds %d booking reservation(s)", id, n)
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return fromRepo(err, id)
	}
	s.log().Info("caregiver deleted", zap.String("caregiverId", id))
	return nil
}

func fromRepo(err error, id string) error {
	var typed *booking.Error
	if errors.As(err, &typed) {
		return err
	}
	return booking.FromRepo(err, "caregiver", id)
}
