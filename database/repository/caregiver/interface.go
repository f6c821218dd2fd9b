package caregiverRepo

import (
	"context"

	"petcare/models"
)

// CaregiverFilter narrows List results. Zero values are ignored.
type CaregiverFilter struct {
	StoreID    string
	Status     models.AvailabilityStatus
	Skill      string
	OnlyActive bool
}

type CaregiverRepository interface {
	Create(ctx context.Context, cg *models.Caregiver) error
	GetByID(ctx context.Context, id string) (*models.Caregiver, error)
	GetByUserID(ctx context.Context, userID string) (*models.Caregiver, error)
	List(ctx context.Context, filter CaregiverFilter) ([]models.Caregiver, error)
	// Update replaces the caregiver if its stored version still equals expectedVersion,
	// and bumps the version.
	Update(ctx context.Context, cg *models.Caregiver, expectedVersion int) error
	Delete(ctx context.Context, id string) error
	// CountEmployeeIDs counts employee IDs starting with prefix.
	CountEmployeeIDs(ctx context.Context, prefix string) (int64, error)
}
