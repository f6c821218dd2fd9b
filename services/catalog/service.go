package catalog

import (
	"context"
	"strings"
	"time"

	serviceTypeRepo "petcare/database/repository/servicetype"
	"petcare/models"
	"petcare/services/booking"
	"petcare/utils"

	"github.com/google/uuid"
)

// Categories a service type may belong to.
var Categories = []string{"boarding", "in-home", "daycare", "overnight"}

type CatalogService interface {
	CreateServiceType(ctx context.Context, in CreateServiceTypeInput) (*models.ServiceType, error)
	GetServiceType(ctx context.Context, id string) (*models.ServiceType, error)
	ListServiceTypes(ctx context.Context, category string) ([]models.ServiceType, error)
}

type ChargeInput struct {
	Name         string  `json:"name" validate:"required"`
	Amount       float64 `json:"amount" validate:"gte=0"`
	IsPercentage bool    `json:"isPercentage"`
}

type CreateServiceTypeInput struct {
	Name              string        `json:"name" validate:"required,min=2,max=100"`
	Category          string        `json:"category" validate:"required,oneof=boarding in-home daycare overnight"`
	Description       string        `json:"description" validate:"max=2000"`
	StoreID           string        `json:"storeId"`
	BasePrice         float64       `json:"basePrice" validate:"gte=0"`
	PriceUnit         string        `json:"priceUnit" validate:"required,oneof=per_day per_hour flat"`
	AdvancePercentage float64       `json:"advancePercentage" validate:"gte=0,lte=100"`
	AdditionalCharges []ChargeInput `json:"additionalCharges" validate:"omitempty,dive"`
}

type DefaultCatalogService struct {
	Repo serviceTypeRepo.ServiceTypeRepository
	Now  func() time.Time
}

func (s *DefaultCatalogService) CreateServiceType(ctx context.Context, in CreateServiceTypeInput) (*models.ServiceType, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, booking.FieldErrors(utils.FormatValidationErrors(err))
	}
	for _, ch := range in.AdditionalCharges {
		if ch.IsPercentage && ch.Amount > 100 {
			return nil, booking.FieldErrors(map[string]string{"additionalCharges": "percentage charges cannot exceed 100"})
		}
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	st := &models.ServiceType{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Category:    in.Category,
		Description: in.Description,
		StoreID:     in.StoreID,
		Pricing: models.RateCard{
			BasePrice:         in.BasePrice,
			PriceUnit:         models.PriceUnit(in.PriceUnit),
			AdvancePercentage: in.AdvancePercentage,
		},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, ch := range in.AdditionalCharges {
		st.Pricing.AdditionalCharges = append(st.Pricing.AdditionalCharges, models.RateCharge{
			Name: ch.Name, Amount: ch.Amount, IsPercentage: ch.IsPercentage,
		})
	}

	if err := s.Repo.Create(ctx, st); err != nil {
		return nil, booking.FromRepo(err, "service_type", st.ID)
	}
	return st, nil
}

func (s *DefaultCatalogService) GetServiceType(ctx context.Context, id string) (*models.ServiceType, error) {
	st, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, booking.FromRepo(err, "service_type", id)
	}
	return st, nil
}

func (s *DefaultCatalogService) ListServiceTypes(ctx context.Context, category string) ([]models.ServiceType, error) {
	if category != "" && !validCategory(category) {
		return nil, booking.ValidationError("invalid_category", "unknown category %q", category)
	}
	list, err := s.Repo.ListActive(ctx, category)
	if err != nil {
		return nil, booking.FromRepo(err, "service_type", "")
	}
	return list, nil
}

func validCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
