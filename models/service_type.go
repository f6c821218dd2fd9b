package models

import "time"

// PriceUnit is the unit the base price of a rate card is quoted in.
type PriceUnit string

const (
	PricePerDay  PriceUnit = "per_day"
	PricePerHour PriceUnit = "per_hour"
	PriceFlat    PriceUnit = "flat"
)

func (u PriceUnit) IsValid() bool {
	return u == PricePerDay || u == PricePerHour || u == PriceFlat
}

type RateCharge struct {
	Name         string  `bson:"name" json:"name"`
	Amount       float64 `bson:"amount" json:"amount"`
	IsPercentage bool    `bson:"isPercentage" json:"isPercentage"` // percentage of the base amount
}

type RateCard struct {
	BasePrice         float64      `bson:"basePrice" json:"basePrice"`
	PriceUnit         PriceUnit    `bson:"priceUnit" json:"priceUnit"`
	AdvancePercentage float64      `bson:"advancePercentage" json:"advancePercentage"`
	AdditionalCharges []RateCharge `bson:"additionalCharges,omitempty" json:"additionalCharges,omitempty"`
}

// ServiceType is a rate-card template a booking is priced from.
type ServiceType struct {
	ID          string    `bson:"id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Category    string    `bson:"category" json:"category"` // boarding, in-home, daycare, overnight
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	StoreID     string    `bson:"storeId,omitempty" json:"storeId,omitempty"`
	Pricing     RateCard  `bson:"pricing" json:"pricing"`
	IsActive    bool      `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}
