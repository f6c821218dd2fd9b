package booking

import (
	"petcare/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Quote is everything the price of a booking depends on.
type Quote struct {
	Rate           float64
	Unit           models.PriceUnit
	Duration       models.BookingDuration
	Charges        []models.RateCharge
	Discount       float64
	DiscountReason string
	AdvancePercent float64
	TaxPercent     float64
}

// QuoteFor builds a quote from a service type's rate card.
func QuoteFor(st *models.ServiceType, d models.BookingDuration, taxPercent float64) Quote {
	return Quote{
		Rate:           st.Pricing.BasePrice,
		Unit:           st.Pricing.PriceUnit,
		Duration:       d,
		Charges:        st.Pricing.AdditionalCharges,
		AdvancePercent: st.Pricing.AdvancePercentage,
		TaxPercent:     taxPercent,
	}
}

// Calculate prices a quote. Every component is rounded to cents half away from zero
// and remaining is derived by subtraction, so advance + remaining == total exactly.
func Calculate(q Quote) (models.Pricing, error) {
	if err := q.validate(); err != nil {
		return models.Pricing{}, err
	}

	rate := decimal.NewFromFloat(q.Rate)
	base := round2(rate.Mul(billableUnits(q.Unit, q.Duration)))

	lines := make([]models.ChargeLine, 0, len(q.Charges))
	additional := decimal.Zero
	for _, ch := range q.Charges {
		amount := decimal.NewFromFloat(ch.Amount)
		if ch.IsPercentage {
			amount = base.Mul(amount).Div(hundred)
		}
		amount = round2(amount)
		additional = additional.Add(amount)
		lines = append(lines, models.ChargeLine{Name: ch.Name, Amount: amount.InexactFloat64()})
	}

	subtotal := base.Add(additional)
	discount := round2(decimal.NewFromFloat(q.Discount))
	if discount.GreaterThan(subtotal) {
		return models.Pricing{}, ValidationError("invalid_discount", "discount cannot exceed the subtotal")
	}

	taxPct := decimal.NewFromFloat(q.TaxPercent)
	tax := round2(subtotal.Mul(taxPct).Div(hundred))
	total := subtotal.Sub(discount).Add(tax)

	advancePct := decimal.NewFromFloat(q.AdvancePercent)
	advance := round2(total.Mul(advancePct).Div(hundred))
	remaining := total.Sub(advance)

	return models.Pricing{
		BaseAmount:        base.InexactFloat64(),
		AdditionalCharges: lines,
		AdditionalAmount:  additional.InexactFloat64(),
		Discount:          models.Discount{Amount: discount.InexactFloat64(), Reason: q.DiscountReason},
		Tax:               models.Tax{Amount: tax.InexactFloat64(), Percentage: q.TaxPercent},
		TotalAmount:       total.InexactFloat64(),
		AdvancePercentage: q.AdvancePercent,
		AdvanceAmount:     advance.InexactFloat64(),
		RemainingAmount:   remaining.InexactFloat64(),
	}, nil
}

func (q Quote) validate() error {
	fields := map[string]string{}
	if q.Duration.Value < 1 {
		fields["duration"] = "duration must be at least 1"
	}
	if q.Duration.Unit != models.DurationDays && q.Duration.Unit != models.DurationHours {
		fields["durationUnit"] = "duration unit must be days or hours"
	}
	if !q.Unit.IsValid() {
		fields["priceUnit"] = "price unit must be per_day, per_hour or flat"
	}
	if q.Rate < 0 {
		fields["basePrice"] = "base price cannot be negative"
	}
	if q.AdvancePercent < 0 || q.AdvancePercent > 100 {
		fields["advancePercentage"] = "advance percentage must be between 0 and 100"
	}
	if q.TaxPercent < 0 {
		fields["taxPercent"] = "tax percentage cannot be negative"
	}
	if q.Discount < 0 {
		fields["discount"] = "discount cannot be negative"
	}
	for _, ch := range q.Charges {
		if ch.Amount < 0 {
			fields["additionalCharges"] = "additional charges cannot be negative"
		}
	}
	if len(fields) > 0 {
		return FieldErrors(fields)
	}
	return nil
}

// billableUnits converts the booked duration into the rate's unit.
// Hours on a daily rate round up to whole days.
func billableUnits(unit models.PriceUnit, d models.BookingDuration) decimal.Decimal {
	value := int64(d.Value)
	switch unit {
	case models.PricePerDay:
		if d.Unit == models.DurationHours {
			return decimal.NewFromInt((value + 23) / 24)
		}
		return decimal.NewFromInt(value)
	case models.PricePerHour:
		if d.Unit == models.DurationDays {
			return decimal.NewFromInt(value * 24)
		}
		return decimal.NewFromInt(value)
	}
	return decimal.NewFromInt(1)
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
