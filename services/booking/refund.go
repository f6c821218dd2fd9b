package booking

import (
	"fmt"
	"time"

	"petcare/models"

	"github.com/shopspring/decimal"
)

// RefundFor applies the tiered refund rule: the full advance more than FullRefundBefore
// ahead of the start, PartialRefundPercent of it more than CancelWindow ahead, nothing otherwise.
// Nothing is refunded when the advance was never paid.
func RefundFor(b *models.Booking, now time.Time, p Policy) float64 {
	if b.PaymentStatus.Advance.Status != models.PaymentCompleted {
		return 0
	}
	advance := decimal.NewFromFloat(b.Pricing.AdvanceAmount)
	until := b.StartDate.Sub(now)

	switch {
	case until > p.FullRefundBefore:
		return advance.InexactFloat64()
	case until > p.CancelWindow:
		return round2(advance.Mul(decimal.NewFromFloat(p.PartialRefundPercent)).Div(hundred)).InexactFloat64()
	}
	return 0
}

func formatHours(d time.Duration) string {
	return fmt.Sprintf("%gh", d.Hours())
}
