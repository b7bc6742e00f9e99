package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/order-fulfillment-engine/internal/models"
)

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

// assemble rounds every line to the configured currency precision and
// derives the order totals from the rounded figures, so the grand total
// equals the sum of line totals exactly, with no rounding drift.
func (s *OrderService) assemble(emailID string, lines []models.OrderLine, rejects []models.RejectedLine) models.Order {
	prec := s.cfg.CurrencyPrecision
	subtotal := decimal.Zero
	totalDiscount := decimal.Zero
	degraded := false

	for i := range lines {
		gross := lines[i].UnitPrice.Mul(decimalFromInt(lines[i].Fulfilled)).Round(prec)
		delta := decimal.Zero
		if lines[i].AppliedDiscount != nil {
			delta = lines[i].AppliedDiscount.Amount.Round(prec)
		}
		if delta.GreaterThan(gross) {
			// A discount larger than the line itself would price it
			// negative; clamp and flag instead.
			delta = gross
			degraded = true
		}
		if lines[i].AppliedDiscount != nil {
			lines[i].AppliedDiscount = &models.AppliedDiscount{
				Promotion: lines[i].AppliedDiscount.Promotion,
				Amount:    delta,
			}
		}
		lines[i].LineTotal = gross.Sub(delta)
		subtotal = subtotal.Add(gross)
		totalDiscount = totalDiscount.Add(delta)
	}

	grand := subtotal.Sub(totalDiscount)
	if grand.IsNegative() {
		grand = decimal.Zero
		degraded = true
	}

	return models.Order{
		ID:            uuid.NewString(),
		EmailID:       emailID,
		Lines:         lines,
		Rejected:      rejects,
		Subtotal:      subtotal,
		TotalDiscount: totalDiscount,
		GrandTotal:    grand,
		Status:        deriveStatus(lines, rejects),
		Degraded:      degraded,
	}
}

// deriveStatus scans line statuses once. Rejected requests count as
// unsatisfied; synthesized promo lines are excluded so a free gift cannot
// flip an otherwise unfulfilled order.
func deriveStatus(lines []models.OrderLine, rejects []models.RejectedLine) models.OrderStatus {
	created, other := 0, len(rejects)
	for _, l := range lines {
		if l.Promo {
			continue
		}
		if l.Status == models.LineCreated {
			created++
		} else {
			other++
		}
	}
	switch {
	case other == 0 && created > 0:
		return models.OrderFulfilled
	case created == 0:
		// Partially fulfilled lines still reserved some stock.
		for _, l := range lines {
			if !l.Promo && l.Status == models.LinePartiallyFulfilled {
				return models.OrderPartiallyFulfilled
			}
		}
		return models.OrderUnfulfilled
	default:
		return models.OrderPartiallyFulfilled
	}
}
