package promo

import (
	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/order-fulfillment-engine/internal/models"
)

// Evaluator matches an ordered list of promotion specs against the
// fulfilled lines of a single order. Evaluation is a pure function of the
// line snapshot and the spec list: the input lines are never mutated, so
// re-running over the same snapshot yields identical effects.
//
// Spec list order is the precedence order. A line claimed by an earlier
// spec is invisible to later specs, so promotions never stack on one line;
// specs targeting disjoint products apply independently.
type Evaluator struct{}

func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate returns a new line slice with discounts applied and any
// synthesized free-item lines appended after the real lines.
func (e *Evaluator) Evaluate(lines []models.OrderLine, specs []models.PromotionSpec) []models.OrderLine {
	out := make([]models.OrderLine, len(lines))
	copy(out, lines)
	claimed := make([]bool, len(out))

	for _, spec := range specs {
		if len(spec.Condition.Combination) > 0 {
			out, claimed = applyCombination(spec, out, claimed)
			continue
		}
		out, claimed = applyPerLine(spec, out, claimed)
	}
	return out
}

// eligible reports whether a line carries fulfilled units a promotion can
// act on.
func eligible(l models.OrderLine) bool {
	return l.Fulfilled > 0 &&
		(l.Status == models.LineCreated || l.Status == models.LinePartiallyFulfilled)
}

// applyPerLine evaluates product_ids/min_quantity conditions line by line
// and applies the effect to every matching unclaimed line.
func applyPerLine(spec models.PromotionSpec, lines []models.OrderLine, claimed []bool) ([]models.OrderLine, []bool) {
	cond := spec.Condition
	idSet := make(map[string]bool, len(cond.ProductIDs))
	for _, id := range cond.ProductIDs {
		idSet[id] = true
	}

	for i := range lines {
		if claimed[i] || !eligible(lines[i]) {
			continue
		}
		if len(idSet) > 0 && !idSet[lines[i].ProductID] {
			continue
		}
		if cond.MinQuantity > 0 && lines[i].Fulfilled < cond.MinQuantity {
			continue
		}
		repeats := 1
		if cond.AppliesEvery > 0 {
			repeats = lines[i].Fulfilled / cond.AppliesEvery
			if repeats == 0 {
				continue
			}
		}

		switch eff := spec.Effect.(type) {
		case models.DiscountEffect:
			if eff.Target == models.TargetWholeOrder {
				return applyWholeOrder(spec, eff, lines, claimed)
			}
			target := i
			if eff.Target != "" && eff.Target != lines[i].ProductID {
				t, ok := findLine(lines, claimed, eff.Target)
				if !ok {
					continue
				}
				target = t
			}
			units := discountedUnits(eff.ApplyTo, lines[target].Fulfilled, cond.AppliesEvery)
			if units == 0 {
				continue
			}
			discountLine(&lines[target], spec.Name, eff, units)
			claimed[target] = true
			claimed[i] = true
		case models.FreeItemsEffect:
			itemID := eff.ItemID
			if itemID == "" {
				itemID = lines[i].ProductID
			}
			lines, claimed = grantFreeItems(spec.Name, itemID, eff.Count*repeats, lines, claimed)
			claimed[i] = true
		}
	}
	return lines, claimed
}

// applyCombination requires every member product to be present as a
// fulfilled line; the effect repeats once per complete set and concerns
// the effect's own target, not the condition's members. All member lines
// and the target line are claimed by the match.
func applyCombination(spec models.PromotionSpec, lines []models.OrderLine, claimed []bool) ([]models.OrderLine, []bool) {
	cond := spec.Condition
	members := make([]int, 0, len(cond.Combination))
	sets := 0
	for _, id := range cond.Combination {
		i, ok := findLine(lines, claimed, id)
		if !ok {
			return lines, claimed
		}
		if sets == 0 || lines[i].Fulfilled < sets {
			sets = lines[i].Fulfilled
		}
		members = append(members, i)
	}
	if sets == 0 {
		return lines, claimed
	}
	if cond.MinQuantity > 0 {
		for _, i := range members {
			if lines[i].Fulfilled < cond.MinQuantity {
				return lines, claimed
			}
		}
	}

	switch eff := spec.Effect.(type) {
	case models.DiscountEffect:
		if eff.Target == models.TargetWholeOrder {
			return applyWholeOrder(spec, eff, lines, claimed)
		}
		target, ok := findLine(lines, claimed, eff.Target)
		if !ok {
			return lines, claimed
		}
		// One discounted unit of the target per complete set present.
		units := sets
		if units > lines[target].Fulfilled {
			units = lines[target].Fulfilled
		}
		discountLine(&lines[target], spec.Name, eff, units)
		claimed[target] = true
	case models.FreeItemsEffect:
		itemID := eff.ItemID
		if itemID == "" {
			itemID = cond.Combination[0]
		}
		lines, claimed = grantFreeItems(spec.Name, itemID, eff.Count*sets, lines, claimed)
	}
	for _, i := range members {
		claimed[i] = true
	}
	return lines, claimed
}

// applyWholeOrder discounts every unclaimed fulfilled line and claims all
// of them; the order-level target is just "all remaining matched units".
func applyWholeOrder(spec models.PromotionSpec, eff models.DiscountEffect, lines []models.OrderLine, claimed []bool) ([]models.OrderLine, []bool) {
	for i := range lines {
		if claimed[i] || !eligible(lines[i]) {
			continue
		}
		units := discountedUnits(eff.ApplyTo, lines[i].Fulfilled, spec.Condition.AppliesEvery)
		if units == 0 {
			continue
		}
		discountLine(&lines[i], spec.Name, eff, units)
		claimed[i] = true
	}
	return lines, claimed
}

// findLine locates an unclaimed fulfilled line for a product id.
func findLine(lines []models.OrderLine, claimed []bool, productID string) (int, bool) {
	for i := range lines {
		if !claimed[i] && eligible(lines[i]) && lines[i].ProductID == productID {
			return i, true
		}
	}
	return 0, false
}

// discountedUnits maps an apply_to selector onto a count of matched units
// within one line. For nth_item the stride comes from applies_every and
// restarts per group.
func discountedUnits(applyTo models.ApplySelector, fulfilled, appliesEvery int) int {
	switch applyTo {
	case models.ApplySecondItem:
		return fulfilled / 2
	case models.ApplyNthItem:
		if appliesEvery <= 0 {
			return 0
		}
		return fulfilled / appliesEvery
	default: // all_items
		return fulfilled
	}
}

// discountLine applies a per-unit delta to `units` units of the line,
// capping the total delta at the line's pre-discount total.
func discountLine(l *models.OrderLine, promotion string, eff models.DiscountEffect, units int) {
	perUnit := decimal.Zero
	switch eff.Kind {
	case models.DiscountPercentage:
		perUnit = l.UnitPrice.Mul(eff.Amount).Div(decimal.NewFromInt(100))
	case models.DiscountFixed:
		perUnit = eff.Amount
		if perUnit.GreaterThan(l.UnitPrice) {
			perUnit = l.UnitPrice
		}
	}
	delta := perUnit.Mul(decimal.NewFromInt(int64(units)))
	gross := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Fulfilled)))
	if delta.GreaterThan(gross) {
		delta = gross
	}
	l.AppliedDiscount = &models.AppliedDiscount{Promotion: promotion, Amount: delta}
	l.LineTotal = gross.Sub(delta)
}

// grantFreeItems reduces the charged units of itemID when it is already a
// fulfilled line, or synthesizes a zero-price line so the benefit is not
// discarded.
func grantFreeItems(promotion, itemID string, count int, lines []models.OrderLine, claimed []bool) ([]models.OrderLine, []bool) {
	if count <= 0 {
		return lines, claimed
	}
	if i, ok := findLine(lines, claimed, itemID); ok {
		free := count
		if free > lines[i].Fulfilled {
			free = lines[i].Fulfilled
		}
		delta := lines[i].UnitPrice.Mul(decimal.NewFromInt(int64(free)))
		gross := lines[i].UnitPrice.Mul(decimal.NewFromInt(int64(lines[i].Fulfilled)))
		lines[i].AppliedDiscount = &models.AppliedDiscount{Promotion: promotion, Amount: delta}
		lines[i].LineTotal = gross.Sub(delta)
		claimed[i] = true
		return lines, claimed
	}
	lines = append(lines, models.OrderLine{
		ProductID: itemID,
		Requested: count,
		Fulfilled: count,
		Status:    models.LineCreated,
		UnitPrice: decimal.Zero,
		LineTotal: decimal.Zero,
		Promo:     true,
		AppliedDiscount: &models.AppliedDiscount{
			Promotion: promotion,
			Amount:    decimal.Zero,
		},
	})
	claimed = append(claimed, true)
	return lines, claimed
}
