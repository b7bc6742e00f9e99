package models

import "github.com/shopspring/decimal"

type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

type ApplySelector string

const (
	ApplyAllItems   ApplySelector = "all_items"
	ApplySecondItem ApplySelector = "second_item"
	ApplyNthItem    ApplySelector = "nth_item"
)

// TargetWholeOrder is the discount target meaning "every fulfilled line"
// rather than a single product.
const TargetWholeOrder = "whole_order"

// PromotionCondition is a set of AND-ed constraints; at least one field
// must be set for the condition to be valid.
type PromotionCondition struct {
	// MinQuantity requires the matched line's fulfilled quantity to reach
	// this threshold. Zero means unset.
	MinQuantity int
	// ProductIDs restricts the condition to lines of these products.
	ProductIDs []string
	// Combination requires every listed product to be present as a
	// fulfilled line with quantity >= 1 anywhere in the order.
	Combination []string
	// AppliesEvery repeats the effect once per N matching units.
	AppliesEvery int
}

// Empty reports whether no condition field is set.
func (c PromotionCondition) Empty() bool {
	return c.MinQuantity == 0 && len(c.ProductIDs) == 0 &&
		len(c.Combination) == 0 && c.AppliesEvery == 0
}

// PromotionEffect is a sealed union: exactly one concrete kind per spec,
// enforced by the loader so illegal states never reach the evaluator.
type PromotionEffect interface {
	promotionEffect()
}

// DiscountEffect reduces the price of matched units on the target product
// (or across the whole order).
type DiscountEffect struct {
	// Target is a product id or TargetWholeOrder. Empty means the
	// condition-matched product itself.
	Target  string
	Kind    DiscountKind
	Amount  decimal.Decimal
	ApplyTo ApplySelector
}

// FreeItemsEffect grants Count free units of ItemID; an empty ItemID means
// the triggering product.
type FreeItemsEffect struct {
	Count  int
	ItemID string
}

func (DiscountEffect) promotionEffect()  {}
func (FreeItemsEffect) promotionEffect() {}

// PromotionSpec pairs one condition set with one effect. Specs are
// evaluated in list order; the first spec matching a line wins it.
type PromotionSpec struct {
	Name      string
	Condition PromotionCondition
	Effect    PromotionEffect
}
