package models

import "github.com/shopspring/decimal"

type Category string

const (
	CategoryAccessories Category = "accessories"
	CategoryBags        Category = "bags"
	CategoryKidsWear    Category = "kids_wear"
	CategoryLoungewear  Category = "loungewear"
	CategoryMensClothes Category = "mens_clothing"
	CategoryShoes       Category = "shoes"
	CategoryWomensWear  Category = "womens_clothing"
)

type Season string

const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
	SeasonWinter Season = "winter"
	SeasonAll    Season = "all"
)

// seasonOrder positions the four concrete seasons on a cycle so that
// neighbouring seasons can be treated as near-matches.
var seasonOrder = map[Season]int{
	SeasonSpring: 0,
	SeasonSummer: 1,
	SeasonAutumn: 2,
	SeasonWinter: 3,
}

// Overlaps reports whether two seasons cover a common period. "all"
// overlaps everything, including itself.
func (s Season) Overlaps(other Season) bool {
	return s == SeasonAll || other == SeasonAll || s == other
}

// Adjacent reports whether two concrete seasons border each other on the
// yearly cycle (winter and spring are neighbours).
func (s Season) Adjacent(other Season) bool {
	a, ok := seasonOrder[s]
	if !ok {
		return false
	}
	b, ok := seasonOrder[other]
	if !ok {
		return false
	}
	d := (a - b + 4) % 4
	return d == 1 || d == 3
}

// Product is immutable within a processing run; the stock count handed
// over at load time is owned by the ledger afterwards.
type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  Category        `json:"category"`
	Season    Season          `json:"season"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Stock     int             `json:"stock_quantity"`
}
