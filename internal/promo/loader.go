package promo

import (
	"os"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Cheertaboi/order-fulfillment-engine/internal/models"
)

var ErrInvalidSpec = errors.New("invalid promotion spec")

// The YAML documents are free-form blocks with optional fields; validation
// below converts them into the sealed effect union so the evaluator never
// sees a spec with zero or two effect kinds.

type rawSpec struct {
	Name      string        `yaml:"name"`
	Condition *rawCondition `yaml:"condition"`
	Effect    *rawEffect    `yaml:"effect"`
}

type rawCondition struct {
	MinQuantity  int      `yaml:"min_quantity"`
	ProductIDs   []string `yaml:"product_ids"`
	Combination  []string `yaml:"product_combination"`
	AppliesEvery int      `yaml:"applies_every"`
}

type rawEffect struct {
	ApplyDiscount *rawDiscount  `yaml:"apply_discount"`
	FreeItems     *rawFreeItems `yaml:"free_items"`
}

type rawDiscount struct {
	Target  string          `yaml:"target"`
	Kind    string          `yaml:"kind"`
	Amount  decimal.Decimal `yaml:"amount"`
	ApplyTo string          `yaml:"apply_to"`
}

type rawFreeItems struct {
	Count  int    `yaml:"count"`
	ItemID string `yaml:"item_id"`
}

// Rejection records a spec that failed load-time validation. Rejected
// specs are never silently dropped; the other specs still apply.
type Rejection struct {
	Name string
	Err  error
}

// LoadResult carries the valid specs in file order plus the rejections.
type LoadResult struct {
	Specs    []models.PromotionSpec
	Rejected []Rejection
}

// LoadFile reads a YAML list of promotion specs. It fails only when the
// file is unreadable, unparseable, or contains no valid spec at all.
func LoadFile(path string) (LoadResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return LoadResult{}, errors.Wrap(err, "read promotions")
	}
	return Parse(raw)
}

// Parse decodes and validates promotion specs from YAML bytes.
func Parse(raw []byte) (LoadResult, error) {
	var docs []rawSpec
	if err := yaml.Unmarshal(raw, &docs); err != nil {
		return LoadResult{}, errors.Wrap(err, "decode promotions")
	}

	var res LoadResult
	for i, doc := range docs {
		spec, err := doc.validate()
		if err != nil {
			name := doc.Name
			if name == "" {
				name = "spec #" + strconv.Itoa(i)
			}
			res.Rejected = append(res.Rejected, Rejection{Name: name, Err: err})
			continue
		}
		res.Specs = append(res.Specs, spec)
	}
	if len(docs) > 0 && len(res.Specs) == 0 {
		return res, errors.Wrap(ErrInvalidSpec, "no valid promotion spec in file")
	}
	return res, nil
}

func (r rawSpec) validate() (models.PromotionSpec, error) {
	var spec models.PromotionSpec
	if r.Condition == nil {
		return spec, errors.Wrap(ErrInvalidSpec, "missing condition")
	}
	cond := models.PromotionCondition{
		MinQuantity:  r.Condition.MinQuantity,
		ProductIDs:   r.Condition.ProductIDs,
		Combination:  r.Condition.Combination,
		AppliesEvery: r.Condition.AppliesEvery,
	}
	if cond.Empty() {
		return spec, errors.Wrap(ErrInvalidSpec, "condition has no fields set")
	}
	if cond.MinQuantity < 0 || cond.AppliesEvery < 0 {
		return spec, errors.Wrap(ErrInvalidSpec, "negative condition threshold")
	}

	if r.Effect == nil {
		return spec, errors.Wrap(ErrInvalidSpec, "missing effect")
	}
	if r.Effect.ApplyDiscount != nil && r.Effect.FreeItems != nil {
		return spec, errors.Wrap(ErrInvalidSpec, "two effect kinds set at once")
	}

	var effect models.PromotionEffect
	switch {
	case r.Effect.ApplyDiscount != nil:
		d := r.Effect.ApplyDiscount
		kind := models.DiscountKind(d.Kind)
		if kind != models.DiscountPercentage && kind != models.DiscountFixed {
			return spec, errors.Wrapf(ErrInvalidSpec, "unknown discount kind %q", d.Kind)
		}
		applyTo := models.ApplySelector(d.ApplyTo)
		if d.ApplyTo == "" {
			applyTo = models.ApplyAllItems
		}
		switch applyTo {
		case models.ApplyAllItems, models.ApplySecondItem:
		case models.ApplyNthItem:
			if cond.AppliesEvery <= 0 {
				return spec, errors.Wrap(ErrInvalidSpec, "nth_item requires applies_every")
			}
		default:
			return spec, errors.Wrapf(ErrInvalidSpec, "unknown apply_to selector %q", d.ApplyTo)
		}
		if !d.Amount.IsPositive() {
			return spec, errors.Wrap(ErrInvalidSpec, "discount amount must be positive")
		}
		if kind == models.DiscountPercentage && d.Amount.GreaterThan(decimal.NewFromInt(100)) {
			return spec, errors.Wrap(ErrInvalidSpec, "percentage discount above 100")
		}
		effect = models.DiscountEffect{
			Target:  d.Target,
			Kind:    kind,
			Amount:  d.Amount,
			ApplyTo: applyTo,
		}
	case r.Effect.FreeItems != nil:
		f := r.Effect.FreeItems
		if f.Count <= 0 {
			return spec, errors.Wrap(ErrInvalidSpec, "free item count must be positive")
		}
		effect = models.FreeItemsEffect{Count: f.Count, ItemID: f.ItemID}
	default:
		return spec, errors.Wrap(ErrInvalidSpec, "effect has no kind set")
	}

	return models.PromotionSpec{Name: r.Name, Condition: cond, Effect: effect}, nil
}
