package repository

import (
	"github.com/go-faster/errors"

	"github.com/Cheertaboi/order-fulfillment-engine/internal/models"
)

var ErrProductNotFound = errors.New("product not found in catalog")

// CatalogRepo is an in-memory, insertion-ordered product catalog. Insertion
// order is part of the contract: it is the tie-break for alternative
// ranking, so it must be stable and reproducible.
type CatalogRepo struct {
	byID  map[string]models.Product
	order []string
}

func NewCatalogRepo(products []models.Product) (*CatalogRepo, error) {
	r := &CatalogRepo{byID: make(map[string]models.Product, len(products))}
	for _, p := range products {
		if err := r.Add(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *CatalogRepo) Add(p models.Product) error {
	if p.ID == "" {
		return errors.New("product id is empty")
	}
	if p.UnitPrice.IsNegative() {
		return errors.Errorf("product %s: negative unit price", p.ID)
	}
	if _, exists := r.byID[p.ID]; exists {
		return errors.Errorf("product %s: duplicate id", p.ID)
	}
	r.byID[p.ID] = p
	r.order = append(r.order, p.ID)
	return nil
}

// Get looks a product up by id.
func (r *CatalogRepo) Get(id string) (models.Product, error) {
	p, ok := r.byID[id]
	if !ok {
		return models.Product{}, errors.Wrap(ErrProductNotFound, id)
	}
	return p, nil
}

// All returns the products in insertion order.
func (r *CatalogRepo) All() []models.Product {
	out := make([]models.Product, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

func (r *CatalogRepo) Len() int {
	return len(r.order)
}
