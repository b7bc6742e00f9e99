package repository

import (
	"encoding/json"
	"os"

	"github.com/go-faster/errors"

	"github.com/Cheertaboi/order-fulfillment-engine/internal/models"
)

// LoadCatalogFile reads a JSON array of products from path and builds a
// catalog preserving file order.
func LoadCatalogFile(path string) (*CatalogRepo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog")
	}
	var products []models.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	repo, err := NewCatalogRepo(products)
	if err != nil {
		return nil, errors.Wrap(err, "build catalog")
	}
	return repo, nil
}
