package service

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/Cheertaboi/order-fulfillment-engine/internal/concurrency"
	"github.com/Cheertaboi/order-fulfillment-engine/internal/config"
	"github.com/Cheertaboi/order-fulfillment-engine/internal/ledger"
	"github.com/Cheertaboi/order-fulfillment-engine/internal/models"
	"github.com/Cheertaboi/order-fulfillment-engine/internal/promo"
	"github.com/Cheertaboi/order-fulfillment-engine/internal/recommend"
	"github.com/Cheertaboi/order-fulfillment-engine/internal/repository"
)

var (
	ErrNoLines       = errors.New("no requested lines")
	ErrDuplicateLine = errors.New("duplicate requested line")
	ErrBadQuantity   = errors.New("requested quantity must be positive")
)

// Catalog is the lookup contract the engine requires from its catalog
// collaborator (use an interface to allow mocking).
type Catalog interface {
	Get(id string) (models.Product, error)
	All() []models.Product
}

// OrderService turns resolved requested lines into a priced, annotated
// Order: it builds lines against the stock ledger, augments unsatisfied
// lines with alternatives, runs the promotion specs, and assembles totals.
type OrderService struct {
	catalog     Catalog
	stock       *ledger.StockLedger
	recommender *recommend.Recommender
	evaluator   *promo.Evaluator
	specs       []models.PromotionSpec
	cfg         config.Config
}

func NewOrderService(catalog *repository.CatalogRepo, stock *ledger.StockLedger, specs []models.PromotionSpec, cfg config.Config) *OrderService {
	return &OrderService{
		catalog:     catalog,
		stock:       stock,
		recommender: recommend.New(catalog, stock, cfg.TopKAlternatives),
		evaluator:   promo.NewEvaluator(),
		specs:       specs,
		cfg:         cfg,
	}
}

// ProcessOrder handles one email's worth of requested lines. Per-line
// failures (catalog miss, stock shortfall) are resolved into line status
// and never abort the order; only invalid input is escalated.
func (s *OrderService) ProcessOrder(ctx context.Context, emailID string, requested []models.RequestedLine) (models.Order, error) {
	if err := validateRequest(requested); err != nil {
		return models.Order{}, err
	}

	requestedIDs := make(map[string]bool, len(requested))
	for _, rl := range requested {
		requestedIDs[rl.ProductID] = true
	}

	// Build lines concurrently; each slot is written by exactly one
	// goroutine, so the slices need no further synchronization. Slots
	// keep the input order.
	built := make([]*models.OrderLine, len(requested))
	rejected := make([]*models.RejectedLine, len(requested))
	err := concurrency.ForEach(ctx, s.cfg.MaxLineWorkers, len(requested), func(_ context.Context, i int) error {
		line, rej := s.buildLine(requested[i])
		built[i], rejected[i] = line, rej
		return nil
	})
	if err != nil {
		// The order is abandoned; hand back whatever the finished
		// lines already reserved so the stock is not leaked.
		for _, l := range built {
			if l != nil && l.Fulfilled > 0 {
				s.stock.Restock(l.ProductID, l.Fulfilled)
			}
		}
		return models.Order{}, errors.Wrap(err, "build lines")
	}

	lines := make([]models.OrderLine, 0, len(requested))
	var rejects []models.RejectedLine
	for i := range requested {
		if rejected[i] != nil {
			rejects = append(rejects, *rejected[i])
			continue
		}
		line := *built[i]
		if line.Status != models.LineCreated {
			product, _ := s.catalog.Get(line.ProductID)
			line.Alternatives = s.recommender.Suggest(product, requestedIDs)
		}
		lines = append(lines, line)
	}

	lines = s.evaluator.Evaluate(lines, s.specs)
	return s.assemble(emailID, lines, rejects), nil
}

// buildLine resolves one requested line against catalog and ledger. The
// reserve call is the single critical section, so the status it implies
// can never be invalidated by a concurrent order.
func (s *OrderService) buildLine(rl models.RequestedLine) (*models.OrderLine, *models.RejectedLine) {
	product, err := s.catalog.Get(rl.ProductID)
	if err != nil {
		return nil, &models.RejectedLine{ProductID: rl.ProductID, Reason: "product not found"}
	}

	granted, err := s.stock.Reserve(rl.ProductID, rl.Quantity)
	if err != nil {
		// Catalog and ledger disagree on the product set; treat it
		// as a catalog miss for this line.
		return nil, &models.RejectedLine{ProductID: rl.ProductID, Reason: "product not found"}
	}

	status := models.LineCreated
	switch {
	case granted == 0:
		status = models.LineOutOfStock
	case granted < rl.Quantity:
		status = models.LinePartiallyFulfilled
	}

	gross := product.UnitPrice.Mul(decimalFromInt(granted))
	return &models.OrderLine{
		ProductID: rl.ProductID,
		Requested: rl.Quantity,
		Fulfilled: granted,
		Status:    status,
		UnitPrice: product.UnitPrice,
		LineTotal: gross,
	}, nil
}

func validateRequest(requested []models.RequestedLine) error {
	if len(requested) == 0 {
		return ErrNoLines
	}
	seen := make(map[string]bool, len(requested))
	for _, rl := range requested {
		if rl.Quantity <= 0 {
			return errors.Wrap(ErrBadQuantity, rl.ProductID)
		}
		if seen[rl.ProductID] {
			return errors.Wrap(ErrDuplicateLine, rl.ProductID)
		}
		seen[rl.ProductID] = true
	}
	return nil
}
