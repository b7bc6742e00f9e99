package recommend

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/order-fulfillment-engine/internal/ledger"
	"github.com/Cheertaboi/order-fulfillment-engine/internal/models"
	"github.com/Cheertaboi/order-fulfillment-engine/internal/repository"
)

// Scoring weights. Category dominates, season breaks near-ties within a
// category, price proximity contributes at most 1.0.
const (
	categoryWeight       = 5.0
	seasonMatchWeight    = 2.0
	seasonAdjacentWeight = 1.0
)

// Recommender ranks in-stock substitutes for lines that could not be fully
// satisfied. Pure over the catalog and ledger snapshot at call time.
type Recommender struct {
	catalog *repository.CatalogRepo
	stock   *ledger.StockLedger
	topK    int
}

func New(catalog *repository.CatalogRepo, stock *ledger.StockLedger, topK int) *Recommender {
	if topK <= 0 {
		topK = 3
	}
	return &Recommender{catalog: catalog, stock: stock, topK: topK}
}

type candidate struct {
	id    string
	score float64
	pos   int // catalog insertion order, the tie-break
}

// Suggest returns up to topK substitute product ids for orig, best first.
// The original product and any product already requested in the order are
// excluded, as is anything currently out of stock.
func (r *Recommender) Suggest(orig models.Product, requested map[string]bool) []string {
	var cands []candidate
	for pos, p := range r.catalog.All() {
		if p.ID == orig.ID || requested[p.ID] {
			continue
		}
		if ok, _ := r.stock.Check(p.ID, 1); !ok {
			continue
		}
		cands = append(cands, candidate{id: p.ID, score: score(orig, p), pos: pos})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].pos < cands[j].pos
	})
	if len(cands) > r.topK {
		cands = cands[:r.topK]
	}
	ids := make([]string, len(cands))
	for i, c := range cands {
		ids[i] = c.id
	}
	return ids
}

func score(orig, p models.Product) float64 {
	s := 0.0
	if p.Category == orig.Category {
		s += categoryWeight
	}
	switch {
	case p.Season.Overlaps(orig.Season):
		s += seasonMatchWeight
	case p.Season.Adjacent(orig.Season):
		s += seasonAdjacentWeight
	}
	s += priceProximity(orig.UnitPrice, p.UnitPrice)
	return s
}

// priceProximity maps the absolute price gap into (0, 1], closer is better.
func priceProximity(a, b decimal.Decimal) float64 {
	gap, _ := a.Sub(b).Abs().Float64()
	return 1.0 / (1.0 + gap)
}
