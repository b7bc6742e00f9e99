package ledger

import (
	"errors"
	"sync"

	"github.com/Cheertaboi/order-fulfillment-engine/internal/models"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type entry struct {
	mu    sync.Mutex
	stock int
}

// StockLedger owns the per-product available quantities. It is the only
// state shared across concurrent order runs, so every check-then-decrement
// happens inside a per-product critical section; decrements on distinct
// products proceed in parallel.
type StockLedger struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func NewStockLedger() *StockLedger {
	return &StockLedger{entries: make(map[string]*entry)}
}

// FromCatalog seeds a ledger with the stock counts of the given products.
func FromCatalog(products []models.Product) *StockLedger {
	l := NewStockLedger()
	for _, p := range products {
		l.Restock(p.ID, p.Stock)
	}
	return l
}

func (l *StockLedger) get(productID string) *entry {
	l.mu.RLock()
	e := l.entries[productID]
	l.mu.RUnlock()
	return e
}

// Check is a pure read: whether qty units are available, and the current
// stock level. Unknown products report unavailable with zero stock.
func (l *StockLedger) Check(productID string, qty int) (bool, int) {
	e := l.get(productID)
	if e == nil {
		return false, 0
	}
	e.mu.Lock()
	stock := e.stock
	e.mu.Unlock()
	return stock >= qty, stock
}

// Decrement atomically removes qty units. A shortfall rejects the whole
// decrement; stock never goes negative.
func (l *StockLedger) Decrement(productID string, qty int) error {
	if qty < 0 {
		return ErrInsufficientStock
	}
	e := l.get(productID)
	if e == nil {
		return ErrProductNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stock < qty {
		return ErrInsufficientStock
	}
	e.stock -= qty
	return nil
}

// Reserve grants min(want, available) units in one critical section, so a
// caller building an order line cannot be raced between its check and its
// decrement. A grant of zero with a nil error means out of stock.
func (l *StockLedger) Reserve(productID string, want int) (int, error) {
	if want <= 0 {
		return 0, nil
	}
	e := l.get(productID)
	if e == nil {
		return 0, ErrProductNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	granted := want
	if e.stock < granted {
		granted = e.stock
	}
	e.stock -= granted
	return granted, nil
}

// Restock adds qty units, creating the product entry if needed. Used for
// seeding and replenishment.
func (l *StockLedger) Restock(productID string, qty int) {
	l.mu.Lock()
	e, ok := l.entries[productID]
	if !ok {
		e = &entry{}
		l.entries[productID] = e
	}
	l.mu.Unlock()
	e.mu.Lock()
	e.stock += qty
	e.mu.Unlock()
}
