package models

import "github.com/shopspring/decimal"

// RequestedLine is one resolved (product, quantity) pair coming from the
// upstream resolution step. Duplicates must already be merged by the caller.
type RequestedLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"requested_quantity"`
}

type LineStatus string

const (
	LineCreated            LineStatus = "CREATED"
	LineOutOfStock         LineStatus = "OUT_OF_STOCK"
	LinePartiallyFulfilled LineStatus = "PARTIALLY_FULFILLED"
)

// AppliedDiscount records the winning promotion and the monetary delta it
// produced on a line, for downstream transparency.
type AppliedDiscount struct {
	Promotion string          `json:"promotion"`
	Amount    decimal.Decimal `json:"amount"`
}

// OrderLine is the priced, status-annotated output unit.
type OrderLine struct {
	ProductID       string           `json:"product_id"`
	Requested       int              `json:"requested_quantity"`
	Fulfilled       int              `json:"fulfilled_quantity"`
	Status          LineStatus       `json:"status"`
	UnitPrice       decimal.Decimal  `json:"unit_price"`
	AppliedDiscount *AppliedDiscount `json:"applied_discount,omitempty"`
	LineTotal       decimal.Decimal  `json:"final_line_total"`
	// Alternatives is populated only when the line could not be fully
	// satisfied.
	Alternatives []string `json:"suggested_alternatives,omitempty"`
	// Promo marks a zero-price line synthesized by a free-items effect.
	Promo bool `json:"promo,omitempty"`
}

// RejectedLine records a requested product id that was absent from the
// catalog; the rest of the order still goes through.
type RejectedLine struct {
	ProductID string `json:"product_id"`
	Reason    string `json:"reason"`
}

type OrderStatus string

const (
	OrderFulfilled          OrderStatus = "fulfilled"
	OrderPartiallyFulfilled OrderStatus = "partially_fulfilled"
	OrderUnfulfilled        OrderStatus = "unfulfilled"
)

// Order is the terminal artifact handed to downstream formatting.
type Order struct {
	ID            string          `json:"id"`
	EmailID       string          `json:"email_id"`
	Lines         []OrderLine     `json:"lines"`
	Rejected      []RejectedLine  `json:"rejected_lines,omitempty"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	Status        OrderStatus     `json:"overall_status"`
	// Degraded is set when an arithmetic invariant forced a clamp to zero
	// instead of propagating a negative price.
	Degraded bool `json:"degraded,omitempty"`
}
