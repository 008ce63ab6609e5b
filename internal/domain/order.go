package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderLine is a by-value snapshot of a cart line taken at checkout time.
// Product name and unit price are copied so later catalog edits never alter
// purchase history.
type OrderLine struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

// Order is immutable once created.
type Order struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	ShipAddress   string          `json:"ship_address"`
	PaymentMasked string          `json:"payment_masked"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Shipping      decimal.Decimal `json:"shipping"`
	Total         decimal.Decimal `json:"total"`
	Lines         []OrderLine     `json:"lines"`
	CreatedAt     time.Time       `json:"created_at"`
}
