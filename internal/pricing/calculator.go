package pricing

import (
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// Config holds the pricing policy. Tax rates and shipping rules are business
// configuration, not constants: student deployments of this shop disagree on
// all of them.
type Config struct {
	// TaxRates maps a product category (lowercased) to its tax rate as a
	// fraction, e.g. 0.21. Categories not present use DefaultTaxRate.
	TaxRates       map[string]decimal.Decimal
	DefaultTaxRate decimal.Decimal

	// Shipping is free when the subtotal strictly exceeds FreeShippingThreshold.
	FreeShippingThreshold decimal.Decimal
	FlatShippingCost      decimal.Decimal
}

// DefaultConfig mirrors the most common policy: 21% standard rate, 10% on
// electronics, flat 50 shipping waived above 1000.
func DefaultConfig() Config {
	return Config{
		TaxRates: map[string]decimal.Decimal{
			"electronics": decimal.NewFromFloat(0.10),
		},
		DefaultTaxRate:        decimal.NewFromFloat(0.21),
		FreeShippingThreshold: decimal.NewFromInt(1000),
		FlatShippingCost:      decimal.NewFromInt(50),
	}
}

// ConfigFromEnv starts from DefaultConfig and applies overrides:
// PRICING_DEFAULT_TAX_RATE, PRICING_TAX_RATES (comma-separated
// category=rate pairs), PRICING_FREE_SHIPPING_THRESHOLD,
// PRICING_FLAT_SHIPPING_COST. Unparseable values are ignored.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("PRICING_DEFAULT_TAX_RATE"); v != "" {
		if rate, err := decimal.NewFromString(v); err == nil {
			cfg.DefaultTaxRate = rate
		}
	}
	if v := os.Getenv("PRICING_TAX_RATES"); v != "" {
		rates := make(map[string]decimal.Decimal)
		for _, pair := range strings.Split(v, ",") {
			category, value, ok := strings.Cut(pair, "=")
			if !ok {
				continue
			}
			rate, err := decimal.NewFromString(strings.TrimSpace(value))
			if err != nil {
				continue
			}
			rates[strings.ToLower(strings.TrimSpace(category))] = rate
		}
		if len(rates) > 0 {
			cfg.TaxRates = rates
		}
	}
	if v := os.Getenv("PRICING_FREE_SHIPPING_THRESHOLD"); v != "" {
		if threshold, err := decimal.NewFromString(v); err == nil {
			cfg.FreeShippingThreshold = threshold
		}
	}
	if v := os.Getenv("PRICING_FLAT_SHIPPING_COST"); v != "" {
		if cost, err := decimal.NewFromString(v); err == nil {
			cfg.FlatShippingCost = cost
		}
	}

	return cfg
}

func (c Config) taxRate(category string) decimal.Decimal {
	if rate, ok := c.TaxRates[strings.ToLower(category)]; ok {
		return rate
	}
	return c.DefaultTaxRate
}

// Item is one priced line: a unit price, its tax category and a quantity.
type Item struct {
	UnitPrice decimal.Decimal
	Category  string
	Quantity  int
}

// Quote is the result of pricing a set of items.
type Quote struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// Calculate prices a set of items. Pure; no error conditions. An empty input
// yields a zero subtotal and the flat shipping cost, unless the free-shipping
// threshold is itself zero. Rounding to two decimals happens on the
// aggregates, never per line.
func Calculate(cfg Config, items []Item) Quote {
	subtotal := decimal.Zero
	tax := decimal.Zero

	for _, item := range items {
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		tax = tax.Add(lineTotal.Mul(cfg.taxRate(item.Category)))
	}

	// A zero threshold means shipping is always free.
	shipping := cfg.FlatShippingCost
	if cfg.FreeShippingThreshold.IsZero() || subtotal.GreaterThan(cfg.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	subtotal = subtotal.Round(2)
	tax = tax.Round(2)
	shipping = shipping.Round(2)

	return Quote{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping).Round(2),
	}
}
