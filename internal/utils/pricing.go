package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"storepos-backend/internal/config"
	"storepos-backend/internal/domain"
)

// PriceLine is one (unit price, quantity) pair to be totalled
type PriceLine struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// PricingOptions selects the tax jurisdiction and an already-validated coupon
type PricingOptions struct {
	Jurisdiction string
	CouponCode   string
}

// Totals is the monetary breakdown of a transaction. Values are unrounded;
// round only for display.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// PricingCalculator turns line items into totals. It holds no state beyond
// its rate table and is safe for concurrent use.
type PricingCalculator struct {
	defaultTaxRate    decimal.Decimal
	jurisdictionRates map[string]decimal.Decimal
	couponRate        decimal.Decimal
}

// NewPricingCalculator builds a calculator from the pricing section of the config
func NewPricingCalculator(cfg config.PricingConfig) *PricingCalculator {
	rates := make(map[string]decimal.Decimal, len(cfg.JurisdictionRates))
	for code, rate := range cfg.JurisdictionRates {
		rates[strings.ToUpper(code)] = decimal.NewFromFloat(rate)
	}
	return &PricingCalculator{
		defaultTaxRate:    decimal.NewFromFloat(cfg.DefaultTaxRate),
		jurisdictionRates: rates,
		couponRate:        decimal.NewFromFloat(cfg.CouponDiscountRate),
	}
}

// TaxRate returns the rate for a jurisdiction, falling back to the default
// rate for unknown or empty codes
func (c *PricingCalculator) TaxRate(jurisdiction string) decimal.Decimal {
	if jurisdiction == "" {
		return c.defaultTaxRate
	}
	if rate, ok := c.jurisdictionRates[strings.ToUpper(strings.TrimSpace(jurisdiction))]; ok {
		return rate
	}
	return c.defaultTaxRate
}

// CalculateSubtotal sums unitPrice × quantity, rejecting any line with a
// quantity below 1 or a negative price
func CalculateSubtotal(lines []PriceLine) (decimal.Decimal, error) {
	if len(lines) == 0 {
		return decimal.Zero, fmt.Errorf("%w: no line items", domain.ErrInvalidLineItem)
	}
	subtotal := decimal.Zero
	for i, line := range lines {
		if line.Quantity < 1 {
			return decimal.Zero, fmt.Errorf("%w: line %d quantity %d must be at least 1", domain.ErrInvalidLineItem, i, line.Quantity)
		}
		if line.UnitPrice.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: line %d unit price %s must not be negative", domain.ErrInvalidLineItem, i, line.UnitPrice)
		}
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return subtotal, nil
}

// ApplyCouponDiscount returns (discount, discounted subtotal). Without a
// coupon the subtotal passes through untouched.
func (c *PricingCalculator) ApplyCouponDiscount(subtotal decimal.Decimal, couponCode string) (decimal.Decimal, decimal.Decimal) {
	if strings.TrimSpace(couponCode) == "" {
		return decimal.Zero, subtotal
	}
	discount := subtotal.Mul(c.couponRate)
	return discount, subtotal.Mul(decimal.NewFromInt(1).Sub(c.couponRate))
}

// CalculateTotal computes subtotal, discount, tax and total for a set of lines
func (c *PricingCalculator) CalculateTotal(lines []PriceLine, opts PricingOptions) (Totals, error) {
	subtotal, err := CalculateSubtotal(lines)
	if err != nil {
		return Totals{}, err
	}

	discount, discounted := c.ApplyCouponDiscount(subtotal, opts.CouponCode)
	tax := discounted.Mul(c.TaxRate(opts.Jurisdiction))

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Total:    discounted.Add(tax),
	}, nil
}
