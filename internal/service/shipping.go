package service

import (
	"strings"

	"github.com/chogo-next/internal/config"
	"github.com/chogo-next/internal/models"

	"github.com/shopspring/decimal"
)

// ShippingCalculator prices shipping for one sub-order.
type ShippingCalculator interface {
	Fee(shopID uint, itemCount int) models.Money
}

// FlatShippingCalculator base fee per sub-order plus a per-unit fee for
// every unit beyond the first.
type FlatShippingCalculator struct {
	baseFee    decimal.Decimal
	perItemFee decimal.Decimal
}

// NewFlatShippingCalculator builds the calculator from config. Unparseable
// fees fall back to zero.
func NewFlatShippingCalculator(cfg *config.ShippingConfig) *FlatShippingCalculator {
	calc := &FlatShippingCalculator{}
	if cfg != nil {
		calc.baseFee = parseFee(cfg.BaseFee)
		calc.perItemFee = parseFee(cfg.PerItemFee)
	}
	return calc
}

// Fee prices shipping for a sub-order with itemCount total units
func (c *FlatShippingCalculator) Fee(shopID uint, itemCount int) models.Money {
	if itemCount <= 0 {
		return models.NewMoneyFromDecimal(decimal.Zero)
	}
	extra := decimal.NewFromInt(int64(itemCount - 1)).Mul(c.perItemFee)
	return models.NewMoneyFromDecimal(c.baseFee.Add(extra))
}

func parseFee(raw string) decimal.Decimal {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}
