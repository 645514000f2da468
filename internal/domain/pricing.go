package domain

import "github.com/shopspring/decimal"

var (
	TaxRate = decimal.RequireFromString("0.05")

	shippingFees = map[ShippingMethod]decimal.Decimal{
		ShipExpress:  decimal.NewFromInt(120),
		ShipStandard: decimal.NewFromInt(60),
		ShipFree:     decimal.Zero,
	}
)

type Line struct {
	ProductID string
	Name      string
	Quantity  int
	Price     decimal.Decimal
}

type Totals struct {
	Subtotal    decimal.Decimal
	ShippingFee decimal.Decimal
	Tax         decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
}

func ShippingFee(m ShippingMethod) decimal.Decimal {
	return shippingFees[m]
}

// ComputeTotals prices a checkout. Discount is always zero at creation.
func ComputeTotals(lines []Line, m ShippingMethod) Totals {
	sub := decimal.Zero
	for _, l := range lines {
		sub = sub.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	t := Totals{
		Subtotal:    sub,
		ShippingFee: ShippingFee(m),
		Tax:         sub.Mul(TaxRate).Round(2),
		Discount:    decimal.Zero,
	}
	t.Total = t.Subtotal.Add(t.ShippingFee).Add(t.Tax).Sub(t.Discount)
	return t
}
