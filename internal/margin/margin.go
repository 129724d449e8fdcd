// Package margin computes per-marketplace fees, profit and margin for a
// sale price.
package margin

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/guarzo/sellermargin/internal/model"
)

var (
	// markets8 is the full comparison table.
	markets8 = model.FeeTable{
		{Market: "스마트스토어", Rate: 6.6},
		{Market: "쿠팡", Rate: 8.0},
		{Market: "11번가", Rate: 8.0},
		{Market: "G마켓", Rate: 9.0},
		{Market: "옥션", Rate: 9.0},
		{Market: "위메프", Rate: 6.0},
		{Market: "티몬", Rate: 6.0},
		{Market: "카카오쇼핑", Rate: 5.5},
	}

	// legacy3 is the older three-market table kept for /analyze.
	legacy3 = model.FeeTable{
		{Market: "스마트스토어", Rate: 6.6},
		{Market: "쿠팡", Rate: 8.0},
		{Market: "오픈마켓", Rate: 15.0},
	}

	hundred = decimal.NewFromInt(100)
)

// Markets8 returns a copy of the eight-marketplace fee table.
func Markets8() model.FeeTable {
	return slices.Clone(markets8)
}

// Legacy3 returns a copy of the three-marketplace fee table.
func Legacy3() model.FeeTable {
	return slices.Clone(legacy3)
}

// Costs are the seller-side expenses for one unit.
type Costs struct {
	Cost             float64
	SupplierShipping float64
	MarketShipping   float64
}

// Calculate returns the breakdown for one marketplace. Money is rounded
// to whole won and margin to one decimal, both half to even. A sale price
// of zero or less yields an all-zero result.
func Calculate(market string, sale, feeRate float64, c Costs) model.MarginResult {
	if sale <= 0 {
		return model.MarginResult{Market: market}
	}

	s := decimal.NewFromFloat(sale)
	fee := s.Mul(decimal.NewFromFloat(feeRate)).Div(hundred)
	totalCost := decimal.NewFromFloat(c.Cost).Add(decimal.NewFromFloat(c.SupplierShipping))
	profit := s.Sub(fee).Sub(decimal.NewFromFloat(c.MarketShipping)).Sub(totalCost)
	pct, _ := profit.Div(s).Mul(hundred).RoundBank(1).Float64()

	return model.MarginResult{
		Market: market,
		Sale:   s.RoundBank(0).IntPart(),
		Fee:    fee.RoundBank(0).IntPart(),
		Profit: profit.RoundBank(0).IntPart(),
		Margin: pct,
	}
}

// Calculator applies a fixed fee table. It holds no mutable state, so one
// value can price any number of sale points.
type Calculator struct {
	fees model.FeeTable
}

// NewCalculator copies fees into a new Calculator.
func NewCalculator(fees model.FeeTable) Calculator {
	return Calculator{fees: slices.Clone(fees)}
}

// Table computes every marketplace at sale, in fee table order.
func (c Calculator) Table(sale float64, costs Costs) model.MarginTable {
	out := make(model.MarginTable, 0, len(c.fees))
	for _, f := range c.fees {
		out = append(out, Calculate(f.Market, sale, f.Rate, costs))
	}
	return out
}

// Compare computes the table and names the marketplace with the highest
// margin. Ties go to the marketplace listed first.
func (c Calculator) Compare(sale float64, costs Costs) (model.MarginTable, string) {
	table := c.Table(sale, costs)
	return table, Best(table)
}

// Best returns the market with the highest margin, first one on ties, or
// "" for an empty table.
func Best(table model.MarginTable) string {
	best := -1
	for i, r := range table {
		if best < 0 || r.Margin > table[best].Margin {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return table[best].Market
}
