package calculators

import (
	"math"

	"github.com/guregu/null/v6"

	"tsa/data/frame"
	m "tsa/data/models"
)

var returnsInputSchema = frame.Schema{
	{Name: m.BusinessDate, Type: frame.Date},
	{Name: m.Ticker, Type: frame.Utf8},
	{Name: m.Close, Type: frame.Float64},
}

// ComputeReturns sorts the panel by ticker then date and appends LOG_RETURN and
// ARITHMETIC_RETURN computed within each ticker. The first row of a ticker, and
// any row next to a missing close, is null. A non finite result such as a zero
// or negative price is kept as NaN.
func ComputeReturns(prices *frame.Frame) (*frame.Frame, error) {
	if err := requireColumns(prices, returnsInputSchema); err != nil {
		return nil, err
	}

	sorted, err := prices.SortBy(m.Ticker, m.BusinessDate)
	if err != nil {
		return nil, err
	}

	partitions, err := sorted.Partitions(m.Ticker)
	if err != nil {
		return nil, err
	}

	closeCol, err := sorted.Column(m.Close)
	if err != nil {
		return nil, err
	}
	closes := closeCol.Floats()

	logReturns := make([]null.Float, sorted.Height())
	arithReturns := make([]null.Float, sorted.Height())

	for _, p := range partitions {
		for i := 1; i < len(p.Rows); i++ {
			prev, cur := closes[p.Rows[i-1]], closes[p.Rows[i]]
			if !prev.Valid || !cur.Valid {
				continue
			}
			row := p.Rows[i]
			logReturns[row] = finiteOrNaN(math.Log(cur.Float64) - math.Log(prev.Float64))
			arithReturns[row] = finiteOrNaN((cur.Float64 - prev.Float64) / prev.Float64)
		}
	}

	return sorted.WithColumns(
		frame.NewFloats(m.LogReturn, logReturns),
		frame.NewFloats(m.ArithmeticReturn, arithReturns),
	)
}

func finiteOrNaN(v float64) null.Float {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return null.FloatFrom(math.NaN())
	}
	return null.FloatFrom(v)
}
