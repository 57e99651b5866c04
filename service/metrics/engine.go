package metrics

import (
	"fmt"
	"math"
	"slices"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"tsa/data/frame"
	m "tsa/data/models"
	"tsa/service/calculators"
)

// Step enriches a table with one more column.
type Step func(*frame.Frame) (*frame.Frame, error)

type Option func(*Engine)

func WithPartition(column string) Option {
	return func(e *Engine) {
		e.partition = column
	}
}

func WithAnnualizationFactor(factor int) Option {
	return func(e *Engine) {
		e.factor = factor
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine computes per partition statistics over a returns table. Aggregates
// skip null rows, a NaN input makes the aggregate NaN.
type Engine struct {
	partition string
	factor    int
	logger    zerolog.Logger
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		partition: m.Ticker,
		factor:    Daily,
		logger:    zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *Engine) Partition() string {
	return e.partition
}

func (e *Engine) AnnualizationFactor() int {
	return e.factor
}

// Run applies steps in order, stopping at the first error.
func (e *Engine) Run(f *frame.Frame, steps ...Step) (*frame.Frame, error) {
	var err error
	for i, step := range steps {
		if f, err = step(f); err != nil {
			return nil, fmt.Errorf("metrics step %d: %w", i+1, err)
		}
	}
	e.logger.Debug().Int("steps", len(steps)).Int("rows", f.Height()).Strs("columns", f.Columns()).Msg("metrics pipeline complete")
	return f, nil
}

// Standard is the usual enrichment order ending in the sharpe ratio.
func (e *Engine) Standard(riskFreeRate float64) []Step {
	return []Step{
		e.MeanReturn,
		e.StdDevReturn,
		e.CumulativeReturn,
		e.SquaredDiff,
		e.RealizedVariance,
		e.RealizedVolatility,
		e.AnnualizedReturn,
		e.AnnualizedRealizedVolatility,
		func(f *frame.Frame) (*frame.Frame, error) { return e.WithRiskFreeRate(f, riskFreeRate) },
		e.SharpeRatio,
	}
}

// MeanReturn is the arithmetic mean of LOG_RETURN per partition.
func (e *Engine) MeanReturn(f *frame.Frame) (*frame.Frame, error) {
	return e.aggregate(f, m.LogReturn, m.MeanReturn, func(values []float64) null.Float {
		if len(values) == 0 {
			return null.Float{}
		}
		return null.FloatFrom(stat.Mean(values, nil))
	})
}

// StdDevReturn is the sample (n-1) standard deviation of LOG_RETURN per partition.
func (e *Engine) StdDevReturn(f *frame.Frame) (*frame.Frame, error) {
	return e.aggregate(f, m.LogReturn, m.StdDevReturn, func(values []float64) null.Float {
		if len(values) < 2 {
			return null.Float{}
		}
		return null.FloatFrom(stat.StdDev(values, nil))
	})
}

// CumulativeReturn is the running sum of LOG_RETURN per partition in date
// order, so on row t it equals ln(close_t / close_0).
func (e *Engine) CumulativeReturn(f *frame.Frame) (*frame.Frame, error) {
	in, parts, err := e.sequenced(f, m.LogReturn)
	if err != nil {
		return nil, err
	}

	out := make([]null.Float, f.Height())
	for _, p := range parts {
		sum := 0.0
		for _, row := range p.Rows {
			if !in[row].Valid {
				continue
			}
			sum += in[row].Float64
			out[row] = null.FloatFrom(sum)
		}
	}

	return f.WithColumns(frame.NewFloats(m.CumulativeReturn, out))
}

func (e *Engine) AbsLogReturn(f *frame.Frame) (*frame.Frame, error) {
	return e.rowwise(f, m.AbsLogReturn, []string{m.LogReturn}, func(v []float64) float64 {
		return math.Abs(v[0])
	})
}

// SquaredDiff is (LOG_RETURN - MEAN_RETURN)^2 per row.
func (e *Engine) SquaredDiff(f *frame.Frame) (*frame.Frame, error) {
	return e.rowwise(f, m.SquaredDiff, []string{m.LogReturn, m.MeanReturn}, func(v []float64) float64 {
		return math.Pow(v[0]-v[1], 2)
	})
}

// RealizedVariance is the plug-in mean of SQUARED_DIFF, divided by n not n-1.
func (e *Engine) RealizedVariance(f *frame.Frame) (*frame.Frame, error) {
	return e.aggregate(f, m.SquaredDiff, m.RealizedVariance, func(values []float64) null.Float {
		if len(values) == 0 {
			return null.Float{}
		}
		return null.FloatFrom(stat.Mean(values, nil))
	})
}

func (e *Engine) RealizedVolatility(f *frame.Frame) (*frame.Frame, error) {
	return e.rowwise(f, m.RealizedVolatility, []string{m.RealizedVariance}, func(v []float64) float64 {
		return math.Sqrt(v[0])
	})
}

// AnnualizedReturn compounds the mean period return: (1 + MEAN_RETURN)^factor - 1.
func (e *Engine) AnnualizedReturn(f *frame.Frame) (*frame.Frame, error) {
	factor := float64(e.factor)
	return e.rowwise(f, m.AnnualizedReturn, []string{m.MeanReturn}, func(v []float64) float64 {
		return math.Pow(1+v[0], factor) - 1
	})
}

func (e *Engine) AnnualizedRealizedVolatility(f *frame.Frame) (*frame.Frame, error) {
	scale := math.Sqrt(float64(e.factor))
	return e.rowwise(f, m.AnnualizedRealizedVolatility, []string{m.RealizedVolatility}, func(v []float64) float64 {
		return v[0] * scale
	})
}

// WithRiskFreeRate adds a constant ANNUALIZED_RISK_FREE_RATE column.
func (e *Engine) WithRiskFreeRate(f *frame.Frame, rate float64) (*frame.Frame, error) {
	values := make([]float64, f.Height())
	for i := range values {
		values[i] = rate
	}
	return f.WithColumns(frame.FromFloat64s(m.AnnualizedRiskFreeRate, values))
}

// SharpeRatio is (ANNUALIZED_RETURN - ANNUALIZED_RISK_FREE_RATE) / ANNUALIZED_REALIZED_VOLATILITY.
// Zero volatility gives NaN.
func (e *Engine) SharpeRatio(f *frame.Frame) (*frame.Frame, error) {
	deps := []string{m.AnnualizedReturn, m.AnnualizedRiskFreeRate, m.AnnualizedRealizedVolatility}
	return e.rowwise(f, m.SharpeRatio, deps, func(v []float64) float64 {
		return (v[0] - v[1]) / v[2]
	})
}

// input fetches a Float64 dependency column and the partitions of f.
func (e *Engine) input(f *frame.Frame, column string) ([]null.Float, []frame.Partition, error) {
	if err := requireFloat(f, column); err != nil {
		return nil, nil, err
	}
	col, err := f.Column(column)
	if err != nil {
		return nil, nil, err
	}
	parts, err := f.Partitions(e.partition)
	if err != nil {
		return nil, nil, &calculators.SchemaError{Column: e.partition, Expected: frame.Utf8, Missing: true}
	}
	return col.Floats(), parts, nil
}

// sequenced is input with the rows of every partition ordered by BUSINESS_DATE,
// ties keep their row order.
func (e *Engine) sequenced(f *frame.Frame, column string) ([]null.Float, []frame.Partition, error) {
	in, parts, err := e.input(f, column)
	if err != nil {
		return nil, nil, err
	}
	dates, err := requireDates(f)
	if err != nil {
		return nil, nil, err
	}

	for i := range parts {
		rows := slices.Clone(parts[i].Rows)
		slices.SortStableFunc(rows, func(a, b int) int { return dates.Date(a).Compare(dates.Date(b)) })
		parts[i].Rows = rows
	}
	return in, parts, nil
}

// aggregate reduces the valid values of column per partition and broadcasts the
// result to every row of that partition.
func (e *Engine) aggregate(f *frame.Frame, column, output string, reduce func([]float64) null.Float) (*frame.Frame, error) {
	in, parts, err := e.input(f, column)
	if err != nil {
		return nil, err
	}

	out := make([]null.Float, f.Height())
	for _, p := range parts {
		values := make([]float64, 0, len(p.Rows))
		for _, row := range p.Rows {
			if in[row].Valid {
				values = append(values, in[row].Float64)
			}
		}
		res := normalize(reduce(values))
		for _, row := range p.Rows {
			out[row] = res
		}
	}

	return f.WithColumns(frame.NewFloats(output, out))
}

// rowwise applies fn to each row where every dependency is set.
func (e *Engine) rowwise(f *frame.Frame, output string, deps []string, fn func([]float64) float64) (*frame.Frame, error) {
	cols := make([][]null.Float, len(deps))
	for i, dep := range deps {
		if err := requireFloat(f, dep); err != nil {
			return nil, err
		}
		col, _ := f.Column(dep)
		cols[i] = col.Floats()
	}

	out := make([]null.Float, f.Height())
	args := make([]float64, len(deps))
	for row := range out {
		valid := true
		for i := range cols {
			if !cols[i][row].Valid {
				valid = false
				break
			}
			args[i] = cols[i][row].Float64
		}
		if valid {
			out[row] = normalize(null.FloatFrom(fn(args)))
		}
	}

	return f.WithColumns(frame.NewFloats(output, out))
}

func requireFloat(f *frame.Frame, column string) error {
	col, err := f.Column(column)
	if err != nil {
		return &calculators.SchemaError{Column: column, Expected: frame.Float64, Missing: true}
	}
	if col.Type() != frame.Float64 {
		return &calculators.SchemaError{Column: column, Expected: frame.Float64, Actual: col.Type()}
	}
	return nil
}

func requireDates(f *frame.Frame) (frame.Series, error) {
	dates, err := f.Column(m.BusinessDate)
	if err != nil {
		return frame.Series{}, &calculators.SchemaError{Column: m.BusinessDate, Expected: frame.Date, Missing: true}
	}
	if dates.Type() != frame.Date {
		return frame.Series{}, &calculators.SchemaError{Column: m.BusinessDate, Expected: frame.Date, Actual: dates.Type()}
	}
	return dates, nil
}

// normalize folds infinities into NaN.
func normalize(v null.Float) null.Float {
	if v.Valid && math.IsInf(v.Float64, 0) {
		return null.FloatFrom(math.NaN())
	}
	return v
}
