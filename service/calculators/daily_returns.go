package calculators

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tsa/data/frame"
	m "tsa/data/models"
)

// DefaultBuffer is how far before start prices are fetched so the first day in
// the window has a prior close.
const DefaultBuffer = 7 * 24 * time.Hour

var dailyReturnsSchema = frame.Schema{
	{Name: m.BusinessDate, Type: frame.Date},
	{Name: m.Ticker, Type: frame.Utf8},
	{Name: m.Close, Type: frame.Float64},
	{Name: m.LogReturn, Type: frame.Float64},
	{Name: m.ArithmeticReturn, Type: frame.Float64},
}

type DailyReturnsOption func(*DailyReturnsCalculator)

// WithBuffer overrides the lookback fetched ahead of start. A gap between
// trading days longer than the buffer leaves the first row in the window null.
func WithBuffer(buffer time.Duration) DailyReturnsOption {
	return func(c *DailyReturnsCalculator) {
		c.buffer = buffer
	}
}

func WithLogger(logger zerolog.Logger) DailyReturnsOption {
	return func(c *DailyReturnsCalculator) {
		c.logger = logger
	}
}

// DailyReturnsCalculator computes per ticker daily log and arithmetic returns
// for the configured window.
type DailyReturnsCalculator struct {
	config CalculatorConfig
	source PriceSource
	buffer time.Duration
	logger zerolog.Logger
}

func NewDailyReturnsCalculator(config CalculatorConfig, source PriceSource, opts ...DailyReturnsOption) (*DailyReturnsCalculator, error) {
	c := &DailyReturnsCalculator{
		config: config,
		source: source,
		buffer: DefaultBuffer,
		logger: zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.buffer < 0 {
		return nil, &ValidationError{Field: "buffer", Message: "buffer must not be negative", Value: c.buffer}
	}

	return c, nil
}

func (c *DailyReturnsCalculator) OutputSchema() frame.Schema {
	return dailyReturnsSchema
}

func (c *DailyReturnsCalculator) Buffer() time.Duration {
	return c.buffer
}

func (c *DailyReturnsCalculator) Calculate(ctx context.Context) (*frame.Frame, error) {
	buffered, err := NewCalculatorConfig(c.config.Start().Add(-c.buffer), c.config.End(), c.config.Tickers())
	if err != nil {
		return nil, fmt.Errorf("error building buffered config: %w", err)
	}

	prices, err := Execute(ctx, NewStockDataCalculator(buffered, c.source, c.logger))
	if err != nil {
		return nil, err
	}

	returns, err := ComputeReturns(prices)
	if err != nil {
		return nil, err
	}

	startDate, endDate := frame.ToDate(c.config.Start()), frame.ToDate(c.config.End())
	dates, err := returns.Column(m.BusinessDate)
	if err != nil {
		return nil, err
	}

	trimmed := returns.Filter(func(i int) bool {
		d := dates.Date(i)
		return !d.Before(startDate) && !d.After(endDate)
	})

	c.logger.Info().
		Str("config", c.config.String()).
		Int("fetched", prices.Height()).
		Int("rows", trimmed.Height()).
		Msg("daily returns calculated")

	return trimmed, nil
}
