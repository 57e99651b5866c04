package calculators

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"tsa/data/frame"
	m "tsa/data/models"
)

// providerColumns maps provider style headers onto the panel column names.
var providerColumns = map[string]string{
	"Date":         m.BusinessDate,
	"Ticker":       m.Ticker,
	"Open":         m.Open,
	"High":         m.High,
	"Low":          m.Low,
	"Close":        m.Close,
	"Volume":       m.Volume,
	"Dividends":    m.Dividends,
	"Stock Splits": m.StockSplits,
}

var stockDataSchema = frame.Schema{
	{Name: m.BusinessDate, Type: frame.Date},
	{Name: m.Ticker, Type: frame.Utf8},
	{Name: m.Close, Type: frame.Float64},
	{Name: m.Dividends, Type: frame.Float64},
	{Name: m.High, Type: frame.Float64},
	{Name: m.Low, Type: frame.Float64},
	{Name: m.Open, Type: frame.Float64},
	{Name: m.StockSplits, Type: frame.Float64},
	{Name: m.Volume, Type: frame.Float64},
}

// StockDataCalculator fetches the raw price panel for a config and normalizes
// column names and numeric types.
type StockDataCalculator struct {
	config CalculatorConfig
	source PriceSource
	logger zerolog.Logger
}

func NewStockDataCalculator(config CalculatorConfig, source PriceSource, logger zerolog.Logger) *StockDataCalculator {
	return &StockDataCalculator{
		config: config,
		source: source,
		logger: logger,
	}
}

func (c *StockDataCalculator) OutputSchema() frame.Schema {
	return stockDataSchema
}

// Calculate does not retry, errors from the source are returned as is.
func (c *StockDataCalculator) Calculate(ctx context.Context) (*frame.Frame, error) {
	c.logger.Debug().
		Strs("tickers", c.config.Tickers()).
		Time("start", c.config.Start()).
		Time("end", c.config.End()).
		Msg("fetching price panel")

	raw, err := c.source.FetchPricePanel(ctx, c.config.Tickers(), c.config.Start(), c.config.End())
	if err != nil {
		return nil, err
	}

	res, err := raw.Rename(providerColumns)
	if err != nil {
		return nil, fmt.Errorf("error renaming provider columns: %w", err)
	}

	for _, field := range stockDataSchema {
		if field.Type != frame.Float64 {
			continue
		}
		col, err := res.Column(field.Name)
		if err != nil || col.Type() != frame.Int64 {
			continue
		}
		if res, err = res.Cast(field.Name, frame.Float64); err != nil {
			return nil, err
		}
	}

	c.logger.Debug().Int("rows", res.Height()).Msg("fetched price panel")
	return res, nil
}
