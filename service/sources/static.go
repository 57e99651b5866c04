package sources

import (
	"context"
	"slices"
	"time"

	"tsa/data/frame"
	m "tsa/data/models"
	"tsa/service/calculators"
)

// StaticSource serves a fixed in-memory panel.
type StaticSource struct {
	panel *frame.Frame
}

func NewStaticSource(obs []*m.PriceObservation) (*StaticSource, error) {
	panel, err := BuildPanel(obs)
	if err != nil {
		return nil, err
	}
	return &StaticSource{panel: panel}, nil
}

// NewStaticSourceFromFrame wraps an existing panel, which must hold a Date
// BUSINESS_DATE and a Utf8 TICKER. Other columns are checked downstream.
func NewStaticSourceFromFrame(panel *frame.Frame) (*StaticSource, error) {
	keys := frame.Schema{
		{Name: m.BusinessDate, Type: frame.Date},
		{Name: m.Ticker, Type: frame.Utf8},
	}
	for _, field := range keys {
		c, err := panel.Column(field.Name)
		if err != nil {
			return nil, &calculators.SchemaError{Column: field.Name, Expected: field.Type, Missing: true}
		}
		if c.Type() != field.Type {
			return nil, &calculators.SchemaError{Column: field.Name, Expected: field.Type, Actual: c.Type()}
		}
	}
	return &StaticSource{panel: panel}, nil
}

func (s *StaticSource) FetchPricePanel(ctx context.Context, tickers []string, start, end time.Time) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dates, _ := s.panel.Column(m.BusinessDate)
	symbols, _ := s.panel.Column(m.Ticker)

	return s.panel.Filter(func(i int) bool {
		return slices.Contains(tickers, symbols.Str(i)) && inRange(dates.Date(i), start, end)
	}), nil
}
