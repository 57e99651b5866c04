package calculators

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/require"

	"tsa/data/frame"
	m "tsa/data/models"
)

type priceRow struct {
	date   time.Time
	ticker string
	close  float64
}

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

// panel builds a full price panel, a NaN close is stored as null.
func panel(t *testing.T, rows ...priceRow) *frame.Frame {
	t.Helper()
	dates := make([]time.Time, len(rows))
	tickers := make([]string, len(rows))
	closes := make([]null.Float, len(rows))
	for i, r := range rows {
		dates[i] = r.date
		tickers[i] = r.ticker
		if !math.IsNaN(r.close) {
			closes[i] = null.FloatFrom(r.close)
		}
	}

	empty := make([]null.Float, len(rows))
	f, err := frame.New(
		frame.NewDates(m.BusinessDate, dates),
		frame.NewStrings(m.Ticker, tickers),
		frame.NewFloats(m.Close, closes),
		frame.NewFloats(m.Dividends, empty),
		frame.NewFloats(m.High, closes),
		frame.NewFloats(m.Low, closes),
		frame.NewFloats(m.Open, closes),
		frame.NewFloats(m.StockSplits, empty),
		frame.NewFloats(m.Volume, empty),
	)
	require.NoError(t, err)
	return f
}

type request struct {
	tickers    []string
	start, end time.Time
}

// fakeSource serves rows from a fixed panel, honouring the requested date range.
type fakeSource struct {
	panel    *frame.Frame
	err      error
	requests []request
}

func (s *fakeSource) FetchPricePanel(ctx context.Context, tickers []string, start, end time.Time) (*frame.Frame, error) {
	s.requests = append(s.requests, request{tickers, start, end})
	if s.err != nil {
		return nil, s.err
	}

	dates, err := s.panel.Column(m.BusinessDate)
	if err != nil {
		return s.panel, nil
	}
	from, to := frame.ToDate(start), frame.ToDate(end)
	return s.panel.Filter(func(i int) bool {
		d := dates.Date(i)
		return !d.Before(from) && !d.After(to)
	}), nil
}

func floatsOf(t *testing.T, f *frame.Frame, name string) []null.Float {
	t.Helper()
	c, err := f.Column(name)
	require.NoError(t, err)
	return c.Floats()
}

func stringsOf(t *testing.T, f *frame.Frame, name string) []string {
	t.Helper()
	c, err := f.Column(name)
	require.NoError(t, err)
	return c.Strings()
}

func datesOf(t *testing.T, f *frame.Frame, name string) []time.Time {
	t.Helper()
	c, err := f.Column(name)
	require.NoError(t, err)
	return c.Dates()
}
