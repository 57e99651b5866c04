package sources

import (
	"slices"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"tsa/data/frame"
	m "tsa/data/models"
)

// PanelSchema is the column layout every source in this package returns.
var PanelSchema = frame.Schema{
	{Name: m.BusinessDate, Type: frame.Date},
	{Name: m.Ticker, Type: frame.Utf8},
	{Name: m.Open, Type: frame.Float64},
	{Name: m.High, Type: frame.Float64},
	{Name: m.Low, Type: frame.Float64},
	{Name: m.Close, Type: frame.Float64},
	{Name: m.Volume, Type: frame.Float64},
	{Name: m.Dividends, Type: frame.Float64},
	{Name: m.StockSplits, Type: frame.Float64},
}

// BuildPanel turns observation rows into a long format price panel, ordered by
// ticker then date.
func BuildPanel(obs []*m.PriceObservation) (*frame.Frame, error) {
	rows := slices.Clone(obs)
	slices.SortStableFunc(rows, func(a, b *m.PriceObservation) int {
		if c := strings.Compare(a.Ticker, b.Ticker); c != 0 {
			return c
		}
		return a.BusinessDate.Compare(b.BusinessDate)
	})

	n := len(rows)
	var (
		dates     = make([]time.Time, n)
		tickers   = make([]string, n)
		open      = make([]null.Float, n)
		high      = make([]null.Float, n)
		low       = make([]null.Float, n)
		closes    = make([]null.Float, n)
		volume    = make([]null.Float, n)
		dividends = make([]null.Float, n)
		splits    = make([]null.Float, n)
	)

	for i, o := range rows {
		dates[i] = calendarDate(o.BusinessDate)
		tickers[i] = o.Ticker
		open[i] = o.Open
		high[i] = o.High
		low[i] = o.Low
		closes[i] = o.Close
		volume[i] = o.Volume
		dividends[i] = o.Dividends
		splits[i] = o.StockSplits
	}

	return frame.New(
		frame.NewDates(m.BusinessDate, dates),
		frame.NewStrings(m.Ticker, tickers),
		frame.NewFloats(m.Open, open),
		frame.NewFloats(m.High, high),
		frame.NewFloats(m.Low, low),
		frame.NewFloats(m.Close, closes),
		frame.NewFloats(m.Volume, volume),
		frame.NewFloats(m.Dividends, dividends),
		frame.NewFloats(m.StockSplits, splits),
	)
}

// calendarDate keeps the wall clock date of t in its own location, so a bar
// stamped midnight New York stays on the same day.
func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// inRange reports whether t falls on a calendar day between start and end, both inclusive.
func inRange(t, start, end time.Time) bool {
	d := calendarDate(t)
	return !d.Before(frame.ToDate(start)) && !d.After(frame.ToDate(end))
}
