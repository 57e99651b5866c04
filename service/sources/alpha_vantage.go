package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tsa/data/frame"
	m "tsa/data/models"
)

const DefaultWorkers = 4

// Frequency is the bar size requested from alpha vantage.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return f, nil
	case "":
		return FrequencyDaily, nil
	default:
		return "", fmt.Errorf("unknown price frequency %q", s)
	}
}

// SeriesClient is the slice of the alpha vantage client an AlphaVantageSource needs.
type SeriesClient interface {
	GetStockDailyAdjustedMetrics(ctx context.Context, ticker string) (*m.TimeSeriesResult, error)
	GetStockWeeklyAdjustedMetrics(ctx context.Context, ticker string) (*m.TimeSeriesResult, error)
	GetStockMonthlyAdjustedMetrics(ctx context.Context, ticker string) (*m.TimeSeriesResult, error)
}

type AlphaVantageOption func(*AlphaVantageSource)

// WithFrequency selects the series to download, empty keeps daily.
func WithFrequency(frequency Frequency) AlphaVantageOption {
	return func(s *AlphaVantageSource) {
		if frequency != "" {
			s.frequency = frequency
		}
	}
}

func WithWorkers(workers int) AlphaVantageOption {
	return func(s *AlphaVantageSource) {
		if workers > 0 {
			s.workers = workers
		}
	}
}

func WithLogger(logger zerolog.Logger) AlphaVantageOption {
	return func(s *AlphaVantageSource) {
		s.logger = logger
	}
}

// AlphaVantageSource downloads the full adjusted history of every ticker at
// the configured frequency and keeps the requested window. The adjusted close
// is reported as CLOSE when alpha vantage provides one.
type AlphaVantageSource struct {
	client    SeriesClient
	frequency Frequency
	workers   int
	logger    zerolog.Logger
}

func NewAlphaVantageSource(client SeriesClient, opts ...AlphaVantageOption) *AlphaVantageSource {
	s := &AlphaVantageSource{
		client:    client,
		frequency: FrequencyDaily,
		workers:   DefaultWorkers,
		logger:    zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *AlphaVantageSource) Frequency() Frequency {
	return s.frequency
}

func (s *AlphaVantageSource) fetch(ctx context.Context, ticker string) (*m.TimeSeriesResult, error) {
	switch s.frequency {
	case FrequencyDaily:
		return s.client.GetStockDailyAdjustedMetrics(ctx, ticker)
	case FrequencyWeekly:
		return s.client.GetStockWeeklyAdjustedMetrics(ctx, ticker)
	case FrequencyMonthly:
		return s.client.GetStockMonthlyAdjustedMetrics(ctx, ticker)
	default:
		return nil, fmt.Errorf("unknown price frequency %q", s.frequency)
	}
}

func (s *AlphaVantageSource) FetchPricePanel(ctx context.Context, tickers []string, start, end time.Time) (*frame.Frame, error) {
	results := make([][]*m.PriceObservation, len(tickers))

	// a failed ticker cancels the rest
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, ticker := range tickers {
		g.Go(func() error {
			tsr, err := s.fetch(ctx, ticker)
			if err != nil {
				return fmt.Errorf("error fetching %s from alpha vantage: %w", ticker, err)
			}
			results[i] = toObservations(ticker, tsr.TimeSeries, start, end)

			s.logger.Debug().
				Str("ticker", ticker).
				Str("frequency", string(s.frequency)).
				Int("received", len(tsr.TimeSeries)).
				Int("kept", len(results[i])).
				Msg("alpha vantage series fetched")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var obs []*m.PriceObservation
	for _, r := range results {
		obs = append(obs, r...)
	}

	return BuildPanel(obs)
}

func toObservations(ticker string, series []*m.TimeSeriesData, start, end time.Time) []*m.PriceObservation {
	res := make([]*m.PriceObservation, 0, len(series))
	for _, ts := range series {
		if !inRange(ts.Timestamp, start, end) {
			continue
		}

		price := ts.Close
		if ts.AdjustedClose.Valid {
			price = ts.AdjustedClose
		}

		res = append(res, &m.PriceObservation{
			Ticker:       ticker,
			BusinessDate: ts.Timestamp,
			Open:         ts.Open,
			High:         ts.High,
			Low:          ts.Low,
			Close:        price,
			Volume:       ts.Volume,
			Dividends:    ts.DividendAmount,
			StockSplits:  ts.SplitCoefficient,
		})
	}
	return res
}
