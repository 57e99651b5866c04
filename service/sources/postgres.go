package sources

import (
	"context"
	"fmt"
	"time"

	"tsa/data/frame"
	m "tsa/data/models"
)

// PanelReader is the slice of the postgres repository a PostgresSource needs.
type PanelReader interface {
	GetPricePanel(ctx context.Context, symbols []string, start, end time.Time) ([]*m.PriceObservation, error)
}

// PostgresSource reads prices previously synced into av_time_series_data.
type PostgresSource struct {
	reader PanelReader
}

func NewPostgresSource(reader PanelReader) *PostgresSource {
	return &PostgresSource{reader: reader}
}

func (s *PostgresSource) FetchPricePanel(ctx context.Context, tickers []string, start, end time.Time) (*frame.Frame, error) {
	obs, err := s.reader.GetPricePanel(ctx, tickers, start, end)
	if err != nil {
		return nil, fmt.Errorf("error reading price panel: %w", err)
	}
	return BuildPanel(obs)
}
