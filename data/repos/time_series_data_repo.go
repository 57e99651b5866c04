package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	m "tsa/data/models"
	q "tsa/data/queries"
)

var timeSeriesDataColumns = []string{
	"source_id", "timestamp", "open", "high", "low", "close",
	"volume", "adjusted_close", "dividend_amount", "split_coefficient",
}

func (pg *Postgres) GetTimeSeriesData(ctx context.Context, symbol string) ([]*m.TimeSeriesData, error) {
	args := pgx.NamedArgs{
		"symbol": symbol,
	}

	res, err := Query[m.TimeSeriesData](ctx, pg, q.Get(q.QueryHelper.Select.TimeSeriesData), args)
	if err != nil {
		return nil, fmt.Errorf("unable to query data by symbol (%s): %w", symbol, err)
	}
	return res, nil
}

// GetMostRecentTimestampForSymbol returns nil when nothing is stored for the symbol.
func (pg *Postgres) GetMostRecentTimestampForSymbol(ctx context.Context, symbol string) (*time.Time, error) {
	args := pgx.NamedArgs{
		"symbol": symbol,
	}

	var res *time.Time
	if err := pg.db.QueryRow(ctx, q.Get(q.QueryHelper.Select.MostRecentTimestampBySymbol), args).Scan(&res); err != nil {
		return nil, fmt.Errorf("unable to query most recent timestamp (%s): %w", symbol, err)
	}
	return res, nil
}

// InsertTimeSeriesData copies bars into av_time_series_data. When sourceId is set
// it overrides the SourceId carried by each row.
func (pg *Postgres) InsertTimeSeriesData(ctx context.Context, data []*m.TimeSeriesData, sourceId *int32, tx *pgx.Tx) (int64, error) {
	entries := make([][]any, len(data))
	for i, ent := range data {
		id := ent.SourceId
		if sourceId != nil {
			id = *sourceId
		}
		entries[i] = []any{
			id, ent.Timestamp, ent.Open, ent.High, ent.Low, ent.Close,
			ent.Volume, ent.AdjustedClose, ent.DividendAmount, ent.SplitCoefficient,
		}
	}

	return pg.BulkInsert(ctx, "av_time_series_data", timeSeriesDataColumns, entries, tx)
}

// GetPricePanel returns the stored bars for symbols between start and end, both
// dates inclusive, ordered by symbol then timestamp.
func (pg *Postgres) GetPricePanel(ctx context.Context, symbols []string, start, end time.Time) ([]*m.PriceObservation, error) {
	args := pgx.NamedArgs{
		"symbols":    symbols,
		"start_date": start,
		"end_date":   end,
	}

	res, err := Query[m.PriceObservation](ctx, pg, q.Get(q.QueryHelper.Select.PricePanel), args)
	if err != nil {
		return nil, fmt.Errorf("unable to query price panel for %v: %w", symbols, err)
	}
	return res, nil
}
