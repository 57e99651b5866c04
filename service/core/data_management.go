package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	ex "tsa/data/extensions"
	m "tsa/data/models"
	sm "tsa/service/models"
)

var ErrRecentlyRefreshed = errors.New("symbol was refreshed recently")

// SyncCooldown is the minimum time between two syncs of the same symbol.
const SyncCooldown = 7 * 24 * time.Hour

// ListSymbols returns every symbol synced into postgres, ordered by symbol.
func (sc *ServiceContext) ListSymbols(ctx context.Context) ([]sm.SymbolResponse, error) {
	if sc.PostgresConnection == nil {
		return nil, fmt.Errorf("symbol listing needs postgres: %w", ErrNotConfigured)
	}

	mds, err := sc.PostgresConnection.GetAllMetaData(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]sm.SymbolResponse, len(mds))
	for i, md := range mds {
		res[i] = sm.SymbolResponse{Symbol: md.Symbol, LastRefreshed: md.LastRefreshed}
	}
	return res, nil
}

// SyncSymbolTimeSeriesData pulls the daily adjusted series for symbol and stores
// bars newer than the latest one already in postgres.
func (sc *ServiceContext) SyncSymbolTimeSeriesData(ctx context.Context, symbol string) (*sm.SyncResponse, error) {
	if sc.PostgresConnection == nil || sc.AlphaVantageClient == nil {
		return nil, fmt.Errorf("symbol sync needs postgres and alpha vantage: %w", ErrNotConfigured)
	}

	symbols := ex.NormalizeSymbols([]string{symbol})
	if len(symbols) == 0 {
		return nil, fmt.Errorf("symbol must not be empty")
	}
	symbol = symbols[0]
	logger := sc.Logger.With().Str("symbol", symbol).Logger()

	md, err := sc.PostgresConnection.GetMetaDataBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("error determining if meta data exists in sync data: %w", err)
	}

	if md == nil {
		logger.Info().Msg("adding new symbol to db")
		md = &m.TimeSeriesMetadata{
			Symbol:        symbol,
			LastRefreshed: time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC),
		}

		if err := sc.PostgresConnection.InsertNewMetaData(ctx, md, nil); err != nil {
			return nil, fmt.Errorf("error adding %s to db: %w", symbol, err)
		}
	}

	if md.LastRefreshed.After(time.Now().Add(-SyncCooldown)) {
		return nil, fmt.Errorf("%w: %s was last refreshed %s", ErrRecentlyRefreshed, symbol, ex.FmtShort(md.LastRefreshed))
	}

	mrd, err := sc.PostgresConnection.GetMostRecentTimestampForSymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("error getting most recent time series date for symbol %s: %w", symbol, err)
	}

	tsr, err := sc.AlphaVantageClient.GetStockDailyAdjustedMetrics(ctx, symbol)
	if err != nil {
		return nil, err
	}

	toInsert := ex.FilterMultiplePtr(tsr.TimeSeries, func(t *m.TimeSeriesData) bool {
		return mrd == nil || t.Timestamp.After(*mrd)
	})

	tx, err := sc.PostgresConnection.GetTransaction(ctx)
	if err != nil {
		return nil, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op once committed

	var ra int64
	if len(toInsert) > 0 {
		ra, err = sc.PostgresConnection.InsertTimeSeriesData(ctx, toInsert, &md.Id, &tx)
		if err != nil {
			return nil, fmt.Errorf("error inserting time series data: %w", err)
		}
	}

	if err := sc.PostgresConnection.UpdateLastRefreshedDate(ctx, symbol, tsr.Metadata.LastRefreshed, &tx); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("error committing transaction to sync symbol %s: %w", symbol, err)
	}

	logger.Info().Int("received", len(tsr.TimeSeries)).Int64("inserted", ra).Msg("symbol synced")
	return &sm.SyncResponse{
		Symbol:        symbol,
		LastRefreshed: tsr.Metadata.LastRefreshed,
		Inserted:      ra,
	}, nil
}
