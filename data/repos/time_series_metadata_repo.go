package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	m "tsa/data/models"
	q "tsa/data/queries"
)

func (pg *Postgres) GetAllMetaData(ctx context.Context) ([]*m.TimeSeriesMetadata, error) {
	res, err := Query[m.TimeSeriesMetadata](ctx, pg, q.Get(q.QueryHelper.Select.AllMetaData), pgx.NamedArgs{})
	if err != nil {
		return nil, fmt.Errorf("unable to query all metadata: %w", err)
	}
	return res, nil
}

// GetMetaDataBySymbol returns nil, nil when the symbol has never been synced.
func (pg *Postgres) GetMetaDataBySymbol(ctx context.Context, symbol string) (*m.TimeSeriesMetadata, error) {
	args := pgx.NamedArgs{
		"symbol": symbol,
	}

	res, err := Query[m.TimeSeriesMetadata](ctx, pg, q.Get(q.QueryHelper.Select.MetaDataBySymbol), args)
	if err != nil {
		return nil, fmt.Errorf("unable to query metadata by symbol (%s): %w", symbol, err)
	}

	if len(res) == 0 {
		return nil, nil
	}

	return res[0], nil
}

func (pg *Postgres) InsertNewMetaData(ctx context.Context, metadata *m.TimeSeriesMetadata, tx *pgx.Tx) error {
	sql := q.Get(q.QueryHelper.Insert.Metadata)
	args := pgx.NamedArgs{
		"symbol":         metadata.Symbol,
		"last_refreshed": metadata.LastRefreshed,
	}

	var err error
	if tx == nil {
		err = pg.db.QueryRow(ctx, sql, args).Scan(&metadata.Id)
	} else {
		err = (*tx).QueryRow(ctx, sql, args).Scan(&metadata.Id)
	}

	if err != nil {
		return fmt.Errorf("error inserting new metadata: %w", err)
	}

	return nil
}

func (pg *Postgres) UpdateLastRefreshedDate(ctx context.Context, symbol string, lastRefreshed time.Time, tx *pgx.Tx) (err error) {
	sql := q.Get(q.QueryHelper.Update.LastRefreshedDate)
	args := pgx.NamedArgs{
		"last_refreshed": lastRefreshed,
		"symbol":         symbol,
	}

	if tx == nil {
		_, err = pg.db.Exec(ctx, sql, args)
	} else {
		_, err = (*tx).Exec(ctx, sql, args)
	}

	if err != nil {
		return fmt.Errorf("error updating last refreshed date for %s: %w", symbol, err)
	}
	return nil
}

// DeleteSymbol removes a symbol's metadata and every stored bar in one transaction.
func (pg *Postgres) DeleteSymbol(ctx context.Context, sourceId int32) error {
	tx, err := pg.GetTransaction(ctx)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	args := pgx.NamedArgs{"source_id": sourceId}
	if _, err := tx.Exec(ctx, q.Get(q.QueryHelper.Delete.TimeSeriesDataBySourceId), args); err != nil {
		return fmt.Errorf("error deleting time series data for %d: %w", sourceId, err)
	}
	if _, err := tx.Exec(ctx, q.Get(q.QueryHelper.Delete.MetadataById), args); err != nil {
		return fmt.Errorf("error deleting metadata for %d: %w", sourceId, err)
	}

	return tx.Commit(ctx)
}
