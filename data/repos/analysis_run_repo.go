package repos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	m "tsa/data/models"
	q "tsa/data/queries"
)

func (pg *Postgres) InsertAnalysisRun(ctx context.Context, kind string, tickers []string, start, end time.Time) (int32, error) {
	args := pgx.NamedArgs{
		"kind":       kind,
		"tickers":    tickers,
		"start_date": start,
		"end_date":   end,
	}

	var runId int32
	if err := pg.db.QueryRow(ctx, q.Get(q.QueryHelper.Insert.AnalysisRun), args).Scan(&runId); err != nil {
		return 0, fmt.Errorf("error inserting analysis run: %w", err)
	}

	return runId, nil
}

func (pg *Postgres) UpdateAnalysisRunAsFailure(ctx context.Context, runId int32, errorMessage string) error {
	cleanErrorMessage := strings.TrimSpace(errorMessage)
	if cleanErrorMessage == "" {
		return fmt.Errorf("error message is required if analysis run is failing, occurred in %d", runId)
	}

	return pg.updateAnalysisRun(ctx, pgx.NamedArgs{
		"id":            runId,
		"row_count":     nil,
		"error_message": cleanErrorMessage,
	})
}

func (pg *Postgres) UpdateAnalysisRunAsSuccess(ctx context.Context, runId int32, rowCount int) error {
	return pg.updateAnalysisRun(ctx, pgx.NamedArgs{
		"id":            runId,
		"row_count":     rowCount,
		"error_message": nil,
	})
}

func (pg *Postgres) GetAnalysisRun(ctx context.Context, runId int32) (*m.AnalysisRun, error) {
	res, err := QuerySingle[m.AnalysisRun](ctx, pg, q.Get(q.QueryHelper.Select.AnalysisRunById), pgx.NamedArgs{"id": runId})
	if err != nil {
		return nil, fmt.Errorf("error getting analysis run %d: %w", runId, err)
	}
	return res, nil
}

func (pg *Postgres) updateAnalysisRun(ctx context.Context, args pgx.NamedArgs) error {
	if _, err := pg.db.Exec(ctx, q.Get(q.QueryHelper.Update.AnalysisRun), args); err != nil {
		return fmt.Errorf("error updating analysis run: %w", err)
	}
	return nil
}
