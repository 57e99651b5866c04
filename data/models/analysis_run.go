package models

import (
	"time"

	"github.com/guregu/null/v6"
)

const (
	AnalysisKindReturns = "returns"
	AnalysisKindMetrics = "metrics"
)

// AnalysisRun is the audit row written for every returns or metrics request.
type AnalysisRun struct {
	Id           int32       `db:"id"`
	Kind         string      `db:"kind"`
	Tickers      []string    `db:"tickers"`
	StartDate    time.Time   `db:"start_date"`
	EndDate      time.Time   `db:"end_date"`
	RowCount     null.Int    `db:"row_count"`
	ErrorMessage null.String `db:"error_message"`
	CreatedAt    time.Time   `db:"created_at"`
	CompletedAt  null.Time   `db:"completed_at"`
}
