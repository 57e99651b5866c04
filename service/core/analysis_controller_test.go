package core

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	r "tsa/data/repos"
	"tsa/service/metrics"
	sm "tsa/service/models"
)

func Test_BuildConfig_NormalizesTickers(t *testing.T) {
	config, err := buildConfig("2024-01-01", "2024-01-31T16:00:00-05:00", []string{" aapl", "msft "})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, config.Tickers())
	assert.Equal(t, 21, config.End().Hour())
}

func Test_RunDailyReturns_WithoutPostgresHasNoRun(t *testing.T) {
	sc := staticContext(t, closes("AAPL", 100, 110, 121))
	res, runId, err := sc.RunDailyReturns(context.Background(), sm.ReturnsRequest{Start: "2024-01-01", End: "2024-01-03", Tickers: []string{"AAPL"}})
	require.NoError(t, err)
	assert.Nil(t, runId)
	assert.Equal(t, 3, res.Height())
}

func Test_RunMetrics_UsesConfiguredAnnualization(t *testing.T) {
	sc := staticContext(t, closes("AAPL", 100, 102, 99, 105))
	sc.Settings.AnnualizationFactor = metrics.Weekly

	req := sm.MetricsRequest{Start: "2024-01-01", End: "2024-01-04", Tickers: []string{"AAPL"}}
	res, err := sc.RunMetrics(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, metrics.Weekly, res.AnnualizationFactor)
	assert.Equal(t, "weeks", res.Frequency)

	// the request still wins
	monthly := metrics.Monthly
	req.AnnualizationFactor = &monthly
	res, err = sc.RunMetrics(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, metrics.Monthly, res.AnnualizationFactor)
}

func Test_RunDailyReturns_RecordsAnalysisRun(t *testing.T) {
	_ = godotenv.Load("../../.env")
	connectionString := os.Getenv("DATABASE_URL")
	if connectionString == "" {
		t.Skip("DATABASE_URL is not set, skipping postgres tests")
	}

	ctx := context.Background()
	pg, err := r.GetPostgresConnection(ctx, connectionString)
	require.NoError(t, err)
	t.Cleanup(pg.Close)
	require.NoError(t, pg.EnsureSchema(ctx))

	sc := staticContext(t, closes("AAPL", 100, 110, 121))
	sc.PostgresConnection = pg

	_, runId, err := sc.RunDailyReturns(ctx, sm.ReturnsRequest{Start: "2024-01-01", End: "2024-01-03", Tickers: []string{"AAPL"}})
	require.NoError(t, err)
	require.NotNil(t, runId)

	run, err := pg.GetAnalysisRun(ctx, *runId)
	require.NoError(t, err)
	assert.Equal(t, int64(3), run.RowCount.Int64)
	assert.False(t, run.ErrorMessage.Valid)

	// failures are recorded with their message
	negative := -1
	_, runId, err = sc.RunDailyReturns(ctx, sm.ReturnsRequest{Start: "2024-01-01", End: "2024-01-03", Tickers: []string{"AAPL"}, BufferDays: &negative})
	require.Error(t, err)
	require.NotNil(t, runId)

	run, err = pg.GetAnalysisRun(ctx, *runId)
	require.NoError(t, err)
	assert.True(t, run.ErrorMessage.Valid)
	assert.Contains(t, run.ErrorMessage.String, "buffer")
}

func Test_ListSymbols(t *testing.T) {
	_, err := staticContext(t).ListSymbols(context.Background())
	require.ErrorIs(t, err, ErrNotConfigured)

	_ = godotenv.Load("../../.env")
	connectionString := os.Getenv("DATABASE_URL")
	if connectionString == "" {
		t.Skip("DATABASE_URL is not set, skipping postgres tests")
	}

	ctx := context.Background()
	pg, err := r.GetPostgresConnection(ctx, connectionString)
	require.NoError(t, err)
	t.Cleanup(pg.Close)
	require.NoError(t, pg.EnsureSchema(ctx))

	sc := staticContext(t)
	sc.PostgresConnection = pg

	res, err := sc.ListSymbols(ctx)
	require.NoError(t, err)
	for i := 1; i < len(res); i++ {
		assert.LessOrEqual(t, res[i-1].Symbol, res[i].Symbol)
	}
}
