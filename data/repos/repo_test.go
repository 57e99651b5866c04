package repos

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ex "tsa/data/extensions"
	m "tsa/data/models"
)

func Test_Base_CanGetConnectionAndPing(t *testing.T) {
	ctx := context.Background()
	pg := getConnection(t, ctx)
	require.NoError(t, pg.Ping(ctx))
}

func Test_TimeSeriesMetaDataRepo_CanInsertAndGet(t *testing.T) {
	symbol := "_TEST"

	testMetaData := m.TimeSeriesMetadata{
		Symbol:        symbol,
		LastRefreshed: time.Date(2025, time.October, 31, 0, 0, 0, 0, time.UTC),
	}

	ctx := context.Background()
	pg := getConnection(t, ctx)

	exists, err := pg.GetMetaDataBySymbol(ctx, symbol)
	require.NoError(t, err)
	require.Nil(t, exists, "symbol %s has not been inserted yet", symbol)

	require.NoError(t, pg.InsertNewMetaData(ctx, &testMetaData, nil))
	require.NotZero(t, testMetaData.Id, "id for test meta data failed to set")
	t.Cleanup(func() { assert.NoError(t, pg.DeleteSymbol(ctx, testMetaData.Id)) })

	res, err := pg.GetMetaDataBySymbol(ctx, symbol)
	require.NoError(t, err)
	ex.AssertAreEqual(t, "id", testMetaData.Id, res.Id)
	ex.AssertAreEqual(t, "symbol", testMetaData.Symbol, res.Symbol)
	assert.True(t, testMetaData.LastRefreshed.Equal(res.LastRefreshed))

	all, err := pg.GetAllMetaData(ctx)
	require.NoError(t, err)
	var found bool
	for i, md := range all {
		if i > 0 {
			assert.LessOrEqual(t, all[i-1].Symbol, md.Symbol, "metadata is ordered by symbol")
		}
		found = found || md.Id == testMetaData.Id
	}
	assert.True(t, found, "inserted symbol listed")
}

func Test_TimeSeriesDataRepo_CanInsertAndGetPanel(t *testing.T) {
	symbol := "_TEST2"

	testMetaData := m.TimeSeriesMetadata{
		Symbol:        symbol,
		LastRefreshed: time.Date(2025, time.October, 31, 0, 0, 0, 0, time.UTC),
	}

	ctx := context.Background()
	pg := getConnection(t, ctx)

	require.NoError(t, pg.InsertNewMetaData(ctx, &testMetaData, nil))
	t.Cleanup(func() { assert.NoError(t, pg.DeleteSymbol(ctx, testMetaData.Id)) })

	testTimeSeriesData := []*m.TimeSeriesData{
		{
			Timestamp: time.Date(2025, time.October, 30, 0, 0, 0, 0, time.UTC),
			TimeSeriesOHLCV: m.TimeSeriesOHLCV{
				Open:   null.FloatFrom(100),
				High:   null.FloatFrom(105),
				Low:    null.FloatFrom(95),
				Close:  null.FloatFrom(102),
				Volume: null.FloatFrom(1000),
			},
			AdjustedClose:  null.FloatFrom(50),
			DividendAmount: null.FloatFrom(1),
		},
		{
			Timestamp: time.Date(2025, time.October, 31, 0, 0, 0, 0, time.UTC),
			TimeSeriesOHLCV: m.TimeSeriesOHLCV{
				Open:   null.FloatFrom(102),
				High:   null.FloatFrom(107),
				Low:    null.FloatFrom(97),
				Close:  null.FloatFrom(104),
				Volume: null.FloatFrom(2000),
			},
			DividendAmount: null.FloatFrom(2),
		},
	}

	ct, err := pg.InsertTimeSeriesData(ctx, testTimeSeriesData, &testMetaData.Id, nil)
	require.NoError(t, err)
	ex.AssertAreEqual(t, "inserted rows", int64(len(testTimeSeriesData)), ct)

	ts, err := pg.GetTimeSeriesData(ctx, symbol)
	require.NoError(t, err)
	require.Len(t, ts, 2)
	ex.AssertAreEqual(t, "close", testTimeSeriesData[1].Close, ts[0].Close)
	ex.AssertAreEqual(t, "adjusted close", testTimeSeriesData[0].AdjustedClose, ts[1].AdjustedClose)

	mrd, err := pg.GetMostRecentTimestampForSymbol(ctx, symbol)
	require.NoError(t, err)
	require.NotNil(t, mrd)
	assert.True(t, testTimeSeriesData[1].Timestamp.Equal(*mrd))

	panel, err := pg.GetPricePanel(ctx, []string{symbol}, testTimeSeriesData[0].Timestamp, testTimeSeriesData[1].Timestamp)
	require.NoError(t, err)
	require.Len(t, panel, 2)

	// adjusted close wins when present, raw close otherwise
	ex.AssertAreEqual(t, "first close", 50.0, panel[0].Close.Float64)
	ex.AssertAreEqual(t, "second close", 104.0, panel[1].Close.Float64)
}

func Test_AnalysisRunRepo_CanRecordOutcome(t *testing.T) {
	ctx := context.Background()
	pg := getConnection(t, ctx)

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	id, err := pg.InsertAnalysisRun(ctx, m.AnalysisKindReturns, []string{"AAPL"}, start, start.AddDate(0, 1, 0))
	require.NoError(t, err)

	assert.Error(t, pg.UpdateAnalysisRunAsFailure(ctx, id, "   "))
	require.NoError(t, pg.UpdateAnalysisRunAsSuccess(ctx, id, 21))

	run, err := pg.GetAnalysisRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, run.Tickers)
	assert.Equal(t, int64(21), run.RowCount.Int64)
	assert.False(t, run.ErrorMessage.Valid)
	assert.True(t, run.CompletedAt.Valid)
}

func getConnection(t *testing.T, ctx context.Context) *Postgres {
	t.Helper()
	_ = godotenv.Load("../../.env")

	connectionString := os.Getenv("DATABASE_URL")
	if connectionString == "" {
		t.Skip("DATABASE_URL is not set, skipping postgres tests")
	}

	res, err := GetPostgresConnection(ctx, connectionString)
	require.NoError(t, err, "error getting postgres connection")
	require.NoError(t, res.EnsureSchema(ctx))

	t.Cleanup(func() {
		res.Close()
	})

	return res
}
