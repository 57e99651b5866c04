package alpha_vantage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ex "tsa/data/extensions"
	c "tsa/service/api"
)

// fixtureConnection serves a file from testdata and records every request.
type fixtureConnection struct {
	fixture  string
	err      error
	requests []*url.URL
}

func (f *fixtureConnection) Request(ctx context.Context, endpoint *url.URL) (*http.Response, error) {
	f.requests = append(f.requests, endpoint)
	if f.err != nil {
		return nil, f.err
	}
	body, err := os.ReadFile(f.fixture)
	if err != nil {
		return nil, err
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(string(body))),
	}, nil
}

func fixtureClient(conn c.Connection) *AlphaVantageClient {
	return &AlphaVantageClient{&c.Client{Connection: conn, ApiKey: "av-test-api-key", Logger: zerolog.Nop()}}
}

func Test_AlphaVantage_DailyAdjusted(t *testing.T) {
	conn := &fixtureConnection{fixture: "testdata/daily_adjusted.json"}
	res, err := fixtureClient(conn).GetStockDailyAdjustedMetrics(context.Background(), "AAPL")
	require.NoError(t, err)

	location, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// request
	require.Len(t, conn.requests, 1)
	q := conn.requests[0].Query()
	ex.AssertAreEqual(t, "function", "TIME_SERIES_DAILY_ADJUSTED", q.Get("function"))
	ex.AssertAreEqual(t, "symbol", "AAPL", q.Get("symbol"))
	ex.AssertAreEqual(t, "api key", "av-test-api-key", q.Get("apikey"))
	ex.AssertAreEqual(t, "output size", OutputSizeFull, q.Get("outputsize"))

	// meta data
	ex.AssertAreEqual(t, "symbol", "AAPL", res.Metadata.Symbol)
	ex.AssertAreEqual(t, "time zone", "US/Eastern", res.Metadata.TimeZone)
	assert.True(t, time.Date(2024, time.January, 4, 0, 0, 0, 0, location).Equal(res.Metadata.LastRefreshed))

	// bars are sorted oldest first
	require.Len(t, res.TimeSeries, 3)
	for i, d := range []int{2, 3, 4} {
		assert.True(t, time.Date(2024, time.January, d, 0, 0, 0, 0, location).Equal(res.TimeSeries[i].Timestamp))
	}

	s := res.TimeSeries[0]
	ex.AssertAreEqual(t, "open", 187.15, s.Open.Float64)
	ex.AssertAreEqual(t, "high", 188.44, s.High.Float64)
	ex.AssertAreEqual(t, "low", 183.885, s.Low.Float64)
	ex.AssertAreEqual(t, "close", 185.64, s.Close.Float64)
	ex.AssertAreEqual(t, "adjusted close", 184.7, s.AdjustedClose.Float64)
	ex.AssertAreEqual(t, "volume", float64(82488674), s.Volume.Float64)
	ex.AssertAreEqual(t, "split coefficient", 1.0, s.SplitCoefficient.Float64)

	// blank values are null, not zero
	ex.AssertNillability(t, "adjusted close", true, res.TimeSeries[1].AdjustedClose.Ptr())
	ex.AssertAreEqual(t, "dividend amount", 0.24, res.TimeSeries[1].DividendAmount.Float64)
}

func Test_AlphaVantage_WeeklyAdjusted(t *testing.T) {
	conn := &fixtureConnection{fixture: "testdata/weekly_adjusted.json"}
	res, err := fixtureClient(conn).GetStockWeeklyAdjustedMetrics(context.Background(), "MSFT")
	require.NoError(t, err)

	require.Len(t, conn.requests, 1)
	ex.AssertAreEqual(t, "function", "TIME_SERIES_WEEKLY_ADJUSTED", conn.requests[0].Query().Get("function"))

	require.Len(t, res.TimeSeries, 2)
	s := res.TimeSeries[1]
	ex.AssertAreEqual(t, "close", 367.75, s.Close.Float64)
	ex.AssertAreEqual(t, "adjusted close", 365.12, s.AdjustedClose.Float64)
	ex.AssertAreEqual(t, "volume", float64(102934000), s.Volume.Float64)
	ex.AssertAreEqual(t, "dividend amount", 0.75, s.DividendAmount.Float64)
	// weekly bars carry no split coefficient
	ex.AssertNillability(t, "split coefficient", true, s.SplitCoefficient.Ptr())
}

func Test_AlphaVantage_MonthlyAdjustedRequestsMonthlySeries(t *testing.T) {
	conn := &fixtureConnection{fixture: "testdata/weekly_adjusted.json"}
	_, err := fixtureClient(conn).GetStockMonthlyAdjustedMetrics(context.Background(), "MSFT")
	// the fixture holds weekly bars, so the monthly key is missing
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TimeSeriesMonthlyAdjusted")
	ex.AssertAreEqual(t, "function", "TIME_SERIES_MONTHLY_ADJUSTED", conn.requests[0].Query().Get("function"))
}

func Test_AlphaVantage_RateLimitNoticeIsError(t *testing.T) {
	conn := &fixtureConnection{fixture: "testdata/rate_limited.json"}
	_, err := fixtureClient(conn).GetStockDailyAdjustedMetrics(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func Test_AlphaVantage_ConnectionErrorIsReturned(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := fixtureClient(&fixtureConnection{err: boom}).GetStockDailyAdjustedMetrics(context.Background(), "AAPL")
	assert.ErrorIs(t, err, boom)
}

func Test_AlphaVantage_WrongSeriesKeyIsError(t *testing.T) {
	conn := &fixtureConnection{fixture: "testdata/weekly_adjusted.json"}
	_, err := fixtureClient(conn).GetTimeSeries(context.Background(), TimeSeriesDailyAdjusted, "MSFT", OutputSizeCompact)
	assert.Error(t, err)
}

func Test_AlphaVantage_UnsetClientIsError(t *testing.T) {
	var avc *AlphaVantageClient
	_, err := avc.GetStockDailyAdjustedMetrics(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrClientNotSet)

	_, err = (&AlphaVantageClient{}).GetStockWeeklyAdjustedMetrics(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrClientNotSet)
}

func Test_TimeSeries_Keys(t *testing.T) {
	ex.AssertAreEqual(t, "daily adjusted key", "Time Series (Daily)", TimeSeriesDailyAdjusted.TimeSeriesKey())
	ex.AssertAreEqual(t, "weekly adjusted function", "TIME_SERIES_WEEKLY_ADJUSTED", TimeSeriesWeeklyAdjusted.Function())
	ex.AssertAreEqual(t, "monthly adjusted key", "Monthly Adjusted Time Series", TimeSeriesMonthlyAdjusted.TimeSeriesKey())
	ex.AssertAreEqual(t, "unknown function", "", TimeSeries(42).Function())
}

func Test_GetTimeZone(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	loc, err := getTimeZone("US/Eastern", logger)
	require.NoError(t, err)
	ex.AssertAreEqual(t, "location", "America/New_York", loc.String())
	assert.Empty(t, buf.String())

	loc, err = getTimeZone("Mars/Olympus", logger)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
	assert.Contains(t, buf.String(), "Mars/Olympus")
}

func Test_AlphaVantage_GetClientUsesDefaultHost(t *testing.T) {
	avc := GetClient("key", c.WithRateLimit(0))
	host, ok := avc.Client.Connection.(*c.ClientHost)
	require.True(t, ok)
	assert.NotNil(t, host)
	ex.AssertAreEqual(t, "api key", "key", avc.Client.ApiKey)
}
