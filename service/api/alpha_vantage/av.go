package alpha_vantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	e "tsa/data/extensions"
	m "tsa/data/models"
	c "tsa/service/api"
)

// public
const (
	HostDefault = "www.alphavantage.co"

	OutputSizeCompact = "compact"
	OutputSizeFull    = "full"
)

// private
const (
	defaultDataType = "json"

	// api request elements
	query      = "query"
	symbol     = "symbol"
	function   = "function"
	outputSize = "outputsize"
)

var (
	timeSeriesDateFormats = []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
	}

	ohlcvResultKeys = map[string]string{
		"Open":   ". Open",
		"High":   ". High",
		"Low":    ". Low",
		"Close":  ". Close",
		"Volume": ". Volume",
	}

	// keys alpha vantage uses instead of data when throttling or rejecting a call
	noticeKeys = []string{"Error Message", "Note", "Information"}
)

var ErrClientNotSet = errors.New("alpha vantage client has not been set")

type AlphaVantageClient struct {
	*c.Client
}

func GetClient(apiKey string, opts ...c.ClientOption) *AlphaVantageClient {
	return &AlphaVantageClient{
		c.ClientFactory(HostDefault, apiKey, opts...),
	}
}

// https://www.alphavantage.co/documentation/#dailyadj
func (avc *AlphaVantageClient) GetStockDailyAdjustedMetrics(ctx context.Context, ticker string) (*m.TimeSeriesResult, error) {
	return avc.GetTimeSeries(ctx, TimeSeriesDailyAdjusted, ticker, OutputSizeFull)
}

// https://www.alphavantage.co/documentation/#weeklyadj
func (avc *AlphaVantageClient) GetStockWeeklyAdjustedMetrics(ctx context.Context, ticker string) (*m.TimeSeriesResult, error) {
	return avc.GetTimeSeries(ctx, TimeSeriesWeeklyAdjusted, ticker, OutputSizeFull)
}

// https://www.alphavantage.co/documentation/#monthlyadj
func (avc *AlphaVantageClient) GetStockMonthlyAdjustedMetrics(ctx context.Context, ticker string) (*m.TimeSeriesResult, error) {
	return avc.GetTimeSeries(ctx, TimeSeriesMonthlyAdjusted, ticker, OutputSizeFull)
}

// GetTimeSeries fetches and parses one series, bars come back oldest first.
func (avc *AlphaVantageClient) GetTimeSeries(ctx context.Context, ts TimeSeries, ticker, size string) (*m.TimeSeriesResult, error) {
	if avc == nil || avc.Client == nil || avc.Client.Connection == nil {
		return nil, ErrClientNotSet
	}

	endpoint := avc.buildRequestPath(map[string]string{
		function:   ts.Function(),
		symbol:     ticker,
		outputSize: size,
	})

	response, err := avc.Client.Connection.Request(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	res, err := parseTimeSeriesResponse(body, ts, avc.Client.Logger)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s for %s: %w", ts, ticker, err)
	}
	return res, nil
}

func (avc *AlphaVantageClient) buildRequestPath(params map[string]string) *url.URL {
	endpoint := &url.URL{}
	endpoint.Path = query

	// base parameters
	query := endpoint.Query()
	query.Set("apikey", avc.Client.ApiKey)
	query.Set("datatype", defaultDataType)

	// additional parameters
	for key, value := range params {
		query.Set(key, value)
	}

	endpoint.RawQuery = query.Encode()

	return endpoint
}

func parseTimeSeriesResponse(body []byte, ts TimeSeries, logger zerolog.Logger) (*m.TimeSeriesResult, error) {
	if err := checkNotice(body); err != nil {
		return nil, err
	}

	raw, err := parseRawJson(body)
	if err != nil {
		return nil, err
	}

	metaData, timeZone, err := parseMetaData(raw, logger)
	if err != nil {
		return nil, err
	}

	timeSeriesData, err := parseTimeSeriesDataResult(raw, ts.TimeSeriesKey(), timeZone)
	if err != nil {
		return nil, err
	}

	return &m.TimeSeriesResult{
		Metadata:   metaData,
		TimeSeries: timeSeriesData,
	}, nil
}

// checkNotice turns a throttling or error payload into an error.
func checkNotice(body []byte) error {
	if !gjson.ValidBytes(body) {
		return fmt.Errorf("error unmarshaling response: invalid json")
	}
	for _, key := range noticeKeys {
		if v := gjson.GetBytes(body, key); v.Exists() && !gjson.GetBytes(body, "Meta Data").Exists() {
			return fmt.Errorf("alpha vantage %s: %s", strings.ToLower(key), v.String())
		}
	}
	return nil
}

func parseRawJson(body []byte) (raw map[string]json.RawMessage, err error) {
	// converting to a <string, raw message> map
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}
	return
}

func parseMetaData(raw map[string]json.RawMessage, logger zerolog.Logger) (*m.TimeSeriesMetadata, *time.Location, error) {
	var metadataElements map[string]string
	if err := json.Unmarshal(raw["Meta Data"], &metadataElements); err != nil {
		return nil, nil, fmt.Errorf("error unmarshaling meta data: %w", err)
	}

	metaDataKeys := slices.Collect(maps.Keys(metadataElements))

	// parse symbol
	sf := func(s string) bool { return strings.HasSuffix(s, ". Symbol") }
	symbolKey, err := e.FilterSingle(metaDataKeys, sf)
	if err != nil {
		return nil, nil, fmt.Errorf("error extracting symbol for meta data")
	}

	// parse time zone
	tzf := func(s string) bool { return strings.HasSuffix(s, ". Time Zone") }
	timeZoneKey, err := e.FilterSingle(metaDataKeys, tzf)
	if err != nil {
		return nil, nil, fmt.Errorf("error extracting time zone for meta data")
	}

	timeZone, err := getTimeZone(metadataElements[timeZoneKey], logger)
	if err != nil {
		return nil, nil, fmt.Errorf("error converting time zone key %s, to time.Location: %w", metadataElements[timeZoneKey], err)
	}

	// parse last refreshed
	lrf := func(s string) bool { return strings.HasSuffix(s, ". Last Refreshed") }
	lastRefreshedKey, err := e.FilterSingle(metaDataKeys, lrf)
	if err != nil {
		return nil, nil, fmt.Errorf("error extracting last refreshed date")
	}

	lastRefreshed, err := parseDate(metadataElements[lastRefreshedKey], timeZone)
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing last refreshed date")
	}

	res := m.TimeSeriesMetadata{
		Symbol:        metadataElements[symbolKey],
		LastRefreshed: lastRefreshed,
		TimeZone:      metadataElements[timeZoneKey],
	}

	return &res, timeZone, nil
}

func parseTimeSeriesDataResult(raw map[string]json.RawMessage, key string, location *time.Location) ([]*m.TimeSeriesData, error) {
	var timeSeriesElements map[string]map[string]string
	if err := json.Unmarshal(raw[key], &timeSeriesElements); err != nil {
		return nil, fmt.Errorf("error unmarshaling time series %q: %w", key, err)
	}

	if len(timeSeriesElements) == 0 {
		return []*m.TimeSeriesData{}, nil
	}

	// populate the lookups
	var firstValue map[string]string
	for _, v := range timeSeriesElements {
		firstValue = v
		break
	}

	ohlcvLookup, err := getLookupKey(ohlcvResultKeys, firstValue)
	if err != nil {
		return nil, err
	}

	// optional, only present on adjusted series
	valueKeys := slices.Collect(maps.Keys(firstValue))
	adjustedCloseKey := findKey(valueKeys, ". adjusted close")
	dividendAmountKey := findKey(valueKeys, ". dividend amount")
	splitCoefficientKey := findKey(valueKeys, ". split coefficient")

	timeSeries := make([]*m.TimeSeriesData, 0, len(timeSeriesElements))
	for timeSeriesKey, timeSeriesValue := range timeSeriesElements {
		timestamp, err := parseDate(timeSeriesKey, location)
		if err != nil {
			return nil, fmt.Errorf("error converting TIMESTAMP from string to time.Time: %w", err)
		}

		ohlcv, err := parseOHLCV(timeSeriesValue, ohlcvLookup)
		if err != nil {
			return nil, fmt.Errorf("error parsing OHLCV: %w", err)
		}

		timeSeries = append(timeSeries, &m.TimeSeriesData{
			Timestamp:        timestamp,
			TimeSeriesOHLCV:  ohlcv,
			AdjustedClose:    parseFloat(timeSeriesValue[adjustedCloseKey]),
			DividendAmount:   parseFloat(timeSeriesValue[dividendAmountKey]),
			SplitCoefficient: parseFloat(timeSeriesValue[splitCoefficientKey]),
		})
	}

	slices.SortFunc(timeSeries, func(a, b *m.TimeSeriesData) int { return a.Timestamp.Compare(b.Timestamp) })

	return timeSeries, nil
}

func parseOHLCV(value, lookup map[string]string) (res m.TimeSeriesOHLCV, err error) {
	v := reflect.ValueOf(&res).Elem()
	for jsonKey, structAttribute := range lookup {
		field := v.FieldByName(structAttribute)
		if !field.IsValid() {
			return res, fmt.Errorf("field %s does not exist", structAttribute)
		}
		if !field.CanSet() {
			return res, fmt.Errorf("field %s cannot be set", structAttribute)
		}

		pv := parseFloat(value[jsonKey])
		field.Set(reflect.ValueOf(pv))
	}
	return
}

func getLookupKey(expectedKeys, values map[string]string) (map[string]string, error) {
	res := make(map[string]string)
	responseValueHeaders := slices.Collect(maps.Keys(values))

	for key, value := range expectedKeys {
		f := func(s string) bool {
			return strings.HasSuffix(strings.ToLower(s), strings.ToLower(value))
		}
		if jsonKey, err := e.FilterSingle(responseValueHeaders, f); err == nil {
			res[jsonKey] = key
		}
	}

	if len(res) == 0 {
		return nil, fmt.Errorf("error generating key value map from av response object. Available headers: %v", responseValueHeaders)
	}

	return res, nil
}

// findKey returns the single key ending in suffix, or "" when absent.
func findKey(keys []string, suffix string) string {
	key, err := e.FilterSingle(keys, func(s string) bool { return strings.HasSuffix(s, suffix) })
	if err != nil {
		return ""
	}
	return key
}

func getTimeZone(location string, logger zerolog.Logger) (*time.Location, error) {
	var loc string
	switch strings.ToUpper(location) {
	case "US/EASTERN":
		loc = "America/New_York"
	case "UTC":
		return time.UTC, nil
	default:
		logger.Warn().Str("time_zone", location).Msg("time zone not recognized, defaulting to UTC")
		return time.UTC, nil
	}

	res, err := time.LoadLocation(loc)
	if err != nil {
		return nil, fmt.Errorf("error parsing time zone %s in time.LoadLocation", loc)
	}

	return res, nil
}

func parseDate(dateString string, location *time.Location) (time.Time, error) {
	for _, format := range timeSeriesDateFormats {
		t, err := time.ParseInLocation(format, dateString, location)
		if err != nil {
			continue
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("error converting date %s to time.Time", dateString)
}

func parseFloat(val string) null.Float {
	if val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return null.FloatFrom(f)
		}
	}
	return null.Float{}
}
