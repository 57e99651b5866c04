package models

import (
	"time"

	"github.com/guregu/null/v6"
)

type TimeSeriesResult struct {
	Metadata   *TimeSeriesMetadata
	TimeSeries []*TimeSeriesData
}

type TimeSeriesMetadata struct {
	Id            int32     `db:"id"`
	Symbol        string    `db:"symbol"`
	LastRefreshed time.Time `db:"last_refreshed"`
	TimeZone      string    `db:"-"`
}

type TimeSeriesOHLCV struct {
	Open   null.Float `db:"open"`
	High   null.Float `db:"high"`
	Low    null.Float `db:"low"`
	Close  null.Float `db:"close"`
	Volume null.Float `db:"volume"`
}

// TimeSeriesData is one daily bar as stored in av_time_series_data.
type TimeSeriesData struct {
	SourceId  int32     `db:"source_id"`
	Timestamp time.Time `db:"timestamp"`
	TimeSeriesOHLCV
	AdjustedClose    null.Float `db:"adjusted_close"`
	DividendAmount   null.Float `db:"dividend_amount"`
	SplitCoefficient null.Float `db:"split_coefficient"`
}

// PriceObservation is one (ticker, date) row of a price panel.
type PriceObservation struct {
	Ticker       string     `db:"symbol"`
	BusinessDate time.Time  `db:"timestamp"`
	Open         null.Float `db:"open"`
	High         null.Float `db:"high"`
	Low          null.Float `db:"low"`
	Close        null.Float `db:"close"`
	Volume       null.Float `db:"volume"`
	Dividends    null.Float `db:"dividend_amount"`
	StockSplits  null.Float `db:"split_coefficient"`
}
