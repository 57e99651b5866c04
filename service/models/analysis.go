package models

import (
	"math"
	"time"

	"github.com/guregu/null/v6"
)

// Request timestamps accept RFC 3339 or a plain date, see calculators.ParseTimestamp.
type ReturnsRequest struct {
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Tickers    []string `json:"tickers"`
	BufferDays *int     `json:"bufferDays,omitempty"`
}

type MetricsRequest struct {
	Start               string   `json:"start"`
	End                 string   `json:"end"`
	Tickers             []string `json:"tickers"`
	RiskFreeRate        *float64 `json:"riskFreeRate,omitempty"`
	AnnualizationFactor *int     `json:"annualizationFactor,omitempty"`
}

// Float cells are nil when the value is unset, NaN or infinite.
type ReturnRow struct {
	BusinessDate     string   `json:"businessDate"`
	Ticker           string   `json:"ticker"`
	Close            *float64 `json:"close"`
	LogReturn        *float64 `json:"logReturn"`
	ArithmeticReturn *float64 `json:"arithmeticReturn"`
}

type ReturnsResponse struct {
	RunId *int32      `json:"runId,omitempty"`
	Rows  []ReturnRow `json:"rows"`
}

type MetricsSummaryRow struct {
	Ticker                       string   `json:"ticker"`
	Observations                 int64    `json:"observations"`
	MeanReturn                   *float64 `json:"meanReturn"`
	StdDevReturn                 *float64 `json:"stdDevReturn"`
	CumulativeReturn             *float64 `json:"cumulativeReturn"`
	RealizedVolatility           *float64 `json:"realizedVolatility"`
	AnnualizedReturn             *float64 `json:"annualizedReturn"`
	AnnualizedRealizedVolatility *float64 `json:"annualizedRealizedVolatility"`
	SharpeRatio                  *float64 `json:"sharpeRatio"`
}

// CorrelationMatrix is row major, Values[i][j] pairs Tickers[i] with Tickers[j].
type CorrelationMatrix struct {
	Tickers []string     `json:"tickers"`
	Values  [][]*float64 `json:"values"`
}

type MetricsResponse struct {
	RunId               *int32              `json:"runId,omitempty"`
	Frequency           string              `json:"frequency"`
	AnnualizationFactor int                 `json:"annualizationFactor"`
	RiskFreeRate        float64             `json:"riskFreeRate"`
	Summary             []MetricsSummaryRow `json:"summary"`
	Correlation         CorrelationMatrix   `json:"correlation"`
}

type SyncResponse struct {
	Symbol        string    `json:"symbol"`
	LastRefreshed time.Time `json:"lastRefreshed"`
	Inserted      int64     `json:"inserted"`
}

type SymbolResponse struct {
	Symbol        string    `json:"symbol"`
	LastRefreshed time.Time `json:"lastRefreshed"`
}

// FloatPtr maps a cell onto json, encoding/json rejects NaN and infinities.
func FloatPtr(v null.Float) *float64 {
	if !v.Valid || math.IsNaN(v.Float64) || math.IsInf(v.Float64, 0) {
		return nil
	}
	f := v.Float64
	return &f
}
