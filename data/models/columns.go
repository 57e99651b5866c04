package models

// Column names shared by the price, returns and metrics tables.
const (
	BusinessDate = "BUSINESS_DATE"
	Ticker       = "TICKER"
	Open         = "OPEN"
	High         = "HIGH"
	Low          = "LOW"
	Close        = "CLOSE"
	Volume       = "VOLUME"
	Dividends    = "DIVIDENDS"
	StockSplits  = "STOCK_SPLITS"

	LogReturn        = "LOG_RETURN"
	ArithmeticReturn = "ARITHMETIC_RETURN"
	AbsLogReturn     = "ABS_LOG_RETURN"

	MeanReturn                   = "MEAN_RETURN"
	StdDevReturn                 = "STD_DEV_RETURN"
	CumulativeReturn             = "CUMULATIVE_RETURN"
	SquaredDiff                  = "SQUARED_DIFF"
	RealizedVariance             = "REALIZED_VARIANCE"
	RealizedVolatility           = "REALIZED_VOLATILITY"
	AnnualizedReturn             = "ANNUALIZED_RETURN"
	AnnualizedRealizedVolatility = "ANNUALIZED_REALIZED_VOLATILITY"
	AnnualizedRiskFreeRate       = "ANNUALIZED_RISK_FREE_RATE"
	SharpeRatio                  = "SHARPE_RATIO"
	ObservationCount             = "OBSERVATION_COUNT"
)
