package alpha_vantage

// TimeSeries specifies a frequency to query for adjusted stock data.
type TimeSeries uint8

const (
	TimeSeriesDailyAdjusted TimeSeries = iota
	TimeSeriesWeeklyAdjusted
	TimeSeriesMonthlyAdjusted
)

func (t TimeSeries) String() string {
	switch t {
	case TimeSeriesDailyAdjusted:
		return "TimeSeriesDailyAdjusted"
	case TimeSeriesWeeklyAdjusted:
		return "TimeSeriesWeeklyAdjusted"
	case TimeSeriesMonthlyAdjusted:
		return "TimeSeriesMonthlyAdjusted"
	default:
		return ""
	}
}

func (t TimeSeries) Function() string {
	switch t {
	case TimeSeriesDailyAdjusted:
		return "TIME_SERIES_DAILY_ADJUSTED"
	case TimeSeriesWeeklyAdjusted:
		return "TIME_SERIES_WEEKLY_ADJUSTED"
	case TimeSeriesMonthlyAdjusted:
		return "TIME_SERIES_MONTHLY_ADJUSTED"
	default:
		return ""
	}
}

// TimeSeriesKey is the top level json key holding the bars.
func (t TimeSeries) TimeSeriesKey() string {
	switch t {
	case TimeSeriesDailyAdjusted:
		return "Time Series (Daily)"
	case TimeSeriesWeeklyAdjusted:
		return "Weekly Adjusted Time Series"
	case TimeSeriesMonthlyAdjusted:
		return "Monthly Adjusted Time Series"
	default:
		return ""
	}
}
