package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	ex "tsa/data/extensions"
	"tsa/data/frame"
	m "tsa/data/models"
	"tsa/service/calculators"
	"tsa/service/metrics"
	sm "tsa/service/models"
)

// summaryColumns are the metrics reported per ticker, in response order.
var summaryColumns = []string{
	m.MeanReturn,
	m.StdDevReturn,
	m.CumulativeReturn,
	m.RealizedVolatility,
	m.AnnualizedReturn,
	m.AnnualizedRealizedVolatility,
	m.SharpeRatio,
}

// RunDailyReturns computes daily returns for the request window. The run is
// recorded in analysis_run when postgres is configured.
func (sc *ServiceContext) RunDailyReturns(ctx context.Context, req sm.ReturnsRequest) (*frame.Frame, *int32, error) {
	config, err := buildConfig(req.Start, req.End, req.Tickers)
	if err != nil {
		return nil, nil, err
	}

	buffer := sc.Settings.ReturnsBuffer
	if req.BufferDays != nil {
		buffer = time.Duration(*req.BufferDays) * 24 * time.Hour
	}

	runId, err := sc.startRun(ctx, m.AnalysisKindReturns, config)
	if err != nil {
		return nil, nil, err
	}

	res, err := sc.dailyReturns(ctx, config, buffer)
	if err := sc.finishRun(ctx, runId, res, err); err != nil {
		return nil, runId, err
	}
	return res, runId, nil
}

// RunMetrics computes the standard metrics pipeline, a per ticker summary and
// the correlation matrix of daily log returns.
func (sc *ServiceContext) RunMetrics(ctx context.Context, req sm.MetricsRequest) (*sm.MetricsResponse, error) {
	config, err := buildConfig(req.Start, req.End, req.Tickers)
	if err != nil {
		return nil, err
	}

	factor := sc.Settings.AnnualizationFactor
	if factor == 0 {
		factor = metrics.Daily
	}
	if req.AnnualizationFactor != nil {
		factor = *req.AnnualizationFactor
	}
	frequency, err := metrics.FrequencyName(factor)
	if err != nil {
		return nil, &calculators.ValidationError{Field: "annualizationFactor", Message: err.Error(), Value: factor}
	}

	riskFreeRate := sc.Settings.RiskFreeRate
	if req.RiskFreeRate != nil {
		riskFreeRate = *req.RiskFreeRate
	}

	runId, err := sc.startRun(ctx, m.AnalysisKindMetrics, config)
	if err != nil {
		return nil, err
	}

	engine := metrics.NewEngine(
		metrics.WithAnnualizationFactor(factor),
		metrics.WithLogger(sc.Logger.With().Str("component", "metrics").Logger()),
	)

	var summary, corr *frame.Frame
	returns, err := sc.dailyReturns(ctx, config, sc.Settings.ReturnsBuffer)
	if err == nil {
		summary, corr, err = summarize(engine, returns, riskFreeRate)
	}
	if err := sc.finishRun(ctx, runId, summary, err); err != nil {
		return nil, err
	}

	res := &sm.MetricsResponse{
		RunId:               runId,
		Frequency:           frequency,
		AnnualizationFactor: factor,
		RiskFreeRate:        riskFreeRate,
	}
	if res.Summary, err = summaryRows(summary); err != nil {
		return nil, err
	}
	if res.Correlation, err = correlationMatrix(corr); err != nil {
		return nil, err
	}
	return res, nil
}

func (sc *ServiceContext) dailyReturns(ctx context.Context, config calculators.CalculatorConfig, buffer time.Duration) (*frame.Frame, error) {
	calc, err := calculators.NewDailyReturnsCalculator(config, sc.PriceSource,
		calculators.WithBuffer(buffer),
		calculators.WithLogger(sc.Logger.With().Str("component", "daily_returns").Logger()),
	)
	if err != nil {
		return nil, err
	}
	return calculators.Execute(ctx, calc)
}

func summarize(engine *metrics.Engine, returns *frame.Frame, riskFreeRate float64) (*frame.Frame, *frame.Frame, error) {
	enriched, err := engine.Run(returns, engine.Standard(riskFreeRate)...)
	if err != nil {
		return nil, nil, err
	}
	summary, err := engine.Summarize(enriched, summaryColumns...)
	if err != nil {
		return nil, nil, err
	}
	corr, err := engine.ReturnsCorrelationMatrix(returns)
	if err != nil {
		return nil, nil, err
	}
	return summary, corr, nil
}

// buildConfig upper cases and trims tickers but keeps repeats, so the config
// validation still reports them.
func buildConfig(start, end string, tickers []string) (calculators.CalculatorConfig, error) {
	s, err := calculators.ParseTimestamp(start)
	if err != nil {
		return calculators.CalculatorConfig{}, &calculators.ValidationError{Field: "start", Message: "start is not a valid timestamp", Value: start}
	}
	e, err := calculators.ParseTimestamp(end)
	if err != nil {
		return calculators.CalculatorConfig{}, &calculators.ValidationError{Field: "end", Message: "end is not a valid timestamp", Value: end}
	}
	normalized := ex.Map(tickers, func(t string) string { return strings.ToUpper(strings.TrimSpace(t)) })
	return calculators.NewCalculatorConfig(s, e, normalized)
}

func (sc *ServiceContext) startRun(ctx context.Context, kind string, config calculators.CalculatorConfig) (*int32, error) {
	if sc.PostgresConnection == nil {
		return nil, nil
	}
	id, err := sc.PostgresConnection.InsertAnalysisRun(ctx, kind, config.Tickers(), config.Start(), config.End())
	if err != nil {
		sc.Logger.Error().Err(err).Str("kind", kind).Msg("error inserting analysis run")
		return nil, fmt.Errorf("error recording analysis run: %w", err)
	}
	return &id, nil
}

// finishRun marks the run with the outcome and returns the original error, if any.
func (sc *ServiceContext) finishRun(ctx context.Context, runId *int32, res *frame.Frame, runErr error) error {
	if runErr != nil {
		sc.Logger.Warn().Err(runErr).Msg("analysis failed")
	}
	if runId == nil {
		return runErr
	}

	if runErr != nil {
		if err := sc.PostgresConnection.UpdateAnalysisRunAsFailure(ctx, *runId, runErr.Error()); err != nil {
			sc.Logger.Error().Err(err).Int32("run_id", *runId).Msg("error marking analysis run as failure")
		}
		return runErr
	}

	// not marking as failure here, if the success update fails the failure update most likely would too
	if err := sc.PostgresConnection.UpdateAnalysisRunAsSuccess(ctx, *runId, res.Height()); err != nil {
		return fmt.Errorf("error marking analysis run %d as success: %w", *runId, err)
	}
	return nil
}

func returnRows(f *frame.Frame) ([]sm.ReturnRow, error) {
	cols, err := columns(f, m.BusinessDate, m.Ticker, m.Close, m.LogReturn, m.ArithmeticReturn)
	if err != nil {
		return nil, err
	}

	rows := make([]sm.ReturnRow, f.Height())
	for i := range rows {
		rows[i] = sm.ReturnRow{
			BusinessDate:     ex.FmtShort(cols[0].Date(i)),
			Ticker:           cols[1].Str(i),
			Close:            sm.FloatPtr(cols[2].Float(i)),
			LogReturn:        sm.FloatPtr(cols[3].Float(i)),
			ArithmeticReturn: sm.FloatPtr(cols[4].Float(i)),
		}
	}
	return rows, nil
}

func summaryRows(f *frame.Frame) ([]sm.MetricsSummaryRow, error) {
	cols, err := columns(f, append([]string{m.Ticker, m.ObservationCount}, summaryColumns...)...)
	if err != nil {
		return nil, err
	}

	rows := make([]sm.MetricsSummaryRow, f.Height())
	for i := range rows {
		rows[i] = sm.MetricsSummaryRow{
			Ticker:                       cols[0].Str(i),
			Observations:                 cols[1].Int(i),
			MeanReturn:                   sm.FloatPtr(cols[2].Float(i)),
			StdDevReturn:                 sm.FloatPtr(cols[3].Float(i)),
			CumulativeReturn:             sm.FloatPtr(cols[4].Float(i)),
			RealizedVolatility:           sm.FloatPtr(cols[5].Float(i)),
			AnnualizedReturn:             sm.FloatPtr(cols[6].Float(i)),
			AnnualizedRealizedVolatility: sm.FloatPtr(cols[7].Float(i)),
			SharpeRatio:                  sm.FloatPtr(cols[8].Float(i)),
		}
	}
	return rows, nil
}

func correlationMatrix(f *frame.Frame) (sm.CorrelationMatrix, error) {
	keys, err := f.Column(m.Ticker)
	if err != nil {
		return sm.CorrelationMatrix{}, err
	}

	res := sm.CorrelationMatrix{
		Tickers: keys.Strings(),
		Values:  make([][]*float64, f.Height()),
	}
	cols, err := columns(f, res.Tickers...)
	if err != nil {
		return sm.CorrelationMatrix{}, err
	}
	for i := range res.Values {
		res.Values[i] = make([]*float64, len(cols))
		for j, c := range cols {
			res.Values[i][j] = sm.FloatPtr(c.Float(i))
		}
	}
	return res, nil
}

func columns(f *frame.Frame, names ...string) ([]frame.Series, error) {
	res := make([]frame.Series, len(names))
	for i, name := range names {
		c, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		res[i] = c
	}
	return res, nil
}
