package metrics

import (
	"fmt"

	"github.com/guregu/null/v6"

	"tsa/data/frame"
)

func SMAColumn(column string, window int) string {
	return fmt.Sprintf("%s_SMA_%d", column, window)
}

func EMAColumn(column string, span int) string {
	return fmt.Sprintf("%s_EMA_%d", column, span)
}

// SimpleMovingAverage adds the trailing mean of column over window rows per
// partition, walking each partition in date order. A row is null until the window is full or when it holds a null.
func (e *Engine) SimpleMovingAverage(f *frame.Frame, column string, window int) (*frame.Frame, error) {
	if window < 1 {
		return nil, fmt.Errorf("moving average window must be positive, got %d", window)
	}

	in, parts, err := e.sequenced(f, column)
	if err != nil {
		return nil, err
	}

	out := make([]null.Float, f.Height())
	for _, p := range parts {
		for i := window - 1; i < len(p.Rows); i++ {
			sum, full := 0.0, true
			for _, row := range p.Rows[i-window+1 : i+1] {
				if !in[row].Valid {
					full = false
					break
				}
				sum += in[row].Float64
			}
			if full {
				out[p.Rows[i]] = null.FloatFrom(sum / float64(window))
			}
		}
	}

	return f.WithColumns(frame.NewFloats(SMAColumn(column, window), out))
}

// ExponentialMovingAverage adds a recursive EMA with alpha = 2 / (span + 1),
// seeded with the earliest value of each partition. Null inputs give null output
// and leave the running average untouched.
func (e *Engine) ExponentialMovingAverage(f *frame.Frame, column string, span int) (*frame.Frame, error) {
	if span < 1 {
		return nil, fmt.Errorf("moving average span must be positive, got %d", span)
	}

	in, parts, err := e.sequenced(f, column)
	if err != nil {
		return nil, err
	}

	alpha := 2 / (float64(span) + 1)
	out := make([]null.Float, f.Height())
	for _, p := range parts {
		var ema null.Float
		for _, row := range p.Rows {
			if !in[row].Valid {
				continue
			}
			if !ema.Valid {
				ema = in[row]
			} else {
				ema = null.FloatFrom(alpha*in[row].Float64 + (1-alpha)*ema.Float64)
			}
			out[row] = ema
		}
	}

	return f.WithColumns(frame.NewFloats(EMAColumn(column, span), out))
}
