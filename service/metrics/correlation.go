package metrics

import (
	"math"
	"slices"
	"time"

	"github.com/guregu/null/v6"

	"tsa/data/frame"
	m "tsa/data/models"
)

// ReturnsCorrelationMatrix pivots LOG_RETURN into one column per partition,
// aligned on BUSINESS_DATE, and returns the Pearson correlation matrix as a
// table: the partition key column followed by one Float64 column per partition.
// Only dates where every partition has a finite return are used. With fewer
// than two such dates every entry is NaN.
func (e *Engine) ReturnsCorrelationMatrix(f *frame.Frame) (*frame.Frame, error) {
	in, parts, err := e.input(f, m.LogReturn)
	if err != nil {
		return nil, err
	}
	dates, err := requireDates(f)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(parts))
	pivot := make([]map[time.Time]float64, len(parts))
	for j, p := range parts {
		names[j] = p.Key
		pivot[j] = make(map[time.Time]float64, len(p.Rows))
		for _, row := range p.Rows {
			v := in[row]
			if v.Valid && !math.IsNaN(v.Float64) && !math.IsInf(v.Float64, 0) {
				pivot[j][dates.Date(row)] = v.Float64
			}
		}
	}

	var common []time.Time
	if len(pivot) > 0 {
		for d := range pivot[0] {
			complete := true
			for j := 1; j < len(pivot); j++ {
				if _, ok := pivot[j][d]; !ok {
					complete = false
					break
				}
			}
			if complete {
				common = append(common, d)
			}
		}
	}

	slices.SortFunc(common, time.Time.Compare)

	n := len(names)
	corr := make([][]float64, n)
	for i := range corr {
		corr[i] = make([]float64, n)
		for j := range corr[i] {
			corr[i][j] = math.NaN()
		}
	}

	if len(common) >= 2 {
		data := make([][]float64, n)
		for j := range names {
			data[j] = make([]float64, len(common))
			for i, d := range common {
				data[j][i] = pivot[j][d]
			}
		}
		matrix := GetCorrelationMatrix(GetCovarianceMatrix(data))
		for i := range n {
			for j := range n {
				corr[i][j] = matrix.At(i, j)
			}
		}
	}

	e.logger.Debug().Int("partitions", n).Int("observations", len(common)).Msg("correlation matrix")

	cols := make([]frame.Series, 0, n+1)
	cols = append(cols, frame.NewStrings(e.partition, names))
	for j, name := range names {
		values := make([]null.Float, n)
		for i := range n {
			values[i] = null.FloatFrom(corr[i][j])
		}
		cols = append(cols, frame.NewFloats(name, values))
	}

	return frame.New(cols...)
}
