package metrics

import (
	"tsa/data/frame"
	m "tsa/data/models"
)

// Summarize collapses a metrics table to one row per partition: the partition
// key, OBSERVATION_COUNT (rows with a set LOG_RETURN) and the value of each
// requested column on the partition's latest row.
func (e *Engine) Summarize(f *frame.Frame, columns ...string) (*frame.Frame, error) {
	in, parts, err := e.sequenced(f, m.LogReturn)
	if err != nil {
		return nil, err
	}

	last := make([]int, len(parts))
	keys := make([]string, len(parts))
	counts := make([]int64, len(parts))
	for i, p := range parts {
		keys[i] = p.Key
		last[i] = p.Rows[len(p.Rows)-1]
		for _, row := range p.Rows {
			if in[row].Valid {
				counts[i]++
			}
		}
	}

	tail := f.Take(last)
	cols := []frame.Series{
		frame.NewStrings(e.partition, keys),
		frame.NewInts(m.ObservationCount, counts),
	}
	for _, name := range columns {
		if err := requireFloat(f, name); err != nil {
			return nil, err
		}
		c, _ := tail.Column(name)
		cols = append(cols, c)
	}

	return frame.New(cols...)
}
