package frame

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/guregu/null/v6"
)

type DataType uint8

const (
	Date DataType = iota + 1
	Utf8
	Float64
	Int64
)

func (d DataType) String() string {
	switch d {
	case Date:
		return "date"
	case Utf8:
		return "str"
	case Float64:
		return "f64"
	case Int64:
		return "i64"
	default:
		return "unknown"
	}
}

// Series is a named, typed and immutable column. Only the slice matching the
// series type is populated.
type Series struct {
	name   string
	dtype  DataType
	dates  []time.Time
	strs   []string
	floats []null.Float
	ints   []int64
}

// NewDates builds a Date series, every value is truncated to midnight UTC.
func NewDates(name string, values []time.Time) Series {
	dates := make([]time.Time, len(values))
	for i, v := range values {
		dates[i] = ToDate(v)
	}
	return Series{name: name, dtype: Date, dates: dates}
}

func NewStrings(name string, values []string) Series {
	return Series{name: name, dtype: Utf8, strs: slices.Clone(values)}
}

func NewFloats(name string, values []null.Float) Series {
	return Series{name: name, dtype: Float64, floats: slices.Clone(values)}
}

// FromFloat64s builds a Float64 series where every value is set.
func FromFloat64s(name string, values []float64) Series {
	floats := make([]null.Float, len(values))
	for i, v := range values {
		floats[i] = null.FloatFrom(v)
	}
	return Series{name: name, dtype: Float64, floats: floats}
}

func NewInts(name string, values []int64) Series {
	return Series{name: name, dtype: Int64, ints: slices.Clone(values)}
}

// ToDate drops the time of day and moves t to UTC.
func ToDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func (s Series) Name() string {
	return s.name
}

func (s Series) Type() DataType {
	return s.dtype
}

func (s Series) Len() int {
	switch s.dtype {
	case Date:
		return len(s.dates)
	case Utf8:
		return len(s.strs)
	case Float64:
		return len(s.floats)
	case Int64:
		return len(s.ints)
	default:
		return 0
	}
}

func (s Series) Dates() []time.Time {
	return slices.Clone(s.dates)
}

func (s Series) Strings() []string {
	return slices.Clone(s.strs)
}

func (s Series) Floats() []null.Float {
	return slices.Clone(s.floats)
}

func (s Series) Ints() []int64 {
	return slices.Clone(s.ints)
}

func (s Series) Date(i int) time.Time {
	return s.dates[i]
}

func (s Series) Str(i int) string {
	return s.strs[i]
}

func (s Series) Float(i int) null.Float {
	return s.floats[i]
}

func (s Series) Int(i int) int64 {
	return s.ints[i]
}

// Key renders row i as a string, used for grouping.
func (s Series) Key(i int) string {
	switch s.dtype {
	case Date:
		return s.dates[i].Format(time.DateOnly)
	case Utf8:
		return s.strs[i]
	case Float64:
		if !s.floats[i].Valid {
			return "null"
		}
		return fmt.Sprint(s.floats[i].Float64)
	case Int64:
		return fmt.Sprint(s.ints[i])
	default:
		return ""
	}
}

// Rename returns a copy of the series under a new name.
func (s Series) Rename(name string) Series {
	s.name = name
	return s
}

func (s Series) take(rows []int) Series {
	res := Series{name: s.name, dtype: s.dtype}
	switch s.dtype {
	case Date:
		res.dates = make([]time.Time, len(rows))
		for i, r := range rows {
			res.dates[i] = s.dates[r]
		}
	case Utf8:
		res.strs = make([]string, len(rows))
		for i, r := range rows {
			res.strs[i] = s.strs[r]
		}
	case Float64:
		res.floats = make([]null.Float, len(rows))
		for i, r := range rows {
			res.floats[i] = s.floats[r]
		}
	case Int64:
		res.ints = make([]int64, len(rows))
		for i, r := range rows {
			res.ints[i] = s.ints[r]
		}
	}
	return res
}

// compare orders rows a and b. Null and NaN floats sort last.
func (s Series) compare(a, b int) int {
	switch s.dtype {
	case Date:
		return s.dates[a].Compare(s.dates[b])
	case Utf8:
		switch {
		case s.strs[a] < s.strs[b]:
			return -1
		case s.strs[a] > s.strs[b]:
			return 1
		}
		return 0
	case Float64:
		av, bv := s.floats[a], s.floats[b]
		aMissing := !av.Valid || math.IsNaN(av.Float64)
		bMissing := !bv.Valid || math.IsNaN(bv.Float64)
		switch {
		case aMissing && bMissing:
			return 0
		case aMissing:
			return 1
		case bMissing:
			return -1
		}
		switch {
		case av.Float64 < bv.Float64:
			return -1
		case av.Float64 > bv.Float64:
			return 1
		}
		return 0
	case Int64:
		switch {
		case s.ints[a] < s.ints[b]:
			return -1
		case s.ints[a] > s.ints[b]:
			return 1
		}
		return 0
	}
	return 0
}

func (s Series) castFloat64() (Series, error) {
	switch s.dtype {
	case Float64:
		return s, nil
	case Int64:
		floats := make([]null.Float, len(s.ints))
		for i, v := range s.ints {
			floats[i] = null.FloatFrom(float64(v))
		}
		return Series{name: s.name, dtype: Float64, floats: floats}, nil
	default:
		return Series{}, fmt.Errorf("cannot cast column %s from %s to %s", s.name, s.dtype, Float64)
	}
}
