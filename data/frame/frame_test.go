package frame

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/go-cmp/cmp"
	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func testFrame(t *testing.T) *Frame {
	t.Helper()
	f, err := New(
		NewDates("date", []time.Time{day(3), day(1), day(2), day(1)}),
		NewStrings("ticker", []string{"B", "B", "A", "A"}),
		FromFloat64s("close", []float64{3, 1, 20, 10}),
	)
	require.NoError(t, err)
	return f
}

func Test_Frame_NewRejectsBadColumns(t *testing.T) {
	_, err := New(FromFloat64s("a", []float64{1}), FromFloat64s("a", []float64{2}))
	assert.Error(t, err)

	_, err = New(FromFloat64s("a", []float64{1}), FromFloat64s("b", []float64{1, 2}))
	assert.Error(t, err)

	_, err = New(FromFloat64s("", []float64{1}))
	assert.Error(t, err)
}

func Test_Frame_DatesAreNormalized(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	s := NewDates("date", []time.Time{time.Date(2024, time.January, 1, 22, 30, 0, 0, ny)})
	// 22:30 in new york is already the next day in UTC
	assert.Equal(t, time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC), s.Date(0))
}

func Test_Frame_SchemaIsOrdered(t *testing.T) {
	f := testFrame(t)
	expected := Schema{{"date", Date}, {"ticker", Utf8}, {"close", Float64}}
	if diff := cmp.Diff(expected, f.Schema()); diff != "" {
		t.Fatalf("schema mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"date", "ticker", "close"}, f.Schema().Names())
}

func Test_Frame_SortByIsStableAndMultiKey(t *testing.T) {
	f := testFrame(t)
	sorted, err := f.SortBy("ticker", "date")
	require.NoError(t, err)

	tickers, _ := sorted.Column("ticker")
	closes, _ := sorted.Column("close")
	assert.Equal(t, []string{"A", "A", "B", "B"}, tickers.Strings())

	got := make([]float64, sorted.Height())
	for i, v := range closes.Floats() {
		got[i] = v.Float64
	}
	assert.Equal(t, []float64{10, 20, 1, 3}, got)

	// original frame is untouched
	orig, _ := f.Column("close")
	assert.Equal(t, 3.0, orig.Float(0).Float64)
}

func Test_Frame_SortByPutsNullsLast(t *testing.T) {
	f, err := New(NewFloats("v", []null.Float{{}, null.FloatFrom(2), null.FloatFrom(math.NaN()), null.FloatFrom(1)}))
	require.NoError(t, err)

	sorted, err := f.SortBy("v")
	require.NoError(t, err)

	v, _ := sorted.Column("v")
	assert.Equal(t, 1.0, v.Float(0).Float64)
	assert.Equal(t, 2.0, v.Float(1).Float64)
	assert.False(t, v.Float(2).Valid)
	assert.True(t, math.IsNaN(v.Float(3).Float64))
}

func Test_Frame_Partitions(t *testing.T) {
	f := testFrame(t)
	parts, err := f.Partitions("ticker")
	require.NoError(t, err)

	require.Len(t, parts, 2)
	assert.Equal(t, Partition{Key: "B", Rows: []int{0, 1}}, parts[0])
	assert.Equal(t, Partition{Key: "A", Rows: []int{2, 3}}, parts[1])

	_, err = f.Partitions("missing")
	assert.Error(t, err)
}

func Test_Frame_WithColumnsReplacesAndAppends(t *testing.T) {
	f := testFrame(t)
	res, err := f.WithColumns(
		FromFloat64s("close", []float64{0, 0, 0, 0}),
		FromFloat64s("extra", []float64{1, 1, 1, 1}),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"date", "ticker", "close", "extra"}, res.Columns())
	c, _ := res.Column("close")
	assert.Equal(t, 0.0, c.Float(0).Float64)

	_, err = f.WithColumns(FromFloat64s("short", []float64{1}))
	assert.Error(t, err)
}

func Test_Frame_SelectRenameDropCast(t *testing.T) {
	f, err := New(
		NewStrings("Ticker", []string{"A"}),
		NewInts("Volume", []int64{42}),
	)
	require.NoError(t, err)

	renamed, err := f.Rename(map[string]string{"Ticker": "TICKER", "Volume": "VOLUME", "Absent": "X"})
	require.NoError(t, err)
	assert.Equal(t, []string{"TICKER", "VOLUME"}, renamed.Columns())

	cast, err := renamed.Cast("VOLUME", Float64)
	require.NoError(t, err)
	v, _ := cast.Column("VOLUME")
	assert.Equal(t, Float64, v.Type())
	assert.Equal(t, 42.0, v.Float(0).Float64)

	_, err = renamed.Cast("TICKER", Float64)
	assert.Error(t, err)

	sel, err := cast.Select("VOLUME", "TICKER")
	require.NoError(t, err)
	assert.Equal(t, []string{"VOLUME", "TICKER"}, sel.Columns())

	_, err = cast.Select("NOPE")
	assert.Error(t, err)

	dropped := cast.Drop("VOLUME", "NOPE")
	assert.Equal(t, []string{"TICKER"}, dropped.Columns())
	ticker, err := dropped.Column("TICKER")
	require.NoError(t, err)
	assert.Equal(t, cast.Height(), ticker.Len())

	// dropping everything keeps the row count
	none := cast.Drop("VOLUME", "TICKER")
	assert.Empty(t, none.Columns())
	assert.Equal(t, cast.Height(), none.Height())
	_, err = none.Column("TICKER")
	assert.Error(t, err)
}

func Test_Frame_FilterAndConcat(t *testing.T) {
	f := testFrame(t)
	dates, _ := f.Column("date")
	filtered := f.Filter(func(i int) bool { return dates.Date(i).After(day(1)) })
	assert.Equal(t, 2, filtered.Height())

	both, err := Concat(filtered, f)
	require.NoError(t, err)
	assert.Equal(t, 6, both.Height())

	other, _ := f.Select("ticker")
	_, err = Concat(f, other)
	assert.Error(t, err)
}

func Test_Frame_EmptyKeepsSchema(t *testing.T) {
	schema := Schema{{"a", Date}, {"b", Float64}}
	f := Empty(schema)
	assert.Equal(t, 0, f.Height())
	assert.Equal(t, schema, f.Schema())
}

func Test_Frame_WriteIPCRoundTrip(t *testing.T) {
	mem := memory.NewGoAllocator()

	f, err := New(
		NewDates("date", []time.Time{day(1), day(2)}),
		NewStrings("ticker", []string{"A", "A"}),
		NewFloats("ret", []null.Float{{}, null.FloatFrom(0.5)}),
		NewInts("n", []int64{1, 2}),
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.WriteIPC(&buf, mem))

	rdr, err := ipc.NewReader(&buf, ipc.WithAllocator(mem))
	require.NoError(t, err)
	defer rdr.Release()

	require.True(t, rdr.Next())
	rec := rdr.Record()
	assert.EqualValues(t, 2, rec.NumRows())
	assert.Equal(t, "ret", rec.Schema().Field(2).Name)

	ret := rec.Column(2).(*array.Float64)
	assert.True(t, ret.IsNull(0))
	assert.Equal(t, 0.5, ret.Value(1))

	tickers := rec.Column(1).(*array.String)
	assert.Equal(t, "A", tickers.Value(0))
}
