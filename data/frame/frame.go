package frame

import (
	"fmt"
	"slices"
	"strings"
)

type Field struct {
	Name string
	Type DataType
}

// Schema is an ordered list of column names and their types.
type Schema []Field

func (s Schema) Names() []string {
	res := make([]string, len(s))
	for i, f := range s {
		res[i] = f.Name
	}
	return res
}

func (s Schema) Lookup(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (s Schema) String() string {
	parts := make([]string, len(s))
	for i, f := range s {
		parts[i] = fmt.Sprintf("%s: %s", f.Name, f.Type)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Frame is an immutable table of equal length columns with unique names.
// Every operation returns a new frame.
type Frame struct {
	columns []Series
	index   map[string]int
	height  int
}

// Partition is the set of row indexes sharing one key value, in row order.
type Partition struct {
	Key  string
	Rows []int
}

func New(columns ...Series) (*Frame, error) {
	f := &Frame{
		columns: make([]Series, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}

	for i, c := range columns {
		if c.name == "" {
			return nil, fmt.Errorf("column %d has no name", i)
		}
		if _, ok := f.index[c.name]; ok {
			return nil, fmt.Errorf("duplicate column name %s", c.name)
		}
		if i == 0 {
			f.height = c.Len()
		} else if c.Len() != f.height {
			return nil, fmt.Errorf("column %s has length %d, expected %d", c.name, c.Len(), f.height)
		}
		f.index[c.name] = i
		f.columns = append(f.columns, c)
	}

	return f, nil
}

// Empty builds a zero row frame with the given schema.
func Empty(schema Schema) *Frame {
	cols := make([]Series, len(schema))
	for i, field := range schema {
		cols[i] = Series{name: field.Name, dtype: field.Type}
	}
	f, err := New(cols...)
	if err != nil {
		panic(fmt.Sprintf("invalid schema %s: %v", schema, err))
	}
	return f
}

func (f *Frame) Height() int {
	return f.height
}

func (f *Frame) Width() int {
	return len(f.columns)
}

func (f *Frame) Columns() []string {
	res := make([]string, len(f.columns))
	for i, c := range f.columns {
		res[i] = c.name
	}
	return res
}

func (f *Frame) Schema() Schema {
	res := make(Schema, len(f.columns))
	for i, c := range f.columns {
		res[i] = Field{Name: c.name, Type: c.dtype}
	}
	return res
}

func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

func (f *Frame) Column(name string) (Series, error) {
	i, ok := f.index[name]
	if !ok {
		return Series{}, fmt.Errorf("column %s not found", name)
	}
	return f.columns[i], nil
}

// WithColumns replaces columns that share a name and appends the rest.
func (f *Frame) WithColumns(columns ...Series) (*Frame, error) {
	cols := slices.Clone(f.columns)
	for _, c := range columns {
		if i, ok := f.index[c.name]; ok {
			cols[i] = c
			continue
		}
		cols = append(cols, c)
	}
	if len(f.columns) == 0 {
		return New(cols...)
	}
	for _, c := range cols {
		if c.Len() != f.height {
			return nil, fmt.Errorf("column %s has length %d, expected %d", c.name, c.Len(), f.height)
		}
	}
	return New(cols...)
}

// Select projects the named columns in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	cols := make([]Series, len(names))
	for i, name := range names {
		c, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	res, err := New(cols...)
	if err != nil {
		return nil, err
	}
	res.height = f.height
	return res, nil
}

// Drop removes the named columns, missing names are ignored.
func (f *Frame) Drop(names ...string) *Frame {
	res := &Frame{
		columns: make([]Series, 0, len(f.columns)),
		index:   make(map[string]int, len(f.columns)),
		height:  f.height,
	}
	// a subset of a valid frame is valid, no need to go through New
	for _, c := range f.columns {
		if !slices.Contains(names, c.name) {
			res.index[c.name] = len(res.columns)
			res.columns = append(res.columns, c)
		}
	}
	return res
}

// Rename applies old -> new column names. Keys that are not columns are ignored.
func (f *Frame) Rename(mapping map[string]string) (*Frame, error) {
	cols := make([]Series, len(f.columns))
	for i, c := range f.columns {
		if to, ok := mapping[c.name]; ok {
			c = c.Rename(to)
		}
		cols[i] = c
	}
	return New(cols...)
}

// Cast converts the named column to another type. Int64 to Float64 is the only
// supported conversion, casting a column to its own type is a no-op.
func (f *Frame) Cast(name string, to DataType) (*Frame, error) {
	c, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	if c.dtype == to {
		return f, nil
	}
	if to != Float64 {
		return nil, fmt.Errorf("cannot cast column %s from %s to %s", name, c.dtype, to)
	}
	cast, err := c.castFloat64()
	if err != nil {
		return nil, err
	}
	return f.WithColumns(cast)
}

// Take builds a frame from the given row indexes, in order.
func (f *Frame) Take(rows []int) *Frame {
	cols := make([]Series, len(f.columns))
	for i, c := range f.columns {
		cols[i] = c.take(rows)
	}
	return &Frame{
		columns: cols,
		index:   f.index,
		height:  len(rows),
	}
}

func (f *Frame) Filter(predicate func(row int) bool) *Frame {
	rows := make([]int, 0, f.height)
	for i := range f.height {
		if predicate(i) {
			rows = append(rows, i)
		}
	}
	return f.Take(rows)
}

// SortBy performs a stable ascending sort on the given keys.
func (f *Frame) SortBy(keys ...string) (*Frame, error) {
	cols := make([]Series, len(keys))
	for i, k := range keys {
		c, err := f.Column(k)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}

	rows := make([]int, f.height)
	for i := range rows {
		rows[i] = i
	}

	slices.SortStableFunc(rows, func(a, b int) int {
		for _, c := range cols {
			if r := c.compare(a, b); r != 0 {
				return r
			}
		}
		return 0
	})

	return f.Take(rows), nil
}

// Partitions groups rows by key, in order of first appearance.
func (f *Frame) Partitions(key string) ([]Partition, error) {
	c, err := f.Column(key)
	if err != nil {
		return nil, err
	}

	lookup := make(map[string]int)
	var res []Partition
	for i := range f.height {
		k := c.Key(i)
		idx, ok := lookup[k]
		if !ok {
			idx = len(res)
			lookup[k] = idx
			res = append(res, Partition{Key: k})
		}
		res[idx].Rows = append(res[idx].Rows, i)
	}
	return res, nil
}

// Concat stacks frames vertically. Every frame must share the first frame's schema.
func Concat(frames ...*Frame) (*Frame, error) {
	if len(frames) == 0 {
		return New()
	}

	schema := frames[0].Schema()
	cols := make([]Series, len(schema))
	for i, field := range schema {
		cols[i] = Series{name: field.Name, dtype: field.Type}
	}

	for n, f := range frames {
		if !slices.Equal(f.Schema(), schema) {
			return nil, fmt.Errorf("frame %d has schema %s, expected %s", n, f.Schema(), schema)
		}
		for i, c := range f.columns {
			cols[i].dates = append(cols[i].dates, c.dates...)
			cols[i].strs = append(cols[i].strs, c.strs...)
			cols[i].floats = append(cols[i].floats, c.floats...)
			cols[i].ints = append(cols[i].ints, c.ints...)
		}
	}

	return New(cols...)
}
