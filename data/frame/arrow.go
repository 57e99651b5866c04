package frame

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

func arrowType(d DataType) (arrow.DataType, error) {
	switch d {
	case Date:
		return arrow.FixedWidthTypes.Date32, nil
	case Utf8:
		return arrow.BinaryTypes.String, nil
	case Float64:
		return arrow.PrimitiveTypes.Float64, nil
	case Int64:
		return arrow.PrimitiveTypes.Int64, nil
	default:
		return nil, fmt.Errorf("no arrow type for %s", d)
	}
}

// ArrowSchema maps the frame schema onto an arrow schema. Float columns are nullable.
func (f *Frame) ArrowSchema() (*arrow.Schema, error) {
	fields := make([]arrow.Field, len(f.columns))
	for i, c := range f.columns {
		dt, err := arrowType(c.dtype)
		if err != nil {
			return nil, err
		}
		fields[i] = arrow.Field{Name: c.name, Type: dt, Nullable: c.dtype == Float64}
	}
	return arrow.NewSchema(fields, nil), nil
}

// ToRecord copies the frame into an arrow record. The caller releases it.
func (f *Frame) ToRecord(mem memory.Allocator) (arrow.Record, error) {
	schema, err := f.ArrowSchema()
	if err != nil {
		return nil, err
	}

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for i, c := range f.columns {
		switch c.dtype {
		case Date:
			fb := b.Field(i).(*array.Date32Builder)
			for _, d := range c.dates {
				fb.Append(arrow.Date32FromTime(d))
			}
		case Utf8:
			b.Field(i).(*array.StringBuilder).AppendValues(c.strs, nil)
		case Float64:
			fb := b.Field(i).(*array.Float64Builder)
			for _, v := range c.floats {
				if v.Valid {
					fb.Append(v.Float64)
				} else {
					fb.AppendNull()
				}
			}
		case Int64:
			b.Field(i).(*array.Int64Builder).AppendValues(c.ints, nil)
		}
	}

	return b.NewRecord(), nil
}

// WriteIPC streams the frame to w in the arrow IPC stream format.
func (f *Frame) WriteIPC(w io.Writer, mem memory.Allocator) error {
	schema, err := f.ArrowSchema()
	if err != nil {
		return err
	}

	rec, err := f.ToRecord(mem)
	if err != nil {
		return err
	}
	defer rec.Release()

	writer := ipc.NewWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err := writer.Write(rec); err != nil {
		writer.Close()
		return fmt.Errorf("error writing arrow record: %w", err)
	}

	return writer.Close()
}
