package calculators

import (
	"fmt"

	"tsa/data/frame"
)

// ValidationError is returned when a calculator configuration is rejected.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// SchemaError is returned when a calculated table does not match the declared
// output schema, or when an input table lacks a required column.
type SchemaError struct {
	Column   string
	Expected frame.DataType
	Actual   frame.DataType
	Missing  bool
}

func (e *SchemaError) Error() string {
	if e.Missing {
		return fmt.Sprintf("missing expected column: %s (%s)", e.Column, e.Expected)
	}
	return fmt.Sprintf("column %s has type %s, expected %s", e.Column, e.Actual, e.Expected)
}

// requireColumns checks that f carries every field of schema with the exact type.
func requireColumns(f *frame.Frame, schema frame.Schema) error {
	actual := f.Schema()
	for _, field := range schema {
		got, ok := actual.Lookup(field.Name)
		if !ok {
			return &SchemaError{Column: field.Name, Expected: field.Type, Missing: true}
		}
		if got.Type != field.Type {
			return &SchemaError{Column: field.Name, Expected: field.Type, Actual: got.Type}
		}
	}
	return nil
}
