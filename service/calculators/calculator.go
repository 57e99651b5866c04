package calculators

import (
	"context"
	"time"

	"tsa/data/frame"
)

// Calculator produces a table that must satisfy its declared output schema.
type Calculator interface {
	OutputSchema() frame.Schema
	Calculate(ctx context.Context) (*frame.Frame, error)
}

// PriceSource supplies a long format price panel for the given tickers with
// start and end dates both inclusive.
type PriceSource interface {
	FetchPricePanel(ctx context.Context, tickers []string, start, end time.Time) (*frame.Frame, error)
}

// Execute runs the calculator, checks every schema column exists with the exact
// declared type and projects the result to the schema's columns and order.
func Execute(ctx context.Context, c Calculator) (*frame.Frame, error) {
	res, err := c.Calculate(ctx)
	if err != nil {
		return nil, err
	}

	schema := c.OutputSchema()
	if err := requireColumns(res, schema); err != nil {
		return nil, err
	}

	return res.Select(schema.Names()...)
}
