package calculators

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validate = newValidator()

	// layouts without an offset are read as UTC
	naiveLayouts = []string{
		time.DateOnly,
		time.DateTime,
		"2006-01-02T15:04:05",
	}
)

type configInput struct {
	Start   time.Time `json:"start" validate:"required"`
	End     time.Time `json:"end" validate:"required,gtfield=Start"`
	Tickers []string  `json:"tickers" validate:"min=1,unique,dive,required"`
}

// CalculatorConfig is a validated date window and instrument selection. Both
// bounds are in UTC and start is strictly before end.
type CalculatorConfig struct {
	start   time.Time
	end     time.Time
	tickers []string
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NewCalculatorConfig normalizes start and end to UTC and validates the window
// and ticker list. The first violation is returned as a *ValidationError.
func NewCalculatorConfig(start, end time.Time, tickers []string) (CalculatorConfig, error) {
	in := configInput{
		Start:   start.UTC(),
		End:     end.UTC(),
		Tickers: slices.Clone(tickers),
	}

	if err := validate.Struct(in); err != nil {
		return CalculatorConfig{}, toValidationError(err)
	}

	return CalculatorConfig{
		start:   in.Start,
		end:     in.End,
		tickers: in.Tickers,
	}, nil
}

func (c CalculatorConfig) Start() time.Time {
	return c.start
}

func (c CalculatorConfig) End() time.Time {
	return c.end
}

func (c CalculatorConfig) Tickers() []string {
	return slices.Clone(c.tickers)
}

func (c CalculatorConfig) String() string {
	return fmt.Sprintf("%s..%s %v", c.start.Format(time.RFC3339), c.end.Format(time.RFC3339), c.tickers)
}

// ParseTimestamp reads a timestamp for a config bound. Values without an offset
// are taken as UTC, values with one are converted to UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ValidationError{
		Field:   "timestamp",
		Message: "expected YYYY-MM-DD, YYYY-MM-DD HH:MM:SS or RFC3339",
		Value:   value,
	}
}

func toValidationError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return &ValidationError{Field: "config", Message: err.Error()}
	}

	fe := ve[0]
	field := strings.SplitN(fe.Field(), "[", 2)[0]
	res := &ValidationError{Field: field, Value: fe.Value()}

	switch {
	case fe.Tag() == "gtfield":
		res.Message = "start must be strictly before end"
	case field == "tickers" && fe.Tag() == "min":
		res.Message = "tickers must contain at least one entry"
	case fe.Tag() == "unique":
		res.Message = "tickers must not repeat"
	case field == "tickers" && fe.Tag() == "required":
		res.Message = "tickers must not contain empty entries"
	case fe.Tag() == "required":
		res.Message = fmt.Sprintf("%s must be set", field)
	default:
		res.Message = fmt.Sprintf("failed %s validation", fe.Tag())
	}

	return res
}
