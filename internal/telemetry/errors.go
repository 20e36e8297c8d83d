package telemetry

import (
	"errors"
	"fmt"
)

// ErrInputFormat is wrapped by every error caused by malformed telemetry
// input, so callers can tell bad uploads apart from internal failures.
var ErrInputFormat = errors.New("input format error")

var (
	ErrEmptyInput       = errors.New("no header row")
	ErrMissingColumn    = errors.New("required column missing")
	ErrInvalidNumber    = errors.New("invalid number")
	ErrNoRows           = errors.New("no data rows")
	ErrInvalidTimestamp = errors.New("unrecognised timestamp")
)

// InputFormatError reports a structural problem with an input CSV: a
// missing column, an unreadable cell or an empty file. Row is the 1-based
// data row (0 when the problem is not tied to a row).
type InputFormatError struct {
	Column string
	Row    int
	Value  string
	Err    error
}

func (e *InputFormatError) Error() string {
	switch {
	case e.Row > 0 && e.Column != "":
		return fmt.Sprintf("row %d, column %q: %v (value %q)", e.Row, e.Column, e.Err, e.Value)
	case e.Column != "":
		return fmt.Sprintf("column %q: %v", e.Column, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *InputFormatError) Unwrap() []error {
	return []error{ErrInputFormat, e.Err}
}

// ParseError reports a timestamp that matched none of the accepted layouts.
type ParseError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d, column %q: cannot parse timestamp %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrInputFormat, e.Err}
}
