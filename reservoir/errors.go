package reservoir

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var errNotNumeric = errors.New("column is not numeric")

// UnsupportedFormatError is returned for files that are neither .xls nor .xlsx.
type UnsupportedFormatError struct {
	Filename  string
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	ext := e.Extension
	if ext == "" {
		ext = "(none)"
	}
	return fmt.Sprintf("unsupported file format %s for %q: only .xls and .xlsx are accepted", ext, e.Filename)
}

// CorruptFileError is returned when an .xlsx upload is not a zip container.
type CorruptFileError struct {
	Filename string
	Err      error
}

func (e *CorruptFileError) Error() string {
	return fmt.Sprintf("file %q is not a valid .xlsx container or is corrupt: %v", e.Filename, e.Err)
}

func (e *CorruptFileError) Unwrap() error { return e.Err }

// SheetNotFoundError is returned when the workbook has no worksheet with the expected name.
type SheetNotFoundError struct {
	Sheet     string
	Available []string
}

func (e *SheetNotFoundError) Error() string {
	return fmt.Sprintf("worksheet %q not found (available: %s)", e.Sheet, strings.Join(e.Available, ", "))
}

// MissingColumnError is returned when a required column is absent after trimming labels.
type MissingColumnError struct {
	Column    string
	Available []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q not found (columns: %s)", e.Column, strings.Join(e.Available, ", "))
}

// DateParseError is returned when a Fecha cell cannot be read as a timestamp.
// Row is the 1-based worksheet row.
type DateParseError struct {
	Row   int
	Value string
}

func (e *DateParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("empty %s value at row %d", DateColumn, e.Row)
	}
	return fmt.Sprintf("cannot parse %s value %q at row %d", DateColumn, e.Value, e.Row)
}

// UnsupportedFrequencyError is returned for a resampling frequency outside the fixed set.
type UnsupportedFrequencyError struct {
	Label string
}

func (e *UnsupportedFrequencyError) Error() string {
	return fmt.Sprintf("unsupported resampling frequency %q (choose one of: %s)", e.Label, strings.Join(FrequencyLabels(), ", "))
}

// BucketLimitError is returned when the readings span more resampling buckets
// than one exported worksheet can hold.
type BucketLimitError struct {
	Frequency string
	First     time.Time
	Last      time.Time
	Buckets   int64
}

func (e *BucketLimitError) Error() string {
	return fmt.Sprintf("readings from %s to %s need %d buckets of %s, more than the %d an export can hold",
		e.First.UTC().Format(time.DateOnly), e.Last.UTC().Format(time.DateOnly), e.Buckets, e.Frequency, MaxBuckets)
}

// ParseError wraps a failure from the spreadsheet readers or the cell parsers.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ExportError wraps a serialization failure of the resampled workbook.
type ExportError struct {
	Err error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export resampled workbook: %v", e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// ValidationError is returned for a malformed request.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ErrorKind maps a pipeline error to a stable label for metrics and API responses.
func ErrorKind(err error) string {
	var (
		unsupported *UnsupportedFormatError
		corrupt     *CorruptFileError
		sheet       *SheetNotFoundError
		column      *MissingColumnError
		date        *DateParseError
		freq        *UnsupportedFrequencyError
		buckets     *BucketLimitError
		parse       *ParseError
		export      *ExportError
		validation  *ValidationError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &unsupported):
		return "unsupported_format"
	case errors.As(err, &corrupt):
		return "corrupt_file"
	case errors.As(err, &sheet):
		return "sheet_not_found"
	case errors.As(err, &column):
		return "missing_column"
	case errors.As(err, &date):
		return "date_parse"
	case errors.As(err, &freq):
		return "unsupported_frequency"
	case errors.As(err, &buckets):
		return "bucket_limit"
	case errors.As(err, &validation):
		return "validation"
	case errors.As(err, &parse):
		return "parse"
	case errors.As(err, &export):
		return "export"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}

// IsInputError reports whether err was caused by the uploaded file or the request
// rather than by the service itself.
func IsInputError(err error) bool {
	switch ErrorKind(err) {
	case "", "export", "canceled", "internal":
		return false
	}
	return true
}
