package licensing

import "errors"

// Load errors. Callers surface them as "no result".
var (
	ErrNotFound   = errors.New("input file not found")
	ErrEmptyInput = errors.New("input file has no data rows")
	ErrParse      = errors.New("input file could not be parsed")
)

// ErrWrite wraps permission or disk failures while writing the workbook.
var ErrWrite = errors.New("report could not be written")

// ErrNoOffices is returned by Summarize when there is no office row to divide by.
var ErrNoOffices = errors.New("summary requires at least one office row")
