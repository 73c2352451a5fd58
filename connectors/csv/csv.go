package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	lo "github.com/samber/lo"

	"license-report/domain/licensing"
)

// Column headers of the license export.
const (
	ColOffice            = "Office"
	ColLicenses          = "Licenses"
	ColUserPrincipalName = "User principal name"
	ColDisplayName       = "Display name"
)

// RequiredColumns must all be present in the header row.
var RequiredColumns = []string{ColOffice, ColLicenses, ColUserPrincipalName, ColDisplayName}

// LoadResult is the typed content of a license export.
type LoadResult struct {
	Rows []licensing.Row
	// Skipped counts data rows that could not be turned into a Row.
	Skipped  int
	Warnings []string
}

// Load reads the export at path. Office values are trimmed; everything else is kept as is.
// Errors wrap licensing.ErrNotFound, licensing.ErrEmptyInput or licensing.ErrParse.
func Load(path string) (LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return LoadResult{}, fmt.Errorf("%w: %s", licensing.ErrNotFound, path)
		}
		return LoadResult{}, fmt.Errorf("%w: %v", licensing.ErrParse, err)
	}
	defer f.Close()

	r := newReader(f)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return LoadResult{}, fmt.Errorf("%w: %s", licensing.ErrEmptyInput, path)
	}
	if err != nil {
		return LoadResult{}, fmt.Errorf("%w: header: %v", licensing.ErrParse, err)
	}
	idx := indexMap(header)
	if missing := missingColumns(idx); len(missing) > 0 {
		return LoadResult{}, fmt.Errorf("%w: missing columns: %s", licensing.ErrParse, strings.Join(missing, ", "))
	}
	width := lo.Max(lo.Map(RequiredColumns, func(col string, _ int) int { return idx[col] })) + 1

	var res LoadResult
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return LoadResult{}, fmt.Errorf("%w: %v", licensing.ErrParse, err)
			}
			res.skip(fmt.Sprintf("line %d: %v", perr.StartLine, perr.Err))
			continue
		}
		if len(rec) < width {
			line, _ := r.FieldPos(0)
			res.skip(fmt.Sprintf("line %d: expected at least %d fields, got %d", line, width, len(rec)))
			continue
		}
		res.Rows = append(res.Rows, licensing.Row{
			Office:            strings.TrimSpace(rec[idx[ColOffice]]),
			Licenses:          rec[idx[ColLicenses]],
			UserPrincipalName: rec[idx[ColUserPrincipalName]],
			DisplayName:       rec[idx[ColDisplayName]],
		})
	}
	if len(res.Rows) == 0 {
		if res.Skipped > 0 {
			return LoadResult{}, fmt.Errorf("%w: no readable rows in %s", licensing.ErrParse, path)
		}
		return LoadResult{}, fmt.Errorf("%w: %s", licensing.ErrEmptyInput, path)
	}
	slog.Info("csv.load.done", "path", path, "rows", len(res.Rows), "skipped", res.Skipped)
	return res, nil
}

func (r *LoadResult) skip(warning string) {
	r.Skipped++
	r.Warnings = append(r.Warnings, warning)
	slog.Warn("csv.row.skipped", "reason", warning)
}

// Validate checks that the file at path is readable CSV with every required column.
// The returned error message is meant for end users.
func Validate(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := newReader(f)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return errors.New("no columns to parse from file")
	}
	if err != nil {
		return errors.New("invalid CSV file format")
	}
	if missing := missingColumns(indexMap(header)); len(missing) > 0 {
		return fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	for {
		_, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.New("invalid CSV file format")
		}
	}
}

func newReader(rd io.Reader) *csv.Reader {
	r := csv.NewReader(rd)
	r.FieldsPerRecord = -1
	// Bare quotes inside unquoted fields (O"Brien) are kept as text.
	r.LazyQuotes = true
	return r
}

func indexMap(headers []string) map[string]int {
	m := map[string]int{}
	for i, h := range headers {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := m[h]; !dup {
			m[h] = i
		}
	}
	return m
}

func missingColumns(idx map[string]int) []string {
	return lo.Filter(RequiredColumns, func(col string, _ int) bool {
		_, ok := idx[col]
		return !ok
	})
}
