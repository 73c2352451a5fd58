package xlsx

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	lo "github.com/samber/lo"
	"github.com/xuri/excelize/v2"

	"license-report/domain/licensing"
)

// Sheet names of the report, in workbook order.
const (
	SheetCounts      = "License Counts"
	SheetManagement  = "AION Management"
	SheetPartners    = "AION Partners"
	SheetProperties  = "Properties"
	SheetUnaccounted = "Unaccounted Users"
)

const (
	headerOffice   = "Office"
	headerBillable = "Billable Total"
)

var (
	detailHeaders   = []string{"Display Name", "License Type", "User Principal Name"}
	propertyHeaders = []string{"Display Name", "License Type", "User Principal Name", "Office"}
)

type styles struct {
	header, total, currency int
}

// Write saves the costed aggregate table and the four detail collections to a new
// workbook at path. On failure no partial file is left behind.
func Write(path string, table licensing.CostedTable, tally *licensing.Tally) (err error) {
	f := excelize.NewFile()
	defer f.Close()
	defer func() {
		if err != nil {
			slog.Error("xlsx.write.error", "path", path, "error", err)
			_ = os.Remove(path)
			err = fmt.Errorf("%w: %v", licensing.ErrWrite, err)
		}
	}()

	st, err := newStyles(f)
	if err != nil {
		return err
	}
	if err := f.SetSheetName(f.GetSheetName(0), SheetCounts); err != nil {
		return err
	}
	if err := writeCounts(f, st, table); err != nil {
		return err
	}
	details := []struct {
		sheet   string
		headers []string
		rows    []licensing.Detail
	}{
		{SheetManagement, detailHeaders, tally.Management},
		{SheetPartners, detailHeaders, tally.Partners},
		{SheetProperties, propertyHeaders, tally.Properties},
		{SheetUnaccounted, detailHeaders, tally.Unaccounted},
	}
	for _, d := range details {
		if _, err := f.NewSheet(d.sheet); err != nil {
			return err
		}
		if err := writeDetails(f, st, d.sheet, d.headers, d.rows); err != nil {
			return fmt.Errorf("sheet %s: %w", d.sheet, err)
		}
	}
	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return err
	}
	slog.Info("xlsx.write.done", "path", path, "offices", len(table.Rows), "details", tally.DetailCount())
	return nil
}

func newStyles(f *excelize.File) (styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	var st styles
	var err error
	if st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"D7E4BC"}, Pattern: 1},
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border:    border,
	}); err != nil {
		return st, err
	}
	totalFmt := "#,##0"
	if st.total, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		Fill:         excelize.Fill{Type: "pattern", Color: []string{"FFEB9C"}, Pattern: 1},
		Border:       border,
		CustomNumFmt: &totalFmt,
	}); err != nil {
		return st, err
	}
	currencyFmt := "$#,##0"
	if st.currency, err = f.NewStyle(&excelize.Style{CustomNumFmt: &currencyFmt}); err != nil {
		return st, err
	}
	return st, nil
}

func writeCounts(f *excelize.File, st styles, t licensing.CostedTable) error {
	sheet := SheetCounts
	headers := append([]string{headerOffice}, t.Categories...)
	headers = append(headers, t.CostHeaders...)
	headers = append(headers, headerBillable)

	rows := make([][]any, 0, len(t.Rows)+1)
	for _, r := range append(append([]licensing.CostedRow(nil), t.Rows...), t.Total) {
		rows = append(rows, costedRow(r))
	}

	// Column style first: cells created afterwards inherit it, header and total styles override it.
	n := len(t.Categories)
	first, _ := excelize.ColumnNumberToName(n + 2)
	last, _ := excelize.ColumnNumberToName(2*n + 2)
	if err := f.SetColStyle(sheet, first+":"+last, st.currency); err != nil {
		return err
	}
	if err := writeTable(f, st, sheet, headers, rows); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, first, last, 15); err != nil {
		return err
	}
	totalRow := len(rows) + 1
	start, _ := excelize.CoordinatesToCellName(1, totalRow)
	end, _ := excelize.CoordinatesToCellName(len(headers), totalRow)
	return f.SetCellStyle(sheet, start, end, st.total)
}

func costedRow(r licensing.CostedRow) []any {
	row := make([]any, 0, 2+len(r.Counts)+len(r.Costs))
	row = append(row, r.Office)
	for _, n := range r.Counts {
		row = append(row, n)
	}
	for _, c := range r.Costs {
		row = append(row, c)
	}
	return append(row, r.Billable)
}

func writeDetails(f *excelize.File, st styles, sheet string, headers []string, details []licensing.Detail) error {
	rows := lo.Map(details, func(d licensing.Detail, _ int) []any {
		row := []any{d.DisplayName, d.LicenseType, d.UserPrincipalName}
		if len(headers) > len(row) {
			row = append(row, d.Office)
		}
		return row
	})
	return writeTable(f, st, sheet, headers, rows)
}

// writeTable writes a header row and data rows starting at A1, sizes columns to their
// content and adds an autofilter over the whole range.
func writeTable(f *excelize.File, st styles, sheet string, headers []string, rows [][]any) error {
	head := lo.Map(headers, func(h string, _ int) any { return h })
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return err
	}
	widths := lo.Map(headers, func(h string, _ int) int { return len(h) })
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
		for j, v := range row {
			if j < len(widths) {
				widths[j] = max(widths[j], len(fmt.Sprint(v)))
			}
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, st.header); err != nil {
		return err
	}
	for j, w := range widths {
		col, _ := excelize.ColumnNumberToName(j + 1)
		if err := f.SetColWidth(sheet, col, col, float64(w+2)); err != nil {
			return err
		}
	}
	end, _ := excelize.CoordinatesToCellName(len(headers), len(rows)+1)
	return f.AutoFilter(sheet, "A1:"+end, nil)
}

// ReadCostedTable re-reads the License Counts sheet of a report. The last row is the
// Total row; it is returned separately and never part of Rows.
func ReadCostedTable(path string) (licensing.CostedTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return licensing.CostedTable{}, fmt.Errorf("%w: %s", licensing.ErrNotFound, path)
		}
		return licensing.CostedTable{}, fmt.Errorf("%w: %v", licensing.ErrParse, err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetCounts, excelize.Options{RawCellValue: true})
	if err != nil {
		return licensing.CostedTable{}, fmt.Errorf("%w: %v", licensing.ErrParse, err)
	}
	if len(rows) < 2 {
		return licensing.CostedTable{}, fmt.Errorf("%w: %s has no total row", licensing.ErrParse, SheetCounts)
	}
	header := rows[0]
	if len(header) < 2 || (len(header)-2)%2 != 0 {
		return licensing.CostedTable{}, fmt.Errorf("%w: unexpected %s header %v", licensing.ErrParse, SheetCounts, header)
	}
	n := (len(header) - 2) / 2

	t := licensing.CostedTable{
		Categories:  append([]string(nil), header[1:1+n]...),
		CostHeaders: append([]string(nil), header[1+n:1+2*n]...),
	}
	for i, raw := range rows[1:] {
		r, err := parseCostedRow(raw, n)
		if err != nil {
			return licensing.CostedTable{}, fmt.Errorf("%w: %s row %d: %v", licensing.ErrParse, SheetCounts, i+2, err)
		}
		t.Rows = append(t.Rows, r)
	}
	t.Total = t.Rows[len(t.Rows)-1]
	t.Rows = t.Rows[:len(t.Rows)-1]
	return t, nil
}

func parseCostedRow(raw []string, n int) (licensing.CostedRow, error) {
	cell := func(i int) string {
		if i < len(raw) {
			return raw[i]
		}
		return ""
	}
	num := func(i int) (float64, error) {
		if cell(i) == "" {
			return 0, nil
		}
		return strconv.ParseFloat(cell(i), 64)
	}
	r := licensing.CostedRow{Office: cell(0), Counts: make([]int, n), Costs: make([]float64, n)}
	for c := 0; c < n; c++ {
		v, err := num(1 + c)
		if err != nil {
			return r, err
		}
		r.Counts[c] = int(v)
		if r.Costs[c], err = num(1 + n + c); err != nil {
			return r, err
		}
	}
	var err error
	r.Billable, err = num(1 + 2*n)
	return r, err
}
