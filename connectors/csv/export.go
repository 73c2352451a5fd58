package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"license-report/domain/licensing"
)

// WriteCostedTable writes the License Counts table as plain CSV: office, counts, costs,
// billable total, with the Total row last.
func WriteCostedTable(path string, t licensing.CostedTable) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeCostedRecords(csv.NewWriter(f), t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeCostedRecords(w *csv.Writer, t licensing.CostedTable) error {
	headers := append([]string{ColOffice}, t.Categories...)
	headers = append(headers, t.CostHeaders...)
	headers = append(headers, "Billable Total")
	if err := w.Write(headers); err != nil {
		return err
	}
	for _, r := range append(append([]licensing.CostedRow{}, t.Rows...), t.Total) {
		if err := w.Write(costedRecord(r)); err != nil {
			return fmt.Errorf("write %s: %w", r.Office, err)
		}
	}
	w.Flush()
	return w.Error()
}

func costedRecord(r licensing.CostedRow) []string {
	rec := make([]string, 0, 2+len(r.Counts)+len(r.Costs))
	rec = append(rec, r.Office)
	for _, n := range r.Counts {
		rec = append(rec, strconv.Itoa(n))
	}
	for _, c := range r.Costs {
		rec = append(rec, formatMoney(c))
	}
	return append(rec, formatMoney(r.Billable))
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
