package summary

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"license-report/connectors/xlsx"
	"license-report/domain/licensing"
)

// FromReport re-reads the License Counts sheet of a written report and summarizes it.
func FromReport(path string) (licensing.Summary, error) {
	table, err := xlsx.ReadCostedTable(path)
	if err != nil {
		return licensing.Summary{}, err
	}
	return licensing.Summarize(table)
}

// Run executes the summary command.
//
// Usage:
//
//	license-report summary -file output/<id>_license_counts_<date>.xlsx [-json]
func Run(args []string) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	file := fs.String("file", "", "report workbook to summarize")
	asJSON := fs.Bool("json", false, "print the flat summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("summary: -file is required")
	}
	s, err := FromReport(*file)
	if err != nil {
		return err
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(s.Flatten())
	}
	Print(os.Stdout, s)
	return nil
}

// Print writes the human readable summary.
func Print(w io.Writer, s licensing.Summary) {
	fmt.Fprintf(w, "Offices: %d\n", s.Offices)
	for _, c := range s.Categories {
		fmt.Fprintf(w, "  %-14s total %-6d offices %-4d (%.1f%%)  only this %.1f%%\n", c.Category, c.Total, c.OfficesWith, c.PercentWith, c.PercentOnly)
	}
	fmt.Fprintf(w, "Total cost:           $%.2f\n", s.TotalCost)
	fmt.Fprintf(w, "Average per office:   $%.2f\n", s.AvgCostPerOffice)
	fmt.Fprintf(w, "Highest cost:         $%.2f (%s)\n", s.HighestCost, s.HighestCostOffice)
	fmt.Fprintf(w, "Offices with both %s: %.1f%%\n", bothLabel(s), s.PercentBothLicenses)
	for _, r := range s.Ratios {
		fmt.Fprintf(w, "Highest %s ratio: %.2f (%s)\n", r.Category, r.Highest, r.Office)
	}
	fmt.Fprintf(w, "Offices without licenses: %d\n", s.OfficesNoLicenses)
	fmt.Fprintf(w, "Average licenses per office: %.2f\n", s.AvgLicensesPerOffice)
	if len(s.TopOfficesByLicense) > 0 {
		fmt.Fprintln(w, "\nTop offices by license count:")
		for i, o := range s.TopOfficesByLicense {
			fmt.Fprintf(w, "  %d. %-30s %5d %v\n", i+1, o.Office, o.Total, o.Counts)
		}
	}
}

func bothLabel(s licensing.Summary) string {
	if len(s.Categories) < 2 {
		return "categories"
	}
	return strings.Join([]string{s.Categories[0].Category, s.Categories[1].Category}, " and ")
}
