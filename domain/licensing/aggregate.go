package licensing

import (
	"strings"

	lo "github.com/samber/lo"
)

// UnaccountedOffice is the bucket for rows whose office is blank.
const UnaccountedOffice = "Unaccounted"

// TotalLabel labels the column-wise sum row of a finalized table.
const TotalLabel = "Total"

// Row is one input record of the license export.
type Row struct {
	Office            string
	Licenses          string
	UserPrincipalName string
	DisplayName       string
}

// Detail is one (row, matched category) entry of a detail collection. Office is only
// meaningful for Properties.
type Detail struct {
	DisplayName       string `json:"display_name"`
	LicenseType       string `json:"license_type"`
	UserPrincipalName string `json:"user_principal_name"`
	Office            string `json:"office,omitempty"`
}

// OfficeRoles names the offices routed to the dedicated management and partner collections.
type OfficeRoles struct {
	Management string
	Partners   string
}

// DefaultOfficeRoles returns the AION office names.
func DefaultOfficeRoles() OfficeRoles {
	return OfficeRoles{Management: "AION Management", Partners: "AION Partners"}
}

// Tally holds the working state of one aggregation pass.
type Tally struct {
	Categories []string
	// Offices lists count buckets in first-appearance order, Unaccounted last.
	Offices []string
	// Counts has one zero-filled entry per category for every office in Offices.
	Counts map[string][]int

	Management  []Detail
	Partners    []Detail
	Properties  []Detail
	Unaccounted []Detail
}

// Aggregate counts matched licenses per office and category and files every match
// into exactly one detail collection. A blank office always goes to Unaccounted, even
// when a role name is blank. Rows with an empty license cell are skipped.
func Aggregate(rows []Row, catalog Catalog, roles OfficeRoles) *Tally {
	names := catalog.Names()
	offices := lo.Uniq(lo.FilterMap(rows, func(r Row, _ int) (string, bool) {
		office := strings.TrimSpace(r.Office)
		return office, office != ""
	}))
	if !lo.Contains(offices, UnaccountedOffice) {
		offices = append(offices, UnaccountedOffice)
	}

	t := &Tally{
		Categories: names,
		Offices:    offices,
		Counts:     make(map[string][]int, len(offices)),
	}
	for _, office := range offices {
		t.Counts[office] = make([]int, len(names))
	}

	for _, r := range rows {
		matches := catalog.Classify(r.Licenses)
		if len(matches) == 0 {
			continue
		}
		office := strings.TrimSpace(r.Office)
		for _, m := range matches {
			bucket := office
			if bucket == "" {
				bucket = UnaccountedOffice
			}
			t.Counts[bucket][m.Category]++

			d := Detail{DisplayName: r.DisplayName, LicenseType: m.License, UserPrincipalName: r.UserPrincipalName}
			switch {
			case office == "":
				t.Unaccounted = append(t.Unaccounted, d)
			case office == roles.Management:
				t.Management = append(t.Management, d)
			case office == roles.Partners:
				t.Partners = append(t.Partners, d)
			default:
				d.Office = office
				t.Properties = append(t.Properties, d)
			}
		}
	}
	return t
}

// DetailCount is the number of entries across the four detail collections.
func (t *Tally) DetailCount() int {
	return len(t.Management) + len(t.Partners) + len(t.Properties) + len(t.Unaccounted)
}

// CountRow is one office line of a finalized table.
type CountRow struct {
	Office string `json:"office"`
	Counts []int  `json:"counts"`
}

// CountTable is the finalized office × category table with its Total row.
type CountTable struct {
	Categories []string   `json:"categories"`
	Rows       []CountRow `json:"rows"`
	Total      CountRow   `json:"total"`
}

// Table finalizes the tally: one row per office in bucket order and a Total row
// holding the column-wise sums.
func (t *Tally) Table() CountTable {
	total := make([]int, len(t.Categories))
	rows := lo.Map(t.Offices, func(office string, _ int) CountRow {
		counts := append([]int(nil), t.Counts[office]...)
		for i, n := range counts {
			total[i] += n
		}
		return CountRow{Office: office, Counts: counts}
	})
	return CountTable{
		Categories: append([]string(nil), t.Categories...),
		Rows:       rows,
		Total:      CountRow{Office: TotalLabel, Counts: total},
	}
}
