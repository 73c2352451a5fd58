package licensing

import (
	"sort"

	lo "github.com/samber/lo"
)

// TopOfficesLimit caps Summary.TopOfficesByLicense.
const TopOfficesLimit = 5

// CategoryStats are the per-category figures of a Summary.
type CategoryStats struct {
	Category    string  `json:"category"`
	Total       int     `json:"total"`
	OfficesWith int     `json:"offices_with"`
	PercentWith float64 `json:"percent_with"`
	PercentOnly float64 `json:"percent_only"`
}

// RatioStat is the highest share of a category relative to all categories before it.
type RatioStat struct {
	Category string  `json:"category"`
	Highest  float64 `json:"highest"`
	Office   string  `json:"office"`
}

// OfficeLicenses is one entry of the license leaderboard.
type OfficeLicenses struct {
	Office string `json:"office"`
	Counts []int  `json:"counts"`
	Total  int    `json:"total"`
}

// Summary holds the descriptive statistics shown after a report is generated.
type Summary struct {
	Offices              int              `json:"offices"`
	Categories           []CategoryStats  `json:"categories"`
	TotalCost            float64          `json:"total_cost"`
	AvgCostPerOffice     float64          `json:"avg_cost_per_office"`
	HighestCost          float64          `json:"highest_cost"`
	HighestCostOffice    string           `json:"highest_cost_office"`
	PercentBothLicenses  float64          `json:"percent_both_licenses"`
	Ratios               []RatioStat      `json:"ratios"`
	OfficesNoLicenses    int              `json:"offices_no_licenses"`
	AvgLicensesPerOffice float64          `json:"avg_licenses_per_office"`
	TopOfficesByLicense  []OfficeLicenses `json:"top_offices_by_license"`
}

// Summarize computes the statistics over the office rows of t; the Total row is
// never part of t.Rows. Ties on a maximum go to the first office in table order.
func Summarize(t CostedTable) (Summary, error) {
	rows := t.Rows
	n := len(rows)
	if n == 0 {
		return Summary{}, ErrNoOffices
	}
	pct := func(count int) float64 { return float64(count) / float64(n) * 100 }

	s := Summary{Offices: n}

	s.Categories = lo.Map(t.Categories, func(name string, c int) CategoryStats {
		with := lo.CountBy(rows, func(r CostedRow) bool { return r.Counts[c] > 0 })
		only := lo.CountBy(rows, func(r CostedRow) bool { return onlyCategory(r.Counts, c) })
		return CategoryStats{
			Category:    name,
			Total:       lo.SumBy(rows, func(r CostedRow) int { return r.Counts[c] }),
			OfficesWith: with,
			PercentWith: pct(with),
			PercentOnly: pct(only),
		}
	})

	s.TotalCost = lo.SumBy(rows, func(r CostedRow) float64 { return r.Billable })
	s.AvgCostPerOffice = s.TotalCost / float64(n)
	s.HighestCost, s.HighestCostOffice = firstMax(rows, func(r CostedRow) float64 { return r.Billable })

	if len(t.Categories) >= 2 {
		s.PercentBothLicenses = pct(lo.CountBy(rows, func(r CostedRow) bool { return r.Counts[0] > 0 && r.Counts[1] > 0 }))
	}

	for c := 1; c < len(t.Categories); c++ {
		highest, office := firstMax(rows, func(r CostedRow) float64 {
			denom := lo.Sum(r.Counts[:c])
			if denom == 0 {
				return 0
			}
			return float64(r.Counts[c]) / float64(denom)
		})
		s.Ratios = append(s.Ratios, RatioStat{Category: t.Categories[c], Highest: highest, Office: office})
	}

	s.OfficesNoLicenses = lo.CountBy(rows, func(r CostedRow) bool { return r.Total() == 0 })
	s.AvgLicensesPerOffice = float64(lo.SumBy(rows, func(r CostedRow) int { return r.Total() })) / float64(n)

	board := lo.Map(rows, func(r CostedRow, _ int) OfficeLicenses {
		return OfficeLicenses{Office: r.Office, Counts: append([]int(nil), r.Counts...), Total: r.Total()}
	})
	sort.SliceStable(board, func(i, j int) bool { return board[i].Total > board[j].Total })
	if len(board) > TopOfficesLimit {
		board = board[:TopOfficesLimit]
	}
	s.TopOfficesByLicense = board

	return s, nil
}

func onlyCategory(counts []int, c int) bool {
	for i, n := range counts {
		if (i == c) != (n > 0) {
			return false
		}
	}
	return true
}

// firstMax returns the largest value of fn over rows and the first office reaching it.
func firstMax(rows []CostedRow, fn func(CostedRow) float64) (float64, string) {
	best, office := fn(rows[0]), rows[0].Office
	for _, r := range rows[1:] {
		if v := fn(r); v > best {
			best, office = v, r.Office
		}
	}
	return best, office
}

// Flatten renders the summary as the flat statistic-name → value mapping shown to users.
func (s Summary) Flatten() map[string]any {
	out := map[string]any{
		"offices":                 s.Offices,
		"total_cost":              s.TotalCost,
		"avg_cost_per_office":     s.AvgCostPerOffice,
		"highest_cost":            s.HighestCost,
		"highest_cost_office":     s.HighestCostOffice,
		"percent_both_licenses":   s.PercentBothLicenses,
		"offices_no_licenses":     s.OfficesNoLicenses,
		"avg_licenses_per_office": s.AvgLicensesPerOffice,
	}
	for _, c := range s.Categories {
		slug := Slug(c.Category)
		out["total_"+slug] = c.Total
		out["offices_with_"+slug] = c.OfficesWith
		out["percent_with_"+slug] = c.PercentWith
		out["percent_only_"+slug] = c.PercentOnly
	}
	for _, r := range s.Ratios {
		slug := Slug(r.Category)
		out["highest_"+slug+"_ratio"] = r.Highest
		out["highest_"+slug+"_ratio_office"] = r.Office
	}
	out["top_offices_by_license"] = lo.Map(s.TopOfficesByLicense, func(o OfficeLicenses, _ int) []any {
		tuple := make([]any, 0, len(o.Counts)+2)
		tuple = append(tuple, o.Office)
		for _, n := range o.Counts {
			tuple = append(tuple, n)
		}
		return append(tuple, o.Total)
	})
	return out
}
