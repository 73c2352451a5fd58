package licensing

import (
	"fmt"

	lo "github.com/samber/lo"
)

// CostedRow extends a CountRow with one derived cost per category and their sum.
type CostedRow struct {
	Office   string    `json:"office"`
	Counts   []int     `json:"counts"`
	Costs    []float64 `json:"costs"`
	Billable float64   `json:"billable_total"`
}

// Total returns the number of licenses across all categories.
func (r CostedRow) Total() int { return lo.Sum(r.Counts) }

// CostedTable is the aggregate sheet: counts, derived cost columns and Billable Total.
type CostedTable struct {
	Categories  []string    `json:"categories"`
	CostHeaders []string    `json:"cost_headers"`
	Rows        []CostedRow `json:"rows"`
	Total       CostedRow   `json:"total"`
}

// ApplyCosts derives count × rate for every category and row, including Total, and
// sums them into Billable. costs must follow the table's category order.
func ApplyCosts(t CountTable, costs []UnitCost) (CostedTable, error) {
	if len(costs) != len(t.Categories) {
		return CostedTable{}, fmt.Errorf("apply costs: %d unit costs for %d categories", len(costs), len(t.Categories))
	}
	cost := func(r CountRow) CostedRow {
		out := CostedRow{Office: r.Office, Counts: append([]int(nil), r.Counts...), Costs: make([]float64, len(costs))}
		for i, u := range costs {
			out.Costs[i] = float64(r.Counts[i]) * u.Rate
			out.Billable += out.Costs[i]
		}
		return out
	}
	return CostedTable{
		Categories:  append([]string(nil), t.Categories...),
		CostHeaders: lo.Map(costs, func(u UnitCost, _ int) string { return u.Header() }),
		Rows:        lo.Map(t.Rows, func(r CountRow, _ int) CostedRow { return cost(r) }),
		Total:       cost(t.Total),
	}, nil
}
