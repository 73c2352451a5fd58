package licensing

import "testing"

func TestApplyCostsSingleOffice(t *testing.T) {
	rows := []Row{
		{Office: "Office1", Licenses: "Microsoft 365 Business Premium", UserPrincipalName: "u1", DisplayName: "D1"},
		{Office: "Office1", Licenses: "Exchange", UserPrincipalName: "u2", DisplayName: "D2"},
	}
	c := aionCatalog(t)
	costs := c.UnitCosts(map[string]float64{"365 Premium": 115, "Exchange": 20}, nil)
	table, err := ApplyCosts(Aggregate(rows, c, DefaultOfficeRoles()).Table(), costs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Rows[0].Office != "Office1" || table.Rows[0].Billable != 135 {
		t.Fatalf("expected Office1 billable 135, got %+v", table.Rows[0])
	}
	if table.Total.Billable != 135 {
		t.Fatalf("expected Total billable 135, got %v", table.Total.Billable)
	}
	if table.CostHeaders[0] != "Cost of Users ($115)" || table.CostHeaders[3] != "Cost of Teams Licenses ($0)" {
		t.Fatalf("unexpected cost headers %v", table.CostHeaders)
	}
}

func TestApplyCostsBillableIsSumOfCostColumns(t *testing.T) {
	counts := CountTable{
		Categories: []string{"A", "B", "C"},
		Rows: []CountRow{
			{Office: "X", Counts: []int{3, 0, 7}},
			{Office: "Y", Counts: []int{1, 2, 0}},
		},
		Total: CountRow{Office: TotalLabel, Counts: []int{4, 2, 7}},
	}
	table, err := ApplyCosts(counts, []UnitCost{{"a", 1.5}, {"b", 20}, {"c", 54.8}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	all := append(append([]CostedRow(nil), table.Rows...), table.Total)
	perOffice := 0.0
	for _, r := range all {
		sum := 0.0
		for _, v := range r.Costs {
			sum += v
		}
		if sum != r.Billable {
			t.Fatalf("%s: billable %v != %v", r.Office, r.Billable, sum)
		}
		if r.Office != TotalLabel {
			perOffice += r.Billable
		}
	}
	if diff := perOffice - table.Total.Billable; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("Total billable %v != sum of office billables %v", table.Total.Billable, perOffice)
	}
}

func TestApplyCostsRejectsMismatchedRates(t *testing.T) {
	if _, err := ApplyCosts(CountTable{Categories: []string{"A", "B"}}, []UnitCost{{"a", 1}}); err == nil {
		t.Fatalf("expected error for mismatched unit costs")
	}
}
