package csv

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"license-report/domain/licensing"
)

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "licenses.csv")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestLoadTrimsOfficeOnly(t *testing.T) {
	path := writeCSV(t, "Display name,User principal name,Office,Licenses,Department\n"+
		"Ann,ann@x,\"  North   Office \",Microsoft 365 Business Premium+Exchange,Sales\n"+
		"Bob,bob@x,,E5,\n")
	res, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rows) != 2 || res.Skipped != 0 {
		t.Fatalf("expected 2 rows, got %d (skipped %d)", len(res.Rows), res.Skipped)
	}
	want := licensing.Row{Office: "North   Office", Licenses: "Microsoft 365 Business Premium+Exchange", UserPrincipalName: "ann@x", DisplayName: "Ann"}
	if res.Rows[0] != want {
		t.Fatalf("expected %+v, got %+v", want, res.Rows[0])
	}
	if res.Rows[1].Office != "" {
		t.Fatalf("expected blank office, got %q", res.Rows[1].Office)
	}
}

func TestLoadSkipsShortRows(t *testing.T) {
	path := writeCSV(t, "Office,Licenses,User principal name,Display name\n"+
		"A,E5,a@x,A\n"+
		"B,E5\n"+
		"C,Exchange,c@x,C\n")
	res, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rows) != 2 || res.Skipped != 1 {
		t.Fatalf("expected 2 rows and 1 skipped, got %d and %d", len(res.Rows), res.Skipped)
	}
	if !strings.HasPrefix(res.Warnings[0], "line 3:") {
		t.Fatalf("unexpected warning %q", res.Warnings[0])
	}
}

func TestLoadKeepsBareQuotes(t *testing.T) {
	path := writeCSV(t, "Display name,User principal name,Office,Licenses\n"+
		"O\"Brien,ob@x,Office1,Microsoft 365 E5\n"+
		"Bob,bob@x,Office1,E5\n")
	if err := Validate(path); err != nil {
		t.Fatalf("expected bare quotes to validate, got %v", err)
	}
	res, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rows) != 2 || res.Skipped != 0 {
		t.Fatalf("expected 2 rows and none skipped, got %d (skipped %d, %v)", len(res.Rows), res.Skipped, res.Warnings)
	}
	if res.Rows[0].DisplayName != `O"Brien` || res.Rows[0].Licenses != "Microsoft 365 E5" {
		t.Fatalf("unexpected row %+v", res.Rows[0])
	}
}

func TestLoadWarningsUsePhysicalLines(t *testing.T) {
	path := writeCSV(t, "Display name,User principal name,Office,Licenses\n"+
		"\"Ann\nSmith\",ann@x,Office1,E5\n"+
		"short\n"+
		"Bob,bob@x,Office1,E5\n")
	res, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Skipped != 1 || len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows and 1 skipped, got %d (skipped %d)", len(res.Rows), res.Skipped)
	}
	if !strings.HasPrefix(res.Warnings[0], "line 4:") {
		t.Fatalf("expected warning on line 4, got %q", res.Warnings[0])
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		path string
		want error
	}{
		{"missing file", filepath.Join(t.TempDir(), "absent.csv"), licensing.ErrNotFound},
		{"zero bytes", writeCSV(t, ""), licensing.ErrEmptyInput},
		{"header only", writeCSV(t, "Office,Licenses,User principal name,Display name\n"), licensing.ErrEmptyInput},
		{"missing column", writeCSV(t, "Office,Licenses\nA,E5\n"), licensing.ErrParse},
		{"no readable row", writeCSV(t, "Office,Licenses,User principal name,Display name\nA\n"), licensing.ErrParse},
	}
	for _, tc := range cases {
		_, err := Load(tc.path)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(writeCSV(t, "\ufeffOffice,Licenses,User principal name,Display name\nA,E5,a,A\n")); err != nil {
		t.Fatalf("expected valid file, got %v", err)
	}
	err := Validate(writeCSV(t, "Office,Display name\nA,B\n"))
	if err == nil || err.Error() != "missing columns: Licenses, User principal name" {
		t.Fatalf("unexpected validation error %v", err)
	}
	if err := Validate(writeCSV(t, "")); err == nil || err.Error() != "no columns to parse from file" {
		t.Fatalf("expected empty file error, got %v", err)
	}
}
