package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	dconfig "license-report/domain/config"
)

const export = `Display name,User principal name,Office,Licenses
Ann,ann@aion,Office1,Microsoft 365 Business Premium
Bob,bob@aion,Office1 ,Exchange
Cid,cid@aion,AION Management,Microsoft 365 Business Premium+Exchange Online (Plan 1)
Dee,dee@aion,,Microsoft 365 E5
Eve,eve@aion,AION Partners,Microsoft Teams Enterprise
Fay,fay@aion,Office2,
`

func newTestServer(t *testing.T) (*echo.Echo, *dconfig.Config) {
	t.Helper()
	cfg := dconfig.Default()
	cfg.Folders.Upload = t.TempDir()
	cfg.Folders.Output = t.TempDir()
	cfg.Folders.Invalid = t.TempDir()
	e, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return e, cfg
}

func uploadRequest(t *testing.T, filename, body string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(body)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestUploadSummaryDownload(t *testing.T) {
	e, cfg := newTestServer(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, uploadRequest(t, "export.csv", export, map[string]string{"cost_e5": "0", "cost_teams": "0"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	up := decode(t, rec)
	file, _ := up["file"].(string)
	if !strings.HasSuffix(file, ".xlsx") {
		t.Fatalf("unexpected file %v", up["file"])
	}
	if dn, _ := up["display_name"].(string); !strings.HasPrefix(dn, "AION_License_Report_") {
		t.Fatalf("unexpected display name %v", up["display_name"])
	}
	if left := dirEntries(t, cfg.Folders.Upload); len(left) != 0 {
		t.Fatalf("expected upload folder to be emptied, got %v", left)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, up["summary_url"].(string), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	sum, ok := decode(t, rec)["summary"].(map[string]any)
	if !ok {
		t.Fatalf("missing summary in %s", rec.Body.String())
	}
	if sum["total_cost"] != 270.0 {
		t.Fatalf("expected total_cost 270, got %v", sum["total_cost"])
	}
	if sum["offices"] != 5.0 {
		t.Fatalf("expected 5 offices, got %v", sum["offices"])
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, up["download_url"].(string), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "AION_License_Report_") {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	if rec.Body.Len() == 0 {
		t.Fatalf("expected workbook bytes")
	}
	if _, err := os.Stat(filepath.Join(cfg.Folders.Output, file)); !os.IsNotExist(err) {
		t.Fatalf("expected report to be removed after download, stat err=%v", err)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, up["download_url"].(string), nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second download, got %d", rec.Code)
	}
}

func TestUploadRejectsNonCSV(t *testing.T) {
	e, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, uploadRequest(t, "export.txt", export, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUploadRejectsBadCost(t *testing.T) {
	e, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, uploadRequest(t, "export.csv", export, map[string]string{"cost_exchange": "cheap"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg, _ := decode(t, rec)["message"].(string); !strings.Contains(msg, "cost_exchange") {
		t.Fatalf("expected message to name the field, got %q", msg)
	}
}

func TestUploadInvalidMovesFile(t *testing.T) {
	e, cfg := newTestServer(t)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, uploadRequest(t, "export.csv", "Display name,Office\nAnn,Office1\n", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	msg, _ := decode(t, rec)["message"].(string)
	if !strings.Contains(msg, "Licenses") || !strings.Contains(msg, "User principal name") {
		t.Fatalf("expected missing columns in message, got %q", msg)
	}
	if left := dirEntries(t, cfg.Folders.Upload); len(left) != 0 {
		t.Fatalf("expected upload folder to be emptied, got %v", left)
	}
	if moved := dirEntries(t, cfg.Folders.Invalid); len(moved) != 1 || !strings.HasSuffix(moved[0], "_export.csv") {
		t.Fatalf("expected file in invalid folder, got %v", moved)
	}
}

func TestUploadWithoutFile(t *testing.T) {
	e, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(""))
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSummaryMissingReport(t *testing.T) {
	e, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary/nope_license_counts_2024_05_01.xlsx", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestReportPathRejectsEscapes(t *testing.T) {
	cfg := dconfig.Default()
	cfg.Folders.Output = t.TempDir()
	s := &server{cfg: cfg}

	for _, name := range []string{"../secret.xlsx", "a/b.xlsx", "..", "report.csv", ""} {
		if _, err := s.reportPath(name); err == nil {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
	got, err := s.reportPath("ok_license_counts_2024_05_01.xlsx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Dir(got) != cfg.Folders.Output {
		t.Fatalf("expected path inside %s, got %s", cfg.Folders.Output, got)
	}
}
