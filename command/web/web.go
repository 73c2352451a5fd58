package web

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	cmdprocess "license-report/command/process"
	"license-report/command/summary"
	cconfig "license-report/connectors/config"
	ccsv "license-report/connectors/csv"
	"license-report/connectors/xlsx"
	dconfig "license-report/domain/config"
	"license-report/domain/licensing"
)

// Run starts a small Echo web server: upload a license export, get a summary and a workbook back.
//
// Usage:
//
//	license-report web [-addr :8080]
//
// Endpoints:
//
//	POST /api/upload               multipart "file" (.csv) + optional cost_<category> form fields
//	GET  /api/summary/:file        summary of a generated report
//	GET  /api/download/:file       the workbook; removed once served
func Run(args []string) error {
	cfg, err := cconfig.Resolve()
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	addr := fs.String("addr", cfg.Web.Addr, "http listen address (host:port)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cconfig.EnsureFolders(cfg); err != nil {
		return err
	}
	e, err := NewServer(cfg)
	if err != nil {
		return err
	}
	slog.Info("web.start", "addr", *addr)
	return e.Start(*addr)
}

type server struct {
	cfg     *dconfig.Config
	catalog licensing.Catalog
}

// NewServer builds the Echo instance with all routes registered.
func NewServer(cfg *dconfig.Config) (*echo.Echo, error) {
	catalog, err := cfg.LicenseCatalog()
	if err != nil {
		return nil, err
	}
	s := &server{cfg: cfg, catalog: catalog}

	e := echo.New()
	e.HideBanner = true
	e.Use(requestLogger)

	e.POST("/api/upload", s.upload)
	e.GET("/api/summary/:file", s.summary)
	e.GET("/api/download/:file", s.download)
	return e, nil
}

func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		req := c.Request()
		slog.Info("http.request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", c.Response().Status,
			"ip", c.RealIP(),
			"user_agent", req.UserAgent(),
			"duration", time.Since(start),
		)
		return nil
	}
}

func errorJSON(c echo.Context, status int, title string, err error) error {
	return c.JSON(status, map[string]any{
		"error":   title,
		"message": err.Error(),
	})
}

func (s *server) upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "no file uploaded", errors.New("no file part in the request"))
	}
	name := filepath.Base(fh.Filename)
	if name == "" || name == "." || !strings.EqualFold(filepath.Ext(name), ".csv") {
		return errorJSON(c, http.StatusBadRequest, "file type not allowed", fmt.Errorf("only .csv files are accepted, got %q", fh.Filename))
	}

	costs, err := s.formCosts(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid unit cost", err)
	}

	inputPath := filepath.Join(s.cfg.Folders.Upload, fmt.Sprintf("%d_%s", time.Now().UnixNano(), name))
	if err := saveUpload(fh, inputPath); err != nil {
		slog.Error("web.upload.save.error", "file", name, "error", err)
		return errorJSON(c, http.StatusInternalServerError, "upload failed", err)
	}
	slog.Info("web.upload.saved", "file", name, "path", inputPath)

	if err := ccsv.Validate(inputPath); err != nil {
		invalid := filepath.Join(s.cfg.Folders.Invalid, filepath.Base(inputPath))
		if mvErr := os.Rename(inputPath, invalid); mvErr != nil {
			slog.Error("web.upload.invalid.move.error", "path", inputPath, "error", mvErr)
			_ = os.Remove(inputPath)
		}
		slog.Warn("web.upload.invalid", "file", name, "reason", err)
		return errorJSON(c, http.StatusBadRequest, "invalid CSV file", err)
	}

	res, err := cmdprocess.Process(s.cfg, cmdprocess.Options{Input: inputPath, UnitCosts: costs})
	if rmErr := os.Remove(inputPath); rmErr != nil {
		slog.Error("web.upload.remove.error", "path", inputPath, "error", rmErr)
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, licensing.ErrEmptyInput) || errors.Is(err, licensing.ErrParse) {
			status = http.StatusUnprocessableEntity
		}
		return errorJSON(c, status, "processing failed", err)
	}

	file := filepath.Base(res.Path)
	return c.JSON(http.StatusOK, map[string]any{
		"file":         file,
		"display_name": res.DisplayName,
		"skipped_rows": res.Skipped,
		"summary_url":  "/api/summary/" + file,
		"download_url": "/api/download/" + file,
	})
}

// formCosts reads cost_<category slug> form fields; absent fields keep the configured rate.
func (s *server) formCosts(c echo.Context) (map[string]float64, error) {
	costs := map[string]float64{}
	for _, name := range s.catalog.Names() {
		field := "cost_" + licensing.Slug(name)
		raw := strings.TrimSpace(c.FormValue(field))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("%s must be a non-negative number, got %q", field, raw)
		}
		costs[name] = v
	}
	return costs, nil
}

func saveUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}

// reportPath resolves a report name inside the output folder, rejecting anything that
// would escape it.
func (s *server) reportPath(name string) (string, error) {
	base := filepath.Base(name)
	if base != name || base == "." || base == ".." || !strings.HasSuffix(base, ".xlsx") {
		return "", fmt.Errorf("invalid report name %q", name)
	}
	root, err := filepath.Abs(s.cfg.Folders.Output)
	if err != nil {
		return "", err
	}
	full := filepath.Join(root, base)
	if !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid report name %q", name)
	}
	return full, nil
}

func (s *server) summary(c echo.Context) error {
	path, err := s.reportPath(c.Param("file"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid file", err)
	}
	sum, err := summary.FromReport(path)
	switch {
	case errors.Is(err, licensing.ErrNotFound):
		return errorJSON(c, http.StatusNotFound, "file not found", err)
	case errors.Is(err, licensing.ErrNoOffices):
		return errorJSON(c, http.StatusUnprocessableEntity, "summary unavailable", err)
	case err != nil:
		slog.Error("web.summary.error", "path", path, "error", err)
		return errorJSON(c, http.StatusInternalServerError, "summary failed", err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"file":         filepath.Base(path),
		"display_name": xlsx.DisplayName(path),
		"summary":      sum.Flatten(),
	})
}

func (s *server) download(c echo.Context) error {
	path, err := s.reportPath(c.Param("file"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid file", err)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errorJSON(c, http.StatusNotFound, "file not found", err)
		}
		return errorJSON(c, http.StatusInternalServerError, "download failed", err)
	}
	if err := c.Attachment(path, xlsx.DisplayName(path)); err != nil {
		return err
	}
	slog.Info("web.download.done", "path", path)
	if err := os.Remove(path); err != nil {
		slog.Error("web.download.remove.error", "path", path, "error", err)
	}
	return nil
}
