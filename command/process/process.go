package process

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	lo "github.com/samber/lo"

	"license-report/command/summary"
	cconfig "license-report/connectors/config"
	ccsv "license-report/connectors/csv"
	"license-report/connectors/xlsx"
	dconfig "license-report/domain/config"
	"license-report/domain/licensing"
)

// Options describes one processing run.
type Options struct {
	Input     string
	OutputDir string
	// UnitCosts overrides the configured rate of individual categories, keyed by name.
	UnitCosts map[string]float64
	Now       time.Time
}

// Result is what a successful run hands back to the caller.
type Result struct {
	Path        string
	DisplayName string
	Table       licensing.CostedTable
	Skipped     int
}

// Process turns a license export into a report workbook: load, aggregate, cost, write.
func Process(cfg *dconfig.Config, opts Options) (Result, error) {
	start := time.Now()
	slog.Info("process.start", "input", opts.Input)

	catalog, err := cfg.LicenseCatalog()
	if err != nil {
		return Result{}, err
	}
	loaded, err := ccsv.Load(opts.Input)
	if err != nil {
		slog.Error("process.load.error", "input", opts.Input, "error", err)
		return Result{}, err
	}

	tally := licensing.Aggregate(loaded.Rows, catalog, cfg.OfficeRoles())
	costs := catalog.UnitCosts(cfg.DefaultUnitCosts(), opts.UnitCosts)
	table, err := licensing.ApplyCosts(tally.Table(), costs)
	if err != nil {
		return Result{}, err
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	internal, display := xlsx.NewOutputName(now)
	outDir := opts.OutputDir
	if outDir == "" {
		outDir = cfg.Folders.Output
	}
	path := filepath.Join(outDir, internal)
	if err := xlsx.Write(path, table, tally); err != nil {
		return Result{}, err
	}

	slog.Info("process.done",
		"output", path,
		"offices", len(table.Rows),
		"management", len(tally.Management),
		"partners", len(tally.Partners),
		"properties", len(tally.Properties),
		"unaccounted", len(tally.Unaccounted),
		"skipped", loaded.Skipped,
		"duration", time.Since(start),
	)
	return Result{Path: path, DisplayName: display, Table: table, Skipped: loaded.Skipped}, nil
}

// costFlags collects repeated -cost "<category>=<rate>" flags.
type costFlags map[string]float64

func (c costFlags) String() string {
	parts := make([]string, 0, len(c))
	for k, v := range c {
		parts = append(parts, k+"="+strconv.FormatFloat(v, 'f', -1, 64))
	}
	return strings.Join(parts, ",")
}

func (c costFlags) Set(s string) error {
	name, rate, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("expected <category>=<rate>, got %q", s)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(rate), 64)
	if err != nil {
		return fmt.Errorf("invalid rate for %s: %w", name, err)
	}
	c[strings.TrimSpace(name)] = v
	return nil
}

// Run executes the process command.
//
// Usage:
//
//	license-report process -input export.csv [-out ./output] [-cost "Exchange=25"]... [-csv counts.csv] [-json]
func Run(args []string) error {
	return run(args, os.Stdout)
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	input := fs.String("input", "", "path to the license export CSV")
	out := fs.String("out", "", "output directory (default: folders.output from config)")
	asJSON := fs.Bool("json", false, "print the summary as JSON")
	csvOut := fs.String("csv", "", "also write the License Counts table as CSV to this path")
	costs := costFlags{}
	fs.Var(costs, "cost", "unit cost override as <category>=<rate>, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" {
		return fmt.Errorf("process: -input is required")
	}

	cfg, err := cconfig.Resolve()
	if err != nil {
		return err
	}
	catalog, err := cfg.LicenseCatalog()
	if err != nil {
		return err
	}
	for name := range costs {
		if !lo.Contains(catalog.Names(), name) {
			return fmt.Errorf("process: unknown category %q (have %s)", name, strings.Join(catalog.Names(), ", "))
		}
	}
	if *out == "" {
		if err := cconfig.EnsureFolders(cfg); err != nil {
			return err
		}
	}

	res, err := Process(cfg, Options{Input: *input, OutputDir: *out, UnitCosts: costs})
	if err != nil {
		return err
	}
	if *csvOut != "" {
		if err := ccsv.WriteCostedTable(*csvOut, res.Table); err != nil {
			return fmt.Errorf("process: csv export: %w", err)
		}
		slog.Info("process.csv.done", "path", *csvOut)
	}
	if res.Skipped > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d malformed rows skipped\n", res.Skipped)
	}

	s, err := summary.FromReport(res.Path)
	if err != nil {
		return err
	}
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"file": res.Path, "display_name": res.DisplayName, "summary": s.Flatten()})
	}
	fmt.Fprintf(stdout, "Report written to %s (download as %s)\n\n", res.Path, res.DisplayName)
	summary.Print(stdout, s)
	return nil
}
