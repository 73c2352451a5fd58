package main

import (
	"fmt"
	"log/slog"
	"os"

	cmdprocess "license-report/command/process"
	cmdsummary "license-report/command/summary"
	cmdweb "license-report/command/web"
)

// License report generator for per-user license exports.
// Usage:
//   license-report process -input export.csv [-out ./output] [-cost "E5=54.80"] [-json]
//   license-report summary -file output/<id>_license_counts_<date>.xlsx [-json]
//   license-report web [-addr :8080]
// Notes:
// - Each license cell may list several licenses joined by '+'; every entry is classified against the catalog.
// - The workbook holds the per-office counts and costs plus one detail sheet per routing bucket.
// - The catalog, unit costs and office names come from config.yml (CONFIG_PATH) or built-in defaults.

func main() {
	args := os.Args
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(h))

	if len(args) > 1 {
		sub := args[1]
		rest := append([]string{}, args[2:]...)
		var run func([]string) error
		switch sub {
		case "process":
			run = cmdprocess.Run
		case "summary":
			run = cmdsummary.Run
		case "web":
			run = cmdweb.Run
		}
		if run != nil {
			if err := run(rest); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: license-report process -input <csv> [-out <dir>] [-cost <category>=<rate>] [-json] | summary -file <xlsx> [-json] | web [-addr :8080]\nENV: set CONFIG_PATH to point to a YAML config file (default ./config.yml)")
	os.Exit(2)
}
