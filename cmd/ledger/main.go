package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	var (
		inputDir   = flag.String("input", "", "Directory of CSV exports (demand.csv, shipments.csv, inventory.csv, ...)")
		outputDir  = flag.String("output", "", "Directory to write ledger, summary, atp and violations CSVs (optional)")
		asOf       = flag.String("as-of", "", "Run date, YYYY-MM-DD (default today)")
		policyPath = flag.String("policy", "", "Path to the YAML policy file (optional)")
		item       = flag.String("item", "", "Answer an available-to-promise query for this item")
		qty        = flag.String("qty", "1", "Quantity for -item")
		strict     = flag.Bool("strict", false, "Require the balance to stay above zero after the promise")
		logLevel   = flag.String("log-level", "warn", "Log level written to stderr")
	)
	flag.Parse()

	opts := options{
		InputDir:   *inputDir,
		OutputDir:  *outputDir,
		AsOf:       *asOf,
		PolicyPath: *policyPath,
		Item:       *item,
		Qty:        *qty,
		Strict:     *strict,
		LogLevel:   *logLevel,
	}

	if err := run(opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
