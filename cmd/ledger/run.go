package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mamadbah2/stockledger/internal/config"
	"github.com/mamadbah2/stockledger/internal/domain/models"
	"github.com/mamadbah2/stockledger/internal/engine"
	"github.com/mamadbah2/stockledger/internal/export"
	"github.com/mamadbah2/stockledger/internal/repository/csvfile"
	"github.com/mamadbah2/stockledger/internal/service/commands"
	"github.com/mamadbah2/stockledger/internal/service/planning"
	"github.com/mamadbah2/stockledger/pkg/logger"
)

const dateLayout = "2006-01-02"

type options struct {
	InputDir   string
	OutputDir  string
	AsOf       string
	PolicyPath string
	Item       string
	Qty        string
	Strict     bool
	LogLevel   string
}

func run(opts options, out io.Writer) error {
	if opts.InputDir == "" {
		return errors.New("-input is required")
	}

	log, err := logger.New(opts.LogLevel, "console")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	asOf := time.Now()
	if opts.AsOf != "" {
		if asOf, err = engine.ParseDate(opts.AsOf); err != nil {
			return fmt.Errorf("-as-of: %w", err)
		}
	}

	policy, items, err := config.LoadPolicy(config.EngineConfig{PolicyPath: opts.PolicyPath})
	if err != nil {
		return err
	}

	inputs, err := loadInputs(csvfile.NewDirectory(opts.InputDir))
	if err != nil {
		return err
	}

	result, err := engine.Run(inputs, engine.Options{AsOf: asOf, Policy: policy, Keys: items, Logger: log})
	if err != nil {
		return err
	}

	if opts.OutputDir != "" {
		if err := writeOutputs(csvfile.NewDirectory(opts.OutputDir), result); err != nil {
			return err
		}
	}

	if opts.Item != "" {
		return printPromise(out, result, items.Key(opts.Item), opts)
	}

	digest := models.ShortageDigest{AsOf: result.AsOf, Violations: result.Violations, Short: result.ShortItems()}
	fmt.Fprintln(out, planning.FormatDigest(digest, 0))
	for _, v := range result.Violations {
		fmt.Fprintf(out, "  %s %s %s qty %s balance %s\n",
			v.Date.Format(dateLayout), v.Item, v.CustomerLabel(), v.Quantity().String(), v.ProjectedBalance.String())
	}
	return nil
}

func loadInputs(dir *csvfile.Directory) (engine.Inputs, error) {
	var in engine.Inputs
	var err error
	if in.Demand, err = dir.ReadTable(engine.TableDemand); err != nil {
		return in, err
	}
	if in.Shipments, err = dir.ReadTable(engine.TableShipments); err != nil {
		return in, err
	}
	if in.PurchaseOrders, err = dir.ReadTable(engine.TablePurchaseOrders); err != nil {
		return in, err
	}
	if in.Inventory, err = dir.ReadTable(engine.TableInventory); err != nil {
		return in, err
	}
	if in.CountOnHand, err = dir.ReadTable(engine.TableCountOnHand); err != nil {
		return in, err
	}
	if in.RecordOnHand, err = dir.ReadTable(engine.TableRecordOnHand); err != nil {
		return in, err
	}
	if in.CountOnHand.Present() && !in.RecordOnHand.Present() {
		in.RecordOnHand = in.Inventory
		in.RecordOnHand.Name = engine.TableRecordOnHand
	}
	return in, nil
}

func writeOutputs(dir *csvfile.Directory, result *engine.Result) error {
	outputs := map[string]export.Sheet{
		"ledger":       export.Ledger(result.Ledger),
		"item_summary": export.Summary(result.Summary),
		"atp":          export.ATP(result.ATP.Entries()),
		"violations":   export.Violations(result.Violations),
	}
	for name, sheet := range outputs {
		if err := dir.WriteSheet(name, sheet); err != nil {
			return err
		}
	}
	return nil
}

func printPromise(out io.Writer, result *engine.Result, item string, opts options) error {
	qty, err := engine.ParseQuantity(opts.Qty)
	if err != nil || !qty.IsPositive() {
		return fmt.Errorf("-qty must be a positive number: %q", opts.Qty)
	}

	date, ok := result.ATP.EarliestPromiseDate(item, qty, result.AsOf, !opts.Strict)
	if !ok {
		fmt.Fprintf(out, "%s x %s cannot be promised within the current ledger.\n", qty.String(), item)
	} else {
		fmt.Fprintf(out, "%s x %s can be promised on %s.\n", qty.String(), item, date.Format(dateLayout))
	}

	if summary, found := result.SummaryFor(item); found {
		fmt.Fprintln(out, commands.FormatItem(summary))
	}
	return nil
}
