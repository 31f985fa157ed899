// Package engine derives the inventory ledger, item health summary,
// shortage list and available-to-promise view from raw supply and demand
// tables. Every function is a pure transform of its inputs.
package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

// Inputs are the tables of one run. PurchaseOrders and the reconciliation
// pair are optional and skipped when not supplied.
type Inputs struct {
	Demand         models.Table
	Shipments      models.Table
	PurchaseOrders models.Table
	Inventory      models.Table
	RecordOnHand   models.Table
	CountOnHand    models.Table
}

// Options configure a run.
type Options struct {
	AsOf   time.Time
	Policy Policy
	Keys   ItemKeyer
	Logger *zap.Logger
}

// Result holds every output table of a run.
type Result struct {
	AsOf        time.Time
	Events      []models.Event
	Demand      []models.Event
	Adjustments []models.Event
	Opening     []models.OpeningStock
	Ledger      []models.LedgerEntry
	Summary     []models.ItemSummary
	Violations  []models.LedgerEntry
	ATP         *ATPView
	Dropped     map[string]int
}

// Run executes normalize, reconcile, ledger, then violations, summary and ATP.
// A missing required column aborts the run; malformed rows are skipped.
func Run(in Inputs, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	asOf := Day(opts.AsOf)
	if asOf.IsZero() {
		asOf = Day(time.Now())
	}
	norm := NewNormalizer(opts.Policy, opts.Keys, logger)

	demand, err := norm.Demand(in.Demand)
	if err != nil {
		return nil, fmt.Errorf("normalize demand: %w", err)
	}
	shipments, err := norm.Shipments(in.Shipments)
	if err != nil {
		return nil, fmt.Errorf("normalize shipments: %w", err)
	}
	var purchases []models.Event
	if in.PurchaseOrders.Present() {
		if purchases, err = norm.PurchaseOrders(in.PurchaseOrders); err != nil {
			return nil, fmt.Errorf("normalize purchase orders: %w", err)
		}
	}
	opening, commitments, err := norm.Inventory(in.Inventory)
	if err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}
	var adjustments []models.Event
	if in.RecordOnHand.Present() || in.CountOnHand.Present() {
		if adjustments, err = norm.Reconcile(in.RecordOnHand, in.CountOnHand, asOf); err != nil {
			return nil, fmt.Errorf("reconcile: %w", err)
		}
	}

	events := make([]models.Event, 0, len(shipments)+len(purchases)+len(adjustments)+len(demand))
	events = append(events, shipments...)
	events = append(events, purchases...)
	events = append(events, adjustments...)
	events = append(events, demand...)

	ledger := BuildLedger(opening, events, asOf)
	points := make([]models.BalancePoint, len(ledger))
	for i, row := range ledger {
		points[i] = row.Point()
	}

	result := &Result{
		AsOf:        asOf,
		Events:      events,
		Demand:      demand,
		Adjustments: adjustments,
		Opening:     opening,
		Ledger:      ledger,
		Violations:  DetectViolations(ledger, asOf, opts.Policy),
		Summary: Summarize(SummaryInputs{
			Opening:     opening,
			Ledger:      ledger,
			Demand:      demand,
			Commitments: commitments,
		}, opts.Policy),
		ATP:     BuildATPView(points, opts.Policy),
		Dropped: norm.Dropped(),
	}

	logger.Info("ledger run completed",
		zap.Time("as_of", asOf),
		zap.Int("events", len(events)),
		zap.Int("ledger_rows", len(ledger)),
		zap.Int("items", len(result.Summary)),
		zap.Int("violations", len(result.Violations)),
		zap.Int("adjustments", len(adjustments)),
		zap.Any("dropped", result.Dropped))

	return result, nil
}

// ShortItems returns the summary rows whose projection goes negative.
func (r *Result) ShortItems() []models.ItemSummary {
	var out []models.ItemSummary
	for _, s := range r.Summary {
		if !s.OK {
			out = append(out, s)
		}
	}
	return out
}

// SummaryFor looks up the summary row of one item.
func (r *Result) SummaryFor(item string) (models.ItemSummary, bool) {
	for _, s := range r.Summary {
		if s.Item == item {
			return s, true
		}
	}
	return models.ItemSummary{}, false
}
