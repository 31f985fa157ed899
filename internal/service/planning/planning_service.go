package planning

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/stockledger/internal/config"
	"github.com/mamadbah2/stockledger/internal/domain/models"
	"github.com/mamadbah2/stockledger/internal/engine"
	"github.com/mamadbah2/stockledger/internal/export"
	"github.com/mamadbah2/stockledger/internal/repository/mongodb"
	"github.com/mamadbah2/stockledger/internal/repository/postgres"
	"github.com/mamadbah2/stockledger/internal/repository/sheets"
)

const dateLayout = "2006-01-02"

// ErrNoRun is returned by queries before any ledger has been built or loaded.
var ErrNoRun = errors.New("no ledger run available")

// ErrNoSource is returned by Rebuild when no workbook is configured.
var ErrNoSource = errors.New("no input source configured")

// Planner is the query and rebuild surface used by commands, HTTP and the scheduler.
type Planner interface {
	Rebuild(ctx context.Context, trigger string) (models.RunReport, error)
	EarliestPromiseDate(item string, qty decimal.Decimal, from time.Time, allowZero bool) (time.Time, bool, error)
	EarliestPromiseDateMulti(demands map[string]decimal.Decimal, from time.Time, allowZero bool) (time.Time, bool, error)
	ItemSummary(item string) (models.ItemSummary, bool, error)
	Violations() ([]models.LedgerEntry, error)
	Digest() (models.ShortageDigest, error)
	History(ctx context.Context, limit int64) ([]models.RunReport, error)
}

// Dependencies wires the optional sinks of the service. Any nil repository is
// skipped.
type Dependencies struct {
	Sheets  sheets.Repository
	Store   postgres.Repository
	History mongodb.Repository
	Ranges  config.SheetsConfig
	Policy  engine.Policy
	Keys    engine.ItemKeyer
	Logger  *zap.Logger
}

type snapshot struct {
	runID      string
	asOf       time.Time
	atp        *engine.ATPView
	summary    []models.ItemSummary
	violations []models.LedgerEntry
}

// Service builds the ledger and answers planner queries from the latest run.
type Service struct {
	sheets  sheets.Repository
	store   postgres.Repository
	history mongodb.Repository
	ranges  config.SheetsConfig
	policy  engine.Policy
	keys    engine.ItemKeyer
	logger  *zap.Logger
	now     func() time.Time

	rebuildMu sync.Mutex
	mu        sync.RWMutex
	current   *snapshot
}

// NewService wires a new planning service instance.
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Keys == nil {
		deps.Keys = engine.UpperKeys
	}
	return &Service{
		sheets:  deps.Sheets,
		store:   deps.Store,
		history: deps.History,
		ranges:  deps.Ranges,
		policy:  deps.Policy,
		keys:    deps.Keys,
		logger:  deps.Logger,
		now:     time.Now,
	}
}

// Rebuild reads the workbook, recomputes every output table, persists them
// and swaps the in-memory view. A failed database write leaves the previous
// view in place.
func (s *Service) Rebuild(ctx context.Context, trigger string) (models.RunReport, error) {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	start := s.now()
	inputs, err := s.fetchInputs(ctx)
	if err != nil {
		return models.RunReport{}, err
	}

	result, err := engine.Run(inputs, engine.Options{
		AsOf:   start,
		Policy: s.policy,
		Keys:   s.keys,
		Logger: s.logger,
	})
	if err != nil {
		return models.RunReport{}, fmt.Errorf("run ledger: %w", err)
	}

	runID := uuid.NewString()
	if err := s.Install(ctx, runID, result); err != nil {
		return models.RunReport{}, err
	}
	s.mirror(ctx, result)

	report := models.RunReport{
		RunID:       runID,
		AsOf:        result.AsOf,
		Trigger:     trigger,
		Events:      len(result.Events),
		LedgerRows:  len(result.Ledger),
		Items:       len(result.Summary),
		ShortItems:  len(result.ShortItems()),
		Violations:  len(result.Violations),
		Adjustments: len(result.Adjustments),
		DroppedRows: result.Dropped,
		Duration:    s.now().Sub(start),
		CreatedAt:   s.now().UTC(),
	}
	if s.history != nil {
		if err := s.history.SaveRunReport(ctx, report); err != nil {
			s.logger.Error("failed to save run report", zap.String("run_id", runID), zap.Error(err))
		}
	}

	s.logger.Info("ledger rebuilt",
		zap.String("run_id", runID),
		zap.String("trigger", trigger),
		zap.Int("short_items", report.ShortItems),
		zap.Int("violations", report.Violations),
		zap.Duration("duration", report.Duration))
	return report, nil
}

// Install persists a computed result and makes it the queried view.
func (s *Service) Install(ctx context.Context, runID string, result *engine.Result) error {
	if s.store != nil {
		err := s.store.ReplaceRun(ctx, postgres.Snapshot{
			RunID:      runID,
			AsOf:       result.AsOf,
			Ledger:     result.Ledger,
			Summary:    result.Summary,
			ATP:        result.ATP.Entries(),
			Violations: result.Violations,
		})
		if err != nil {
			return fmt.Errorf("persist ledger: %w", err)
		}
	}

	s.swap(&snapshot{
		runID:      runID,
		asOf:       result.AsOf,
		atp:        result.ATP,
		summary:    result.Summary,
		violations: result.Violations,
	})
	return nil
}

// Warm loads the last stored run so queries work before the first rebuild.
func (s *Service) Warm(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	runID, asOf, err := s.store.LatestRun(ctx)
	if errors.Is(err, postgres.ErrNoRun) {
		s.logger.Info("no stored ledger run to warm from")
		return nil
	}
	if err != nil {
		return err
	}

	entries, err := s.store.LoadATPView(ctx)
	if err != nil {
		return err
	}
	summary, err := s.store.LoadSummary(ctx)
	if err != nil {
		return err
	}
	violations, err := s.store.LoadViolations(ctx)
	if err != nil {
		return err
	}

	s.swap(&snapshot{
		runID:      runID,
		asOf:       asOf,
		atp:        engine.NewATPView(entries),
		summary:    summary,
		violations: violations,
	})
	s.logger.Info("ledger view warmed from store", zap.String("run_id", runID), zap.Int("atp_rows", len(entries)))
	return nil
}

func (s *Service) fetchInputs(ctx context.Context) (engine.Inputs, error) {
	if s.sheets == nil {
		return engine.Inputs{}, ErrNoSource
	}

	var in engine.Inputs
	g, gctx := errgroup.WithContext(ctx)
	read := func(dst *models.Table, name, sheetRange string) {
		if sheetRange == "" {
			return
		}
		g.Go(func() error {
			table, err := s.sheets.ReadTable(gctx, name, sheetRange)
			if err != nil {
				return fmt.Errorf("load %s: %w", name, err)
			}
			*dst = table
			return nil
		})
	}

	read(&in.Demand, engine.TableDemand, s.ranges.DemandRange)
	read(&in.Shipments, engine.TableShipments, s.ranges.ShipmentsRange)
	read(&in.PurchaseOrders, engine.TablePurchaseOrders, s.ranges.PurchaseOrdersRange)
	read(&in.Inventory, engine.TableInventory, s.ranges.InventoryRange)
	read(&in.CountOnHand, engine.TableCountOnHand, s.ranges.CountRange)

	if err := g.Wait(); err != nil {
		return engine.Inputs{}, err
	}

	// The inventory snapshot is the system of record the count is checked against.
	if in.CountOnHand.Present() {
		in.RecordOnHand = in.Inventory
		in.RecordOnHand.Name = engine.TableRecordOnHand
	}
	return in, nil
}

func (s *Service) mirror(ctx context.Context, result *engine.Result) {
	if s.sheets == nil {
		return
	}

	outputs := []struct {
		sheetRange string
		sheet      export.Sheet
	}{
		{s.ranges.LedgerRange, export.Ledger(result.Ledger)},
		{s.ranges.SummaryRange, export.Summary(result.Summary)},
		{s.ranges.ATPRange, export.ATP(result.ATP.Entries())},
		{s.ranges.ViolationsRange, export.Violations(result.Violations)},
	}
	for _, out := range outputs {
		if out.sheetRange == "" {
			continue
		}
		if err := s.sheets.ReplaceRange(ctx, out.sheetRange, out.sheet.Values()); err != nil {
			s.logger.Error("failed to mirror output tab", zap.String("range", out.sheetRange), zap.Error(err))
		}
	}
}

func (s *Service) swap(next *snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = next
}

func (s *Service) view() (*snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNoRun
	}
	return s.current, nil
}

// EarliestPromiseDate answers a single-item promise query. A zero from date
// means the run's as-of date.
func (s *Service) EarliestPromiseDate(item string, qty decimal.Decimal, from time.Time, allowZero bool) (time.Time, bool, error) {
	view, err := s.view()
	if err != nil {
		return time.Time{}, false, err
	}
	if from.IsZero() {
		from = view.asOf
	}
	date, ok := view.atp.EarliestPromiseDate(s.keys.Key(item), qty, from, allowZero)
	return date, ok, nil
}

// EarliestPromiseDateMulti answers a kit query. Lines naming the same item
// after canonicalization are summed.
func (s *Service) EarliestPromiseDateMulti(demands map[string]decimal.Decimal, from time.Time, allowZero bool) (time.Time, bool, error) {
	view, err := s.view()
	if err != nil {
		return time.Time{}, false, err
	}
	if from.IsZero() {
		from = view.asOf
	}
	keyed := make(map[string]decimal.Decimal, len(demands))
	for item, qty := range demands {
		key := s.keys.Key(item)
		keyed[key] = keyed[key].Add(qty)
	}
	date, ok := view.atp.EarliestPromiseDateMulti(keyed, from, allowZero)
	return date, ok, nil
}

// ItemSummary returns the health row of one item.
func (s *Service) ItemSummary(item string) (models.ItemSummary, bool, error) {
	view, err := s.view()
	if err != nil {
		return models.ItemSummary{}, false, err
	}
	key := s.keys.Key(item)
	for _, summary := range view.summary {
		if summary.Item == key {
			return summary, true, nil
		}
	}
	return models.ItemSummary{}, false, nil
}

// Violations returns the flagged ledger rows of the latest run.
func (s *Service) Violations() ([]models.LedgerEntry, error) {
	view, err := s.view()
	if err != nil {
		return nil, err
	}
	return view.violations, nil
}

// Digest condenses the latest run into violations and short items.
func (s *Service) Digest() (models.ShortageDigest, error) {
	view, err := s.view()
	if err != nil {
		return models.ShortageDigest{}, err
	}
	digest := models.ShortageDigest{RunID: view.runID, AsOf: view.asOf, Violations: view.violations}
	for _, summary := range view.summary {
		if !summary.OK {
			digest.Short = append(digest.Short, summary)
		}
	}
	return digest, nil
}

// History lists recent run reports, newest first.
func (s *Service) History(ctx context.Context, limit int64) ([]models.RunReport, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.ListRunReports(ctx, limit)
}

// FormatDigest renders a digest as chat text, listing at most maxItems items.
func FormatDigest(d models.ShortageDigest, maxItems int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Shortage digest as of %s\n", d.AsOf.Format(dateLayout))
	if len(d.Short) == 0 && len(d.Violations) == 0 {
		b.WriteString("All items covered. No shortages projected.")
		return b.String()
	}

	fmt.Fprintf(&b, "%d short items, %d order lines at risk.\n", len(d.Short), len(d.Violations))

	short := append([]models.ItemSummary(nil), d.Short...)
	sort.SliceStable(short, func(i, j int) bool {
		return dateOrMax(short[i].FirstShortageDate).Before(dateOrMax(short[j].FirstShortageDate))
	})
	for i, item := range short {
		if maxItems > 0 && i == maxItems {
			fmt.Fprintf(&b, "... and %d more", len(short)-maxItems)
			break
		}
		fmt.Fprintf(&b, "- %s: min %s", item.Item, item.MinProjectedBalance.Decimal.String())
		if item.FirstShortageDate != nil {
			fmt.Fprintf(&b, " first short %s", item.FirstShortageDate.Format(dateLayout))
		}
		if item.PlannedOrderQty.IsPositive() {
			fmt.Fprintf(&b, ", order %s", item.PlannedOrderQty.String())
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func dateOrMax(t *time.Time) time.Time {
	if t == nil {
		return time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	return *t
}
