package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

//go:embed schema.sql
var schema string

// ErrNoRun is returned when no ledger has been stored yet.
var ErrNoRun = errors.New("no stored ledger run")

// Snapshot is the complete output of one ledger run.
type Snapshot struct {
	RunID      string
	AsOf       time.Time
	Ledger     []models.LedgerEntry
	Summary    []models.ItemSummary
	ATP        []models.ATPEntry
	Violations []models.LedgerEntry
}

// Repository is the analytical store for ledger outputs.
type Repository interface {
	ReplaceRun(ctx context.Context, snapshot Snapshot) error
	LatestRun(ctx context.Context) (string, time.Time, error)
	LoadATPView(ctx context.Context) ([]models.ATPEntry, error)
	LoadSummary(ctx context.Context) ([]models.ItemSummary, error)
	LoadViolations(ctx context.Context) ([]models.LedgerEntry, error)
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	DB     *sqlx.DB
	logger *zap.Logger
}

// Connect opens the database, verifies it and applies the schema.
func Connect(ctx context.Context, dsn string, logger *zap.Logger) (*PGRepository, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not connect to postgres: %w", err)
	}
	repo := NewPGRepository(db, logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// NewPGRepository wraps an open handle.
func NewPGRepository(db *sqlx.DB, logger *zap.Logger) *PGRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PGRepository{DB: db, logger: logger}
}

// EnsureSchema creates the output tables when missing.
func (r *PGRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *PGRepository) Close() error {
	return r.DB.Close()
}

// WithTransaction runs fn in a transaction, committing only when fn succeeds.
func WithTransaction(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = fn(tx)
	return
}

// ReplaceRun swaps every output table for the snapshot in one transaction.
// Readers see either the previous run or this one, never a mix.
func (r *PGRepository) ReplaceRun(ctx context.Context, s Snapshot) error {
	start := time.Now()
	err := WithTransaction(ctx, r.DB, func(tx *sqlx.Tx) error {
		for _, table := range []string{"ledger", "item_summary", "atp_view", "violations", "ledger_runs"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO ledger_runs (run_id, as_of) VALUES ($1, $2)`, s.RunID, s.AsOf); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		if err := copyRows(ctx, tx, "ledger", ledgerColumns, len(s.Ledger), func(i int) []interface{} {
			return ledgerRow(i, s.RunID, s.Ledger[i])
		}); err != nil {
			return err
		}
		if err := copyRows(ctx, tx, "item_summary", summaryColumns, len(s.Summary), func(i int) []interface{} {
			return summaryRow(i, s.RunID, s.Summary[i])
		}); err != nil {
			return err
		}
		if err := copyRows(ctx, tx, "atp_view", atpColumns, len(s.ATP), func(i int) []interface{} {
			e := s.ATP[i]
			return []interface{}{i, s.RunID, e.Item, e.Date, e.ProjectedBalance, e.FutureMin}
		}); err != nil {
			return err
		}
		return copyRows(ctx, tx, "violations", violationColumns, len(s.Violations), func(i int) []interface{} {
			v := s.Violations[i]
			return []interface{}{i, s.RunID, v.Date, v.Item, v.Delta, nullString(v.Customer), nullString(v.OrderNo), nullString(v.CustomerPO), v.ProjectedBalance, v.NavBefore, v.NavAfter}
		})
	})
	if err != nil {
		return fmt.Errorf("replace ledger run %s: %w", s.RunID, err)
	}

	r.logger.Info("ledger run stored",
		zap.String("run_id", s.RunID),
		zap.Int("ledger_rows", len(s.Ledger)),
		zap.Int("atp_rows", len(s.ATP)),
		zap.Duration("duration", time.Since(start)))
	return nil
}

var (
	ledgerColumns = []string{
		"seq", "run_id", "date", "item", "delta", "kind", "source", "item_raw", "customer", "order_no",
		"customer_po", "vendor", "parent_item", "qty_per_parent", "notes", "opening", "cumulative_delta",
		"projected_balance", "nav_before", "nav_after",
	}
	summaryColumns = []string{
		"seq", "run_id", "item", "opening", "min_projected_balance", "first_shortage_date",
		"balance_at_first_shortage", "assigned_qty", "unassigned_qty", "on_sales_order", "on_po",
		"customers", "planned_order_qty", "ok",
	}
	atpColumns       = []string{"seq", "run_id", "item", "date", "projected_balance", "future_min"}
	violationColumns = []string{"seq", "run_id", "date", "item", "delta", "customer", "order_no", "customer_po", "projected_balance", "nav_before", "nav_after"}
)

func copyRows(ctx context.Context, tx *sqlx.Tx, table string, columns []string, n int, row func(int) []interface{}) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, columns...))
	if err != nil {
		return fmt.Errorf("prepare copy into %s: %w", table, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, row(i)...); err != nil {
			return fmt.Errorf("copy row %d into %s: %w", i, table, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("flush copy into %s: %w", table, err)
	}
	return nil
}

func ledgerRow(seq int, runID string, e models.LedgerEntry) []interface{} {
	var qtyPerParent interface{}
	if !e.QtyPerParent.IsZero() {
		qtyPerParent = e.QtyPerParent
	}
	return []interface{}{
		seq, runID, e.Date, e.Item, e.Delta, e.Kind.String(), string(e.Source), nullString(e.ItemRaw),
		nullString(e.Customer), nullString(e.OrderNo), nullString(e.CustomerPO), nullString(e.Vendor),
		nullString(e.ParentItem), qtyPerParent, nullString(e.Notes), e.Opening, e.CumulativeDelta,
		e.ProjectedBalance, e.NavBefore, e.NavAfter,
	}
}

func summaryRow(seq int, runID string, s models.ItemSummary) []interface{} {
	var firstShortage interface{}
	if s.FirstShortageDate != nil {
		firstShortage = *s.FirstShortageDate
	}
	return []interface{}{
		seq, runID, s.Item, s.Opening, s.MinProjectedBalance, firstShortage, s.BalanceAtFirstShortage,
		s.AssignedQty, s.UnassignedQty, s.OnSalesOrder, s.OnPO, pq.Array(s.Customers), s.PlannedOrderQty, s.OK,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// LatestRun returns the id and as-of date of the stored run.
func (r *PGRepository) LatestRun(ctx context.Context) (string, time.Time, error) {
	var row struct {
		RunID string    `db:"run_id"`
		AsOf  time.Time `db:"as_of"`
	}
	err := r.DB.GetContext(ctx, &row, `SELECT run_id, as_of FROM ledger_runs ORDER BY created_at DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, ErrNoRun
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("load latest run: %w", err)
	}
	return row.RunID, row.AsOf.UTC(), nil
}

// LoadATPView returns the stored view in (item, date) order.
func (r *PGRepository) LoadATPView(ctx context.Context) ([]models.ATPEntry, error) {
	var entries []models.ATPEntry
	err := r.DB.SelectContext(ctx, &entries, `SELECT item, date, projected_balance, future_min FROM atp_view ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("load atp view: %w", err)
	}
	for i := range entries {
		entries[i].Date = entries[i].Date.UTC()
	}
	return entries, nil
}

type summaryRecord struct {
	Item                   string              `db:"item"`
	Opening                decimal.Decimal     `db:"opening"`
	MinProjectedBalance    decimal.NullDecimal `db:"min_projected_balance"`
	FirstShortageDate      sql.NullTime        `db:"first_shortage_date"`
	BalanceAtFirstShortage decimal.NullDecimal `db:"balance_at_first_shortage"`
	AssignedQty            decimal.Decimal     `db:"assigned_qty"`
	UnassignedQty          decimal.Decimal     `db:"unassigned_qty"`
	OnSalesOrder           decimal.Decimal     `db:"on_sales_order"`
	OnPO                   decimal.Decimal     `db:"on_po"`
	Customers              pq.StringArray      `db:"customers"`
	PlannedOrderQty        decimal.Decimal     `db:"planned_order_qty"`
	OK                     bool                `db:"ok"`
}

func (s summaryRecord) model() models.ItemSummary {
	out := models.ItemSummary{
		Item:                   s.Item,
		Opening:                s.Opening,
		MinProjectedBalance:    s.MinProjectedBalance,
		BalanceAtFirstShortage: s.BalanceAtFirstShortage,
		AssignedQty:            s.AssignedQty,
		UnassignedQty:          s.UnassignedQty,
		OnSalesOrder:           s.OnSalesOrder,
		OnPO:                   s.OnPO,
		Customers:              []string(s.Customers),
		PlannedOrderQty:        s.PlannedOrderQty,
		OK:                     s.OK,
	}
	if s.FirstShortageDate.Valid {
		date := s.FirstShortageDate.Time.UTC()
		out.FirstShortageDate = &date
	}
	return out
}

// LoadSummary returns the stored item summary in presentation order.
func (r *PGRepository) LoadSummary(ctx context.Context) ([]models.ItemSummary, error) {
	var records []summaryRecord
	err := r.DB.SelectContext(ctx, &records, `
        SELECT item, opening, min_projected_balance, first_shortage_date, balance_at_first_shortage,
               assigned_qty, unassigned_qty, on_sales_order, on_po, customers, planned_order_qty, ok
        FROM item_summary ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("load item summary: %w", err)
	}
	out := make([]models.ItemSummary, len(records))
	for i, rec := range records {
		out[i] = rec.model()
	}
	return out, nil
}

type violationRecord struct {
	Date             time.Time           `db:"date"`
	Item             string              `db:"item"`
	Delta            decimal.Decimal     `db:"delta"`
	Customer         sql.NullString      `db:"customer"`
	OrderNo          sql.NullString      `db:"order_no"`
	CustomerPO       sql.NullString      `db:"customer_po"`
	ProjectedBalance decimal.Decimal     `db:"projected_balance"`
	NavBefore        decimal.NullDecimal `db:"nav_before"`
	NavAfter         decimal.NullDecimal `db:"nav_after"`
}

// LoadViolations returns the stored shortage rows ordered by date.
func (r *PGRepository) LoadViolations(ctx context.Context) ([]models.LedgerEntry, error) {
	var records []violationRecord
	err := r.DB.SelectContext(ctx, &records, `
        SELECT date, item, delta, customer, order_no, customer_po, projected_balance, nav_before, nav_after
        FROM violations ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("load violations: %w", err)
	}
	out := make([]models.LedgerEntry, len(records))
	for i, rec := range records {
		out[i] = models.LedgerEntry{
			Event: models.Event{
				Date:       rec.Date.UTC(),
				Item:       rec.Item,
				Delta:      rec.Delta,
				Kind:       models.KindOut,
				Source:     models.SourceSalesOrder,
				Customer:   rec.Customer.String,
				OrderNo:    rec.OrderNo.String,
				CustomerPO: rec.CustomerPO.String,
			},
			ProjectedBalance: rec.ProjectedBalance,
			NavBefore:        rec.NavBefore,
			NavAfter:         rec.NavAfter,
		}
	}
	return out, nil
}
