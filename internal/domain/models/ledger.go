package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpeningStock is the on-hand quantity of an item at the as-of date.
type OpeningStock struct {
	Item    string          `json:"item" db:"item"`
	Opening decimal.Decimal `json:"opening" db:"opening"`
}

// Commitments are the informational open-order totals carried by the inventory snapshot.
type Commitments struct {
	OnSalesOrder decimal.Decimal `json:"on_sales_order"`
	OnPO         decimal.Decimal `json:"on_po"`
}

// LedgerEntry is an event annotated with the running position of its item.
// NavBefore and NavAfter are only set on OUT rows.
type LedgerEntry struct {
	Event
	Opening          decimal.Decimal     `json:"opening" db:"opening"`
	CumulativeDelta  decimal.Decimal     `json:"cumulative_delta" db:"cumulative_delta"`
	ProjectedBalance decimal.Decimal     `json:"projected_balance" db:"projected_balance"`
	NavBefore        decimal.NullDecimal `json:"nav_before" db:"nav_before"`
	NavAfter         decimal.NullDecimal `json:"nav_after" db:"nav_after"`
}

// Point reduces the entry to the fields the ATP view needs.
func (e LedgerEntry) Point() BalancePoint {
	return BalancePoint{
		Item:             e.Item,
		Date:             e.Date,
		ProjectedBalance: decimal.NewNullDecimal(e.ProjectedBalance),
	}
}

// BalancePoint is a projected balance observation. An invalid ProjectedBalance
// means the balance is unknown and places no constraint on promises.
type BalancePoint struct {
	Item             string
	Date             time.Time
	ProjectedBalance decimal.NullDecimal
}

// ItemSummary is the per-item health row.
type ItemSummary struct {
	Item                   string              `json:"item" db:"item"`
	Opening                decimal.Decimal     `json:"opening" db:"opening"`
	MinProjectedBalance    decimal.NullDecimal `json:"min_projected_balance" db:"min_projected_balance"`
	FirstShortageDate      *time.Time          `json:"first_shortage_date,omitempty" db:"first_shortage_date"`
	BalanceAtFirstShortage decimal.NullDecimal `json:"balance_at_first_shortage" db:"balance_at_first_shortage"`
	AssignedQty            decimal.Decimal     `json:"assigned_qty" db:"assigned_qty"`
	UnassignedQty          decimal.Decimal     `json:"unassigned_qty" db:"unassigned_qty"`
	OnSalesOrder           decimal.Decimal     `json:"on_sales_order" db:"on_sales_order"`
	OnPO                   decimal.Decimal     `json:"on_po" db:"on_po"`
	Customers              []string            `json:"customers,omitempty" db:"-"`
	PlannedOrderQty        decimal.Decimal     `json:"planned_order_qty" db:"planned_order_qty"`
	OK                     bool                `json:"ok" db:"ok"`
}

// ATPEntry carries the suffix minimum of projected balance from Date onward.
// An invalid FutureMin is unbounded.
type ATPEntry struct {
	Item             string              `json:"item" db:"item"`
	Date             time.Time           `json:"date" db:"date"`
	ProjectedBalance decimal.NullDecimal `json:"projected_balance" db:"projected_balance"`
	FutureMin        decimal.NullDecimal `json:"future_min" db:"future_min"`
}
