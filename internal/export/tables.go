// Package export renders engine outputs as flat string tables for
// spreadsheets and CSV files.
package export

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

const dateLayout = "2006-01-02"

// Sheet is a header plus rows of cells.
type Sheet struct {
	Header []string
	Rows   [][]string
}

// Values returns header and rows in the shape the Sheets API writes.
func (s Sheet) Values() [][]interface{} {
	out := make([][]interface{}, 0, len(s.Rows)+1)
	out = append(out, cells(s.Header))
	for _, row := range s.Rows {
		out = append(out, cells(row))
	}
	return out
}

// Records returns header and rows for encoding/csv.
func (s Sheet) Records() [][]string {
	return append([][]string{s.Header}, s.Rows...)
}

func cells(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

// Ledger renders every ledger row.
func Ledger(entries []models.LedgerEntry) Sheet {
	s := Sheet{Header: []string{
		"Date", "Item", "Delta", "Kind", "Source", "Item_raw", "Customer", "QB Num", "Customer PO",
		"Vendor", "Parent Item", "Qty Per Parent", "Notes", "Opening", "Cumulative Delta",
		"Projected Balance", "NAV Before", "NAV After",
	}}
	for _, e := range entries {
		qtyPerParent := ""
		if !e.QtyPerParent.IsZero() {
			qtyPerParent = e.QtyPerParent.String()
		}
		s.Rows = append(s.Rows, []string{
			date(e.Date), e.Item, e.Delta.String(), e.Kind.String(), string(e.Source), e.ItemRaw,
			e.Customer, e.OrderNo, e.CustomerPO, e.Vendor, e.ParentItem, qtyPerParent, e.Notes,
			e.Opening.String(), e.CumulativeDelta.String(), e.ProjectedBalance.String(),
			nullable(e.NavBefore), nullable(e.NavAfter),
		})
	}
	return s
}

// Summary renders the item health table.
func Summary(items []models.ItemSummary) Sheet {
	s := Sheet{Header: []string{
		"Item", "Opening", "Min Projected Balance", "First Shortage Date", "NAV At First Shortage",
		"Assigned Qty", "Unassigned Qty", "On Sales Order", "On PO", "Customers", "Planned Order Qty", "OK",
	}}
	for _, it := range items {
		first := ""
		if it.FirstShortageDate != nil {
			first = date(*it.FirstShortageDate)
		}
		ok := "FALSE"
		if it.OK {
			ok = "TRUE"
		}
		s.Rows = append(s.Rows, []string{
			it.Item, it.Opening.String(), nullable(it.MinProjectedBalance), first, nullable(it.BalanceAtFirstShortage),
			it.AssignedQty.String(), it.UnassignedQty.String(), it.OnSalesOrder.String(), it.OnPO.String(),
			strings.Join(it.Customers, ", "), it.PlannedOrderQty.String(), ok,
		})
	}
	return s
}

// ATP renders the availability view.
func ATP(entries []models.ATPEntry) Sheet {
	s := Sheet{Header: []string{"Item", "Date", "Projected Balance", "Future Min"}}
	for _, e := range entries {
		s.Rows = append(s.Rows, []string{e.Item, date(e.Date), nullable(e.ProjectedBalance), nullable(e.FutureMin)})
	}
	return s
}

// Violations renders shortage rows.
func Violations(entries []models.LedgerEntry) Sheet {
	s := Sheet{Header: []string{
		"Date", "Item", "Qty", "Customer", "QB Num", "Customer PO", "NAV Before", "NAV After",
	}}
	for _, e := range entries {
		s.Rows = append(s.Rows, []string{
			date(e.Date), e.Item, e.Quantity().String(), e.Customer, e.OrderNo, e.CustomerPO,
			nullable(e.NavBefore), nullable(e.NavAfter),
		})
	}
	return s
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func nullable(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
