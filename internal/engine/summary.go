package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

// SummaryInputs groups what the item summary reduces.
type SummaryInputs struct {
	Opening     []models.OpeningStock
	Ledger      []models.LedgerEntry
	Demand      []models.Event
	Commitments map[string]models.Commitments
}

// Summarize reduces the ledger to one health row per item known to either the
// opening snapshot or the ledger. Failing items sort first, worst minimum first.
func Summarize(in SummaryInputs, policy Policy) []models.ItemSummary {
	byItem := make(map[string]*models.ItemSummary)
	var order []string
	get := func(item string) *models.ItemSummary {
		if s, ok := byItem[item]; ok {
			return s
		}
		s := &models.ItemSummary{Item: item}
		byItem[item] = s
		order = append(order, item)
		return s
	}

	for _, o := range in.Opening {
		get(o.Item).Opening = o.Opening
	}

	for _, row := range in.Ledger {
		s := get(row.Item)
		if !s.MinProjectedBalance.Valid || row.ProjectedBalance.LessThan(s.MinProjectedBalance.Decimal) {
			s.MinProjectedBalance = decimal.NewNullDecimal(row.ProjectedBalance)
		}
		if row.ProjectedBalance.IsNegative() && s.FirstShortageDate == nil {
			date := row.Date
			s.FirstShortageDate = &date
			s.BalanceAtFirstShortage = decimal.NewNullDecimal(row.ProjectedBalance)
		}
	}

	customers := make(map[string][]models.Event)
	for _, ev := range in.Demand {
		s, ok := byItem[ev.Item]
		if !ok {
			continue
		}
		if policy.Calendar.IsPlaceholder(ev.Date) {
			s.UnassignedQty = s.UnassignedQty.Add(ev.Quantity())
		} else {
			s.AssignedQty = s.AssignedQty.Add(ev.Quantity())
		}
		customers[ev.Item] = append(customers[ev.Item], ev)
	}

	out := make([]models.ItemSummary, 0, len(order))
	for _, item := range order {
		s := byItem[item]
		if c, ok := in.Commitments[item]; ok {
			s.OnSalesOrder = c.OnSalesOrder
			s.OnPO = c.OnPO
		}
		s.Customers = customerLabels(customers[item])

		minimum := decimal.Zero
		if s.MinProjectedBalance.Valid {
			minimum = s.MinProjectedBalance.Decimal
		}
		s.OK = !minimum.IsNegative()
		s.PlannedOrderQty = decimal.Max(decimal.Zero, minimum.Neg()).Ceil()
		out = append(out, *s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.OK != b.OK {
			return !a.OK
		}
		if a.MinProjectedBalance.Valid != b.MinProjectedBalance.Valid {
			return a.MinProjectedBalance.Valid
		}
		if a.MinProjectedBalance.Valid && !a.MinProjectedBalance.Decimal.Equal(b.MinProjectedBalance.Decimal) {
			return a.MinProjectedBalance.Decimal.LessThan(b.MinProjectedBalance.Decimal)
		}
		return a.Item < b.Item
	})
	return out
}

func customerLabels(events []models.Event) []string {
	sorted := append([]models.Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].OrderNo != sorted[j].OrderNo {
			return sorted[i].OrderNo < sorted[j].OrderNo
		}
		return sorted[i].Customer < sorted[j].Customer
	})

	seen := make(map[string]struct{}, len(sorted))
	var labels []string
	for _, ev := range sorted {
		label := ev.CustomerLabel()
		if label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	return labels
}
