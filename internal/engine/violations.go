package engine

import (
	"sort"
	"time"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

// DetectViolations returns customer demand rows that drive projected balance
// negative on a real date inside the look-ahead horizon, ordered by date.
func DetectViolations(ledger []models.LedgerEntry, asOf time.Time, policy Policy) []models.LedgerEntry {
	var cutoff time.Time
	if policy.HorizonDays > 0 {
		cutoff = Day(asOf).AddDate(0, 0, policy.HorizonDays)
	}

	var out []models.LedgerEntry
	for _, row := range ledger {
		if !row.ProjectedBalance.IsNegative() || row.Kind != models.KindOut || row.Source != models.SourceSalesOrder {
			continue
		}
		if policy.Calendar.IsPlaceholder(row.Date) || policy.IsPseudoItem(row.Item) {
			continue
		}
		if !cutoff.IsZero() && !row.Date.Before(cutoff) {
			continue
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
