package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

// span is the half-open row range [start, end) occupied by one item.
type span struct {
	item       string
	start, end int
}

// BuildLedger merges opening stock with events, orders rows by
// (item, date, kind) and projects each item's running balance. Rows that tie
// on all three keep their input order, opening rows ahead of events.
func BuildLedger(opening []models.OpeningStock, events []models.Event, asOf time.Time) []models.LedgerEntry {
	today := Day(asOf)
	openingByItem := make(map[string]decimal.Decimal, len(opening))
	for _, o := range opening {
		openingByItem[o.Item] = o.Opening
	}

	rows := make([]models.LedgerEntry, 0, len(opening)+len(events))
	for _, o := range opening {
		rows = append(rows, models.LedgerEntry{
			Event: models.Event{
				Date:   today,
				Item:   o.Item,
				Delta:  decimal.Zero,
				Kind:   models.KindOpen,
				Source: models.SourceSnapshot,
			},
			Opening: openingByItem[o.Item],
		})
	}
	for _, ev := range events {
		rows = append(rows, models.LedgerEntry{Event: ev, Opening: openingByItem[ev.Item]})
	}

	kept := rows[:0]
	for _, row := range rows {
		if row.Item == "" || row.Date.IsZero() || row.Delta.IsZero() {
			continue
		}
		kept = append(kept, row)
	}
	rows = kept

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Item != b.Item {
			return a.Item < b.Item
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Kind < b.Kind
	})

	for _, s := range partition(len(rows), func(i int) string { return rows[i].Item }) {
		cumulative := decimal.Zero
		for i := s.start; i < s.end; i++ {
			cumulative = cumulative.Add(rows[i].Delta)
			rows[i].CumulativeDelta = cumulative
			rows[i].ProjectedBalance = rows[i].Opening.Add(cumulative)
			if rows[i].Kind == models.KindOut {
				rows[i].NavBefore = decimal.NewNullDecimal(rows[i].ProjectedBalance.Sub(rows[i].Delta))
				rows[i].NavAfter = decimal.NewNullDecimal(rows[i].ProjectedBalance)
			}
		}
	}

	return rows
}

// partition indexes contiguous runs of equal keys in an item-sorted sequence.
func partition(n int, key func(int) string) []span {
	var spans []span
	for start := 0; start < n; {
		end := start + 1
		for end < n && key(end) == key(start) {
			end++
		}
		spans = append(spans, span{item: key(start), start: start, end: end})
		start = end
	}
	return spans
}
