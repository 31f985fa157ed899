package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

// Reconcile compares the system-of-record snapshot with a physical count and
// emits one ADJ event per drifting item, dated the day before asOf.
func (n *Normalizer) Reconcile(record, count models.Table, asOf time.Time) ([]models.Event, error) {
	recordTotals, err := n.onHandTotals(record, TableRecordOnHand)
	if err != nil {
		return nil, err
	}
	countTotals, err := n.onHandTotals(count, TableCountOnHand)
	if err != nil {
		return nil, err
	}

	items := make([]string, 0, len(recordTotals)+len(countTotals))
	for item := range recordTotals {
		items = append(items, item)
	}
	for item := range countTotals {
		if _, ok := recordTotals[item]; !ok {
			items = append(items, item)
		}
	}
	sort.Strings(items)

	date := Day(asOf).AddDate(0, 0, -1)
	threshold := n.policy.ReconcileMinAbsDelta
	var events []models.Event
	for _, item := range items {
		recorded, counted := recordTotals[item], countTotals[item]
		delta := counted.Sub(recorded)
		if delta.IsZero() {
			continue
		}
		if threshold.IsPositive() && delta.Abs().LessThan(threshold) {
			continue
		}
		events = append(events, models.Event{
			Date:   date,
			Item:   item,
			Delta:  delta,
			Kind:   models.KindAdj,
			Source: models.SourceReconcile,
			Notes:  fmt.Sprintf("InvRecon: WH(%s) - DB(%s) = %s", counted, recorded, delta),
		})
	}
	return events, nil
}

func (n *Normalizer) onHandTotals(t models.Table, table string) (map[string]decimal.Decimal, error) {
	if err := requireColumns(t, table, models.ColItem, models.ColOnHand); err != nil {
		return nil, err
	}

	totals := make(map[string]decimal.Decimal)
	for i, row := range t.Rows {
		item := n.keys.Key(row.Get(models.ColItem))
		if item == "" {
			n.drop(table, i, "empty item", nil)
			continue
		}
		qty, err := ParseQuantity(row[models.ColOnHand])
		if err != nil {
			n.drop(table, i, "bad on-hand", err)
			continue
		}
		totals[item] = totals[item].Add(qty)
	}
	return totals, nil
}
