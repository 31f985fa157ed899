package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

// ATPView is the per-item suffix-minimum index used to answer promise queries.
type ATPView struct {
	entries []models.ATPEntry
	index   map[string]span
}

// BuildATPView drops pseudo-items and undated rows, orders the remainder by
// (item, date) and computes each row's future minimum right to left. Unknown
// balances never tighten the minimum.
func BuildATPView(points []models.BalancePoint, policy Policy) *ATPView {
	entries := make([]models.ATPEntry, 0, len(points))
	for _, p := range points {
		if p.Item == "" || p.Date.IsZero() || policy.IsPseudoItem(p.Item) {
			continue
		}
		entries = append(entries, models.ATPEntry{Item: p.Item, Date: p.Date, ProjectedBalance: p.ProjectedBalance})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Item != entries[j].Item {
			return entries[i].Item < entries[j].Item
		}
		return entries[i].Date.Before(entries[j].Date)
	})

	for _, s := range partition(len(entries), func(i int) string { return entries[i].Item }) {
		running := decimal.NullDecimal{}
		for i := s.end - 1; i >= s.start; i-- {
			running = minNull(running, entries[i].ProjectedBalance)
			entries[i].FutureMin = running
		}
	}

	return NewATPView(entries)
}

// NewATPView indexes entries that are already ordered by (item, date) with
// FutureMin populated, such as a view reloaded from storage.
func NewATPView(entries []models.ATPEntry) *ATPView {
	v := &ATPView{entries: entries, index: make(map[string]span)}
	for _, s := range partition(len(entries), func(i int) string { return entries[i].Item }) {
		v.index[s.item] = s
	}
	return v
}

// Entries returns the view rows in (item, date) order.
func (v *ATPView) Entries() []models.ATPEntry {
	return v.entries
}

// Item returns the rows of a single item.
func (v *ATPView) Item(item string) []models.ATPEntry {
	s, ok := v.index[item]
	if !ok {
		return nil
	}
	return v.entries[s.start:s.end]
}

// Items lists the indexed item keys in order.
func (v *ATPView) Items() []string {
	items := make([]string, 0, len(v.index))
	for item := range v.index {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}

// EarliestPromiseDate returns the first date on or after from where qty units
// of item can be promised without any later balance dropping below qty. With
// allowZero the balance may reach exactly zero after the promise.
func (v *ATPView) EarliestPromiseDate(item string, qty decimal.Decimal, from time.Time, allowZero bool) (time.Time, bool) {
	from = Day(from)
	for _, entry := range v.Item(item) {
		if entry.Date.Before(from) {
			continue
		}
		if covers(entry.FutureMin, qty, allowZero) {
			return entry.Date, true
		}
	}
	return time.Time{}, false
}

// EarliestPromiseDateMulti returns the date by which every demand line can be
// promised together. Any infeasible line, or no lines at all, makes the whole
// request infeasible.
func (v *ATPView) EarliestPromiseDateMulti(demands map[string]decimal.Decimal, from time.Time, allowZero bool) (time.Time, bool) {
	if len(demands) == 0 {
		return time.Time{}, false
	}

	var latest time.Time
	for item, qty := range demands {
		date, ok := v.EarliestPromiseDate(item, qty, from, allowZero)
		if !ok {
			return time.Time{}, false
		}
		if date.After(latest) {
			latest = date
		}
	}
	return latest, true
}

func covers(futureMin decimal.NullDecimal, qty decimal.Decimal, allowZero bool) bool {
	if !futureMin.Valid {
		return true
	}
	if allowZero {
		return futureMin.Decimal.GreaterThanOrEqual(qty)
	}
	return futureMin.Decimal.GreaterThan(qty)
}

// minNull treats an invalid value as positive infinity.
func minNull(a, b decimal.NullDecimal) decimal.NullDecimal {
	switch {
	case !a.Valid:
		return b
	case !b.Valid:
		return a
	case b.Decimal.LessThan(a.Decimal):
		return b
	default:
		return a
	}
}
