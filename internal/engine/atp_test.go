package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

func point(item string, date time.Time, balance string) models.BalancePoint {
	p := models.BalancePoint{Item: item, Date: date}
	if balance != "" {
		p.ProjectedBalance = decimal.NewNullDecimal(dec(balance))
	}
	return p
}

func TestBuildATPViewSuffixMinimum(t *testing.T) {
	view := BuildATPView([]models.BalancePoint{
		point("X", day(5), "-5"),
		point("X", day(1), "10"),
		point("X", day(8), "4"),
		point("Total X", day(1), "-100"),
		point("", day(1), "1"),
		point("X", time.Time{}, "1"),
	}, DefaultPolicy())

	rows := view.Entries()
	require.Len(t, rows, 3)
	assert.Equal(t, []time.Time{day(1), day(5), day(8)}, []time.Time{rows[0].Date, rows[1].Date, rows[2].Date})
	assertDec(t, "-5", rows[0].FutureMin.Decimal)
	assertDec(t, "-5", rows[1].FutureMin.Decimal)
	assertDec(t, "4", rows[2].FutureMin.Decimal)

	for i, row := range rows {
		assert.True(t, row.FutureMin.Decimal.LessThanOrEqual(row.ProjectedBalance.Decimal), "row %d", i)
		if i > 0 {
			assert.True(t, rows[i-1].FutureMin.Decimal.LessThanOrEqual(row.FutureMin.Decimal), "row %d", i)
		}
	}
}

func TestBuildATPViewUnknownBalanceIsUnconstrained(t *testing.T) {
	view := BuildATPView([]models.BalancePoint{
		point("U", day(1), "6"),
		point("U", day(2), ""),
		point("U", day(3), ""),
	}, DefaultPolicy())

	rows := view.Item("U")
	require.Len(t, rows, 3)
	assertDec(t, "6", rows[0].FutureMin.Decimal)
	assert.False(t, rows[1].FutureMin.Valid)
	assert.False(t, rows[2].FutureMin.Valid)

	date, ok := view.EarliestPromiseDate("U", dec("1000"), day(0), true)
	assert.True(t, ok)
	assert.Equal(t, day(2), date)
}

func promiseView() *ATPView {
	return BuildATPView([]models.BalancePoint{
		point("Z", day(1), "3"),
		point("Z", day(4), "4"),
		point("Z", day(10), "5"),
		point("Z", day(12), "9"),
		point("W", day(2), "20"),
		point("W", day(6), "2"),
		point("W", day(7), "30"),
	}, DefaultPolicy())
}

func TestEarliestPromiseDate(t *testing.T) {
	view := promiseView()

	tests := []struct {
		name      string
		item      string
		qty       string
		from      time.Time
		allowZero bool
		want      time.Time
		ok        bool
	}{
		{name: "reaches qty on day 10", item: "Z", qty: "5", from: day(0), allowZero: true, want: day(10), ok: true},
		{name: "strict skips exact match", item: "Z", qty: "5", from: day(0), allowZero: false, want: day(12), ok: true},
		{name: "strict infeasible", item: "Z", qty: "9", from: day(0), allowZero: false},
		{name: "from date bounds search", item: "W", qty: "1", from: day(3), allowZero: true, want: day(6), ok: true},
		{name: "later dip blocks early promise", item: "W", qty: "10", from: day(0), allowZero: true, want: day(7), ok: true},
		{name: "unknown item", item: "NOPE", qty: "1", from: day(0), allowZero: true},
		{name: "nothing after from", item: "Z", qty: "1", from: day(30), allowZero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := view.EarliestPromiseDate(tt.item, dec(tt.qty), tt.from, tt.allowZero)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestEarliestPromiseDateMulti(t *testing.T) {
	view := promiseView()

	date, ok := view.EarliestPromiseDateMulti(map[string]decimal.Decimal{"Z": dec("5"), "W": dec("1")}, day(0), true)
	require.True(t, ok)
	assert.Equal(t, day(10), date)

	for item, qty := range map[string]string{"Z": "5", "W": "1"} {
		single, ok := view.EarliestPromiseDate(item, dec(qty), day(0), true)
		require.True(t, ok)
		assert.False(t, date.Before(single))
	}

	_, ok = view.EarliestPromiseDateMulti(map[string]decimal.Decimal{"Z": dec("5"), "W": dec("31")}, day(0), true)
	assert.False(t, ok)

	_, ok = view.EarliestPromiseDateMulti(nil, day(0), true)
	assert.False(t, ok)
}

func TestNewATPViewIndexesStoredRows(t *testing.T) {
	stored := promiseView().Entries()
	view := NewATPView(stored)

	assert.Equal(t, []string{"W", "Z"}, view.Items())
	assert.Len(t, view.Item("W"), 3)
	date, ok := view.EarliestPromiseDate("Z", dec("4"), day(0), true)
	assert.True(t, ok)
	assert.Equal(t, day(4), date)
}
