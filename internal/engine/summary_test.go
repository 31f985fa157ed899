package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

func TestSummarizeOrderingAndPlannedQty(t *testing.T) {
	policy := DefaultPolicy()
	ledger := BuildLedger(
		[]models.OpeningStock{opening("OK", "5"), opening("IDLE", "3"), opening("DEEP", "0"), opening("SHALLOW", "1")},
		[]models.Event{
			outEvent("OK", day(1), "5"),
			outEvent("DEEP", day(2), "7.5"),
			outEvent("SHALLOW", day(3), "2"),
			inEvent("SHALLOW", day(6), "10"),
		},
		asOf,
	)

	summary := Summarize(SummaryInputs{Opening: []models.OpeningStock{
		opening("OK", "5"), opening("IDLE", "3"), opening("DEEP", "0"), opening("SHALLOW", "1"),
	}, Ledger: ledger}, policy)

	require.Len(t, summary, 4)
	items := []string{summary[0].Item, summary[1].Item, summary[2].Item, summary[3].Item}
	assert.Equal(t, []string{"DEEP", "SHALLOW", "OK", "IDLE"}, items)

	deep := summary[0]
	assert.False(t, deep.OK)
	assertDec(t, "8", deep.PlannedOrderQty)
	require.NotNil(t, deep.FirstShortageDate)
	assert.Equal(t, day(2), *deep.FirstShortageDate)

	shallow := summary[1]
	assertDec(t, "-1", shallow.MinProjectedBalance.Decimal)
	assertDec(t, "-1", shallow.BalanceAtFirstShortage.Decimal)
	assertDec(t, "1", shallow.PlannedOrderQty)

	ok := summary[2]
	assert.True(t, ok.OK)
	assertDec(t, "0", ok.MinProjectedBalance.Decimal)
	assert.Nil(t, ok.FirstShortageDate)
	assertDec(t, "0", ok.PlannedOrderQty)

	idle := summary[3]
	assert.True(t, idle.OK)
	assert.False(t, idle.MinProjectedBalance.Valid)
	assertDec(t, "3", idle.Opening)
}

func TestSummarizeDemandSplitAndCustomers(t *testing.T) {
	policy := DefaultPolicy()
	placeholder := time.Date(2099, 12, 31, 0, 0, 0, 0, time.UTC)

	a := outEvent("W", day(2), "3")
	a.Customer, a.OrderNo = "Beta", "SO-2"
	b := outEvent("W", placeholder, "4")
	b.Customer, b.OrderNo = "Acme", "SO-1"
	c := outEvent("W", day(5), "1")
	c.Customer, c.OrderNo = "Beta", "SO-2"
	stray := outEvent("UNKNOWN", day(1), "1")

	demand := []models.Event{a, b, c}
	ledger := BuildLedger([]models.OpeningStock{opening("W", "20")}, demand, asOf)

	summary := Summarize(SummaryInputs{
		Opening:     []models.OpeningStock{opening("W", "20")},
		Ledger:      ledger,
		Demand:      append(demand, stray),
		Commitments: map[string]models.Commitments{"W": {OnSalesOrder: dec("8"), OnPO: dec("2")}},
	}, policy)

	require.Len(t, summary, 1)
	w := summary[0]
	assertDec(t, "4", w.AssignedQty)
	assertDec(t, "4", w.UnassignedQty)
	assertDec(t, "8", w.OnSalesOrder)
	assertDec(t, "2", w.OnPO)
	assert.Equal(t, []string{"Acme (SO-1)", "Beta (SO-2)"}, w.Customers)
	assertDec(t, "12", w.MinProjectedBalance.Decimal)
}
