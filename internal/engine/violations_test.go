package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

func ledgerRow(ev models.Event, balance string) models.LedgerEntry {
	return models.LedgerEntry{Event: ev, ProjectedBalance: dec(balance)}
}

func TestDetectViolationsFilters(t *testing.T) {
	policy := DefaultPolicy()
	placeholder := time.Date(2099, 7, 4, 0, 0, 0, 0, time.UTC)

	adj := models.Event{Date: day(1), Item: "A", Delta: dec("-2"), Kind: models.KindAdj, Source: models.SourceReconcile}
	forecast := outEvent("A", day(2), "1")
	forecast.Source = models.SourcePurchaseOrder

	ledger := []models.LedgerEntry{
		ledgerRow(outEvent("A", day(9), "4"), "-3"),
		ledgerRow(outEvent("A", day(3), "1"), "-1"),
		ledgerRow(outEvent("A", day(4), "1"), "0"),
		ledgerRow(adj, "-2"),
		ledgerRow(forecast, "-1"),
		ledgerRow(outEvent("A", placeholder, "5"), "-8"),
		ledgerRow(outEvent("Total Disks", day(2), "5"), "-5"),
		ledgerRow(outEvent("A", day(90), "1"), "-9"),
		ledgerRow(outEvent("A", day(89), "1"), "-9"),
	}

	got := DetectViolations(ledger, asOf, policy)
	require.Len(t, got, 3)
	assert.Equal(t, day(3), got[0].Date)
	assert.Equal(t, day(9), got[1].Date)
	assert.Equal(t, day(89), got[2].Date)
}

func TestDetectViolationsWithoutHorizon(t *testing.T) {
	policy := DefaultPolicy()
	policy.HorizonDays = 0

	got := DetectViolations([]models.LedgerEntry{ledgerRow(outEvent("A", day(400), "1"), "-1")}, asOf, policy)
	assert.Len(t, got, 1)
}

func TestDetectViolationsLeavesLedgerUntouched(t *testing.T) {
	ledger := []models.LedgerEntry{
		ledgerRow(outEvent("A", day(5), "1"), "-1"),
		ledgerRow(outEvent("A", day(2), "1"), "-2"),
	}
	DetectViolations(ledger, asOf, DefaultPolicy())
	assert.Equal(t, day(5), ledger[0].Date)
}
