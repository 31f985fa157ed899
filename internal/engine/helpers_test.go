package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

var asOf = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return asOf.AddDate(0, 0, n)
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]interface{}{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func table(name string, header []string, rows ...[]string) models.Table {
	return models.NewTable(name, header, rows)
}

func outEvent(item string, date time.Time, qty string) models.Event {
	return models.Event{Date: date, Item: item, Delta: dec(qty).Neg(), Kind: models.KindOut, Source: models.SourceSalesOrder}
}

func inEvent(item string, date time.Time, qty string) models.Event {
	return models.Event{Date: date, Item: item, Delta: dec(qty), Kind: models.KindIn, Source: models.SourceShipment}
}

func opening(item, qty string) models.OpeningStock {
	return models.OpeningStock{Item: item, Opening: dec(qty)}
}
