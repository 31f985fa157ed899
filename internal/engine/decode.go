package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/06",
	"1/2/06",
}

var (
	errEmptyValue = errors.New("empty value")
	errBadDate    = errors.New("unparseable date")
)

// ParseDate reads the date layouts found in spreadsheet and CSV exports and
// truncates the result to midnight UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errEmptyValue
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", errBadDate, value)
}

// ParseQuantity reads a decimal quantity, tolerating thousands separators.
func ParseQuantity(value string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(strings.TrimSpace(value))
	if cleaned == "" {
		return decimal.Zero, errEmptyValue
	}
	qty, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse quantity %q: %w", value, err)
	}
	return qty, nil
}

func requireColumns(t models.Table, table string, columns ...string) error {
	for _, column := range columns {
		if !t.Has(column) {
			return &SchemaError{Table: table, Column: column}
		}
	}
	return nil
}

func requireAnyColumn(t models.Table, table string, columns ...string) error {
	for _, column := range columns {
		if t.Has(column) {
			return nil
		}
	}
	return &SchemaError{Table: table, Column: strings.Join(columns, "|")}
}
