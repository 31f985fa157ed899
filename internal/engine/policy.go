package engine

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Policy carries the business conventions the engine applies. None of it
// touches ledger arithmetic.
type Policy struct {
	Calendar Calendar
	// ExcludedVendors are purchase-order vendors whose lines are not real supply.
	ExcludedVendors []string
	// PseudoItemPrefixes mark rollup rows ("Total ...") exported alongside items.
	PseudoItemPrefixes []string
	// ShipmentTransitDays is added to a shipment's ship date to get its arrival.
	ShipmentTransitDays int
	// HorizonDays bounds violation detection; zero disables the bound.
	HorizonDays int
	// ReconcileMinAbsDelta drops smaller reconciliation drifts when positive.
	ReconcileMinAbsDelta decimal.Decimal
}

// DefaultPolicy matches the conventions of the legacy exports.
func DefaultPolicy() Policy {
	return Policy{
		Calendar:            DefaultCalendar(),
		PseudoItemPrefixes:  []string{"Total "},
		ShipmentTransitDays: 5,
		HorizonDays:         90,
	}
}

// IsPseudoItem reports rollup rows that must never be treated as stock.
func (p Policy) IsPseudoItem(item string) bool {
	trimmed := strings.TrimSpace(item)
	for _, prefix := range p.PseudoItemPrefixes {
		if prefix == "" {
			continue
		}
		if len(trimmed) >= len(prefix) && strings.EqualFold(trimmed[:len(prefix)], prefix) {
			return true
		}
	}
	return false
}

func (p Policy) vendorExcluded(vendor string) bool {
	vendor = strings.TrimSpace(vendor)
	if vendor == "" {
		return false
	}
	for _, excluded := range p.ExcludedVendors {
		if strings.EqualFold(strings.TrimSpace(excluded), vendor) {
			return true
		}
	}
	return false
}

// ItemKeyer canonicalizes raw item labels into ledger keys.
type ItemKeyer interface {
	Key(raw string) string
}

// ItemKeyerFunc adapts a function to ItemKeyer.
type ItemKeyerFunc func(raw string) string

func (f ItemKeyerFunc) Key(raw string) string { return f(raw) }

// UpperKeys trims and upper-cases item labels.
var UpperKeys ItemKeyer = ItemKeyerFunc(func(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
})
