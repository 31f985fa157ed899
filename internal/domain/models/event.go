package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind classifies a ledger row. Its ordinal is the tie-break priority used when
// several rows for the same item fall on the same date.
type Kind int

const (
	KindOpen Kind = iota
	KindIn
	KindAdj
	KindOut
)

var kindNames = [...]string{"OPEN", "IN", "ADJ", "OUT"}

func (k Kind) String() string {
	if k < KindOpen || k > KindOut {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind is the inverse of Kind.String and accepts any letter case.
func ParseKind(value string) (Kind, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for i, name := range kindNames {
		if name == normalized {
			return Kind(i), nil
		}
	}
	return KindOpen, fmt.Errorf("unknown event kind %q", value)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Source names the business document an event was derived from.
type Source string

const (
	SourceSnapshot      Source = "snapshot"
	SourceShipment      Source = "shipment"
	SourcePurchaseOrder Source = "purchase-order"
	SourceSalesOrder    Source = "sales-order"
	SourceReconcile     Source = "reconcile"
)

// Event is one dated change to an item's stock level. Delta is positive for
// inbound supply and negative for outbound demand.
type Event struct {
	Date         time.Time       `json:"date" db:"date"`
	Item         string          `json:"item" db:"item"`
	Delta        decimal.Decimal `json:"delta" db:"delta"`
	Kind         Kind            `json:"kind" db:"kind"`
	Source       Source          `json:"source" db:"source"`
	ItemRaw      string          `json:"item_raw,omitempty" db:"item_raw"`
	Customer     string          `json:"customer,omitempty" db:"customer"`
	OrderNo      string          `json:"order_no,omitempty" db:"order_no"`
	CustomerPO   string          `json:"customer_po,omitempty" db:"customer_po"`
	Vendor       string          `json:"vendor,omitempty" db:"vendor"`
	ParentItem   string          `json:"parent_item,omitempty" db:"parent_item"`
	QtyPerParent decimal.Decimal `json:"qty_per_parent" db:"qty_per_parent"`
	Notes        string          `json:"notes,omitempty" db:"notes"`
}

// Quantity is the absolute size of the movement.
func (e Event) Quantity() decimal.Decimal {
	return e.Delta.Abs()
}

// CustomerLabel renders "Name (Order)" or whichever half is present.
func (e Event) CustomerLabel() string {
	name := strings.TrimSpace(e.Customer)
	order := strings.TrimSpace(e.OrderNo)
	switch {
	case name != "" && order != "":
		return fmt.Sprintf("%s (%s)", name, order)
	case name != "":
		return name
	default:
		return order
	}
}
