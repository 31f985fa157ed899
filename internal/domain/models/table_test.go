package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalColumn(t *testing.T) {
	tests := map[string]string{
		"Qty(-)":         ColQty,
		"Qty(+)":         ColQty,
		"Confirmed Qty":  ColQty,
		"Ship Date":      ColShipDate,
		"Lead Time":      ColShipDate,
		"Deliv Date":     ColDelivDate,
		"QB Num":         ColOrderNo,
		"P. O. #":        ColCustomerPO,
		"Pre/Bare":       ColPreBare,
		"Part_Number":    ColItem,
		"Model Name":     ColItem,
		"On Hand":        ColOnHand,
		"On Sales Order": ColOnSalesOrder,
		"On PO":          ColOnPO,
		"Source Name":    ColSourceName,
		"  Name ":        ColName,
	}

	for input, want := range tests {
		assert.Equal(t, want, CanonicalColumn(input), input)
	}
}

func TestNewTable(t *testing.T) {
	tbl := NewTable("demand",
		[]string{"Item", "Qty(-)", "Qty", "Ship Date"},
		[][]string{
			{"A", "", "3", "2025-01-01"},
			{"", "", "", ""},
			{"B", "4"},
		})

	assert.Equal(t, []string{ColItem, ColQty, ColQty, ColShipDate}, tbl.Header)
	assert.True(t, tbl.Present())
	assert.True(t, tbl.Has(ColShipDate))
	assert.False(t, tbl.Has(ColOnHand))
	if assert.Len(t, tbl.Rows, 2) {
		assert.Equal(t, "3", tbl.Rows[0].Get(ColQty))
		assert.Equal(t, "4", tbl.Rows[1].Get(ColQty))
		assert.Equal(t, "", tbl.Rows[1].Get(ColShipDate))
	}
	assert.False(t, Table{}.Present())
}
