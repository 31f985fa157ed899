package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

func TestShipmentsExpandPreInstalledBundles(t *testing.T) {
	shipments := table(TableShipments,
		[]string{"Ship Date", "Item", "Description", "Qty(+)", "Pre/Bare"},
		[]string{"2025-03-01", "NRU-100", "NRU-100, including 2x SSD-1TB", "3", "Pre"},
		[]string{"2025-03-02", "nru-51", "NRU-51 chassis", "1", "Bare"},
	)

	n := NewNormalizer(DefaultPolicy(), nil, nil)
	events, err := n.Shipments(shipments)
	require.NoError(t, err)
	require.Len(t, events, 3)

	arrival := time.Date(2025, time.March, 6, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "SSD-1TB", events[0].Item)
	assertDec(t, "6", events[0].Delta)
	assert.Equal(t, "NRU-100", events[0].ParentItem)
	assertDec(t, "2", events[0].QtyPerParent)
	assert.Equal(t, arrival, events[0].Date)

	assert.Equal(t, "NRU-100", events[1].Item)
	assertDec(t, "3", events[1].Delta)
	assert.Equal(t, models.KindIn, events[1].Kind)
	assert.Equal(t, models.SourceShipment, events[1].Source)

	assert.Equal(t, "NRU-51", events[2].Item)
	assert.Equal(t, arrival.AddDate(0, 0, 1), events[2].Date)
}

func TestShipmentsPreWithoutDescriptionUsesItem(t *testing.T) {
	shipments := table(TableShipments,
		[]string{"Ship Date", "Item", "Description", "Qty(+)", "Pre/Bare"},
		[]string{"2025-03-01", "NRU-9", "", "2", "PRE"},
	)

	events, err := NewNormalizer(DefaultPolicy(), nil, nil).Shipments(shipments)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "NRU-9", events[0].Item)
}

func TestDemandNormalization(t *testing.T) {
	demand := table(TableDemand,
		[]string{"Item", "Qty(-)", "Ship Date", "QB Num", "Name", "P. O. #"},
		[]string{" widget-a ", "1,200", "03/15/2025", "SO-7", "Acme", "PO-88"},
		[]string{"WIDGET-A", "4", "07/04/2025", "SO-8", "Beta", ""},
		[]string{"WIDGET-A", "0", "03/15/2025", "SO-9", "Gamma", ""},
		[]string{"WIDGET-A", "abc", "03/15/2025", "SO-9", "Gamma", ""},
		[]string{"WIDGET-A", "2", "someday", "SO-9", "Gamma", ""},
		[]string{"", "2", "03/15/2025", "SO-9", "Gamma", ""},
	)

	n := NewNormalizer(DefaultPolicy(), nil, nil)
	events, err := n.Demand(demand)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "WIDGET-A", events[0].Item)
	assertDec(t, "-1200", events[0].Delta)
	assert.Equal(t, models.KindOut, events[0].Kind)
	assert.Equal(t, models.SourceSalesOrder, events[0].Source)
	assert.Equal(t, "Acme (SO-7)", events[0].CustomerLabel())
	assert.Equal(t, "PO-88", events[0].CustomerPO)

	assert.Equal(t, time.Date(2099, time.July, 4, 0, 0, 0, 0, time.UTC), events[1].Date)
	assert.Equal(t, 4, n.Dropped()[TableDemand])
}

func TestPurchaseOrdersExcludeVendorsAndFallBackToDeliveryDate(t *testing.T) {
	policy := DefaultPolicy()
	policy.ExcludedVendors = []string{"Internal Transfer"}

	pos := table(TablePurchaseOrders,
		[]string{"Item", "Confirmed Qty", "Ship Date", "Deliv Date", "Source Name"},
		[]string{"SSD-1TB", "40", "", "2025-04-02", "Disk Corp"},
		[]string{"SSD-1TB", "10", "2025-03-20", "2025-04-02", "internal transfer"},
		[]string{"RAM-16G", "8", "2025-03-21", "", "Mem Inc"},
	)

	events, err := NewNormalizer(policy, nil, nil).PurchaseOrders(pos)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, time.Date(2025, time.April, 2, 0, 0, 0, 0, time.UTC), events[0].Date)
	assert.Equal(t, "Disk Corp", events[0].Vendor)
	assert.Equal(t, models.SourcePurchaseOrder, events[0].Source)
	assert.Equal(t, "RAM-16G", events[1].Item)
}

func TestInventoryLastWinsAndCommitments(t *testing.T) {
	inv := table(TableInventory,
		[]string{"Part_Number", "On Hand", "On Sales Order", "On PO"},
		[]string{"A", "5", "2", "1"},
		[]string{"a", "7", "3", ""},
		[]string{"B", "n/a", "1", "4"},
	)

	opening, commitments, err := NewNormalizer(DefaultPolicy(), nil, nil).Inventory(inv)
	require.NoError(t, err)
	require.Len(t, opening, 1)
	assert.Equal(t, "A", opening[0].Item)
	assertDec(t, "7", opening[0].Opening)
	assertDec(t, "5", commitments["A"].OnSalesOrder)
	assertDec(t, "1", commitments["A"].OnPO)
	assertDec(t, "4", commitments["B"].OnPO)
}

func TestMissingColumnsAreStructuralErrors(t *testing.T) {
	n := NewNormalizer(DefaultPolicy(), nil, nil)

	_, err := n.Demand(table(TableDemand, []string{"Item", "Qty"}, []string{"A", "1"}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, TableDemand, schemaErr.Table)
	assert.Equal(t, models.ColShipDate, schemaErr.Column)

	_, err = n.Shipments(table(TableShipments, []string{"Item", "Qty", "Ship Date"}))
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = n.PurchaseOrders(table(TablePurchaseOrders, []string{"Item", "Qty", "Vendor"}))
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, _, err = n.Inventory(models.Table{Name: TableInventory})
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestCustomKeyer(t *testing.T) {
	keys := ItemKeyerFunc(func(raw string) string {
		if raw == "Old Name" {
			return "NEW-NAME"
		}
		return UpperKeys.Key(raw)
	})
	demand := table(TableDemand, []string{"Item", "Qty", "Ship Date"}, []string{"Old Name", "1", "2025-03-02"})

	events, err := NewNormalizer(DefaultPolicy(), keys, nil).Demand(demand)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "NEW-NAME", events[0].Item)
	assert.Equal(t, "Old Name", events[0].ItemRaw)
}
