package engine

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

// Collection names used in SchemaError and drop accounting.
const (
	TableDemand         = "demand"
	TableShipments      = "shipments"
	TablePurchaseOrders = "purchase_orders"
	TableInventory      = "inventory"
	TableRecordOnHand   = "record_on_hand"
	TableCountOnHand    = "count_on_hand"
)

// Normalizer turns raw tables into ledger events.
type Normalizer struct {
	policy  Policy
	keys    ItemKeyer
	logger  *zap.Logger
	dropped map[string]int
}

// NewNormalizer builds a Normalizer. A nil keyer falls back to UpperKeys.
func NewNormalizer(policy Policy, keys ItemKeyer, logger *zap.Logger) *Normalizer {
	if keys == nil {
		keys = UpperKeys
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{policy: policy, keys: keys, logger: logger, dropped: make(map[string]int)}
}

// Dropped returns the number of malformed rows skipped per collection.
func (n *Normalizer) Dropped() map[string]int {
	out := make(map[string]int, len(n.dropped))
	for table, count := range n.dropped {
		out[table] = count
	}
	return out
}

func (n *Normalizer) drop(table string, index int, reason string, err error) {
	n.dropped[table]++
	fields := []zap.Field{zap.String("table", table), zap.Int("row", index), zap.String("reason", reason)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	n.logger.Debug("dropped input row", fields...)
}

// Demand converts sales-order lines into OUT events. Placeholder ship dates are
// pinned onto the placeholder year.
func (n *Normalizer) Demand(t models.Table) ([]models.Event, error) {
	if err := requireColumns(t, TableDemand, models.ColItem, models.ColQty, models.ColShipDate); err != nil {
		return nil, err
	}

	events := make([]models.Event, 0, len(t.Rows))
	for i, row := range t.Rows {
		raw := row.Get(models.ColItem)
		item := n.keys.Key(raw)
		if item == "" {
			n.drop(TableDemand, i, "empty item", nil)
			continue
		}
		qty, err := ParseQuantity(row[models.ColQty])
		if err != nil || !qty.IsPositive() {
			n.drop(TableDemand, i, "non-positive quantity", err)
			continue
		}
		date, err := ParseDate(row[models.ColShipDate])
		if err != nil {
			n.drop(TableDemand, i, "bad ship date", err)
			continue
		}

		events = append(events, models.Event{
			Date:       n.policy.Calendar.Pin(date),
			Item:       item,
			ItemRaw:    raw,
			Delta:      qty.Neg(),
			Kind:       models.KindOut,
			Source:     models.SourceSalesOrder,
			Customer:   row.Get(models.ColCustomer, models.ColName),
			OrderNo:    row.Get(models.ColOrderNo),
			CustomerPO: row.Get(models.ColCustomerPO),
		})
	}
	return events, nil
}

// Shipments converts inbound shipment lines into IN events, arriving
// ShipmentTransitDays after their ship date. Lines flagged as pre-installed
// expand into one event per declared component followed by the parent.
func (n *Normalizer) Shipments(t models.Table) ([]models.Event, error) {
	if err := requireColumns(t, TableShipments, models.ColItem, models.ColQty, models.ColShipDate, models.ColPreBare); err != nil {
		return nil, err
	}

	events := make([]models.Event, 0, len(t.Rows))
	for i, row := range t.Rows {
		qty, err := ParseQuantity(row[models.ColQty])
		if err != nil || !qty.IsPositive() {
			n.drop(TableShipments, i, "non-positive quantity", err)
			continue
		}
		shipped, err := ParseDate(row[models.ColShipDate])
		if err != nil {
			n.drop(TableShipments, i, "bad ship date", err)
			continue
		}
		arrival := shipped.AddDate(0, 0, n.policy.ShipmentTransitDays)
		rawItem := row.Get(models.ColItem)

		if !strings.EqualFold(row.Get(models.ColPreBare), "pre") {
			item := n.keys.Key(rawItem)
			if item == "" {
				n.drop(TableShipments, i, "empty item", nil)
				continue
			}
			events = append(events, inboundEvent(arrival, item, rawItem, qty, models.SourceShipment))
			continue
		}

		parentLabel, components := ParseDescription(row.Get(models.ColDescription))
		if parentLabel == "" {
			parentLabel = rawItem
		}
		parent := n.keys.Key(parentLabel)
		if parent == "" {
			n.drop(TableShipments, i, "empty item", nil)
			continue
		}

		for _, component := range components {
			key := n.keys.Key(component.Item)
			componentQty := qty.Mul(component.QtyPerParent)
			if key == "" || !componentQty.IsPositive() {
				continue
			}
			ev := inboundEvent(arrival, key, component.Item, componentQty, models.SourceShipment)
			ev.ParentItem = parent
			ev.QtyPerParent = component.QtyPerParent
			events = append(events, ev)
		}
		events = append(events, inboundEvent(arrival, parent, parentLabel, qty, models.SourceShipment))
	}
	return events, nil
}

// PurchaseOrders converts open vendor PO lines into IN events dated by their
// ship date, falling back to the delivery date. Excluded vendors are skipped.
func (n *Normalizer) PurchaseOrders(t models.Table) ([]models.Event, error) {
	if err := requireColumns(t, TablePurchaseOrders, models.ColItem, models.ColQty); err != nil {
		return nil, err
	}
	if err := requireAnyColumn(t, TablePurchaseOrders, models.ColShipDate, models.ColDelivDate); err != nil {
		return nil, err
	}

	events := make([]models.Event, 0, len(t.Rows))
	for i, row := range t.Rows {
		vendor := row.Get(models.ColVendor, models.ColSourceName, models.ColName)
		if n.policy.vendorExcluded(vendor) {
			continue
		}
		raw := row.Get(models.ColItem)
		item := n.keys.Key(raw)
		if item == "" {
			n.drop(TablePurchaseOrders, i, "empty item", nil)
			continue
		}
		qty, err := ParseQuantity(row[models.ColQty])
		if err != nil || !qty.IsPositive() {
			n.drop(TablePurchaseOrders, i, "non-positive quantity", err)
			continue
		}
		date, err := ParseDate(row.Get(models.ColShipDate, models.ColDelivDate))
		if err != nil {
			n.drop(TablePurchaseOrders, i, "bad date", err)
			continue
		}

		ev := inboundEvent(date, item, raw, qty, models.SourcePurchaseOrder)
		ev.Vendor = vendor
		ev.OrderNo = row.Get(models.ColOrderNo)
		events = append(events, ev)
	}
	return events, nil
}

// Inventory reads the on-hand snapshot. Opening stock is last-wins per item;
// open sales-order and PO totals are summed.
func (n *Normalizer) Inventory(t models.Table) ([]models.OpeningStock, map[string]models.Commitments, error) {
	if err := requireColumns(t, TableInventory, models.ColItem, models.ColOnHand); err != nil {
		return nil, nil, err
	}

	index := make(map[string]int)
	var opening []models.OpeningStock
	commitments := make(map[string]models.Commitments)

	for i, row := range t.Rows {
		item := n.keys.Key(row.Get(models.ColItem))
		if item == "" {
			n.drop(TableInventory, i, "empty item", nil)
			continue
		}

		c := commitments[item]
		if v, err := ParseQuantity(row[models.ColOnSalesOrder]); err == nil {
			c.OnSalesOrder = c.OnSalesOrder.Add(v)
		}
		if v, err := ParseQuantity(row[models.ColOnPO]); err == nil {
			c.OnPO = c.OnPO.Add(v)
		}
		commitments[item] = c

		onHand, err := ParseQuantity(row[models.ColOnHand])
		if err != nil {
			n.drop(TableInventory, i, "bad on-hand", err)
			continue
		}
		if pos, ok := index[item]; ok {
			opening[pos].Opening = onHand
			continue
		}
		index[item] = len(opening)
		opening = append(opening, models.OpeningStock{Item: item, Opening: onHand})
	}
	return opening, commitments, nil
}

func inboundEvent(date time.Time, item, raw string, qty decimal.Decimal, source models.Source) models.Event {
	return models.Event{
		Date:    date,
		Item:    item,
		ItemRaw: raw,
		Delta:   qty,
		Kind:    models.KindIn,
		Source:  source,
	}
}
