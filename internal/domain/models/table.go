package models

import (
	"strings"
	"unicode"
)

// Canonical column names understood by the normalizers.
const (
	ColItem         = "item"
	ColDescription  = "description"
	ColQty          = "qty"
	ColShipDate     = "ship_date"
	ColDelivDate    = "deliv_date"
	ColPreBare      = "pre_bare"
	ColOrderNo      = "order_no"
	ColCustomerPO   = "customer_po"
	ColCustomer     = "customer"
	ColName         = "name"
	ColVendor       = "vendor"
	ColSourceName   = "source_name"
	ColOnHand       = "on_hand"
	ColOnSalesOrder = "on_sales_order"
	ColOnPO         = "on_po"
)

// headerAliases maps folded spreadsheet headers onto canonical column names.
var headerAliases = map[string]string{
	"qty":            ColQty,
	"quantity":       ColQty,
	"confirmed_qty":  ColQty,
	"lead_time":      ColShipDate,
	"ship_date":      ColShipDate,
	"deliv_date":     ColDelivDate,
	"delivery_date":  ColDelivDate,
	"qb_num":         ColOrderNo,
	"num":            ColOrderNo,
	"p_o":            ColCustomerPO,
	"customer_po":    ColCustomerPO,
	"part_number":    ColItem,
	"model_name":     ColItem,
	"item":           ColItem,
	"memo":           ColDescription,
	"on_hand":        ColOnHand,
	"on_sales_order": ColOnSalesOrder,
	"on_po":          ColOnPO,
}

// CanonicalColumn folds a raw header ("Qty(-)", "P. O. #", "Ship Date") into
// its canonical snake_case name.
func CanonicalColumn(header string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(header)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	folded := b.String()
	if alias, ok := headerAliases[folded]; ok {
		return alias
	}
	return folded
}

// Row is one record keyed by canonical column name.
type Row map[string]string

// Get returns the trimmed value of the first listed column that is non-empty.
func (r Row) Get(columns ...string) string {
	for _, column := range columns {
		if value := strings.TrimSpace(r[column]); value != "" {
			return value
		}
	}
	return ""
}

// Table is a named tabular input with canonicalized headers.
type Table struct {
	Name   string
	Header []string
	Rows   []Row
}

// NewTable canonicalizes header and zips every record into a Row. When two raw
// headers fold to the same column the first non-empty value wins.
func NewTable(name string, header []string, records [][]string) Table {
	canonical := make([]string, len(header))
	for i, column := range header {
		canonical[i] = CanonicalColumn(column)
	}

	rows := make([]Row, 0, len(records))
	for _, record := range records {
		row := make(Row, len(canonical))
		empty := true
		for i, column := range canonical {
			if column == "" || i >= len(record) {
				continue
			}
			value := record[i]
			if strings.TrimSpace(value) != "" {
				empty = false
			}
			if existing, ok := row[column]; ok && strings.TrimSpace(existing) != "" {
				continue
			}
			row[column] = value
		}
		if empty {
			continue
		}
		rows = append(rows, row)
	}

	return Table{Name: name, Header: canonical, Rows: rows}
}

// Has reports whether the table carries the canonical column.
func (t Table) Has(column string) bool {
	for _, h := range t.Header {
		if h == column {
			return true
		}
	}
	return false
}

// Present reports whether the table was supplied at all.
func (t Table) Present() bool {
	return len(t.Header) > 0
}
