package csvfile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockledger/internal/domain/models"
	"github.com/mamadbah2/stockledger/internal/export"
)

func TestReadTableCanonicalizesHeader(t *testing.T) {
	content := "\xef\xbb\xbfItem,Qty(-),Ship Date,QB Num\n" +
		"SSD-1TB,\"1,200\",03/05/2025,SO-1\n" +
		",,,\n" +
		"NRU-100,2\n"

	table, err := ReadTable("demand", strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, []string{models.ColItem, models.ColQty, models.ColShipDate, models.ColOrderNo}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "1,200", table.Rows[0].Get(models.ColQty))
	assert.Equal(t, "SO-1", table.Rows[0].Get(models.ColOrderNo))
	assert.Equal(t, "", table.Rows[1].Get(models.ColShipDate))
}

func TestDirectoryMissingFileIsEmpty(t *testing.T) {
	dir := NewDirectory(t.TempDir())

	table, err := dir.ReadTable("purchase_orders")
	require.NoError(t, err)
	assert.False(t, table.Present())
	assert.Equal(t, "purchase_orders", table.Name)
}

func TestDirectoryRoundTrip(t *testing.T) {
	root := filepath.Join(t.TempDir(), "out")
	dir := NewDirectory(root)

	sheet := export.Sheet{
		Header: []string{"Item", "On Hand"},
		Rows:   [][]string{{"SSD-1TB", "12"}},
	}
	require.NoError(t, dir.WriteSheet("inventory", sheet))

	raw, err := os.ReadFile(filepath.Join(root, "inventory.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Item,On Hand\nSSD-1TB,12\n", string(raw))

	table, err := dir.ReadTable("inventory")
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "12", table.Rows[0].Get(models.ColOnHand))
}

func TestWriteSheetQuotes(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSheet(&buf, export.Sheet{Header: []string{"Note"}, Rows: [][]string{{"a, b"}}})
	require.NoError(t, err)
	assert.Equal(t, "Note\n\"a, b\"\n", buf.String())
}
