package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockledger/internal/domain/models"
	"github.com/mamadbah2/stockledger/internal/repository/csvfile"
)

func writeInputs(t *testing.T) string {
	dir := t.TempDir()
	files := map[string]string{
		"demand.csv":    "Item,Qty(-),Ship Date,QB Num,Name\nX,15,2025-03-06,SO-1,Acme\n",
		"shipments.csv": "Ship Date,Item,Description,Qty(+),Pre/Bare\n2025-03-10,X,,20,Bare\n",
		"inventory.csv": "Item,On Hand,On Sales Order,On PO\nX,10,15,0\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestRunPrintsDigestAndWritesOutputs(t *testing.T) {
	input := writeInputs(t)
	output := filepath.Join(t.TempDir(), "out")

	var buf bytes.Buffer
	err := run(options{InputDir: input, OutputDir: output, AsOf: "2025-03-01", LogLevel: "error"}, &buf)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "Shortage digest as of 2025-03-01")
	assert.Contains(t, buf.String(), "- X: min -5 first short 2025-03-06, order 5")
	assert.Contains(t, buf.String(), "2025-03-06 X Acme (SO-1) qty 15 balance -5")

	for _, name := range []string{"ledger", "item_summary", "atp", "violations"} {
		assert.FileExists(t, filepath.Join(output, name+".csv"))
	}
	violations, err := csvfile.NewDirectory(output).ReadTable("violations")
	require.NoError(t, err)
	require.Len(t, violations.Rows, 1)
	assert.Equal(t, "X", violations.Rows[0].Get(models.ColItem))
}

func TestRunPromiseQuery(t *testing.T) {
	input := writeInputs(t)

	var buf bytes.Buffer
	err := run(options{InputDir: input, AsOf: "2025-03-01", Item: "x", Qty: "10", LogLevel: "error"}, &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "10 x X can be promised on 2025-03-15.")
	assert.Contains(t, buf.String(), "X [SHORT]")

	buf.Reset()
	err = run(options{InputDir: input, AsOf: "2025-03-01", Item: "X", Qty: "15", Strict: true, LogLevel: "error"}, &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "15 x X cannot be promised")
}

func TestRunErrors(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, run(options{}, &buf))
	assert.Error(t, run(options{InputDir: writeInputs(t), AsOf: "someday", LogLevel: "error"}, &buf))
	assert.Error(t, run(options{InputDir: writeInputs(t), Item: "X", Qty: "-1", LogLevel: "error"}, &buf))

	missing := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(missing, "demand.csv"), []byte("Item,Ship Date\nX,2025-03-06\n"), 0o644))
	err := run(options{InputDir: missing, LogLevel: "error"}, &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required column missing")
}
