package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mamadbah2/stockledger/internal/domain/models"
	"github.com/mamadbah2/stockledger/internal/export"
)

// Directory reads input tables from, and writes output tables to, a folder of
// CSV exports named "<table>.csv".
type Directory struct {
	Root string
}

// NewDirectory creates a CSV repository rooted at dir.
func NewDirectory(dir string) *Directory {
	return &Directory{Root: dir}
}

func (d *Directory) path(name string) string {
	return filepath.Join(d.Root, name+".csv")
}

// ReadTable loads <name>.csv. A missing file yields an empty table so optional
// inputs can be left out of the folder.
func (d *Directory) ReadTable(name string) (models.Table, error) {
	file, err := os.Open(d.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return models.Table{Name: name}, nil
	}
	if err != nil {
		return models.Table{}, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer file.Close()

	return ReadTable(name, file)
}

// ReadTable parses CSV content whose first record is the header.
func ReadTable(name string, r io.Reader) (models.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return models.Table{}, fmt.Errorf("failed to read %s CSV: %w", name, err)
	}
	if len(records) == 0 {
		return models.Table{Name: name}, nil
	}
	return models.NewTable(name, stripBOM(records[0]), records[1:]), nil
}

// WriteSheet writes an output table as <name>.csv, replacing any previous file.
func (d *Directory) WriteSheet(name string, sheet export.Sheet) error {
	if err := os.MkdirAll(d.Root, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", d.Root, err)
	}
	file, err := os.Create(d.path(name))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if err := WriteSheet(file, sheet); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return file.Close()
}

// WriteSheet encodes sheet as CSV.
func WriteSheet(w io.Writer, sheet export.Sheet) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(sheet.Records()); err != nil {
		return err
	}
	return writer.Error()
}

// Excel exports often start with a UTF-8 byte order mark.
func stripBOM(header []string) []string {
	if len(header) > 0 && len(header[0]) >= 3 && header[0][:3] == "\xef\xbb\xbf" {
		header = append([]string{header[0][3:]}, header[1:]...)
	}
	return header
}
