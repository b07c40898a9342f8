package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadOptions controls how a file is read and how its fields are coerced.
type LoadOptions struct {
	// Delimiter for CSV. If 0, chosen from the file extension ('\t' for .tsv, ',' otherwise).
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune // optional; if 0, auto-detect common separators (',' '.' space)
	// MaxRows limits rows kept; 0 means unlimited. Rows past the limit are still counted.
	MaxRows int
	// XLSX sheet selection. SheetName wins over SheetIndex (1-based).
	SheetName  string
	SheetIndex int
	// Unit normalization: convert values to target units using simple mappings.
	UnitNormalize bool
	UnitTargets   map[string]string // map[fromUnit]toUnit, e.g., {"g/L":"mg/L", "°F":"°C"}
}

// DefaultLoadOptions returns reasonable defaults for loading a dataset.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		MaxRows:       100000,
		UnitNormalize: true,
		UnitTargets: map[string]string{
			"g/L":  "mg/L",
			"ug/L": "mg/L",
			"°F":   "°C",
		},
	}
}

// Table is the raw text grid a Loader produces: one header row plus data rows,
// every row padded to the header width.
type Table struct {
	Name   string
	Sheet  string
	Header []string
	Rows   [][]string
	// Total counts every data row in the source, including those past MaxRows.
	Total int
}

func (t *Table) add(rec []string, maxRows int) {
	t.Total++
	if maxRows > 0 && len(t.Rows) >= maxRows {
		return
	}
	row := make([]string, len(t.Header))
	copy(row, rec)
	t.Rows = append(t.Rows, row)
}

// Loader reads one file format into a Table.
type Loader interface {
	CanLoad(filename string) bool
	Load(path string, opt LoadOptions) (*Table, error)
}

var registry []Loader

// Register adds a loader implementation to the registry. The first loader
// whose CanLoad reports true handles the file.
func Register(l Loader) {
	registry = append(registry, l)
}

func init() {
	Register(xlsxLoader{})
	Register(csvLoader{})
}

// ErrEmpty indicates a file without a header row.
var ErrEmpty = errors.New("dataset has no header row")

// ReadTable selects a loader based on filename and returns the raw table.
// Files no loader claims are read as delimited text.
func ReadTable(path string, opt LoadOptions) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat dataset: %w", err)
	}
	for _, l := range registry {
		if l.CanLoad(path) {
			return l.Load(path, opt)
		}
	}
	return csvLoader{}.Load(path, opt)
}

// Load reads path and coerces it into a Dataset.
func Load(path string, opt LoadOptions) (*Dataset, error) {
	t, err := ReadTable(path, opt)
	if err != nil {
		return nil, err
	}
	if len(t.Header) == 0 {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), ErrEmpty)
	}
	return FromTable(t, opt), nil
}

func hasExt(name string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
