package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"
)

// Dataset is a titled table. Every row must have one value per header.
type Dataset struct {
	Headers []string
	Rows    [][]string
}

// AddRow appends a row, padding or truncating it to the header width.
func (d *Dataset) AddRow(values ...string) {
	row := make([]string, len(d.Headers))
	copy(row, values)
	d.Rows = append(d.Rows, row)
}

// CSVExporter renders datasets as CSV.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for i, row := range data.Rows {
		if len(row) != len(data.Headers) {
			return nil, fmt.Errorf("csv row %d has %d values, want %d", i, len(row), len(data.Headers))
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename builds a download name such as "debtors_20250910.csv".
func Filename(prefix, ext string, at time.Time) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ':
			return '_'
		}
		return -1
	}, prefix)
	if clean == "" {
		clean = "export"
	}
	return fmt.Sprintf("%s_%s.%s", clean, at.Format("20060102"), strings.TrimPrefix(ext, "."))
}
