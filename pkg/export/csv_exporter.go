package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset defines tabular export content. Summary lines are rendered after the
// table body as label/value pairs.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
	Summary []SummaryLine
}

// SummaryLine is one trailing label/value pair, e.g. a cumulative GPA.
type SummaryLine struct {
	Label string
	Value string
}

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// ContentType reports the MIME type of rendered output.
func (e *CSVExporter) ContentType() string { return "text/csv; charset=utf-8" }

// Extension reports the file extension of rendered output.
func (e *CSVExporter) Extension() string { return "csv" }

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
	for _, row := range data.Rows {
		if err := writer.Write(record(data.Headers, row)); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	if len(data.Summary) > 0 {
		if err := writer.Write(nil); err != nil {
			return nil, fmt.Errorf("write csv separator: %w", err)
		}
		for _, line := range data.Summary {
			if err := writer.Write([]string{line.Label, line.Value}); err != nil {
				return nil, fmt.Errorf("write csv summary: %w", err)
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func record(headers []string, row map[string]string) []string {
	values := make([]string, len(headers))
	for i, header := range headers {
		values[i] = row[header]
	}
	return values
}
