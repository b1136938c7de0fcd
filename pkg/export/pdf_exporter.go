package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets into a landscape tabular PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

func (e *PDFExporter) ContentType() string { return "application/pdf" }

func (e *PDFExporter) Extension() string { return "pdf" }

// Render creates a PDF document with the dataset title, a table body and the
// summary block.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if data.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(data.Title), "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	widths := columnWidths(data.Headers, 277.0)
	header := func() {
		pdf.SetFont("Arial", "B", 9)
		for i, h := range data.Headers {
			pdf.CellFormat(widths[i], 8, tr(h), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}
	header()

	pdf.SetFont("Arial", "", 9)
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, row := range data.Rows {
		if pdf.GetY()+7 > pageHeight-bottom {
			pdf.AddPage()
			header()
			pdf.SetFont("Arial", "", 9)
		}
		for i, h := range data.Headers {
			pdf.CellFormat(widths[i], 7, tr(row[h]), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(data.Summary) > 0 {
		pdf.Ln(4)
		for _, line := range data.Summary {
			pdf.SetFont("Arial", "B", 10)
			pdf.CellFormat(60, 7, tr(line.Label), "", 0, "", false, 0, "")
			pdf.SetFont("Arial", "", 10)
			pdf.CellFormat(0, 7, tr(line.Value), "", 1, "", false, 0, "")
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths gives wide text columns such as a course name a larger share.
func columnWidths(headers []string, total float64) []float64 {
	weights := make([]float64, len(headers))
	var sum float64
	for i, h := range headers {
		weights[i] = 1
		if h == "Name" || h == "Term" {
			weights[i] = 3
		}
		sum += weights[i]
	}
	widths := make([]float64, len(headers))
	for i := range weights {
		widths[i] = total * weights[i] / sum
	}
	return widths
}
