package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFOptions controls the table document layout.
type PDFOptions struct {
	Title     string
	Subtitle  string
	Landscape bool
	// Widths are relative column weights; equal widths when empty.
	Widths []float64
}

// PDFExporter renders datasets into a tabular PDF with a repeating header row.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document for the dataset.
func (e *PDFExporter) Render(data Dataset, opts PDFOptions) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	orientation := "P"
	if opts.Landscape {
		orientation = "L"
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	widths := columnWidths(pageWidth-left-right, len(data.Headers), opts.Widths)

	headerRow := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, header := range data.Headers {
			pdf.CellFormat(widths[i], 8, tr(header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			headerRow()
		}
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	if opts.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 9, tr(strings.ToUpper(opts.Title)), "", 1, "C", false, 0, "")
	}
	if opts.Subtitle != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, tr(opts.Subtitle), "", 1, "C", false, 0, "")
	}
	if opts.Title != "" || opts.Subtitle != "" {
		pdf.Ln(4)
	}

	headerRow()
	for _, row := range data.Rows {
		for i := range data.Headers {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			pdf.CellFormat(widths[i], 7, tr(value), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(total float64, n int, weights []float64) []float64 {
	widths := make([]float64, n)
	sum := 0.0
	if len(weights) == n {
		for _, w := range weights {
			sum += w
		}
	}
	for i := range widths {
		if sum > 0 {
			widths[i] = total * weights[i] / sum
		} else {
			widths[i] = total / float64(n)
		}
	}
	return widths
}
