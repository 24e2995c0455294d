package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// FormField is a labelled value line.
type FormField struct {
	Label string
	Value string
}

// FormCheckGroup renders a row of checkboxes under a heading.
type FormCheckGroup struct {
	Heading string
	Options []string
	Checked map[string]bool
}

// Form describes a single page form document.
type Form struct {
	Title  string
	Fields []FormField
	Groups []FormCheckGroup
	Footer string
}

// PDFFormRenderer renders forms with gofpdf.
type PDFFormRenderer struct{}

// NewPDFFormRenderer constructs a renderer.
func NewPDFFormRenderer() *PDFFormRenderer {
	return &PDFFormRenderer{}
}

// Render produces the PDF bytes for form.
func (r *PDFFormRenderer) Render(form Form) ([]byte, error) {
	if len(form.Fields) == 0 {
		return nil, fmt.Errorf("pdf form requires at least one field")
	}
	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	if form.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(form.Title), "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	for _, field := range form.Fields {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(60, 8, field.Label, "1", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 8, field.Value, "1", 1, "", false, 0, "")
	}

	for _, group := range form.Groups {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 8, group.Heading, "", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		for _, option := range group.Options {
			mark := " "
			if group.Checked[option] {
				mark = "X"
			}
			pdf.CellFormat(6, 6, mark, "1", 0, "C", false, 0, "")
			pdf.CellFormat(40, 6, " "+option, "", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if form.Footer != "" {
		pdf.Ln(8)
		pdf.SetFont("Arial", "I", 8)
		pdf.MultiCell(0, 5, form.Footer, "", "", false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
