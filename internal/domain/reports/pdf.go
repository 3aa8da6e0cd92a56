package reports

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// RenderPDF lays out a score report on a single A4 page.
func RenderPDF(r ScoreReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, tr(fmt.Sprintf("Evaluación de desempeño %d", r.Year)))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Empleado: %s", r.Employee.Name)))
	pdf.Ln(7)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Área: %s  /  Sector: %s", r.Employee.AreaName, r.Employee.SectorName)))
	pdf.Ln(7)
	status := "Abierto"
	if r.Closed {
		status = "Cerrado"
	}
	pdf.Cell(0, 8, tr("Estado: "+status))
	pdf.Ln(10)

	if len(r.Objectives) > 0 {
		section(pdf, tr("Objetivos"), []string{"Nombre", "Peso", "Actual", "Periodo"})
		for _, o := range r.Objectives {
			actual := fmt.Sprintf("%.1f", o.Actual)
			if o.Missing {
				actual = "-"
			}
			row(pdf, tr(o.Name), fmt.Sprintf("%.1f", o.EffectiveWeight), actual, o.Period)
		}
		pdf.Ln(4)
	}
	if len(r.Competencies) > 0 {
		section(pdf, tr("Competencias"), []string{"Nombre", "", "Escala", "Periodo"})
		for _, c := range r.Competencies {
			scale := fmt.Sprintf("%.0f", c.Scale)
			if c.Missing {
				scale = "-"
			}
			row(pdf, tr(c.Name), "", scale, c.Period)
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Aporte objetivos: %.1f", r.Breakdown.Objectives)))
	pdf.Ln(7)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Aporte competencias: %.1f", r.Breakdown.Competences)))
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Puntaje global: %.1f", r.Breakdown.Global)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var columnWidths = []float64{90, 25, 25, 40}

func section(pdf *gofpdf.Fpdf, title string, headers []string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(columnWidths[i], 7, h, "B", 0, "L", false, 0, "")
	}
	pdf.Ln(7)
}

func row(pdf *gofpdf.Fpdf, cols ...string) {
	pdf.SetFont("Helvetica", "", 10)
	for i, c := range cols {
		pdf.CellFormat(columnWidths[i], 6, c, "", 0, "L", false, 0, "")
	}
	pdf.Ln(6)
}
