package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfFont     = "Arial"
	pdfMarginMM = 15.0
)

// PDF renders d as an A4 landscape document.
func PDF(d *Document) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMarginMM, 20, pdfMarginMM)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetTitle(d.Title(), false)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(pdfFont, "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont(pdfFont, "B", 16)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 10, d.Title(), "", 1, "C", false, 0, "")
	if d.Property.Address != "" {
		pdf.SetFont(pdfFont, "", 11)
		pdf.CellFormat(0, 7, d.Property.Address, "", 1, "C", false, 0, "")
	}
	pdf.Ln(6)

	pdfSection(pdf, "Returns")
	pdf.SetFont(pdfFont, "", 10)
	for _, l := range summaryLines(d.Result) {
		pdf.SetFont(pdfFont, "B", 10)
		pdf.CellFormat(60, 6, l.Label+":", "", 0, "L", false, 0, "")
		pdf.SetFont(pdfFont, "", 10)
		pdf.CellFormat(0, 6, l.Value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	if len(d.Result.Rows) > 0 {
		pdfSection(pdf, "Annual Projection")
		pdfTable(pdf, projectionHeader, projectionCells(d.Result))
	}

	if len(d.Result.Amortization) > 0 {
		pdfSection(pdf, "Loan Amortization")
		pdfTable(pdf, amortizationHeader, amortizationCells(d.Result))
	}

	if d.Grid != nil && len(d.Grid.Cells) > 0 {
		pdfSection(pdf, "Sensitivity: Levered IRR")
		header, rows := gridCells(d.Grid)
		pdfTable(pdf, header, rows)
	}

	if len(d.Violations) > 0 {
		pdfSection(pdf, "Advisory Notes")
		pdf.SetFont(pdfFont, "", 10)
		for _, v := range d.Violations {
			pdf.MultiCell(0, 6, "- "+v.Message, "", "L", false)
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to build pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func pdfSection(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont(pdfFont, "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
}

// pdfTable draws an evenly split table across the printable width with a
// repeated header after each page break.
func pdfTable(pdf *gofpdf.Fpdf, header []string, rows [][]string) {
	pageW, pageH := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	width := (pageW - 2*pdfMarginMM) / float64(len(header))

	drawHeader := func() {
		pdf.SetFont(pdfFont, "B", 9)
		pdf.SetFillColor(68, 114, 196)
		pdf.SetTextColor(255, 255, 255)
		for _, h := range header {
			pdf.CellFormat(width, 7, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont(pdfFont, "", 9)
		pdf.SetTextColor(0, 0, 0)
	}

	drawHeader()
	for i, row := range rows {
		if pdf.GetY()+7 > pageH-bottom {
			pdf.AddPage()
			drawHeader()
		}
		fill := i%2 == 1
		pdf.SetFillColor(242, 242, 242)
		for j, v := range row {
			align := "R"
			if j == 0 {
				align = "L"
			}
			pdf.CellFormat(width, 7, v, "1", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}
