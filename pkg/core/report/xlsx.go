package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary      = "Summary"
	sheetProjection   = "Projection"
	sheetAmortization = "Amortization"
	sheetSensitivity  = "Sensitivity"
)

// Built-in excelize number formats.
const (
	numFmtThousands = 4 // #,##0.00
	numFmtDecimal   = 2 // 0.00
)

// XLSX renders d as a workbook with one sheet per table. Numbers are written
// as numbers so the committee can re-run the arithmetic in the sheet.
func XLSX(d *Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	w, err := newSheetWriter(f)
	if err != nil {
		return nil, err
	}

	if err := w.summary(d); err != nil {
		return nil, err
	}
	if err := w.projection(d); err != nil {
		return nil, err
	}
	if len(d.Result.Amortization) > 0 {
		if err := w.amortization(d); err != nil {
			return nil, err
		}
	}
	if d.Grid != nil && len(d.Grid.Cells) > 0 {
		if err := w.sensitivity(d); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

type sheetWriter struct {
	f        *excelize.File
	header   int
	money    int
	decimal2 int
}

func newSheetWriter(f *excelize.File) (*sheetWriter, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: numFmtThousands})
	if err != nil {
		return nil, fmt.Errorf("failed to create number style: %w", err)
	}
	decimal2, err := f.NewStyle(&excelize.Style{NumFmt: numFmtDecimal})
	if err != nil {
		return nil, fmt.Errorf("failed to create number style: %w", err)
	}
	return &sheetWriter{f: f, header: header, money: money, decimal2: decimal2}, nil
}

func (w *sheetWriter) writeHeader(sheet string, columns []string) error {
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := w.f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
		if err := w.f.SetCellStyle(sheet, cell, cell, w.header); err != nil {
			return err
		}
	}
	last, _ := excelize.ColumnNumberToName(len(columns))
	if err := w.f.SetColWidth(sheet, "A", last, 18); err != nil {
		return err
	}
	return w.f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// writeRow writes values from column A of row. style applies from column B.
func (w *sheetWriter) writeRow(sheet string, row int, values []interface{}, style int) error {
	start, _ := excelize.CoordinatesToCellName(1, row)
	if err := w.f.SetSheetRow(sheet, start, &values); err != nil {
		return err
	}
	if len(values) < 2 || style == 0 {
		return nil
	}
	from, _ := excelize.CoordinatesToCellName(2, row)
	to, _ := excelize.CoordinatesToCellName(len(values), row)
	return w.f.SetCellStyle(sheet, from, to, style)
}

func (w *sheetWriter) summary(d *Document) error {
	if err := w.writeHeader(sheetSummary, []string{"Metric", "Value"}); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}
	for i, l := range summaryLines(d.Result) {
		if err := w.writeRow(sheetSummary, i+2, []interface{}{l.Label, l.Value}, 0); err != nil {
			return fmt.Errorf("summary sheet: %w", err)
		}
	}
	return nil
}

func (w *sheetWriter) projection(d *Document) error {
	if _, err := w.f.NewSheet(sheetProjection); err != nil {
		return fmt.Errorf("projection sheet: %w", err)
	}
	if err := w.writeHeader(sheetProjection, projectionHeader); err != nil {
		return fmt.Errorf("projection sheet: %w", err)
	}
	for i, r := range d.Result.Rows {
		values := []interface{}{r.Year, r.Revenue, r.Expenses, r.NOI, r.DebtService, r.CashFlow, r.CashOnCashPct}
		if err := w.writeRow(sheetProjection, i+2, values, w.money); err != nil {
			return fmt.Errorf("projection sheet: %w", err)
		}
	}
	return nil
}

func (w *sheetWriter) amortization(d *Document) error {
	if _, err := w.f.NewSheet(sheetAmortization); err != nil {
		return fmt.Errorf("amortization sheet: %w", err)
	}
	if err := w.writeHeader(sheetAmortization, amortizationHeader); err != nil {
		return fmt.Errorf("amortization sheet: %w", err)
	}
	for i, r := range d.Result.Amortization {
		values := []interface{}{r.Year, r.Payment, r.Interest, r.Principal, r.EndingBalance}
		if err := w.writeRow(sheetAmortization, i+2, values, w.money); err != nil {
			return fmt.Errorf("amortization sheet: %w", err)
		}
	}
	return nil
}

func (w *sheetWriter) sensitivity(d *Document) error {
	g := d.Grid
	if _, err := w.f.NewSheet(sheetSensitivity); err != nil {
		return fmt.Errorf("sensitivity sheet: %w", err)
	}
	header := []string{fmt.Sprintf("%s \\ %s", g.Rows.Variable, g.Cols.Variable)}
	for _, v := range g.Cols.Values {
		header = append(header, fmt.Sprintf("%g", v))
	}
	if err := w.writeHeader(sheetSensitivity, header); err != nil {
		return fmt.Errorf("sensitivity sheet: %w", err)
	}
	for i, rv := range g.Rows.Values {
		values := []interface{}{rv}
		for j := range g.Cols.Values {
			irr := g.Cells[i][j].LeveredIRR
			if irr.Available {
				values = append(values, irr.Value)
			} else {
				values = append(values, "n/a")
			}
		}
		if err := w.writeRow(sheetSensitivity, i+2, values, w.decimal2); err != nil {
			return fmt.Errorf("sensitivity sheet: %w", err)
		}
	}
	return nil
}
